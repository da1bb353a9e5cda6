package redis

import (
	"strings"
	"testing"
)

func TestKeyBuilder_Environment_Prefixes(t *testing.T) {
	tests := []struct {
		name           string
		environment    string
		expectedPrefix string
	}{
		{
			name:           "Production environment should use prod prefix",
			environment:    "production",
			expectedPrefix: "prod",
		},
		{
			name:           "Development environment should use staging prefix",
			environment:    "development",
			expectedPrefix: "staging",
		},
		{
			name:           "Staging environment should use staging prefix",
			environment:    "staging",
			expectedPrefix: "staging",
		},
		{
			name:           "Test environment keeps its own prefix",
			environment:    "test",
			expectedPrefix: "test",
		},
		{
			name:           "Unknown environment should default to prod prefix",
			environment:    "unknown",
			expectedPrefix: "prod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := NewKeyBuilder(tt.environment)
			if kb.GetPrefix() != tt.expectedPrefix {
				t.Errorf("NewKeyBuilder(%s).GetPrefix() = %s, want %s",
					tt.environment, kb.GetPrefix(), tt.expectedPrefix)
			}
		})
	}
}

func TestKeyBuilder_KeyGeneration(t *testing.T) {
	kb := NewKeyBuilder("production")

	tests := []struct {
		name     string
		method   func() string
		expected string
	}{
		{
			name:     "PollTally key",
			method:   func() string { return kb.KeyPollTally("post-1", 3) },
			expected: "clubs:prod:board:post:post-1:tally:3",
		},
		{
			name:     "PollTallyGeneration key",
			method:   func() string { return kb.KeyPollTallyGeneration("post-1") },
			expected: "clubs:prod:board:post:post-1:tally:gen",
		},
		{
			name:     "PollVoted key",
			method:   func() string { return kb.KeyPollVoted("post-1", "user-9") },
			expected: "clubs:prod:board:post:post-1:voter:user-9",
		},
		{
			name:     "VoteLock key",
			method:   func() string { return kb.KeyVoteLock("post-1", "user-9") },
			expected: "clubs:prod:board:post:post-1:lock:user-9",
		},
		{
			name:     "InviteCode key",
			method:   func() string { return kb.KeyInviteCode("abc") },
			expected: "clubs:prod:club:invite:abc",
		},
		{
			name:     "ClubSummary key",
			method:   func() string { return kb.KeyClubSummary("club-1") },
			expected: "clubs:prod:club:club-1:summary",
		},
		{
			name:     "LoginFailures key",
			method:   func() string { return kb.KeyLoginFailures("a@b.c", "203.0.113.7") },
			expected: "clubs:prod:auth:login:a@b.c:203.0.113.7:failures",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.method(); got != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestKeyBuilder_EnvironmentIsolation(t *testing.T) {
	prod := NewKeyBuilder("production")
	staging := NewKeyBuilder("staging")

	a := prod.KeyPollTally("post-1", 0)
	b := staging.KeyPollTally("post-1", 0)

	if a == b {
		t.Fatalf("expected keys to differ across environments, both were %s", a)
	}
	if !strings.HasSuffix(a, "board:post:post-1:tally") || !strings.HasSuffix(b, "board:post:post-1:tally") {
		t.Errorf("unexpected key layout: %s / %s", a, b)
	}
}
