package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	switch environment {
	case "development", "staging":
		prefix = "staging"
	case "test":
		prefix = "test"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("clubs:%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// Board key builders
func (kb *KeyBuilder) KeyPollTally(postID string, generation int64) string {
	return kb.BuildKey(fmt.Sprintf(KeyPollTally, postID, generation))
}

func (kb *KeyBuilder) KeyPollTallyGeneration(postID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyPollTallyGeneration, postID))
}

func (kb *KeyBuilder) KeyPollVoted(postID, userID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyPollVoted, postID, userID))
}

func (kb *KeyBuilder) KeyVoteLock(postID, userID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyVoteLock, postID, userID))
}

// Club key builders
func (kb *KeyBuilder) KeyInviteCode(code string) string {
	return kb.BuildKey(fmt.Sprintf(KeyInviteCode, code))
}

func (kb *KeyBuilder) KeyClubSummary(clubID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyClubSummary, clubID))
}

// Auth key builders
func (kb *KeyBuilder) KeyLoginFailures(email, clientIP string) string {
	return kb.BuildKey(fmt.Sprintf(KeyLoginFailures, email, clientIP))
}
