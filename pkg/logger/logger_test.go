package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"nonsense", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	base, err := New("debug")
	require.NoError(t, err)

	scoped := base.WithField("request_id", "abc")
	ctx := NewContext(context.Background(), scoped)

	assert.Same(t, scoped, FromContext(ctx, base))
	assert.Same(t, base, FromContext(context.Background(), base))
}
