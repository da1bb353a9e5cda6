package container

import (
	"context"
	"testing"
	"time"

	"club-api/internal/config"
	"club-api/pkg/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:    "test",
		JWTSecret:      "secret",
		JWTTTL:         time.Hour,
		InviteJoinRole: "ADMIN",
		LoginRateLimit: 10,
	}
}

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name        string
		mutate      func(c *config.Config)
		expectRedis bool
		expectError bool
	}{
		{
			name:        "memory store without Redis",
			mutate:      func(c *config.Config) {},
			expectRedis: false,
		},
		{
			name:        "with Redis",
			mutate:      func(c *config.Config) { c.RedisURL = "redis://" + mr.Addr() },
			expectRedis: true,
		},
		{
			name:        "invalid Redis URL degrades to no cache",
			mutate:      func(c *config.Config) { c.RedisURL = "not-a-url" },
			expectRedis: false,
		},
		{
			name:        "production without database",
			mutate:      func(c *config.Config) { c.Environment = "production" },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			c, err := New(context.Background(), cfg, logger.NewNop())
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.expectRedis, c.HasRedis())
			assert.NotNil(t, c.Services.Auth)
			assert.NotNil(t, c.Services.Membership)
			assert.NotNil(t, c.Services.Attendance)
			assert.NotNil(t, c.Services.Board)
			assert.NotNil(t, c.Services.Schedule)
			assert.Same(t, cfg, c.GetConfig())
		})
	}
}

func TestHealth(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr()

	c, err := New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)

	status := c.Health(context.Background())
	assert.Equal(t, "memory", status["database"])
	assert.Equal(t, "healthy", status["redis"])

	mr.Close()
	status = c.Health(context.Background())
	assert.Equal(t, "unhealthy", status["redis"])
}
