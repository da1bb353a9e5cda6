package service

import (
	"context"
	"errors"
	"time"

	"club-api/internal/domain"
	"club-api/pkg/redis"
	"go.uber.org/zap"
)

// CacheService wraps Redis for read-through caching and vote guards.
// A nil *CacheService, or one built without a client, turns every call into a
// pass-through so the service works without Redis.
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		redis:  redisClient,
		logger: logger,
	}
}

func (c *CacheService) enabled() bool {
	return c != nil && c.redis != nil
}

// GetTally returns the cached poll tally, computing and caching it on a miss.
// Tallies are cached per generation: the generation is read before the
// database, so a tally computed before a vote lands under a generation that
// InvalidateTally has already retired.
func (c *CacheService) GetTally(ctx context.Context, postID string, dbFallback func(ctx context.Context) (domain.Tally, error)) (domain.Tally, error) {
	if !c.enabled() {
		return dbFallback(ctx)
	}

	generation, ok := c.tallyGeneration(ctx, postID)
	if !ok {
		return dbFallback(ctx)
	}

	key := c.redis.KeyBuilder.KeyPollTally(postID, generation)
	var tally domain.Tally
	err := c.redis.GetJSON(ctx, key, &tally)
	if err == nil {
		c.logger.Debug("Tally cache hit", zap.String("post_id", postID), zap.Int64("generation", generation))
		if tally.Counts == nil {
			tally.Counts = map[string]int{}
		}
		return tally, nil
	}
	if !errors.Is(err, redis.ErrCacheMiss) {
		// Log cache error but continue to database
		c.logger.Warn("Tally cache error, falling back to database",
			zap.String("post_id", postID),
			zap.Error(err))
	}

	tally, err = dbFallback(ctx)
	if err != nil {
		return tally, err
	}

	if err := c.redis.SetJSON(ctx, key, tally, redis.TTLPollTally); err != nil {
		c.logger.Warn("Failed to cache tally", zap.String("post_id", postID), zap.Error(err))
	}
	return tally, nil
}

// tallyGeneration returns the current tally generation of a poll. ok is false
// when Redis cannot answer and the caller must not cache.
func (c *CacheService) tallyGeneration(ctx context.Context, postID string) (int64, bool) {
	var generation int64
	err := c.redis.GetJSON(ctx, c.redis.KeyBuilder.KeyPollTallyGeneration(postID), &generation)
	switch {
	case err == nil:
		return generation, true
	case errors.Is(err, redis.ErrCacheMiss):
		return 0, true
	}
	c.logger.Warn("Tally generation lookup failed", zap.String("post_id", postID), zap.Error(err))
	return 0, false
}

// InvalidateTally retires the cached tally of a poll by moving it to a new
// generation. The generation counter never expires, so a retired generation
// is never reused while its tally may still be cached.
func (c *CacheService) InvalidateTally(ctx context.Context, postID string) {
	if !c.enabled() {
		return
	}
	if _, err := c.redis.Incr(ctx, c.redis.KeyBuilder.KeyPollTallyGeneration(postID), 0); err != nil {
		c.logger.Error("Failed to invalidate tally", zap.String("post_id", postID), zap.Error(err))
	}
}

// ForgetTally drops the tally state of a deleted poll
func (c *CacheService) ForgetTally(ctx context.Context, postID string) {
	if !c.enabled() {
		return
	}
	if err := c.redis.Delete(ctx, c.redis.KeyBuilder.KeyPollTallyGeneration(postID)); err != nil {
		c.logger.Warn("Failed to drop tally generation", zap.String("post_id", postID), zap.Error(err))
	}
}

// HasVoted reports whether a vote marker exists. A false result is not
// authoritative; the database remains the source of truth.
func (c *CacheService) HasVoted(ctx context.Context, postID, userID string) bool {
	if !c.enabled() {
		return false
	}
	n, err := c.redis.Exists(ctx, c.redis.KeyBuilder.KeyPollVoted(postID, userID))
	if err != nil {
		c.logger.Warn("Vote marker lookup failed", zap.String("post_id", postID), zap.Error(err))
		return false
	}
	return n > 0
}

// MarkVoted records that userID has voted on postID
func (c *CacheService) MarkVoted(ctx context.Context, postID, userID, optionID string) {
	if !c.enabled() {
		return
	}
	if err := c.redis.Set(ctx, c.redis.KeyBuilder.KeyPollVoted(postID, userID), optionID, redis.TTLPollVoted); err != nil {
		c.logger.Warn("Failed to cache vote marker", zap.String("post_id", postID), zap.Error(err))
	}
}

// TryVoteLock attempts to acquire a short idempotency lock for one user's vote on one poll.
// Returns true if acquired, false if another request holds it.
func (c *CacheService) TryVoteLock(ctx context.Context, postID, userID string) (bool, error) {
	if !c.enabled() {
		return true, nil
	}
	return c.redis.SetNX(ctx, c.redis.KeyBuilder.KeyVoteLock(postID, userID), "1", redis.TTLVoteLock)
}

// ReleaseVoteLock releases the lock taken by TryVoteLock
func (c *CacheService) ReleaseVoteLock(ctx context.Context, postID, userID string) {
	if !c.enabled() {
		return
	}
	if err := c.redis.Delete(ctx, c.redis.KeyBuilder.KeyVoteLock(postID, userID)); err != nil {
		c.logger.Warn("Failed to release vote lock", zap.String("post_id", postID), zap.Error(err))
	}
}

// GetClubByInviteCode resolves an invite code with a cache-aside lookup
func (c *CacheService) GetClubByInviteCode(ctx context.Context, code string, dbFallback func(ctx context.Context, code string) (*domain.Club, error)) (*domain.Club, error) {
	if !c.enabled() {
		return dbFallback(ctx, code)
	}

	key := c.redis.KeyBuilder.KeyInviteCode(code)
	var club domain.Club
	err := c.redis.GetJSON(ctx, key, &club)
	if err == nil {
		c.logger.Debug("Invite code cache hit", zap.String("club_id", club.ID))
		return &club, nil
	}
	if !errors.Is(err, redis.ErrCacheMiss) {
		c.logger.Warn("Invite code cache error, falling back to database", zap.Error(err))
	}

	found, err := dbFallback(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := c.redis.SetJSON(ctx, key, found, redis.TTLInviteCode); err != nil {
		c.logger.Warn("Failed to cache invite code", zap.String("club_id", found.ID), zap.Error(err))
	}
	return found, nil
}

// InvalidateClub drops every cached entry describing a club
func (c *CacheService) InvalidateClub(ctx context.Context, club *domain.Club) {
	if !c.enabled() || club == nil {
		return
	}
	keys := []string{c.redis.KeyBuilder.KeyClubSummary(club.ID)}
	if club.InviteCode != "" {
		keys = append(keys, c.redis.KeyBuilder.KeyInviteCode(club.InviteCode))
	}
	if err := c.redis.Delete(ctx, keys...); err != nil {
		c.logger.Error("Failed to invalidate club cache", zap.String("club_id", club.ID), zap.Error(err))
	}
}

// GetClubSummary returns a cached summary. ok is false on a miss or error.
func (c *CacheService) GetClubSummary(ctx context.Context, clubID string) (*domain.ClubSummary, bool) {
	if !c.enabled() {
		return nil, false
	}
	var summary domain.ClubSummary
	if err := c.redis.GetJSON(ctx, c.redis.KeyBuilder.KeyClubSummary(clubID), &summary); err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			c.logger.Warn("Club summary cache error", zap.String("club_id", clubID), zap.Error(err))
		}
		return nil, false
	}
	return &summary, true
}

// SetClubSummary caches a freshly built summary
func (c *CacheService) SetClubSummary(ctx context.Context, summary *domain.ClubSummary) {
	if !c.enabled() || summary == nil {
		return
	}
	if err := c.redis.SetJSON(ctx, c.redis.KeyBuilder.KeyClubSummary(summary.Club.ID), summary, redis.TTLClubSummary); err != nil {
		c.logger.Warn("Failed to cache club summary", zap.String("club_id", summary.Club.ID), zap.Error(err))
	}
}

// InvalidateClubSummary drops the cached summary after a change to the club's content
func (c *CacheService) InvalidateClubSummary(ctx context.Context, clubID string) {
	if !c.enabled() {
		return
	}
	if err := c.redis.Delete(ctx, c.redis.KeyBuilder.KeyClubSummary(clubID)); err != nil {
		c.logger.Error("Failed to invalidate club summary", zap.String("club_id", clubID), zap.Error(err))
	}
}

// LoginFailures returns the number of recent failed logins for email from clientIP
func (c *CacheService) LoginFailures(ctx context.Context, email, clientIP string) int64 {
	if !c.enabled() {
		return 0
	}
	// INCR stores a plain integer, which is also valid JSON
	var count int64
	if err := c.redis.GetJSON(ctx, c.redis.KeyBuilder.KeyLoginFailures(email, clientIP), &count); err != nil {
		return 0
	}
	return count
}

// RecordLoginFailure increments the failure counter for email from clientIP
func (c *CacheService) RecordLoginFailure(ctx context.Context, email, clientIP string) {
	if !c.enabled() {
		return
	}
	if _, err := c.redis.Incr(ctx, c.redis.KeyBuilder.KeyLoginFailures(email, clientIP), redis.TTLLoginFailures); err != nil {
		c.logger.Warn("Failed to record login failure", zap.Error(err))
	}
}

// ResetLoginFailures clears the failure counter after a successful login
func (c *CacheService) ResetLoginFailures(ctx context.Context, email, clientIP string) {
	if !c.enabled() {
		return
	}
	if err := c.redis.Delete(ctx, c.redis.KeyBuilder.KeyLoginFailures(email, clientIP)); err != nil {
		c.logger.Warn("Failed to reset login failures", zap.Error(err))
	}
}

// HealthCheck performs a health check on the cache system
func (c *CacheService) HealthCheck(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	start := time.Now()
	err := c.redis.Health(ctx)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("Cache health check failed",
			zap.Duration("duration", duration),
			zap.Error(err))
		return err
	}

	c.logger.Debug("Cache health check passed", zap.Duration("duration", duration))
	return nil
}
