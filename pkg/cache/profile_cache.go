package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/Eugenia148/ISAC2025/internal/types"
)

// DefaultTTL applies when no cache TTL is configured.
const DefaultTTL = 15 * time.Minute

var keyPrefixes = []string{"profile:", "similar:", "performance:", "role:"}

// ProfileCache is a read-through cache for the profile payloads. Redis is
// optional: a nil client disables the cache and every lookup is a miss.
// Redis calls run behind a circuit breaker so a dead Redis degrades to
// artifact reads instead of adding a timeout to every request.
type ProfileCache struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	ttl     time.Duration
	logger  *logrus.Logger
}

// NewProfileCache creates a profile cache. client may be nil to disable
// caching; ttl <= 0 falls back to DefaultTTL.
func NewProfileCache(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *ProfileCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	settings := gobreaker.Settings{
		Name:        "profile-cache-redis",
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"component": "profile_cache",
				"breaker":   name,
				"from":      from.String(),
				"to":        to.String(),
			}).Info("Circuit breaker state changed")
		},
	}

	return &ProfileCache{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(settings),
		ttl:     ttl,
		logger:  logger,
	}
}

// Enabled reports whether a Redis client is attached.
func (c *ProfileCache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetProfile returns a cached tactical profile, or (nil, false) on a miss.
func (c *ProfileCache) GetProfile(ctx context.Context, group types.PositionGroup, id string) (*types.ProfilePayload, bool) {
	var payload types.ProfilePayload
	if !c.get(ctx, profileKey(group, id), &payload) {
		return nil, false
	}
	return &payload, true
}

// SetProfile stores a tactical profile. Failures are logged and swallowed;
// the cache never blocks a response.
func (c *ProfileCache) SetProfile(ctx context.Context, group types.PositionGroup, id string, payload *types.ProfilePayload) {
	c.set(ctx, profileKey(group, id), payload)
}

// GetSimilar returns a cached neighbor list, or (nil, false) on a miss.
func (c *ProfileCache) GetSimilar(ctx context.Context, group types.PositionGroup, id string, k int) (*types.SimilarPlayersPayload, bool) {
	var payload types.SimilarPlayersPayload
	if !c.get(ctx, similarKey(group, id, k), &payload) {
		return nil, false
	}
	return &payload, true
}

// SetSimilar stores a neighbor list.
func (c *ProfileCache) SetSimilar(ctx context.Context, group types.PositionGroup, id string, k int, payload *types.SimilarPlayersPayload) {
	c.set(ctx, similarKey(group, id, k), payload)
}

// GetPerformance returns a cached performance profile, or (nil, false).
func (c *ProfileCache) GetPerformance(ctx context.Context, id string) (*types.PerformanceProfilePayload, bool) {
	var payload types.PerformanceProfilePayload
	if !c.get(ctx, performanceKey(id), &payload) {
		return nil, false
	}
	return &payload, true
}

// SetPerformance stores a performance profile.
func (c *ProfileCache) SetPerformance(ctx context.Context, id string, payload *types.PerformanceProfilePayload) {
	c.set(ctx, performanceKey(id), payload)
}

// GetRole returns a cached role assignment, or (nil, false).
func (c *ProfileCache) GetRole(ctx context.Context, id string) (*types.RoleAssignment, bool) {
	var assignment types.RoleAssignment
	if !c.get(ctx, roleKey(id), &assignment) {
		return nil, false
	}
	return &assignment, true
}

// SetRole stores a role assignment.
func (c *ProfileCache) SetRole(ctx context.Context, id string, assignment *types.RoleAssignment) {
	c.set(ctx, roleKey(id), assignment)
}

// InvalidateAll removes every cached payload. Called after an artifact
// reload or rebuild so stale profiles never outlive the artifacts they
// were derived from.
func (c *ProfileCache) InvalidateAll(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}

	deleted := 0
	for _, prefix := range keyPrefixes {
		keys, err := c.client.Keys(ctx, prefix+"*").Result()
		if err != nil {
			return fmt.Errorf("failed to list %q cache keys: %w", prefix, err)
		}
		if len(keys) == 0 {
			continue
		}
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to delete %q cache keys: %w", prefix, err)
		}
		deleted += len(keys)
	}

	c.logger.WithField("deleted_keys", deleted).Info("Flushed profile cache")
	return nil
}

// HealthCheck pings Redis through the breaker.
func (c *ProfileCache) HealthCheck(ctx context.Context) error {
	if !c.Enabled() {
		return fmt.Errorf("cache is not configured")
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Ping(ctx).Err()
	})
	return err
}

// Status returns cache statistics for the readiness endpoint.
func (c *ProfileCache) Status(ctx context.Context) map[string]interface{} {
	status := map[string]interface{}{
		"enabled": c.Enabled(),
	}
	if !c.Enabled() {
		return status
	}

	status["breaker_state"] = c.breaker.State().String()
	if dbSize := c.client.DBSize(ctx); dbSize.Err() == nil {
		status["db_size"] = dbSize.Val()
	}
	for _, prefix := range keyPrefixes {
		if keys, err := c.client.Keys(ctx, prefix+"*").Result(); err == nil {
			status[prefix+"keys"] = len(keys)
		}
	}
	return status
}

func (c *ProfileCache) get(ctx context.Context, key string, dest interface{}) bool {
	if !c.Enabled() {
		return false
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Get(ctx, key).Result()
	})
	if err != nil {
		if err != redis.Nil && err != gobreaker.ErrOpenState && err != gobreaker.ErrTooManyRequests {
			c.logger.WithError(err).WithField("cache_key", key).Warn("Cache read failed")
		}
		return false
	}

	data, ok := result.(string)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		c.logger.WithError(err).WithField("cache_key", key).Warn("Discarding undecodable cache entry")
		return false
	}

	c.logger.WithField("cache_key", key).Debug("Cache hit")
	return true
}

func (c *ProfileCache) set(ctx context.Context, key string, value interface{}) {
	if !c.Enabled() {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WithError(err).WithField("cache_key", key).Warn("Failed to marshal cache value")
		return
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, key, data, c.ttl).Err()
	})
	if err != nil && err != gobreaker.ErrOpenState && err != gobreaker.ErrTooManyRequests {
		c.logger.WithError(err).WithField("cache_key", key).Warn("Cache write failed")
	}
}

func profileKey(group types.PositionGroup, id string) string {
	return fmt.Sprintf("profile:%s:%s", group, id)
}

func similarKey(group types.PositionGroup, id string, k int) string {
	return fmt.Sprintf("similar:%s:%s:%d", group, id, k)
}

func performanceKey(id string) string {
	return fmt.Sprintf("performance:%s", id)
}

func roleKey(id string) string {
	return fmt.Sprintf("role:%s", id)
}
