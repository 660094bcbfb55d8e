// Package cache fronts read-mostly lookups with Redis, following
// USA-RedDragon-DMRHub's dmr.redisParrotStorage pattern of a small
// struct wrapping a *redis.Client with string keys and a fixed TTL.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dvmgo/dvmfne/pkg/database"
	"github.com/dvmgo/dvmfne/pkg/logger"
)

const radioIDKeyPrefix = "dvmfne:radioid:"

// RadioIDLookup is the subset of database.DMRUserRepository that
// RadioIDCache fronts; satisfied by *database.DMRUserRepository.
type RadioIDLookup interface {
	GetByRadioID(radioID uint32) (*database.DMRUser, error)
}

// RadioIDCache is a read-through Redis cache in front of the radio-ID
// lookup table (spec.md §3's "Radio ID table"), used by the REST API's
// per-request GET /api/user/{radio_id} lookups so a hot ID doesn't
// round-trip to sqlite on every hit.
type RadioIDCache struct {
	client *redis.Client
	repo   RadioIDLookup
	ttl    time.Duration
	log    *logger.Logger
}

// New creates a RadioIDCache backed by the given Redis server, reading
// through to repo on a cache miss.
func New(addr, password string, db int, ttl time.Duration, repo RadioIDLookup, log *logger.Logger) *RadioIDCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RadioIDCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		repo: repo,
		ttl:  ttl,
		log:  log.WithComponent("cache.radioid"),
	}
}

// GetByRadioID resolves radioID, serving from Redis when possible and
// populating the cache on a miss.
func (c *RadioIDCache) GetByRadioID(ctx context.Context, radioID uint32) (*database.DMRUser, error) {
	key := fmt.Sprintf("%s%d", radioIDKeyPrefix, radioID)

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var user database.DMRUser
		if jsonErr := json.Unmarshal(raw, &user); jsonErr == nil {
			return &user, nil
		}
		// Corrupt cache entry; fall through to the repository.
	} else if err != redis.Nil {
		c.log.Warn("radio-ID cache read failed, falling back to repository", logger.Error(err))
	}

	user, err := c.repo.GetByRadioID(radioID)
	if err != nil {
		return nil, err
	}

	if encoded, marshalErr := json.Marshal(user); marshalErr == nil {
		if setErr := c.client.Set(ctx, key, encoded, c.ttl).Err(); setErr != nil {
			c.log.Warn("radio-ID cache write failed", logger.Error(setErr))
		}
	}

	return user, nil
}

// Invalidate removes radioID from the cache, used after a RadioID
// database resync so stale entries don't outlive their backing row.
func (c *RadioIDCache) Invalidate(ctx context.Context, radioID uint32) error {
	key := fmt.Sprintf("%s%d", radioIDKeyPrefix, radioID)
	return c.client.Del(ctx, key).Err()
}

// Close releases the underlying Redis connection pool.
func (c *RadioIDCache) Close() error {
	return c.client.Close()
}
