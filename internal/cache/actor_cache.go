// Package cache keeps resolved actors in Redis between requests.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/db"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/logging"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/service"
)

var log = logging.Component("Cache")

const actorPrefix = "actor:"

// ActorCache implements service.ActorCache on Redis. Redis errors degrade to
// cache misses so a cache outage never blocks authentication.
type ActorCache struct {
	redis *db.RedisDB
	ttl   time.Duration
}

func NewActorCache(redis *db.RedisDB, ttl time.Duration) *ActorCache {
	return &ActorCache{redis: redis, ttl: ttl}
}

func (c *ActorCache) Get(ctx context.Context, userID string) (*service.Actor, bool) {
	var actor service.Actor
	err := c.redis.GetCache(ctx, actorPrefix+userID, &actor)
	if err != nil {
		if !errors.Is(err, db.ErrCacheMiss) {
			log.WithError(err).Warn("[Cache] ⚠️ Actor lookup failed")
		}
		return nil, false
	}
	return &actor, true
}

func (c *ActorCache) Set(ctx context.Context, actor *service.Actor) {
	if err := c.redis.SetCache(ctx, actorPrefix+actor.ID, actor, c.ttl); err != nil {
		log.WithError(err).Warn("[Cache] ⚠️ Actor store failed")
	}
}

func (c *ActorCache) Invalidate(ctx context.Context, userID string) {
	if err := c.redis.DeleteCache(ctx, actorPrefix+userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("[Cache] ❌ Actor invalidation failed")
	}
}

// Flush drops every cached actor.
func (c *ActorCache) Flush(ctx context.Context) error {
	return c.redis.InvalidateCache(ctx, actorPrefix+"*")
}
