package services

import (
	"context"
	"time"

	"github.com/akinalp/socialspace/models"
	"github.com/akinalp/socialspace/pkg/cache"
	"github.com/akinalp/socialspace/repository"
)

// ActorCache caches the public summary (username, avatar) of users who act
// on posts, so building a notification does not hit the database each time.
type ActorCache struct {
	users repository.UserRepository
	cache *cache.TTLCache[string, models.UserSummary]
}

// NewActorCache returns a cache whose entries live for ttl.
func NewActorCache(users repository.UserRepository, ttl time.Duration) *ActorCache {
	return &ActorCache{
		users: users,
		cache: cache.New[string, models.UserSummary](ttl, ttl),
	}
}

// Summary returns the cached or freshly loaded summary of userID.
func (c *ActorCache) Summary(ctx context.Context, userID string) (models.UserSummary, error) {
	return c.cache.GetOrLoad(userID, func() (models.UserSummary, error) {
		s, err := c.users.GetSummary(ctx, userID)
		if err != nil {
			return models.UserSummary{}, err
		}
		return *s, nil
	})
}

// Invalidate drops userID, e.g. after a profile edit.
func (c *ActorCache) Invalidate(userID string) {
	c.cache.Delete(userID)
}

// Close stops the cache sweeper.
func (c *ActorCache) Close() {
	c.cache.Close()
}
