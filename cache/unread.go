package cache

import (
	"time"

	"github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnreadCache keeps per-user unread counters for a short TTL. Writers
// invalidate the entry; readers repopulate it from the store.
type UnreadCache struct {
	prefix string
	store  *cache.Cache
}

func NewUnreadCache(prefix string, ttl time.Duration) *UnreadCache {
	return &UnreadCache{
		prefix: prefix,
		store:  cache.New(ttl, 2*ttl),
	}
}

func (c *UnreadCache) key(userID primitive.ObjectID) string {
	return c.prefix + ":" + userID.Hex()
}

func (c *UnreadCache) Get(userID primitive.ObjectID) (int64, bool) {
	if c == nil {
		return 0, false
	}
	v, ok := c.store.Get(c.key(userID))
	if !ok {
		return 0, false
	}
	count, ok := v.(int64)
	return count, ok
}

func (c *UnreadCache) Set(userID primitive.ObjectID, count int64) {
	if c == nil {
		return
	}
	c.store.SetDefault(c.key(userID), count)
}

func (c *UnreadCache) Invalidate(userIDs ...primitive.ObjectID) {
	if c == nil {
		return
	}
	for _, id := range userIDs {
		c.store.Delete(c.key(id))
	}
}
