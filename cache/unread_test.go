package cache

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUnreadCache(t *testing.T) {
	c := NewUnreadCache("notifications", time.Minute)
	user := primitive.NewObjectID()

	if _, ok := c.Get(user); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Set(user, 3)
	if got, ok := c.Get(user); !ok || got != 3 {
		t.Fatalf("Get() = %d, %v; want 3, true", got, ok)
	}
	c.Invalidate(user)
	if _, ok := c.Get(user); ok {
		t.Fatal("expected miss after invalidate")
	}
}

func TestNilUnreadCacheIsSafe(t *testing.T) {
	var c *UnreadCache
	user := primitive.NewObjectID()
	c.Set(user, 1)
	c.Invalidate(user)
	if _, ok := c.Get(user); ok {
		t.Fatal("nil cache should always miss")
	}
}
