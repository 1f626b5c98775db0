package db

import (
	"testing"
	"time"
)

func TestTTLCacheExpiry(t *testing.T) {
	c := newTTLCache()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.Set(cacheAllMembers, []string{"a"}, ttlMembers, now)

	if _, ok := c.Get(cacheAllMembers, now.Add(time.Minute)); !ok {
		t.Fatalf("expected cached value before ttl")
	}
	if _, ok := c.Get(cacheAllMembers, now.Add(ttlMembers+time.Second)); ok {
		t.Fatalf("expected value to expire")
	}
	if c.Len() != 0 {
		t.Fatalf("expired read should evict, have %d items", c.Len())
	}
}

func TestTTLCachePurgeAndInvalidate(t *testing.T) {
	c := newTTLCache()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.Set(cacheSystemSettings, 1, ttlSettingsFallback, now)
	c.Set(cacheStatuses, 2, ttlStatuses, now)
	c.Set(cacheMemberPrefix+"a", 3, ttlMember, now)
	c.Set(cacheMemberPrefix+"b", 4, ttlMember, now)

	if removed := c.Purge(now.Add(time.Minute)); removed != 1 {
		t.Fatalf("expected settings fallback to be purged, removed %d", removed)
	}
	c.DeletePrefix(cacheMemberPrefix)
	if c.Len() != 1 {
		t.Fatalf("expected only statuses to remain, have %d", c.Len())
	}
	c.Delete(cacheStatuses)
	if c.Len() != 0 {
		t.Fatalf("expected empty cache")
	}
}
