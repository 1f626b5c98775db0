package db

import (
	"strings"
	"sync"
	"time"
)

const (
	cacheSystemSettings = "system_settings"
	cacheAllMembers     = "all_members"
	cacheAllTechnicians = "all_technicians"
	cacheStatuses       = "ticket_statuses"
	cacheMemberPrefix   = "member:"

	ttlSettings         = 300 * time.Second
	ttlSettingsFallback = 30 * time.Second
	ttlMembers          = 120 * time.Second
	ttlTechnicians      = 120 * time.Second
	ttlStatuses         = 300 * time.Second
	ttlMember           = 60 * time.Second
)

type cacheItem struct {
	value     any
	expiresAt time.Time
}

type ttlCache struct {
	mu    sync.Mutex
	items map[string]cacheItem
}

func newTTLCache() *ttlCache {
	return &ttlCache{items: make(map[string]cacheItem)}
}

func (c *ttlCache) Get(key string, now time.Time) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if now.After(item.expiresAt) {
		delete(c.items, key)
		return nil, false
	}
	return item.value, true
}

func (c *ttlCache) Set(key string, value any, ttl time.Duration, now time.Time) {
	c.mu.Lock()
	c.items[key] = cacheItem{value: value, expiresAt: now.Add(ttl)}
	c.mu.Unlock()
}

func (c *ttlCache) Delete(keys ...string) {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.items, k)
	}
	c.mu.Unlock()
}

func (c *ttlCache) DeletePrefix(prefix string) {
	c.mu.Lock()
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	c.mu.Unlock()
}

func (c *ttlCache) Purge(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, k)
			removed++
		}
	}
	return removed
}

func (c *ttlCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
