package cache

import (
	"sync"
	"time"

	"github.com/Domenick1991/rmtravel/internal/domain"
	"github.com/google/uuid"
)

const DefaultSessionTTL = 15 * time.Minute

type CachedSession struct {
	User      domain.User
	Token     string
	ExpiresAt time.Time
}

// SessionCache is a process-local, advisory map of validated sessions keyed
// by user id. Entries past their TTL are treated as absent.
type SessionCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]CachedSession
	ttl     time.Duration
	now     func() time.Time
}

type SessionCacheOption func(*SessionCache)

func WithClock(now func() time.Time) SessionCacheOption {
	return func(c *SessionCache) {
		c.now = now
	}
}

func NewSessionCache(ttl time.Duration, opts ...SessionCacheOption) *SessionCache {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	c := &SessionCache{
		entries: make(map[uuid.UUID]CachedSession),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SessionCache) Get(userID uuid.UUID) (CachedSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[userID]
	if !ok {
		return CachedSession{}, false
	}
	if !c.now().Before(entry.ExpiresAt) {
		delete(c.entries, userID)
		return CachedSession{}, false
	}
	return entry, true
}

func (c *SessionCache) Set(user domain.User, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[user.ID] = CachedSession{
		User:      user,
		Token:     token,
		ExpiresAt: c.now().Add(c.ttl),
	}
}

func (c *SessionCache) Delete(userID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

func (c *SessionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
