// Package artifact is an in-memory token-addressable blob cache with
// per-entry TTL, used to hand out short-lived boleto PDF download links.
// Nothing survives a restart; the links are meant to expire.
package artifact

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// DefaultTTL is how long a cached boleto PDF stays downloadable.
const DefaultTTL = time.Hour

type entry struct {
	blob      string
	expiresAt time.Time
}

type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// NewToken mints a 32-hex-char random token. Tokens are independent per
// call, so two artifacts never share one.
func NewToken() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}

// Put stores blob under token for ttl. Expired entries are reclaimed
// opportunistically on every write.
func (c *Cache) Put(token, blob string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.entries[token] = entry{blob: blob, expiresAt: now.Add(ttl)}
}

// Get returns the blob for token, or ok=false when the token is unknown
// or expired. Never an error: the download route maps a miss to 404.
func (c *Cache) Get(token string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[token]
	if !ok {
		return "", false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, token)
		return "", false
	}
	return e.blob, true
}

// Invalidate drops token and reports whether it was present.
func (c *Cache) Invalidate(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[token]
	delete(c.entries, token)
	return ok
}

// Len is used by tests and the health endpoint.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
