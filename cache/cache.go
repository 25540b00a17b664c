// Package cache provides the concurrency-safe, time-aware cache that sits
// in front of the certificate-bound credential endpoint. Entries are keyed
// by identity selector and checked for expiry lazily at read time; there is
// no background sweep.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-managed-identity/credential"
	"github.com/rs/zerolog/log"
)

// FetchFunc performs the network exchange on a miss and returns a
// structurally validated payload.
type FetchFunc func(ctx context.Context) (*credential.SuccessPayload, error)

type entry struct {
	payload   *credential.SuccessPayload
	expiresAt time.Time
}

// ResponseCache caches validated credential payloads per selector key. It is
// safe for unsynchronized concurrent use.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	nowFunc func() time.Time
}

// ResponseCacheOption defines a function type to modify the ResponseCache
// instance.
type ResponseCacheOption func(*ResponseCache)

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(now func() time.Time) ResponseCacheOption {
	return func(c *ResponseCache) {
		c.nowFunc = now
	}
}

// New creates an empty ResponseCache.
func New(options ...ResponseCacheOption) *ResponseCache {
	c := &ResponseCache{
		entries: make(map[string]entry),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// GetOrFetch returns the cached payload for key while it is still valid and
// no refresh was forced. An expired or force-refreshed entry is removed
// before fetch is invoked, so no reader observes it once replacement has
// begun. A successful fetch inserts unconditionally.
//
// The check/fetch/insert sequence is deliberately not serialized across
// callers: two callers that both observe the same miss may both fetch, and
// the later insert wins. Individual map operations are atomic.
func (c *ResponseCache) GetOrFetch(ctx context.Context, key string, forceRefresh bool, fetch FetchFunc) (*credential.SuccessPayload, error) {
	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		// An entry expiring exactly now is already expired.
		if !forceRefresh && c.nowFunc().Before(cached.expiresAt) {
			log.Debug().Str("key", key).Msg("credential cache hit")
			return cached.payload, nil
		}
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
	}

	payload, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = entry{payload: payload, expiresAt: payload.ExpiryTime(c.nowFunc())}
	c.mu.Unlock()
	return payload, nil
}
