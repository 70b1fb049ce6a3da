// Package cache memoizes expensive remote calls for a single session.
//
// Entries are keyed structurally by (namespace, args...) and are valid while
// now - fetchedAt < ttl. Expired entries are treated as absent and replaced
// wholesale on the next fetch. Successful results are cached even when empty;
// failed fetches are never cached, so the next call simply tries again.
package cache

import (
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/rescale/drive-explorer/internal/constants"
	"github.com/rescale/drive-explorer/internal/metrics"
)

// Key identifies a cache entry. Two keys are equal when their namespace and
// argument values are equal.
type Key struct {
	Namespace string
	Args      []string
}

// NewKey builds a key from a namespace and stable identifiers (drive id, item id, URL).
// Never pass volatile per-call data such as bearer tokens.
func NewKey(namespace string, args ...string) Key {
	return Key{Namespace: namespace, Args: args}
}

// String encodes the key unambiguously: every component is length-prefixed,
// so ("a:b") and ("a", "b") never collide.
func (k Key) String() string {
	var b strings.Builder
	writePart := func(s string) {
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	writePart(k.Namespace)
	for _, a := range k.Args {
		writePart(a)
	}
	return b.String()
}

type entry struct {
	value     any
	fetchedAt time.Time
}

// Cache is a TTL store backed by go-cache. It is owned by one session.
type Cache struct {
	store *gocache.Cache
	now   func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the time source used for validity checks. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		store: gocache.New(constants.DefaultCacheTTL, constants.CacheCleanupInterval),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) lookup(key Key, ttl time.Duration) (any, bool) {
	raw, found := c.store.Get(key.String())
	if !found {
		return nil, false
	}
	e := raw.(entry)
	if c.now().Sub(e.fetchedAt) >= ttl {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) put(key Key, value any, ttl time.Duration) {
	c.store.Set(key.String(), entry{value: value, fetchedAt: c.now()}, ttl)
}

// GetOrFetch returns the cached value for key if it is still valid; otherwise it
// calls fetch, stores a successful result and returns it. When fetch fails its
// value (possibly a partial result) and error are returned and nothing is stored.
// A ttl <= 0 uses the default of 600 seconds.
func GetOrFetch[V any](c *Cache, key Key, ttl time.Duration, fetch func() (V, error)) (V, error) {
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}

	if v, ok := c.lookup(key, ttl); ok {
		if typed, ok := v.(V); ok {
			metrics.RecordCacheLookup(key.Namespace, true)
			return typed, nil
		}
	}
	metrics.RecordCacheLookup(key.Namespace, false)

	v, err := fetch()
	if err != nil {
		return v, err
	}
	c.put(key, v, ttl)
	return v, nil
}
