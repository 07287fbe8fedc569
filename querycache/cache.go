// Package querycache caches list query results per login session.
//
// Entries are keyed by (scope, kind, params). A mutation invalidates the
// whole bucket for its kind rather than patching entries, so the next read
// always reflects the server.
package querycache

import (
	"net/url"
	"sync"
	"time"
)

// Entity kinds cached by the console
const (
	KindAccounts = "accounts"
	KindMentions = "mentions"
)

type Key struct {
	Scope  string // login session id
	Kind   string
	Params string // canonical encoding of the filter parameters
}

// ParamsKey canonicalises query parameters (keys sorted)
func ParamsKey(v url.Values) string {
	return v.Encode()
}

type entry struct {
	value    any
	storedAt time.Time
}

type bucketKey struct {
	scope string
	kind  string
}

type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	buckets map[bucketKey]map[string]entry

	// gens holds the sequence number of each bucket's last invalidation.
	// Values are never reused, so a load that began before an invalidation
	// can always tell.
	gens    map[bucketKey]uint64
	seq     uint64
	dropped map[string]time.Time // scope -> when Drop ran
}

// forgetAfter bounds how long a dropped scope's generations are kept. It
// only needs to outlive requests that were loading when the scope dropped.
const forgetAfter = 10 * time.Minute

// New creates a cache whose entries are fresh for ttl. A ttl <= 0 disables
// reuse; loaders always run.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		buckets: make(map[bucketKey]map[string]entry),
		gens:    make(map[bucketKey]uint64),
		dropped: make(map[string]time.Time),
	}
}

// WithClock replaces the time source, used by tests
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

func (c *Cache) Get(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bucket, ok := c.buckets[bucketKey{key.Scope, key.Kind}]
	if !ok {
		return nil, false
	}
	e, ok := bucket[key.Params]
	if !ok {
		return nil, false
	}
	if c.ttl <= 0 || c.now().Sub(e.storedAt) >= c.ttl {
		delete(bucket, key.Params)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Set(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, value)
}

// generation returns the bucket's invalidation sequence for key
func (c *Cache) generation(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[bucketKey{key.Scope, key.Kind}]
}

// setIfCurrent stores value only when the bucket has not been invalidated
// since gen was read. It reports whether the value was stored.
func (c *Cache) setIfCurrent(key Key, value any, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[bucketKey{key.Scope, key.Kind}] != gen {
		return false
	}
	c.store(key, value)
	return true
}

// store requires c.mu
func (c *Cache) store(key Key, value any) {
	bk := bucketKey{key.Scope, key.Kind}
	bucket, ok := c.buckets[bk]
	if !ok {
		bucket = make(map[string]entry)
		c.buckets[bk] = bucket
	}
	bucket[key.Params] = entry{value: value, storedAt: c.now()}
}

// Invalidate drops every cached entry of kind within scope
func (c *Cache) Invalidate(scope, kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bk := bucketKey{scope, kind}
	delete(c.buckets, bk)
	c.seq++
	c.gens[bk] = c.seq
}

// Drop removes everything cached for scope, used when a session ends.
// Loads still in flight for the scope are not stored.
func (c *Cache) Drop(scope string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for bk := range c.buckets {
		if bk.scope == scope {
			delete(c.buckets, bk)
		}
	}
	for _, kind := range []string{KindAccounts, KindMentions} {
		c.seq++
		c.gens[bucketKey{scope, kind}] = c.seq
	}
	c.dropped[scope] = c.now()
}

// Prune removes entries older than the TTL and returns how many were dropped
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	dropped := 0
	for bk, bucket := range c.buckets {
		for params, e := range bucket {
			if c.ttl <= 0 || now.Sub(e.storedAt) >= c.ttl {
				delete(bucket, params)
				dropped++
			}
		}
		if len(bucket) == 0 {
			delete(c.buckets, bk)
		}
	}
	for scope, at := range c.dropped {
		if now.Sub(at) < forgetAfter {
			continue
		}
		for bk := range c.gens {
			if bk.scope == scope {
				delete(c.gens, bk)
			}
		}
		delete(c.dropped, scope)
	}
	return dropped
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, bucket := range c.buckets {
		n += len(bucket)
	}
	return n
}

// Fetch returns the cached value for key or loads, stores and returns it.
// Loader errors are returned and not cached. A result whose bucket was
// invalidated while it loaded is returned to the caller but not stored.
func Fetch[T any](c *Cache, key Key, load func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	gen := c.generation(key)
	v, err := load()
	if err != nil {
		return v, err
	}
	c.setIfCurrent(key, v, gen)
	return v, nil
}

// Scoped is a cache view bound to one login session
type Scoped struct {
	cache *Cache
	scope string
}

func (c *Cache) Scope(scope string) Scoped {
	return Scoped{cache: c, scope: scope}
}

func (s Scoped) Key(kind string, params url.Values) Key {
	return Key{Scope: s.scope, Kind: kind, Params: ParamsKey(params)}
}

func (s Scoped) Cache() *Cache {
	return s.cache
}

func (s Scoped) Invalidate(kind string) {
	s.cache.Invalidate(s.scope, kind)
}
