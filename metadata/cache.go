// Package metadata caches object catalogs and schemas and requests missing
// schemas lazily from a host.
package metadata

import (
	"strings"
	"sync"
	"time"

	"github.com/rlch/soql"
)

type listEntry struct {
	objects []soql.SchemaDescriptor
	at      time.Time
}

type schemaEntry struct {
	schema *soql.SchemaDescriptor
	at     time.Time
}

// Cache holds object catalogs (standard and tooling) and described schemas.
// Entries older than the TTL read as absent. It is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	lists   map[bool]listEntry
	schemas map[string]schemaEntry
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCacheClock replaces time.Now for expiry checks.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache returns an empty cache. A zero ttl disables expiry.
func NewCache(ttl time.Duration, opts ...CacheOption) *Cache {
	c := &Cache{
		ttl:     ttl,
		now:     time.Now,
		lists:   map[bool]listEntry{},
		schemas: map[string]schemaEntry{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Cache) fresh(at time.Time) bool {
	return c.ttl <= 0 || c.now().Sub(at) < c.ttl
}

// Objects returns the cached catalog for the mode, or nil.
func (c *Cache) Objects(tooling bool) []soql.SchemaDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.lists[tooling]
	if !ok || !c.fresh(e.at) {
		return nil
	}

	return e.objects
}

// SetObjects replaces the catalog for the mode.
func (c *Cache) SetObjects(tooling bool, objects []soql.SchemaDescriptor) {
	c.SetObjectsAt(tooling, objects, c.now())
}

// SetObjectsAt replaces the catalog with one fetched at the given time.
func (c *Cache) SetObjectsAt(tooling bool, objects []soql.SchemaDescriptor, at time.Time) {
	c.mu.Lock()
	c.lists[tooling] = listEntry{objects: objects, at: at}
	c.mu.Unlock()
}

// Schema returns the described schema for name, matched case-insensitively.
func (c *Cache) Schema(name string) (*soql.SchemaDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.schemas[strings.ToLower(name)]
	if !ok || !c.fresh(e.at) {
		return nil, false
	}

	return e.schema, true
}

// Put stores a described schema under its own name.
func (c *Cache) Put(s *soql.SchemaDescriptor) {
	c.PutAt(s, c.now())
}

// PutAt stores a schema fetched at the given time.
func (c *Cache) PutAt(s *soql.SchemaDescriptor, at time.Time) {
	if s == nil || s.Name == "" {
		return
	}

	c.mu.Lock()
	c.schemas[strings.ToLower(s.Name)] = schemaEntry{schema: s, at: at}
	c.mu.Unlock()
}

// Evict drops one schema.
func (c *Cache) Evict(name string) {
	c.mu.Lock()
	delete(c.schemas, strings.ToLower(name))
	c.mu.Unlock()
}

// Clear drops everything.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.lists = map[bool]listEntry{}
	c.schemas = map[string]schemaEntry{}
	c.mu.Unlock()
}

// Len returns the number of cached schemas, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.schemas)
}
