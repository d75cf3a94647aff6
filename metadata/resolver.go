package metadata

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/rlch/soql"
)

// Requester sends a fire-and-forget describe request to the host.
type Requester interface {
	RequestObjectMeta(name string, tooling bool)
}

// Resolver implements lazy schema loading: EnsureSchema issues at most one
// request per missing schema until that schema is delivered or the host
// reports a failure.
type Resolver struct {
	cache     *Cache
	requester Requester
	logger    *zap.Logger

	mu      sync.Mutex
	tooling bool
	pending map[string]struct{}
}

// NewResolver creates a resolver that fills cache through requester.
func NewResolver(cache *Cache, requester Requester, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{
		cache:     cache,
		requester: requester,
		logger:    logger,
		pending:   map[string]struct{}{},
	}
}

// Cache returns the cache the resolver fills.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// SetTooling selects which catalog subsequent requests describe against.
func (r *Resolver) SetTooling(tooling bool) {
	r.mu.Lock()
	r.tooling = tooling
	r.mu.Unlock()
}

// EnsureSchema requests name unless it is cached or already in flight.
func (r *Resolver) EnsureSchema(name string) {
	if name == "" {
		return
	}

	if _, ok := r.cache.Schema(name); ok {
		return
	}

	key := strings.ToLower(name)

	r.mu.Lock()
	if _, ok := r.pending[key]; ok {
		r.mu.Unlock()
		return
	}

	r.pending[key] = struct{}{}
	tooling := r.tooling
	r.mu.Unlock()

	r.logger.Debug("Requesting schema", zap.String("object", name), zap.Bool("tooling", tooling))
	r.requester.RequestObjectMeta(name, tooling)
}

// Deliver stores a schema that arrived from the host and clears its pending
// entry. Empty descriptors are ignored.
func (r *Resolver) Deliver(s *soql.SchemaDescriptor) bool {
	if s == nil || s.Name == "" {
		return false
	}

	r.cache.Put(s)

	r.mu.Lock()
	delete(r.pending, strings.ToLower(s.Name))
	r.mu.Unlock()

	return true
}

// Fail clears every pending request so that the next pass may retry. Host
// errors carry no object name, so nothing narrower is possible.
func (r *Resolver) Fail() {
	r.mu.Lock()
	n := len(r.pending)
	r.pending = map[string]struct{}{}
	r.mu.Unlock()

	if n > 0 {
		r.logger.Debug("Cleared pending schema requests", zap.Int("count", n))
	}
}

// Pending returns the lower-cased names currently in flight, sorted.
func (r *Resolver) Pending() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.pending))
	for k := range r.pending {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}
