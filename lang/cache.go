package lang

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/zeebo/xxh3"
)

// Cache shares compiled modules between builds.
//
// Modules are keyed by prepared path. Parsed resources are also memoized by
// a hash of their path and source text, so anonymous source built more
// than once is parsed once.
//
// The maps are safe for concurrent use, but building from several
// goroutines with one Cache is not: linking records state on the shared
// modules. Serialize builds that share a Cache.
type Cache struct {
	mu      sync.Mutex
	modules map[string]*Module
	parsed  map[uint64]*Resource
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		modules: map[string]*Module{},
		parsed:  map[uint64]*Resource{},
	}
}

// Module returns the module cached for a prepared path.
func (c *Cache) Module(path string) (*Module, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.modules[path]

	return m, ok
}

func (c *Cache) store(path string, m *Module) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.modules[path] = m
}

// Len returns the number of cached modules.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.modules)
}

// Clear removes all cached modules and parsed resources.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.modules)
	clear(c.parsed)
}

// sourceKey hashes a path and source text with xxh3.
func sourceKey(path, source string) uint64 {
	h := xxh3.New()

	_, _ = h.WriteString(path)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(source)

	return h.Sum64()
}

// parse parses source, reusing an earlier result for the same path and
// text.
func (c *Cache) parse(
	ctx context.Context,
	source, path string,
	opts ...Option,
) (*Resource, error) {
	key := sourceKey(path, source)

	c.mu.Lock()
	res, hit := c.parsed[key]
	c.mu.Unlock()

	o := makeOptions(opts...)
	o.logger.TraceContext(ctx, "cache lookup",
		slog.String("path", path),
		slog.String("source_hash", strconv.FormatUint(key, 16)),
		slog.Bool("cache_hit", hit),
	)

	if hit {
		return res, nil
	}

	res, err := Parse(ctx, source, append(slices.Clip(opts), WithPath(path))...)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.parsed[key] = res
	c.mu.Unlock()

	return res, nil
}
