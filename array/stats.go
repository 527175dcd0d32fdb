package array

import "sync"

// StatKind enumerates the small set of statistics an array may lazily
// cache (spec §3, "Statistics").
type StatKind uint8

const (
	StatMin StatKind = iota
	StatMax
	StatNullCount
	StatTrueCount
	StatIsConstant
	StatIsSorted
)

func (k StatKind) String() string {
	names := [...]string{"min", "max", "null_count", "true_count", "is_constant", "is_sorted"}
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown_stat"
}

// statsCache is a per-array lock-protected map, guaranteeing at-most-once
// computation semantics per stat (spec §5). It deliberately knows nothing
// about how to compute a stat — that requires a vtable lookup, which would
// create an import cycle (vtable depends on array) — so computation is
// injected by the caller via ComputeIfAbsent, the way package vtable's
// Stats dispatcher uses it.
type statsCache struct {
	mu     sync.RWMutex
	values map[StatKind]any
}

func newStatsCache() *statsCache {
	return &statsCache{values: make(map[StatKind]any)}
}

// Get returns a previously computed or pre-filled stat.
func (c *statsCache) Get(k StatKind) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[k]
	return v, ok
}

// Set pre-fills a stat, e.g. at construction time when an encoding already
// knows it (spec §3: "Stats may be filled by the encoding at construction").
func (c *statsCache) Set(k StatKind, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[k] = v
}

// ComputeIfAbsent returns the cached stat if present, otherwise calls
// compute exactly once, caches the result, and returns it. Stats are pure
// functions of array content, so recomputation would always be safe — this
// only exists to avoid redundant work under concurrent readers (spec §9).
func (c *statsCache) ComputeIfAbsent(k StatKind, compute func() any) any {
	c.mu.RLock()
	if v, ok := c.values[k]; ok {
		c.mu.RUnlock()
		return v
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.values[k]; ok {
		return v
	}
	v := compute()
	c.values[k] = v
	return v
}

// ComputeIfAbsentErr is ComputeIfAbsent for computations that can fail. A
// failed computation is not cached, so a transient error doesn't poison
// later lookups.
func (c *statsCache) ComputeIfAbsentErr(k StatKind, compute func() (any, error)) (any, error) {
	c.mu.RLock()
	if v, ok := c.values[k]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.values[k]; ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	c.values[k] = v
	return v, nil
}
