package layout

import "sync"

// messageKey identifies one decoded sub-array within a query: a dotted
// layout path (e.g. "chunk[2].field[0]") and the buffer-id within
// that node's ArrayHeader tree (its depth-first position).
type messageKey struct {
	path     string
	bufferID int
}

// MessageCache memoizes decoded sub-arrays keyed by (layout-path,
// buffer-id) so sibling layouts sharing bytes avoid redundant decoding
// within a single query (spec §4.3, "Layout caches"). It is per-query and
// distinct from the process-global iodispatch.Dispatcher, which caches raw
// bytes rather than decoded arrays (spec §5, "Layout caches are
// per-query").
type MessageCache struct {
	mu    sync.Mutex
	byKey map[messageKey]any
}

// NewMessageCache builds an empty, single-query cache.
func NewMessageCache() *MessageCache {
	return &MessageCache{byKey: make(map[messageKey]any)}
}

// GetOrCompute returns the cached value for (path, bufferID), computing and
// storing it via compute if absent. The cache is locked for the duration of
// compute, matching the teacher's stats-cache discipline (spec §5,
// "at-most-once computation semantics") rather than releasing the lock and
// risking a duplicate compute on a cache-miss race.
func (c *MessageCache) GetOrCompute(path string, bufferID int, compute func() (any, error)) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := messageKey{path: path, bufferID: bufferID}
	if v, ok := c.byKey[k]; ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	c.byKey[k] = v
	return v, nil
}

// Len reports the number of cached entries, for tests and diagnostics.
func (c *MessageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byKey)
}
