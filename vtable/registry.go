package vtable

import (
	"sync"

	logging "github.com/ipfs/go-log/v2"

	"github.com/vxdb/vortex/array"
)

// log is the package-scoped subsystem logger, the same init-time singleton
// idiom the teacher uses for its storage layer (store/store.go: var log =
// logging.Logger("storethehash")).
var log = logging.Logger("vortex/vtable")

// Context is the process-global, populated-at-startup, immutable-after-
// startup encoding registry (spec §5). It maps an EncodingID to the vtable
// that implements it.
type Context struct {
	mu      sync.RWMutex
	byID    map[array.EncodingID]VTable
	started bool
}

// NewContext builds an empty registry. Most callers want GlobalContext
// instead; NewContext exists for tests that need an isolated catalog.
func NewContext() *Context {
	return &Context{byID: make(map[array.EncodingID]VTable)}
}

// Register installs vt into the registry. Safe to call concurrently; once
// a Context has been used to look anything up it is conventionally treated
// as immutable (spec §5), though Register itself does not enforce that —
// the global registry's callers are disciplined about registering only
// from package init().
func (c *Context) Register(vt VTable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[vt.ID()] = vt
	log.Debugw("registered encoding", "id", vt.ID(), "encoding", vt.ID().String())
}

// Lookup returns the vtable for id, if registered.
func (c *Context) Lookup(id array.EncodingID) (VTable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vt, ok := c.byID[id]
	return vt, ok
}

// MustLookup panics if id is unregistered — a broken-invariant condition
// per spec §7 ("a vtable advertising a capability it does not implement"),
// since every array's encoding ID must resolve to a registered vtable by
// construction.
func (c *Context) MustLookup(id array.EncodingID) VTable {
	vt, ok := c.Lookup(id)
	if !ok {
		panic("vtable: no vtable registered for encoding " + id.String())
	}
	return vt
}

var (
	globalOnce sync.Once
	global     *Context
)

// GlobalContext returns the process-global registry, initializing the
// canonical vtables on first use. Non-canonical encodings (Chunked, Sparse,
// BitPacked, FSST, ALP, RoaringBool) register themselves into this same
// Context via their own package init() functions when their package is
// imported — callers that need the full catalog must blank-import those
// packages (the same "driver registers itself" idiom as database/sql).
func GlobalContext() *Context {
	globalOnce.Do(func() {
		global = NewContext()
		registerCanonicalVTables(global)
	})
	return global
}
