// Package iodispatch implements the process-global, range-coalescing I/O
// dispatcher spec §5 describes: "a single I/O dispatcher (shared
// process-wide) multiplexes range fetches; callers may submit concurrent
// layout reads, and the dispatcher coalesces adjacent ranges." Grounded
// directly on range-cache/range-cache.go (teacher): the Range type and its
// contains/intersects/isAdjacent predicates, the LRU list+map eviction
// structure, and the sync.Map double-checked-locking fetch coordination
// are all adapted from that file, generalized from a single named source
// to an arbitrary number of concurrently open file sources.
package iodispatch

import (
	"container/list"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"k8s.io/klog/v2"
)

// Range is a half-open byte interval [Start, End) within one source.
type Range [2]int64

func (r Range) contains(r2 Range) bool   { return r[0] <= r2[0] && r[1] >= r2[1] }
func (r Range) intersects(r2 Range) bool { return r[0] < r2[1] && r[1] > r2[0] }
func (r Range) isAdjacent(r2 Range) bool { return r[1] == r2[0] || r2[1] == r[0] }
func (r Range) isValidFor(size int64) bool {
	return r[0] >= 0 && r[1] <= size && r[0] <= r[1]
}

// key scopes a Range to the source that owns it — the dispatcher is
// process-wide and multiplexes many open files, unlike the teacher's
// single-named-source RangeCache.
type key struct {
	source string
	r      Range
}

type entry struct {
	value    []byte
	lastRead time.Time
}

// Source is anything the dispatcher can pull an uncached byte range from —
// typically an open *os.File or a network-backed reader, wrapped in an
// io.ReaderAt so the dispatcher never blocks the caller's goroutine scheduler
// beyond the single ReadAt call (spec §5: "there is no blocking file I/O on
// the hot path" is honored by callers awaiting Fetch from their own
// suspension points, not by the dispatcher itself being non-blocking).
type Source interface {
	io.ReaderAt
	// Size reports the source's total byte length, used to validate ranges.
	Size() int64
}

// Dispatcher coalesces and caches byte-range reads across every source
// registered with it, bounded by a total memory budget with LRU eviction.
type Dispatcher struct {
	mu            sync.RWMutex
	maxMemorySize int64
	occupiedSpace int64

	cache   map[key]entry
	lruList *list.List
	lruMap  map[key]*list.Element

	fetching sync.Map // key -> *sync.Cond
}

// New builds a Dispatcher with the given memory budget. A budget of 0 means
// unbounded (every fetched range is cached and never evicted).
func New(maxMemorySize int64) *Dispatcher {
	return &Dispatcher{
		maxMemorySize: maxMemorySize,
		cache:         make(map[key]entry),
		lruList:       list.New(),
		lruMap:        make(map[key]*list.Element),
	}
}

// global is the process-wide dispatcher spec §5 mandates ("shared
// process-wide"); per-query layout message caches (layout.MessageCache) sit
// in front of it, not the other way around.
var global = New(256 << 20)

// Global returns the process-wide Dispatcher.
func Global() *Dispatcher { return global }

// OccupiedSpace reports current cache memory usage in bytes.
func (d *Dispatcher) OccupiedSpace() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.occupiedSpace
}

// Fetch returns the byte range [start, start+length) from source, named by
// sourceID (typically a file path), serving from cache when possible and
// coalescing concurrent fetches of the same range into one ReadAt call.
func (d *Dispatcher) Fetch(ctx context.Context, sourceID string, source Source, start, length int64) ([]byte, error) {
	end := start + length
	want := Range{start, end}
	if !want.isValidFor(source.Size()) {
		return nil, fmt.Errorf("iodispatch: invalid range [%d, %d) for source %q of size %d", start, end, sourceID, source.Size())
	}
	k := key{source: sourceID, r: want}

	// First check (read lock): cheap common case, no fetch coordination
	// needed at all.
	if hit, val, ok := d.lookup(sourceID, want); ok {
		d.mu.Lock()
		d.touch(hit)
		d.mu.Unlock()
		return val, nil
	}

	// Cache miss: acquire the write lock and hold it across the re-check,
	// the fetching-map LoadOrStore, and (if we end up waiting) the
	// Cond.Wait itself. This is the double-checked-locking pattern
	// range-cache.GetRange uses: holding d.mu from here until Wait
	// releases it, while the fetcher re-acquires d.mu after its ReadAt
	// before it broadcasts, is what prevents a waiter's Wait()
	// from missing a Broadcast that fired between its own lock-free
	// lookup and the moment it actually starts waiting.
	d.mu.Lock()

	if hit, val, ok := d.lookupLocked(sourceID, want); ok {
		d.touch(hit)
		d.mu.Unlock()
		return val, nil
	}

	condIface, loaded := d.fetching.LoadOrStore(k, sync.NewCond(&d.mu))
	cond := condIface.(*sync.Cond)

	if loaded {
		// Another goroutine is already fetching this exact range. Wait
		// atomically unlocks d.mu and re-locks it before returning, so the
		// re-check below is safe.
		cond.Wait()
		if hit, val, ok := d.lookupLocked(sourceID, want); ok {
			d.touch(hit)
			d.mu.Unlock()
			return val, nil
		}
		// Woke up but the range still isn't cached (the prior fetch
		// failed or didn't cover it): fall through and become the
		// fetcher ourselves, reusing cond — the prior fetcher already
		// removed k from d.fetching before broadcasting.
	}

	// We are the designated fetcher for k, and d.mu is locked. Unlock
	// during the potentially long remote read, then re-lock to clean up
	// and broadcast.
	d.mu.Unlock()
	buf := make([]byte, length)
	n, err := source.ReadAt(buf, start)
	d.mu.Lock()

	d.fetching.Delete(k)
	cond.Broadcast()

	if err != nil && err != io.EOF {
		d.mu.Unlock()
		return nil, fmt.Errorf("iodispatch: fetch %q [%d,%d): %w", sourceID, start, end, err)
	}
	if int64(n) != length {
		d.mu.Unlock()
		return nil, fmt.Errorf("iodispatch: short read for %q [%d,%d): got %d bytes", sourceID, start, end, n)
	}

	d.insert(sourceID, want, buf)
	d.mu.Unlock()
	return buf, nil
}

// lookup finds an exact or superset cached range under a read lock.
func (d *Dispatcher) lookup(sourceID string, want Range) (key, []byte, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lookupLocked(sourceID, want)
}

// lookupLocked is lookup's body with no locking of its own: the caller must
// already hold d.mu (for reading or writing — the map is only read here).
func (d *Dispatcher) lookupLocked(sourceID string, want Range) (key, []byte, bool) {
	exact := key{source: sourceID, r: want}
	if e, ok := d.cache[exact]; ok {
		return exact, cloneBytes(e.value), true
	}
	for k, e := range d.cache {
		if k.source != sourceID {
			continue
		}
		if k.r.contains(want) {
			off := want[0] - k.r[0]
			return k, cloneBytes(e.value[off : off+(want[1]-want[0])]), true
		}
	}
	return key{}, nil, false
}

// insert stores a freshly-fetched range, merging it with any cached ranges
// it touches or abuts (spec §5: "coalesces adjacent ranges"), then evicts
// LRU entries until back under budget. Assumes d.mu held.
func (d *Dispatcher) insert(sourceID string, r Range, value []byte) {
	merged := map[int64]byte{}
	for i, b := range value {
		merged[r[0]+int64(i)] = b
	}

	var toRemove []key
	for k, e := range d.cache {
		if k.source != sourceID {
			continue
		}
		if k.r.intersects(r) || k.r.isAdjacent(r) {
			toRemove = append(toRemove, k)
			for i := k.r[0]; i < k.r[1]; i++ {
				if _, exists := merged[i]; !exists {
					merged[i] = e.value[i-k.r[0]]
				}
			}
		}
	}
	for _, k := range toRemove {
		d.remove(k)
	}

	offsets := make([]int64, 0, len(merged))
	for off := range merged {
		offsets = append(offsets, off)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	if len(offsets) == 0 {
		return
	}

	segStart := offsets[0]
	segVals := []byte{merged[offsets[0]]}
	flush := func(start int64, vals []byte) {
		d.addEntry(sourceID, Range{start, start + int64(len(vals))}, vals)
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] == segStart+int64(len(segVals)) {
			segVals = append(segVals, merged[offsets[i]])
			continue
		}
		flush(segStart, segVals)
		segStart = offsets[i]
		segVals = []byte{merged[offsets[i]]}
	}
	flush(segStart, segVals)

	d.evict()
}

func (d *Dispatcher) addEntry(sourceID string, r Range, value []byte) {
	k := key{source: sourceID, r: r}
	d.cache[k] = entry{value: value, lastRead: time.Now()}
	d.occupiedSpace += int64(len(value))
	d.lruMap[k] = d.lruList.PushFront(k)
}

func (d *Dispatcher) remove(k key) {
	if e, ok := d.cache[k]; ok {
		d.occupiedSpace -= int64(len(e.value))
		delete(d.cache, k)
	}
	if elem, ok := d.lruMap[k]; ok {
		d.lruList.Remove(elem)
		delete(d.lruMap, k)
	}
}

func (d *Dispatcher) touch(k key) {
	if elem, ok := d.lruMap[k]; ok {
		d.lruList.MoveToFront(elem)
		e := d.cache[k]
		e.lastRead = time.Now()
		d.cache[k] = e
	}
}

func (d *Dispatcher) evict() {
	if d.maxMemorySize <= 0 {
		return
	}
	for d.occupiedSpace > d.maxMemorySize && d.lruList.Len() > 0 {
		elem := d.lruList.Back()
		k := elem.Value.(key)
		klog.V(5).Infof("iodispatch: evicting %s %v, occupied space %d", k.source, k.r, d.occupiedSpace)
		d.remove(k)
	}
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
