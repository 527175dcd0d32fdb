package iodispatch_test

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vxdb/vortex/iodispatch"
)

type readerAtSource struct {
	*bytes.Reader
	size int64
}

func (s readerAtSource) Size() int64 { return s.size }

func newSource(data []byte) readerAtSource {
	return readerAtSource{Reader: bytes.NewReader(data), size: int64(len(data))}
}

// slowCountingSource blocks every ReadAt on start until released, and counts
// how many ReadAt calls actually reach the underlying source — used to
// prove concurrent Fetch calls for the same range coalesce into one read.
type slowCountingSource struct {
	data    []byte
	release chan struct{}
	reads   int64
}

func (s *slowCountingSource) ReadAt(p []byte, off int64) (int, error) {
	atomic.AddInt64(&s.reads, 1)
	<-s.release
	return copy(p, s.data[off:]), nil
}

func (s *slowCountingSource) Size() int64 { return int64(len(s.data)) }

func TestFetchExactAndSubsetRanges(t *testing.T) {
	data := []byte("hello world")
	src := newSource(data)
	d := iodispatch.New(0)

	got, err := d.Fetch(context.Background(), "test", src, 0, 5)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)

	got, err = d.Fetch(context.Background(), "test", src, 1, 3)
	require.NoError(t, err)
	require.Equal(t, []byte("ell"), got)

	got, err = d.Fetch(context.Background(), "test", src, 1, 7)
	require.NoError(t, err)
	require.Equal(t, []byte("ello wo"), got)
}

func TestFetchRejectsOutOfRange(t *testing.T) {
	src := newSource([]byte("short"))
	d := iodispatch.New(0)
	_, err := d.Fetch(context.Background(), "test", src, 0, 100)
	require.Error(t, err)
}

func TestFetchCoalescesAdjacentRanges(t *testing.T) {
	data := []byte("0123456789")
	src := newSource(data)
	d := iodispatch.New(0)

	_, err := d.Fetch(context.Background(), "test", src, 0, 4)
	require.NoError(t, err)
	_, err = d.Fetch(context.Background(), "test", src, 4, 4)
	require.NoError(t, err)

	got, err := d.Fetch(context.Background(), "test", src, 0, 8)
	require.NoError(t, err)
	require.Equal(t, []byte("01234567"), got)
}

func TestFetchEvictsUnderMemoryPressure(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 100)
	src := newSource(data)
	d := iodispatch.New(10)

	_, err := d.Fetch(context.Background(), "test", src, 0, 10)
	require.NoError(t, err)
	require.LessOrEqual(t, d.OccupiedSpace(), int64(10))

	_, err = d.Fetch(context.Background(), "test", src, 50, 10)
	require.NoError(t, err)
	require.LessOrEqual(t, d.OccupiedSpace(), int64(10))
}

// TestFetchCoalescesConcurrentSameRangeFetches drives many goroutines
// through Fetch for the identical range while the underlying ReadAt is
// blocked, then releases it once every goroutine is confirmed waiting.
// Every goroutine must return the right bytes and the source must see
// exactly one ReadAt: a lost wakeup in the fetch-coordination path would
// either deadlock this test (caught by the timeout) or let more than one
// goroutine become the fetcher.
func TestFetchCoalescesConcurrentSameRangeFetches(t *testing.T) {
	src := &slowCountingSource{data: []byte("0123456789"), release: make(chan struct{})}
	d := iodispatch.New(0)

	const n = 16
	results := make(chan []byte, n)
	errs := make(chan error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			got, err := d.Fetch(context.Background(), "test", src, 2, 5)
			results <- got
			errs <- err
		}()
	}

	// Give every goroutine a chance to reach Fetch and either become the
	// fetcher (blocked in ReadAt) or start waiting on the fetcher's cond.
	time.Sleep(50 * time.Millisecond)
	close(src.release)

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Fetch goroutines did not complete: likely a lost wakeup in fetch coordination")
	}

	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
		require.Equal(t, []byte("23456"), <-results)
	}
	require.Equal(t, int64(1), atomic.LoadInt64(&src.reads))
}

func TestFetchDistinguishesSources(t *testing.T) {
	d := iodispatch.New(0)
	a := newSource([]byte("aaaaa"))
	b := newSource([]byte("bbbbb"))

	gotA, err := d.Fetch(context.Background(), "a", a, 0, 5)
	require.NoError(t, err)
	gotB, err := d.Fetch(context.Background(), "b", b, 0, 5)
	require.NoError(t, err)
	require.Equal(t, []byte("aaaaa"), gotA)
	require.Equal(t, []byte("bbbbb"), gotB)
}
