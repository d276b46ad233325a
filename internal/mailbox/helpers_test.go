package mailbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/CHESTERFIELD/simple-chat/internal/kv"
	pebblestore "github.com/CHESTERFIELD/simple-chat/internal/storage/pebble"
)

var errInjected = errors.New("injected store failure")

// faultyStore wraps a real store and fails selected operations on demand.
type faultyStore struct {
	kv.Store
	mu          sync.Mutex
	failScans   int
	failDeletes int
	failPuts    bool
	puts        int
}

func (f *faultyStore) Put(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	fail := f.failPuts
	f.puts++
	f.mu.Unlock()
	if fail {
		return errInjected
	}
	return f.Store.Put(ctx, key, value)
}

func (f *faultyStore) Scan(ctx context.Context, prefix string) ([]kv.Pair, error) {
	f.mu.Lock()
	fail := f.failScans > 0
	if fail {
		f.failScans--
	}
	f.mu.Unlock()
	if fail {
		return nil, errInjected
	}
	return f.Store.Scan(ctx, prefix)
}

func (f *faultyStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	fail := f.failDeletes > 0
	if fail {
		f.failDeletes--
	}
	f.mu.Unlock()
	if fail {
		return errInjected
	}
	return f.Store.Delete(ctx, key)
}

func (f *faultyStore) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

type countingObserver struct {
	enqueued, delivered, corrupt, scanFailed, deleteFailed atomic.Int64
}

func (o *countingObserver) MessageEnqueued()  { o.enqueued.Add(1) }
func (o *countingObserver) MessageDelivered() { o.delivered.Add(1) }
func (o *countingObserver) CorruptEntry()     { o.corrupt.Add(1) }
func (o *countingObserver) ScanFailed()       { o.scanFailed.Add(1) }
func (o *countingObserver) DeleteFailed()     { o.deleteFailed.Add(1) }

func openPebble(t *testing.T) *pebblestore.DB {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *pebblestore.DB, *countingObserver) {
	t.Helper()
	db := openPebble(t)
	obs := &countingObserver{}
	opts = append([]Option{WithObserver(obs), WithIdle(PollIdle{Interval: 10 * time.Millisecond})}, opts...)
	return NewEngine(db, opts...), db, obs
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func collect(out *[]Message, mu *sync.Mutex) EmitFunc {
	return func(_ context.Context, m Message) error {
		mu.Lock()
		*out = append(*out, m)
		mu.Unlock()
		return nil
	}
}
