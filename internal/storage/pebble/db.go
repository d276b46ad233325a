package pebblestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/CHESTERFIELD/simple-chat/internal/kv"
)

// FsyncMode defines durability behavior for write operations.
type FsyncMode int

const (
	FsyncModeUnspecified FsyncMode = iota
	// FsyncModeAlways requests a WAL fsync on each committed write.
	FsyncModeAlways
	// FsyncModeInterval lets Pebble coalesce WAL syncs for writes within the
	// configured interval (group commit).
	FsyncModeInterval
	// FsyncModeNever never forces a WAL sync from the application.
	FsyncModeNever
)

// ParseFsyncMode maps always|interval|never to a FsyncMode.
func ParseFsyncMode(s string) (FsyncMode, error) {
	switch s {
	case "always", "":
		return FsyncModeAlways, nil
	case "interval":
		return FsyncModeInterval, nil
	case "never":
		return FsyncModeNever, nil
	default:
		return FsyncModeUnspecified, fmt.Errorf("pebble: invalid fsync mode %q; use always|interval|never", s)
	}
}

// Options configures the Pebble store.
type Options struct {
	// DataDir is the path to the Pebble database directory.
	DataDir string
	// Fsync determines when to sync the WAL.
	Fsync FsyncMode
	// FsyncInterval controls group-commit when Fsync=FsyncModeInterval.
	FsyncInterval time.Duration
	// PebbleOptions allows advanced tuning of Pebble. If nil, defaults are used.
	PebbleOptions *pebble.Options
	// Metrics observes read/write/commit latencies and sizes. Optional.
	Metrics MetricsHook
}

// MetricsHook is a minimal hook surface for storage observations.
type MetricsHook interface {
	ObserveWrite(elapsed time.Duration, bytes int)
	ObserveRead(elapsed time.Duration, bytes int)
	ObserveBatchCommit(elapsed time.Duration, numOps int, bytes int)
}

// NoopMetrics is used when no metrics hook is provided.
type NoopMetrics struct{}

func (NoopMetrics) ObserveWrite(time.Duration, int)            {}
func (NoopMetrics) ObserveRead(time.Duration, int)             {}
func (NoopMetrics) ObserveBatchCommit(time.Duration, int, int) {}

// DB is a kv.Store and kv.Watcher backed by an embedded Pebble database.
// Watches are served in-process: every committed Put or Delete is published
// to the hub after the commit returns.
type DB struct {
	inner     *pebble.DB
	writeSync bool
	metrics   MetricsHook
	hub       *kv.Hub
}

var (
	_ kv.Store   = (*DB)(nil)
	_ kv.Watcher = (*DB)(nil)
)

// Open creates or opens a Pebble database with the provided options.
func Open(opts Options) (*DB, error) {
	if opts.DataDir == "" {
		return nil, errors.New("pebble: Options.DataDir is required")
	}

	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}
	switch opts.Fsync {
	case FsyncModeAlways, FsyncModeNever:
	case FsyncModeInterval:
		if opts.FsyncInterval <= 0 {
			opts.FsyncInterval = 5 * time.Millisecond
		}
		po.WALMinSyncInterval = func() time.Duration { return opts.FsyncInterval }
	default:
		po.WALMinSyncInterval = func() time.Duration { return 5 * time.Millisecond }
	}

	inner, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		return nil, err
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &DB{
		inner:     inner,
		writeSync: opts.Fsync == FsyncModeAlways,
		metrics:   metrics,
		hub:       kv.NewHub(),
	}, nil
}

// Close ends all watches and closes the database.
func (db *DB) Close() error {
	if db == nil || db.inner == nil {
		return nil
	}
	db.hub.Close()
	return db.inner.Close()
}

// Ping verifies the database can serve reads.
func (db *DB) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	it, err := db.inner.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

func (db *DB) commit(b *pebble.Batch, ops int) error {
	start := time.Now()
	size := b.Len()
	mode := pebble.NoSync
	if db.writeSync {
		mode = pebble.Sync
	}
	err := b.Commit(mode)
	db.metrics.ObserveBatchCommit(time.Since(start), ops, size)
	return err
}

// Put upserts key.
func (db *DB) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	b := db.inner.NewBatch()
	defer b.Close()
	if err := b.Set([]byte(key), value, nil); err != nil {
		return err
	}
	if err := db.commit(b, 1); err != nil {
		return err
	}
	db.metrics.ObserveWrite(time.Since(start), len(key)+len(value))
	db.hub.Publish(kv.Event{Type: kv.EventPut, Key: key})
	return nil
}

// Delete removes key; a missing key is not an error.
func (db *DB) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b := db.inner.NewBatch()
	defer b.Close()
	if err := b.Delete([]byte(key), nil); err != nil {
		return err
	}
	if err := db.commit(b, 1); err != nil {
		return err
	}
	db.hub.Publish(kv.Event{Type: kv.EventDelete, Key: key})
	return nil
}

// Get copies the value for key, returning kv.ErrNotFound when absent.
func (db *DB) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	val, closer, err := db.inner.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, kv.ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()
	buf := append([]byte(nil), val...)
	db.metrics.ObserveRead(time.Since(start), len(buf))
	return buf, nil
}

// Scan returns all pairs under prefix in key order. The context is checked
// between entries so a cancelled scan stops early.
func (db *DB) Scan(ctx context.Context, prefix string) ([]kv.Pair, error) {
	start := time.Now()
	lower, upper := keyRange(prefix)
	it, err := db.inner.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []kv.Pair
	bytes := 0
	for ok := it.First(); ok; ok = it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v := append([]byte(nil), it.Value()...)
		out = append(out, kv.Pair{Key: string(it.Key()), Value: v})
		bytes += len(v)
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	db.metrics.ObserveRead(time.Since(start), bytes)
	return out, nil
}

// Watch subscribes to puts and deletes under prefix made through this DB.
func (db *DB) Watch(ctx context.Context, prefix string) (kv.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return db.hub.Subscribe(ctx, prefix), nil
}
