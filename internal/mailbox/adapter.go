package mailbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/CHESTERFIELD/simple-chat/internal/errs"
	"github.com/CHESTERFIELD/simple-chat/internal/kv"
)

// Decoded is one scanned entry. Err is set when the stored bytes could not be
// decoded; Key is always set.
type Decoded[T any] struct {
	Key   string
	Value T
	Err   error
}

// Adapter is the typed view of the raw store: it owns the key layout and the
// on-disk record format. Store failures come back wrapped in
// errs.ErrStorageUnavailable.
type Adapter struct {
	store kv.Store
}

// NewAdapter wraps store.
func NewAdapter(store kv.Store) *Adapter { return &Adapter{store: store} }

// CanWatch reports whether the store has a change feed.
func (a *Adapter) CanWatch() bool {
	_, ok := a.store.(kv.Watcher)
	return ok
}

// Watch subscribes to changes under prefix. It fails with
// errs.ErrStorageUnavailable when the store has no change feed.
func (a *Adapter) Watch(ctx context.Context, prefix string) (kv.Subscription, error) {
	w, ok := a.store.(kv.Watcher)
	if !ok {
		return nil, storageErr("watch", prefix, errWatchUnsupported)
	}
	sub, err := w.Watch(ctx, prefix)
	if err != nil {
		return nil, storageErr("watch", prefix, err)
	}
	return sub, nil
}

// PutUser upserts the directory entry for u.Login.
func (a *Adapter) PutUser(ctx context.Context, u User) error {
	b, err := encodeUser(u)
	if err != nil {
		return err
	}
	key := UserKey(u.Login)
	if err := a.store.Put(ctx, key, b); err != nil {
		return storageErr("put", key, err)
	}
	return nil
}

// ScanUsers returns every directory entry in key order.
func (a *Adapter) ScanUsers(ctx context.Context) ([]Decoded[User], error) {
	pairs, err := a.store.Scan(ctx, UserPrefix())
	if err != nil {
		return nil, storageErr("scan", UserPrefix(), err)
	}
	out := make([]Decoded[User], 0, len(pairs))
	for _, p := range pairs {
		u, derr := decodeUser(p.Value)
		out = append(out, Decoded[User]{Key: p.Key, Value: u, Err: derr})
	}
	return out, nil
}

// PutMessage stores m under key.
func (a *Adapter) PutMessage(ctx context.Context, key string, m Message) error {
	b, err := encodeMessage(m)
	if err != nil {
		return err
	}
	if err := a.store.Put(ctx, key, b); err != nil {
		return storageErr("put", key, err)
	}
	return nil
}

// ScanMessages returns every message stored under prefix in key order.
func (a *Adapter) ScanMessages(ctx context.Context, prefix string) ([]Decoded[Message], error) {
	pairs, err := a.store.Scan(ctx, prefix)
	if err != nil {
		return nil, storageErr("scan", prefix, err)
	}
	out := make([]Decoded[Message], 0, len(pairs))
	for _, p := range pairs {
		m, derr := decodeMessage(p.Value)
		out = append(out, Decoded[Message]{Key: p.Key, Value: m, Err: derr})
	}
	return out, nil
}

// Delete removes key. Missing keys are not an error.
func (a *Adapter) Delete(ctx context.Context, key string) error {
	if err := a.store.Delete(ctx, key); err != nil {
		return storageErr("delete", key, err)
	}
	return nil
}

var errWatchUnsupported = errors.New("store cannot watch")

func storageErr(op, key string, err error) error {
	return fmt.Errorf("mailbox: %s %q: %w: %w", op, key, errs.ErrStorageUnavailable, err)
}
