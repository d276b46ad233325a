package mailbox

import (
	"context"
	"time"

	"github.com/CHESTERFIELD/simple-chat/internal/kv"
)

// IdleStrategy decides how a delivery loop waits between empty scans.
type IdleStrategy interface {
	// Open prepares waiting for changes under prefix. It is called once,
	// before the first scan, so no change after that point is missed.
	Open(ctx context.Context, prefix string) (Idler, error)
}

// Idler is one delivery loop's waiting handle.
type Idler interface {
	// Wait blocks until another scan is worthwhile. It returns ctx.Err()
	// when ctx ends first.
	Wait(ctx context.Context) error
	Close()
}

// PollIdle sleeps a fixed interval between scans.
type PollIdle struct {
	Interval time.Duration
}

func (p PollIdle) Open(context.Context, string) (Idler, error) {
	iv := p.Interval
	if iv <= 0 {
		iv = DefaultPollInterval
	}
	return pollIdler{interval: iv}, nil
}

type pollIdler struct{ interval time.Duration }

func (p pollIdler) Wait(ctx context.Context) error { return sleep(ctx, p.interval) }
func (pollIdler) Close()                           {}

// WatchIdle wakes as soon as a put lands under the mailbox prefix. Resync, if
// positive, caps each wait so a lost notification costs at most one interval.
// If the watch ends early the idler degrades to polling every Fallback.
type WatchIdle struct {
	Watcher  kv.Watcher
	Resync   time.Duration
	Fallback time.Duration
}

func (w WatchIdle) Open(ctx context.Context, prefix string) (Idler, error) {
	sub, err := w.Watcher.Watch(ctx, prefix)
	if err != nil {
		return nil, err
	}
	fb := w.Fallback
	if fb <= 0 {
		fb = DefaultPollInterval
	}
	return &watchIdler{sub: sub, events: sub.Events(), resync: w.Resync, fallback: fb}, nil
}

type watchIdler struct {
	sub      kv.Subscription
	events   <-chan kv.Event
	resync   time.Duration
	fallback time.Duration
}

func (w *watchIdler) Wait(ctx context.Context) error {
	if w.events == nil {
		return sleep(ctx, w.fallback)
	}
	var resync <-chan time.Time
	if w.resync > 0 {
		t := time.NewTimer(w.resync)
		defer t.Stop()
		resync = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-resync:
			return nil
		case ev, ok := <-w.events:
			if !ok {
				w.events = nil
				return sleep(ctx, w.fallback)
			}
			if ev.Type != kv.EventPut {
				continue
			}
			w.drain()
			return nil
		}
	}
}

// drain coalesces already-queued events into the wakeup being handled.
func (w *watchIdler) drain() {
	for {
		select {
		case _, ok := <-w.events:
			if !ok {
				w.events = nil
				return
			}
		default:
			return
		}
	}
}

func (w *watchIdler) Close() { w.sub.Cancel() }

// AutoIdle watches when store supports it and polls every interval otherwise.
func AutoIdle(store kv.Store, interval time.Duration) IdleStrategy {
	if a := NewAdapter(store); a.CanWatch() {
		return WatchIdle{Watcher: a, Fallback: interval}
	}
	return PollIdle{Interval: interval}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
