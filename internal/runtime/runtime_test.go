package runtime

import (
	"context"
	"testing"
	"time"

	cfgpkg "github.com/CHESTERFIELD/simple-chat/internal/config"
	"github.com/CHESTERFIELD/simple-chat/internal/mailbox"
)

func testConfig(t *testing.T) cfgpkg.Config {
	cfg := cfgpkg.Default()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Storage.Fsync = "always"
	return cfg
}

func TestOpenCloseHealth(t *testing.T) {
	rt, err := Open(context.Background(), Options{Config: testConfig(t)})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := rt.CheckHealth(context.Background()); err == nil {
		t.Fatalf("health after close should fail")
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestEngineRoundTrip(t *testing.T) {
	rt, err := Open(context.Background(), Options{Config: testConfig(t)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()
	ctx := context.Background()
	if _, err := rt.Engine().Enqueue(ctx, mailbox.Message{Sender: "alice", Recipient: "bob", Body: "hi"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	batch, err := rt.Engine().DrainOnce(ctx, "bob")
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(batch) != 1 || batch[0].Message.Body != "hi" {
		t.Fatalf("unexpected batch: %+v", batch)
	}
}

func TestIdleStrategySelection(t *testing.T) {
	rt, err := Open(context.Background(), Options{Config: testConfig(t)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()

	mc := cfgpkg.Default().Mailbox
	mc.Delivery = "poll"
	s, err := idleStrategy(rt.Store(), mc)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if p, ok := s.(mailbox.PollIdle); !ok || p.Interval != time.Second {
		t.Fatalf("expected 1s PollIdle, got %#v", s)
	}

	mc.Delivery = "auto"
	mc.Resync = 30 * time.Second
	s, err = idleStrategy(rt.Store(), mc)
	if err != nil {
		t.Fatalf("auto: %v", err)
	}
	if w, ok := s.(mailbox.WatchIdle); !ok || w.Resync != 30*time.Second {
		t.Fatalf("expected WatchIdle on pebble, got %#v", s)
	}

	mc.Delivery = "watch"
	s, err = idleStrategy(rt.Store(), mc)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if w, ok := s.(mailbox.WatchIdle); !ok {
		t.Fatalf("expected WatchIdle, got %#v", s)
	} else if _, ok := w.Watcher.(*mailbox.Adapter); !ok {
		t.Fatalf("watch should subscribe through the adapter, got %T", w.Watcher)
	}

	mc.Delivery = "push"
	if _, err := idleStrategy(rt.Store(), mc); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestOpenRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mailbox.IDStrategy = "random"
	if _, err := Open(context.Background(), Options{Config: cfg}); err == nil {
		t.Fatalf("expected id strategy error")
	}
	cfg = testConfig(t)
	cfg.Storage.Backend = "etcd"
	if _, err := Open(context.Background(), Options{Config: cfg}); err == nil {
		t.Fatalf("expected backend error")
	}
}
