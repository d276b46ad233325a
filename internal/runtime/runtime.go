package runtime

import (
	"context"
	"errors"
	"fmt"

	cfgpkg "github.com/CHESTERFIELD/simple-chat/internal/config"
	"github.com/CHESTERFIELD/simple-chat/internal/kv"
	"github.com/CHESTERFIELD/simple-chat/internal/mailbox"
	"github.com/CHESTERFIELD/simple-chat/internal/metrics"
	pebblestore "github.com/CHESTERFIELD/simple-chat/internal/storage/pebble"
	redisstore "github.com/CHESTERFIELD/simple-chat/internal/storage/redis"
	logpkg "github.com/CHESTERFIELD/simple-chat/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	Logger logpkg.Logger
	// Metrics is created when nil.
	Metrics *metrics.Metrics
	// Store, when set, is used instead of opening Config.Storage. The
	// runtime takes ownership and closes it.
	Store kv.Store
}

// Runtime owns the store handle and the mailbox engine built on it.
type Runtime struct {
	store   kv.Store
	engine  *mailbox.Engine
	metrics *metrics.Metrics
	logger  logpkg.Logger
	config  cfgpkg.Config
}

// Open initializes the configured store and the engine on top of it.
func Open(ctx context.Context, opts Options) (*Runtime, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	store := opts.Store
	if store == nil {
		var err error
		store, err = openStore(ctx, cfg.Storage, m, logger)
		if err != nil {
			return nil, err
		}
	}

	ids, err := mailbox.IDStrategy(cfg.Mailbox.IDStrategy)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	idle, err := idleStrategy(store, cfg.Mailbox)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	engine := mailbox.NewEngine(store,
		mailbox.WithLogger(logger),
		mailbox.WithObserver(m),
		mailbox.WithIDFunc(ids),
		mailbox.WithIdle(idle),
		mailbox.WithOpTimeout(cfg.Mailbox.OpTimeout),
	)
	logger.Info("runtime opened",
		logpkg.Str("backend", backendName(cfg.Storage.Backend, opts.Store != nil)),
		logpkg.Str("delivery", cfg.Mailbox.Delivery),
		logpkg.Str("id_strategy", cfg.Mailbox.IDStrategy))
	return &Runtime{store: store, engine: engine, metrics: m, logger: logger, config: cfg}, nil
}

func openStore(ctx context.Context, sc cfgpkg.Storage, m *metrics.Metrics, logger logpkg.Logger) (kv.Store, error) {
	switch sc.Backend {
	case "", "pebble":
		fsync, err := pebblestore.ParseFsyncMode(sc.Fsync)
		if err != nil {
			return nil, err
		}
		dir := sc.DataDir
		if dir == "" {
			dir = cfgpkg.DefaultDataDir()
		}
		db, err := pebblestore.Open(pebblestore.Options{
			DataDir:       dir,
			Fsync:         fsync,
			FsyncInterval: sc.FsyncInterval,
			Metrics:       m,
		})
		if err != nil {
			return nil, fmt.Errorf("runtime: open pebble at %s: %w", dir, err)
		}
		return db, nil
	case "redis":
		return redisstore.Open(ctx, redisstore.Options{
			Addr:      sc.Redis.Addr,
			Password:  sc.Redis.Password,
			DB:        sc.Redis.DB,
			Namespace: sc.Redis.Namespace,
			Logger:    logger,
		})
	default:
		return nil, fmt.Errorf("runtime: unknown storage backend %q", sc.Backend)
	}
}

func idleStrategy(store kv.Store, mc cfgpkg.Mailbox) (mailbox.IdleStrategy, error) {
	switch mc.Delivery {
	case "poll":
		return mailbox.PollIdle{Interval: mc.PollInterval}, nil
	case "watch":
		a := mailbox.NewAdapter(store)
		if !a.CanWatch() {
			return nil, errors.New("runtime: delivery=watch but the store cannot watch")
		}
		return mailbox.WatchIdle{Watcher: a, Resync: mc.Resync, Fallback: mc.PollInterval}, nil
	case "", "auto":
		s := mailbox.AutoIdle(store, mc.PollInterval)
		if w, ok := s.(mailbox.WatchIdle); ok {
			w.Resync = mc.Resync
			return w, nil
		}
		return s, nil
	default:
		return nil, fmt.Errorf("runtime: unknown delivery mode %q", mc.Delivery)
	}
}

func backendName(configured string, injected bool) string {
	if injected {
		return "injected"
	}
	if configured == "" {
		return "pebble"
	}
	return configured
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.store == nil {
		return nil
	}
	err := r.store.Close()
	r.store = nil
	return err
}

// CheckHealth pings the store.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.store == nil {
		return errors.New("store not open")
	}
	return r.store.Ping(ctx)
}

// Engine returns the mailbox engine.
func (r *Runtime) Engine() *mailbox.Engine { return r.engine }

// Store exposes the raw store (internal use only).
func (r *Runtime) Store() kv.Store { return r.store }

// Metrics returns the instance metrics.
func (r *Runtime) Metrics() *metrics.Metrics { return r.metrics }

// Logger returns the root logger.
func (r *Runtime) Logger() logpkg.Logger { return r.logger }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
