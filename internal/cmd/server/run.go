package serverrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	cfgpkg "github.com/CHESTERFIELD/simple-chat/internal/config"
	"github.com/CHESTERFIELD/simple-chat/internal/runtime"
	grpcserver "github.com/CHESTERFIELD/simple-chat/internal/server/grpc"
	httpserver "github.com/CHESTERFIELD/simple-chat/internal/server/http"
	chatsvc "github.com/CHESTERFIELD/simple-chat/internal/services/chat"
	logpkg "github.com/CHESTERFIELD/simple-chat/pkg/log"
)

type Options struct {
	Config cfgpkg.Config
	// Logger overrides the logger built from Config.Log.
	Logger logpkg.Logger
}

// Run starts gRPC and HTTP servers and blocks until ctx is cancelled or one
// of them fails. Both servers drain before the store is closed.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	dataDirSource := "config"
	if cfg.Storage.Backend == "pebble" && cfg.Storage.DataDir == "" {
		dd := cfgpkg.ResolveDataDir()
		cfg.Storage.DataDir, dataDirSource = dd.Path, dd.Source
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	procLogger := opts.Logger
	if procLogger == nil {
		l, err := logpkg.ApplyConfig(&cfg.Log)
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		procLogger = l
	}
	// Pebble and net/http log through the stdlib logger.
	restore := logpkg.RedirectStdLog(procLogger)
	defer restore()

	rt, err := runtime.Open(sctx, runtime.Options{Config: cfg, Logger: procLogger})
	if err != nil {
		return err
	}
	defer rt.Close()

	procLogger.Info("Starting simple chat server",
		logpkg.Str("grpc", cfg.Server.GRPCAddr),
		logpkg.Str("http", cfg.Server.HTTPAddr),
		logpkg.Str("store", cfg.Storage.Backend),
		logpkg.Str("data_dir", cfg.Storage.DataDir),
		logpkg.Str("data_dir_source", dataDirSource),
		logpkg.Str("delivery", cfg.Mailbox.Delivery),
		logpkg.Str("id_strategy", cfg.Mailbox.IDStrategy),
		logpkg.Str("level", cfg.Log.Level),
		logpkg.Str("format", cfg.Log.Format),
	)

	// One service instance backs both transports.
	svc := chatsvc.NewWithLogger(rt, procLogger)
	gsrv := grpcserver.New(rt, svc)
	hsrv := httpserver.New(rt, svc, procLogger)

	g, gctx := errgroup.WithContext(sctx)
	g.Go(func() error {
		if err := gsrv.ListenAndServe(gctx, cfg.Server.GRPCAddr); err != nil {
			return fmt.Errorf("grpc: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := hsrv.ListenAndServe(gctx, cfg.Server.HTTPAddr); err != nil {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	err = g.Wait()
	procLogger.Info("simple chat server stopped")
	return err
}
