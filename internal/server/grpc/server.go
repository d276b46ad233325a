package grpcserver

import (
	"context"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	chatv1 "github.com/CHESTERFIELD/simple-chat/api/chat/v1"
	"github.com/CHESTERFIELD/simple-chat/internal/runtime"
	chatsvc "github.com/CHESTERFIELD/simple-chat/internal/services/chat"
	logpkg "github.com/CHESTERFIELD/simple-chat/pkg/log"
)

const (
	healthInterval = 10 * time.Second
	stopTimeout    = 10 * time.Second
)

// Server owns the gRPC server instance and runtime.
type Server struct {
	rt     *runtime.Runtime
	svc    *chatsvc.Service
	grpc   *grpc.Server
	health *health.Server
	lis    net.Listener
	logger logpkg.Logger

	// base is cancelled on stop; every handler context ends with it.
	base       context.Context
	cancelBase context.CancelFunc
	stopOnce   sync.Once
	// stopTimeout bounds GracefulStop before connections are closed.
	stopTimeout time.Duration
}

// New constructs a gRPC server and registers services. The chat service is
// shared with the HTTP gateway when svc is non-nil.
func New(rt *runtime.Runtime, svc *chatsvc.Service, opts ...grpc.ServerOption) *Server {
	if svc == nil {
		svc = chatsvc.New(rt)
	}
	logger := rt.Logger().With(logpkg.Component("grpc"))
	base, cancelBase := context.WithCancel(context.Background())
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			RecoverUnary(logger),
			ShutdownUnary(base),
			RequestIDUnary(),
			LoggingUnary(logger),
			ErrorsUnary(),
		),
		grpc.ChainStreamInterceptor(
			RecoverStream(logger),
			ShutdownStream(base),
			RequestIDStream(),
			LoggingStream(logger),
			ErrorsStream(),
		),
	}, opts...)

	s := &Server{
		rt:          rt,
		svc:         svc,
		grpc:        grpc.NewServer(opts...),
		health:      health.NewServer(),
		logger:      logger,
		base:        base,
		cancelBase:  cancelBase,
		stopTimeout: stopTimeout,
	}
	chatv1.RegisterSimpleChatServer(s.grpc, &chatSvc{svc: svc})
	healthpb.RegisterHealthServer(s.grpc, s.health)
	if rt.Config().Server.Reflection {
		reflection.Register(s.grpc)
	}
	s.refreshHealth(context.Background())
	return s
}

// refreshHealth mirrors the store health into the grpc health service.
func (s *Server) refreshHealth(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if err := s.rt.CheckHealth(ctx); err != nil {
		s.logger.Warn("health check failed", logpkg.Err(err))
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(chatv1.SimpleChat_ServiceDesc.ServiceName, st)
}

func (s *Server) watchHealth(ctx context.Context) {
	t := time.NewTicker(healthInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			hctx, cancel := context.WithTimeout(ctx, healthInterval/2)
			s.refreshHealth(hctx)
			cancel()
		}
	}
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve serves on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.lis = l
	go s.watchHealth(ctx)
	s.logger.Info("grpc listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(l) }()
	select {
	case <-ctx.Done():
		s.stop()
		return nil
	case err := <-errCh:
		return err
	}
}

// stop reports NOT_SERVING, ends in-flight handlers and drains. Connections
// still open after stopTimeout are closed.
func (s *Server) stop() {
	s.stopOnce.Do(func() {
		s.health.Shutdown()
		s.cancelBase()
		done := make(chan struct{})
		go func() {
			s.grpc.GracefulStop()
			close(done)
		}()
		t := time.NewTimer(s.stopTimeout)
		defer t.Stop()
		select {
		case <-done:
		case <-t.C:
			s.logger.Warn("grpc graceful stop timed out, closing connections",
				logpkg.Dur("timeout", s.stopTimeout))
			s.grpc.Stop()
			<-done
		}
	})
}

// Close stops the server and closes the listener.
func (s *Server) Close() {
	s.stop()
	if s.lis != nil {
		_ = s.lis.Close()
	}
}
