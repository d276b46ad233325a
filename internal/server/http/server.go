package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/CHESTERFIELD/simple-chat/internal/runtime"
	"github.com/CHESTERFIELD/simple-chat/internal/server/http/controllers"
	chatsvc "github.com/CHESTERFIELD/simple-chat/internal/services/chat"
	logpkg "github.com/CHESTERFIELD/simple-chat/pkg/log"
)

const shutdownTimeout = 5 * time.Second

// Server is the HTTP gateway in front of the chat service.
type Server struct {
	rt     *runtime.Runtime
	srv    *http.Server
	lis    net.Listener
	svc    *chatsvc.Service
	logger logpkg.Logger
}

// New builds the gateway. A nil svc creates a private chat service; pass the
// gRPC server's instance to share subscriber accounting and rate limits.
func New(rt *runtime.Runtime, svc *chatsvc.Service, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = rt.Logger()
	}
	logger = logger.With(logpkg.Component("http"))
	if svc == nil {
		svc = chatsvc.New(rt)
	}
	mux := http.NewServeMux()
	controllers.NewControllerRegistry(rt, svc, logger).RegisterAllRoutes(mux)
	return &Server{
		rt:     rt,
		svc:    svc,
		logger: logger,
		srv:    &http.Server{Handler: cors(mux), ReadHeaderTimeout: 10 * time.Second},
	}
}

// Handler returns the root handler including middleware.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	// Shutdown does not cancel in-flight requests; streaming handlers watch
	// this base context instead.
	base, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	s.srv.BaseContext = func(net.Listener) context.Context { return base }
	s.logger.Info("http listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cancelBase()
		cctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
