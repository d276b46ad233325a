package grpcserver

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/CHESTERFIELD/simple-chat/internal/errs"
	logpkg "github.com/CHESTERFIELD/simple-chat/pkg/log"
)

// RequestIDHeader is read from incoming metadata and echoed in the header.
const RequestIDHeader = "x-request-id"

// RecoverUnary returns a unary server interceptor that recovers from panics.
func RecoverUnary(log logpkg.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					logpkg.Any("reason", r),
					logpkg.Str("stack", string(debug.Stack())),
					logpkg.Str("method", info.FullMethod),
				)
				err = status.Error(codes.Internal, "internal")
			}
		}()
		return next(ctx, req)
	}
}

// RecoverStream is RecoverUnary for streams.
func RecoverStream(log logpkg.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, next grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					logpkg.Any("reason", r),
					logpkg.Str("stack", string(debug.Stack())),
					logpkg.Str("method", info.FullMethod),
				)
				err = status.Error(codes.Internal, "internal")
			}
		}()
		return next(srv, ss)
	}
}

func requestID(ctx context.Context) context.Context {
	id := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(RequestIDHeader); len(v) > 0 {
			id = v[0]
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id))
	return logpkg.ContextWithRequestID(ctx, id)
}

// RequestIDUnary attaches a request id to the context.
func RequestIDUnary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		return next(requestID(ctx), req)
	}
}

// RequestIDStream attaches a request id to the stream context.
func RequestIDStream() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, next grpc.StreamHandler) error {
		return next(srv, &ctxStream{ServerStream: ss, ctx: requestID(ss.Context())})
	}
}

// ShutdownUnary cancels the handler context when base is done.
func ShutdownUnary(base context.Context) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		defer context.AfterFunc(base, cancel)()
		return next(ctx, req)
	}
}

// ShutdownStream cancels the stream context when base is done. The server
// cancels base before GracefulStop.
func ShutdownStream(base context.Context) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, next grpc.StreamHandler) error {
		ctx, cancel := context.WithCancel(ss.Context())
		defer cancel()
		defer context.AfterFunc(base, cancel)()
		return next(srv, &ctxStream{ServerStream: ss, ctx: ctx})
	}
}

type ctxStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *ctxStream) Context() context.Context { return s.ctx }

func peerAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return ""
}

// LoggingUnary returns a unary server interceptor for structured logging.
// Payloads are never logged.
func LoggingUnary(log logpkg.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		log.WithContext(ctx).Info("grpc",
			logpkg.Str("method", info.FullMethod),
			logpkg.Str("code", codeOf(err).String()),
			logpkg.Dur("dur", time.Since(start)),
			logpkg.Str("peer", peerAddr(ctx)),
		)
		return resp, err
	}
}

// LoggingStream logs stream completion.
func LoggingStream(log logpkg.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, next grpc.StreamHandler) error {
		start := time.Now()
		err := next(srv, ss)
		log.WithContext(ss.Context()).Info("grpc stream",
			logpkg.Str("method", info.FullMethod),
			logpkg.Str("code", codeOf(err).String()),
			logpkg.Dur("dur", time.Since(start)),
			logpkg.Str("peer", peerAddr(ss.Context())),
		)
		return err
	}
}

// ErrorsUnary converts domain errors into gRPC status errors.
func ErrorsUnary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		resp, err := next(ctx, req)
		return resp, toStatus(err)
	}
}

// ErrorsStream converts domain errors into gRPC status errors.
func ErrorsStream() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, next grpc.StreamHandler) error {
		return toStatus(next(srv, ss))
	}
}

func codeOf(err error) codes.Code {
	return status.Code(toStatus(err))
}

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var code codes.Code
	switch {
	case errors.Is(err, errs.ErrInvalidMessage), errors.Is(err, errs.ErrInvalidRequest):
		code = codes.InvalidArgument
	case errors.Is(err, errs.ErrRateLimited):
		code = codes.ResourceExhausted
	case errors.Is(err, errs.ErrStorageUnavailable):
		code = codes.Unavailable
	case errors.Is(err, errs.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}
