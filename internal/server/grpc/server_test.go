package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	chatv1 "github.com/CHESTERFIELD/simple-chat/api/chat/v1"
	cfgpkg "github.com/CHESTERFIELD/simple-chat/internal/config"
	"github.com/CHESTERFIELD/simple-chat/internal/errs"
	"github.com/CHESTERFIELD/simple-chat/internal/mailbox"
	"github.com/CHESTERFIELD/simple-chat/internal/runtime"
	logpkg "github.com/CHESTERFIELD/simple-chat/pkg/log"
)

const bufSize = 1 << 20

func dialer(s *grpc.Server) func(context.Context, string) (net.Conn, error) {
	lis := bufconn.Listen(bufSize)
	go func() { _ = s.Serve(lis) }()
	return func(ctx context.Context, s string) (net.Conn, error) { return lis.DialContext(ctx) }
}

func openRuntime(t *testing.T) *runtime.Runtime {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Storage.Fsync = "never"
	cfg.Server.Reflection = true
	rt, err := runtime.Open(context.Background(), runtime.Options{Config: cfg})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func newConn(t *testing.T, rt *runtime.Runtime) *grpc.ClientConn {
	t.Helper()
	srv := New(rt, nil)
	t.Cleanup(srv.grpc.Stop)
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(dialer(srv.grpc)),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHealthOverGRPC(t *testing.T) {
	conn := newConn(t, openRuntime(t))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: chatv1.SimpleChat_ServiceDesc.ServiceName})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status: %v", res.GetStatus())
	}
}

func TestChatOverGRPC(t *testing.T) {
	rt := openRuntime(t)
	conn := newConn(t, rt)
	c := chatv1.NewSimpleChatClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, u := range []mailbox.User{{Login: "alice", FullName: "Alice A"}, {Login: "bob", FullName: "Bob B"}} {
		if err := rt.Engine().RegisterUser(ctx, u); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	users, err := c.GetUsers(ctx, &chatv1.GetUsersRequest{})
	if err != nil {
		t.Fatalf("get users: %v", err)
	}
	if len(users.Users) != 2 || users.Users[0].FullName != "Alice A" {
		t.Fatalf("users: %+v", users.Users)
	}

	sent, err := c.SendMessage(ctx, &chatv1.SendMessageRequest{Message: &chatv1.Message{Sender: "alice", Recipient: "bob", Body: "hi"}})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent.Created == 0 {
		t.Fatalf("created not assigned")
	}

	stream, err := c.ReceiveMessages(ctx, &chatv1.ReceiveMessagesRequest{Login: "bob", Limit: 1})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	msg, err := stream.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if msg.Body != "hi" || msg.Sender != "alice" || msg.Created != sent.Created {
		t.Fatalf("message: %+v", msg)
	}
	if _, err := stream.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after limit, got %v", err)
	}
	left, err := rt.Engine().DrainOnce(ctx, "bob")
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("mailbox not empty: %d", len(left))
	}
}

func TestServeStopsWithOpenReceiveStream(t *testing.T) {
	rt := openRuntime(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rt.Engine().RegisterUser(ctx, mailbox.User{Login: "bob"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := rt.Engine().Enqueue(ctx, mailbox.Message{Sender: "alice", Recipient: "bob", Body: "hi"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	srv := New(rt, nil)
	lis := bufconn.Listen(bufSize)
	serveCtx, stopServe := context.WithCancel(context.Background())
	defer stopServe()
	served := make(chan error, 1)
	go func() { served <- srv.Serve(serveCtx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	stream, err := chatv1.NewSimpleChatClient(conn).ReceiveMessages(ctx, &chatv1.ReceiveMessagesRequest{Login: "bob"})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	// The first message proves the handler is running; it then idles.
	if _, err := stream.Recv(); err != nil {
		t.Fatalf("recv: %v", err)
	}

	stopServe()
	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(srv.stopTimeout / 2):
		t.Fatal("Serve did not return while a receive stream was open")
	}
	if _, err := stream.Recv(); err == nil {
		t.Fatal("stream still open after shutdown")
	}
}

func TestServerStopFallsBackToHardStop(t *testing.T) {
	rt := openRuntime(t)
	srv := New(rt, nil)
	srv.stopTimeout = 50 * time.Millisecond

	// A handler that ignores its context holds GracefulStop until the
	// timeout closes the connection.
	entered, release := make(chan struct{}), make(chan struct{})
	defer close(release)
	srv.grpc.RegisterService(&grpc.ServiceDesc{
		ServiceName: "test.Stuck",
		HandlerType: (*any)(nil),
		Streams: []grpc.StreamDesc{{
			StreamName:    "Hold",
			ServerStreams: true,
			Handler: func(any, grpc.ServerStream) error {
				close(entered)
				<-release
				return nil
			},
		}},
	}, struct{}{})

	lis := bufconn.Listen(bufSize)
	go func() { _ = srv.grpc.Serve(lis) }()
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream, err := conn.NewStream(ctx, &grpc.StreamDesc{ServerStreams: true}, "/test.Stuck/Hold")
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if err := stream.CloseSend(); err != nil {
		t.Fatalf("close send: %v", err)
	}
	select {
	case <-entered:
	case <-ctx.Done():
		t.Fatal("handler never started")
	}

	stopped := make(chan struct{})
	go func() {
		srv.Close()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("Close did not return after the stop timeout")
	}
}

func TestErrorCodesOverGRPC(t *testing.T) {
	conn := newConn(t, openRuntime(t))
	c := chatv1.NewSimpleChatClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.SendMessage(ctx, &chatv1.SendMessageRequest{Message: &chatv1.Message{Sender: "alice", Recipient: "bob"}})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("empty body: want InvalidArgument, got %v", err)
	}
	_, err = c.SendMessage(ctx, &chatv1.SendMessageRequest{})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("nil message: want InvalidArgument, got %v", err)
	}

	stream, err := c.ReceiveMessages(ctx, &chatv1.ReceiveMessagesRequest{})
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	if _, err := stream.Recv(); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("empty login: want InvalidArgument, got %v", err)
	}
}

func TestRequestIDHeader(t *testing.T) {
	conn := newConn(t, openRuntime(t))
	c := chatv1.NewSimpleChatClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ctx = metadata.AppendToOutgoingContext(ctx, RequestIDHeader, "req-123")

	var header metadata.MD
	if _, err := c.GetUsers(ctx, &chatv1.GetUsersRequest{}, grpc.Header(&header)); err != nil {
		t.Fatalf("get users: %v", err)
	}
	if got := header.Get(RequestIDHeader); len(got) != 1 || got[0] != "req-123" {
		t.Fatalf("request id header: %v", got)
	}
}

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{fmt.Errorf("x: %w", errs.ErrInvalidMessage), codes.InvalidArgument},
		{fmt.Errorf("x: %w", errs.ErrInvalidRequest), codes.InvalidArgument},
		{fmt.Errorf("x: %w", errs.ErrRateLimited), codes.ResourceExhausted},
		{fmt.Errorf("x: %w: %w", errs.ErrStorageUnavailable, io.ErrUnexpectedEOF), codes.Unavailable},
		{errors.New("surprise"), codes.Internal},
		{status.Error(codes.Aborted, "kept"), codes.Aborted},
	}
	for _, tc := range cases {
		if got := status.Code(toStatus(tc.err)); got != tc.code {
			t.Fatalf("%v: want %v, got %v", tc.err, tc.code, got)
		}
	}
	if toStatus(nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestRecoverUnaryCatchesPanic(t *testing.T) {
	ic := RecoverUnary(logpkg.NewNop())
	info := &grpc.UnaryServerInfo{FullMethod: "/simplechat.v1.SimpleChat/Panic"}
	_, err := ic(context.Background(), nil, info, func(context.Context, any) (any, error) { panic("oh no") })
	if status.Code(err) != codes.Internal {
		t.Fatalf("want Internal, got %v", err)
	}
}
