// Package grpcserver hosts the gRPC server, registering the SimpleChat
// service, grpc health and optional reflection, and delegating to the shared
// chat service.
//
// Example:
//
//	rt, _ := runtime.Open(ctx, runtime.Options{Config: config.Default()})
//	s := grpcserver.New(rt, nil)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":50051")
package grpcserver
