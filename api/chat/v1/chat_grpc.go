package chatv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	SimpleChat_GetUsers_FullMethodName        = "/simplechat.v1.SimpleChat/GetUsers"
	SimpleChat_SendMessage_FullMethodName     = "/simplechat.v1.SimpleChat/SendMessage"
	SimpleChat_ReceiveMessages_FullMethodName = "/simplechat.v1.SimpleChat/ReceiveMessages"
)

// SimpleChatClient is the client API for the SimpleChat service.
type SimpleChatClient interface {
	GetUsers(ctx context.Context, in *GetUsersRequest, opts ...grpc.CallOption) (*GetUsersResponse, error)
	SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error)
	ReceiveMessages(ctx context.Context, in *ReceiveMessagesRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Message], error)
}

type simpleChatClient struct {
	cc grpc.ClientConnInterface
}

// NewSimpleChatClient returns a client that always selects the JSON codec.
func NewSimpleChatClient(cc grpc.ClientConnInterface) SimpleChatClient {
	return &simpleChatClient{cc}
}

func callOpts(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.StaticMethod(), grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *simpleChatClient) GetUsers(ctx context.Context, in *GetUsersRequest, opts ...grpc.CallOption) (*GetUsersResponse, error) {
	out := new(GetUsersResponse)
	if err := c.cc.Invoke(ctx, SimpleChat_GetUsers_FullMethodName, in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *simpleChatClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	out := new(SendMessageResponse)
	if err := c.cc.Invoke(ctx, SimpleChat_SendMessage_FullMethodName, in, out, callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *simpleChatClient) ReceiveMessages(ctx context.Context, in *ReceiveMessagesRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Message], error) {
	stream, err := c.cc.NewStream(ctx, &SimpleChat_ServiceDesc.Streams[0], SimpleChat_ReceiveMessages_FullMethodName, callOpts(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[ReceiveMessagesRequest, Message]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// SimpleChatServer is the server API for the SimpleChat service.
type SimpleChatServer interface {
	GetUsers(context.Context, *GetUsersRequest) (*GetUsersResponse, error)
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	ReceiveMessages(*ReceiveMessagesRequest, grpc.ServerStreamingServer[Message]) error
}

// UnimplementedSimpleChatServer can be embedded for forward compatibility.
type UnimplementedSimpleChatServer struct{}

func (UnimplementedSimpleChatServer) GetUsers(context.Context, *GetUsersRequest) (*GetUsersResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetUsers not implemented")
}

func (UnimplementedSimpleChatServer) SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SendMessage not implemented")
}

func (UnimplementedSimpleChatServer) ReceiveMessages(*ReceiveMessagesRequest, grpc.ServerStreamingServer[Message]) error {
	return status.Errorf(codes.Unimplemented, "method ReceiveMessages not implemented")
}

// RegisterSimpleChatServer registers srv on s.
func RegisterSimpleChatServer(s grpc.ServiceRegistrar, srv SimpleChatServer) {
	s.RegisterService(&SimpleChat_ServiceDesc, srv)
}

func _SimpleChat_GetUsers_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetUsersRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimpleChatServer).GetUsers(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SimpleChat_GetUsers_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SimpleChatServer).GetUsers(ctx, req.(*GetUsersRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SimpleChat_SendMessage_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SendMessageRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimpleChatServer).SendMessage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SimpleChat_SendMessage_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SimpleChatServer).SendMessage(ctx, req.(*SendMessageRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SimpleChat_ReceiveMessages_Handler(srv any, stream grpc.ServerStream) error {
	m := new(ReceiveMessagesRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(SimpleChatServer).ReceiveMessages(m, &grpc.GenericServerStream[ReceiveMessagesRequest, Message]{ServerStream: stream})
}

// SimpleChat_ServiceDesc is the grpc.ServiceDesc for the SimpleChat service.
var SimpleChat_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "simplechat.v1.SimpleChat",
	HandlerType: (*SimpleChatServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetUsers", Handler: _SimpleChat_GetUsers_Handler},
		{MethodName: "SendMessage", Handler: _SimpleChat_SendMessage_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "ReceiveMessages", Handler: _SimpleChat_ReceiveMessages_Handler, ServerStreams: true},
	},
	Metadata: "simplechat/v1/chat.proto",
}
