package grpcserver

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	chatv1 "github.com/CHESTERFIELD/simple-chat/api/chat/v1"
	"github.com/CHESTERFIELD/simple-chat/internal/errs"
	"github.com/CHESTERFIELD/simple-chat/internal/mailbox"
	chatsvc "github.com/CHESTERFIELD/simple-chat/internal/services/chat"
)

type chatSvc struct {
	chatv1.UnimplementedSimpleChatServer
	svc *chatsvc.Service
}

func (s *chatSvc) GetUsers(ctx context.Context, _ *chatv1.GetUsersRequest) (*chatv1.GetUsersResponse, error) {
	users, err := s.svc.GetUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := &chatv1.GetUsersResponse{Users: make([]*chatv1.User, 0, len(users))}
	for _, u := range users {
		out.Users = append(out.Users, &chatv1.User{Login: u.Login, FullName: u.FullName})
	}
	return out, nil
}

func (s *chatSvc) SendMessage(ctx context.Context, req *chatv1.SendMessageRequest) (*chatv1.SendMessageResponse, error) {
	m := req.GetMessage()
	if m == nil {
		return nil, fmt.Errorf("%w: message is required", errs.ErrInvalidMessage)
	}
	stored, err := s.svc.SendMessage(ctx, mailbox.Message{Sender: m.GetSender(), Recipient: m.GetRecipient(), Body: m.GetBody()})
	if err != nil {
		return nil, err
	}
	return &chatv1.SendMessageResponse{Created: stored.Created.Unix()}, nil
}

type grpcSink struct {
	stream grpc.ServerStreamingServer[chatv1.Message]
}

func (g grpcSink) Send(m mailbox.Message) error {
	return g.stream.Send(&chatv1.Message{Sender: m.Sender, Recipient: m.Recipient, Body: m.Body, Created: m.Created.Unix()})
}
func (g grpcSink) Context() context.Context { return g.stream.Context() }
func (g grpcSink) Flush() error             { return nil }

func (s *chatSvc) ReceiveMessages(req *chatv1.ReceiveMessagesRequest, stream grpc.ServerStreamingServer[chatv1.Message]) error {
	opts := chatsvc.ReceiveOptions{Filter: req.Filter}
	if req.Limit > 0 {
		opts.Limit = int(req.Limit)
	}
	return s.svc.ReceiveMessages(stream.Context(), req.Login, opts, grpcSink{stream: stream})
}
