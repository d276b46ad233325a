// Package transports provides pluggable transport implementations for the CLI.
package transports

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	chatv1 "github.com/CHESTERFIELD/simple-chat/api/chat/v1"
)

// GrpcTransport implements ChatTransport over gRPC.
type GrpcTransport struct {
	dial func(ctx context.Context) (*grpc.ClientConn, error)
}

// NewGrpcTransport constructs a new GrpcTransport using the provided dialer.
func NewGrpcTransport(dial func(ctx context.Context) (*grpc.ClientConn, error)) *GrpcTransport {
	return &GrpcTransport{dial: dial}
}

func (t *GrpcTransport) withClient(ctx context.Context, fn func(cli chatv1.SimpleChatClient) error) error {
	conn, err := t.dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	return fn(chatv1.NewSimpleChatClient(conn))
}

// ListUsers fetches the user directory.
func (t *GrpcTransport) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	err := t.withClient(ctx, func(cli chatv1.SimpleChatClient) error {
		res, err := cli.GetUsers(ctx, &chatv1.GetUsersRequest{})
		if err != nil {
			return err
		}
		out = make([]User, 0, len(res.GetUsers()))
		for _, u := range res.GetUsers() {
			out = append(out, User{Login: u.GetLogin(), FullName: u.GetFullName()})
		}
		return nil
	})
	return out, err
}

// Send enqueues one message and returns the server-assigned created time.
func (t *GrpcTransport) Send(ctx context.Context, m Message) (int64, error) {
	var created int64
	err := t.withClient(ctx, func(cli chatv1.SimpleChatClient) error {
		res, err := cli.SendMessage(ctx, &chatv1.SendMessageRequest{Message: &chatv1.Message{
			Sender:    m.Sender,
			Recipient: m.Recipient,
			Body:      m.Body,
		}})
		if err != nil {
			return err
		}
		created = res.GetCreated()
		return nil
	})
	return created, err
}

// Receive streams messages and invokes onMessage for each item.
func (t *GrpcTransport) Receive(ctx context.Context, req ReceiveRequest, onMessage func(Message) error) error {
	return t.withClient(ctx, func(cli chatv1.SimpleChatClient) error {
		stream, err := cli.ReceiveMessages(ctx, &chatv1.ReceiveMessagesRequest{
			Login:  req.Login,
			Filter: req.Filter,
			Limit:  int32(req.Limit),
		})
		if err != nil {
			return err
		}
		for {
			m, err := stream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				if status.Code(err) == codes.Canceled && ctx.Err() != nil {
					return nil
				}
				return err
			}
			msg := Message{Sender: m.GetSender(), Recipient: m.GetRecipient(), Body: m.GetBody(), Created: m.GetCreated()}
			if cbErr := onMessage(msg); cbErr != nil {
				return cbErr
			}
		}
	})
}
