package transports

import "context"

// User is a directory entry as the CLI prints it.
type User struct {
	Login    string
	FullName string
}

// Message is a chat message as sent or received by the CLI. Created is unix
// seconds and is only meaningful on received messages.
type Message struct {
	Sender    string
	Recipient string
	Body      string
	Created   int64
}

// ReceiveRequest describes a receive subscription.
type ReceiveRequest struct {
	Login  string
	Filter string
	// Limit ends the subscription after this many messages; 0 is unbounded.
	Limit int
}

// ChatTransport abstracts the transport used by the CLI.
type ChatTransport interface {
	ListUsers(ctx context.Context) ([]User, error)
	Send(ctx context.Context, m Message) (created int64, err error)
	// Receive calls onMessage for each delivered message until the stream
	// ends, ctx is done, or onMessage returns an error.
	Receive(ctx context.Context, req ReceiveRequest, onMessage func(Message) error) error
}
