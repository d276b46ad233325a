// Package chatsvc implements the chat operations exposed by the gRPC and
// HTTP transports: directory listing, sending a message and streaming a
// recipient's mailbox.
//
// Example:
//
//	svc := chatsvc.New(rt)
//	_, _ = svc.SendMessage(ctx, mailbox.Message{Sender: "alice", Recipient: "bob", Body: "hi"})
//	_ = svc.ReceiveMessages(ctx, "bob", chatsvc.ReceiveOptions{}, mySink)
package chatsvc
