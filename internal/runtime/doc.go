// Package runtime wires storage, config and metrics into a single chat
// server instance. It exposes Open/Close, a health check and the mailbox
// engine used by higher-level services.
//
// Example:
//
//	cfg := config.Default()
//	cfg.Storage.DataDir = "./data"
//	rt, _ := runtime.Open(ctx, runtime.Options{Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(ctx)
//	_, _ = rt.Engine().Enqueue(ctx, mailbox.Message{Sender: "alice", Recipient: "bob", Body: "hi"})
package runtime
