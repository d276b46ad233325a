// Package client provides the `simplechat` command-line client.
//
// The CLI talks to the chat gRPC endpoint to list users, send messages and
// receive a mailbox from a terminal. `users load` is the exception: it opens
// the configured store directly to seed the user directory.
//
// # Address configuration
//
// The gRPC address is read from the CHAT_GRPC environment variable
// (default 127.0.0.1:50051).
//
// Usage
//
//	simplechat users load --file data/users.json --data-dir ./data
//	simplechat users list
//
//	simplechat send --sender alice --recipient bob --body 'hi'
//
//	# Receive until interrupted
//	simplechat receive --login bob
//	# Only messages from alice, stop after three
//	simplechat receive --login bob --filter 'sender == "alice"' --limit 3
//
// Notes
//
//   - receive prints each message after the server has delivered it; the
//     server removes it from the mailbox once it is written to the stream.
//   - --filter is a CEL expression over sender, recipient, body, created
//     and now. Messages that do not match stay queued.
package client
