// Package id provides a 128-bit, lexicographically sortable identifier.
//
// The layout is [8 bytes unix ms][8 bytes sequence], big-endian, so both the
// raw bytes and the hex string order chronologically. simple-chat uses it for
// the sequential message-id strategy, where mailbox scan order must follow
// enqueue order.
//
// Usage
//
//	g := id.NewGenerator()
//	s := g.Next().String() // 32 hex chars
package id
