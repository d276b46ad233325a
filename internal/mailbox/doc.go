// Package mailbox implements the user directory and per-recipient message
// queues on top of a kv.Store.
//
// Messages are enqueued under message/queue/user/{recipient}/{id} and
// consumed by DeliverLoop, which repeatedly scans the recipient's prefix,
// hands each message to an emit callback and deletes it once accepted.
// Delivery is at-least-once: a message may be emitted twice if its delete
// fails, and never lost unless the store loses it.
package mailbox
