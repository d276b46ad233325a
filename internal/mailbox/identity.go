package mailbox

import (
	"fmt"
	"time"

	"github.com/CHESTERFIELD/simple-chat/pkg/id"
)

// IDFunc derives the storage identity of a message. The engine calls it
// after created has been assigned.
type IDFunc func(m Message) string

// CompositeID is sender ++ created ++ recipient, with created rendered as
// seconds.microseconds. Two messages from the same sender to the same
// recipient within one microsecond collide, and the later put overwrites the
// earlier one.
func CompositeID(m Message) string {
	return m.Sender + formatCreated(m.Created) + m.Recipient
}

// SequentialID returns an IDFunc that prefixes each id with a monotonic
// 128-bit value, so ids never collide within a process and the mailbox scan
// order follows enqueue order.
func SequentialID(g *id.Generator) IDFunc {
	return func(m Message) string {
		return g.Next().String() + "-" + m.Sender
	}
}

// IDStrategy resolves a configured strategy name.
func IDStrategy(name string) (IDFunc, error) {
	switch name {
	case "", "composite":
		return CompositeID, nil
	case "sequential":
		return SequentialID(id.NewGenerator()), nil
	default:
		return nil, fmt.Errorf("mailbox: unknown id strategy %q; use composite|sequential", name)
	}
}

func formatCreated(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/int(time.Microsecond))
}
