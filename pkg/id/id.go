package id

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sync"
	"time"
)

// ID is a 128-bit identifier that sorts chronologically both as bytes and as
// its hex string: [8 bytes unix ms][8 bytes sequence], big-endian.
type ID [16]byte

// String returns the 32 character lowercase hex form.
func (i ID) String() string { return hex.EncodeToString(i[:]) }

// Time returns the millisecond timestamp embedded in the ID.
func (i ID) Time() time.Time {
	return time.UnixMilli(int64(binary.BigEndian.Uint64(i[0:8])))
}

// Seq returns the per-millisecond sequence number.
func (i ID) Seq() uint64 { return binary.BigEndian.Uint64(i[8:16]) }

// Less reports whether i sorts before other.
func (i ID) Less(other ID) bool {
	for n := range i {
		if i[n] != other[n] {
			return i[n] < other[n]
		}
	}
	return false
}

// Parse decodes the hex form produced by String.
func Parse(s string) (ID, error) {
	var out ID
	if len(s) != hex.EncodedLen(len(out)) {
		return out, fmt.Errorf("id: want %d hex chars, got %d", hex.EncodedLen(len(out)), len(s))
	}
	if _, err := hex.Decode(out[:], []byte(s)); err != nil {
		return out, fmt.Errorf("id: %w", err)
	}
	return out, nil
}

// Generator hands out strictly increasing IDs for one process.
type Generator struct {
	mu     sync.Mutex
	now    func() int64
	lastMs int64
	seq    uint64
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the millisecond clock (tests).
func WithClock(now func() int64) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a Generator backed by the wall clock.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{now: func() int64 { return time.Now().UnixMilli() }}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Next returns the next ID. A clock that steps backwards is pinned to the
// last observed millisecond; an exhausted sequence waits for the next one.
func (g *Generator) Next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now()
	if ms < g.lastMs {
		ms = g.lastMs
	}
	switch {
	case ms > g.lastMs:
		g.seq = 0
	case g.seq < math.MaxUint64:
		g.seq++
	default:
		for ms <= g.lastMs {
			time.Sleep(time.Millisecond / 8)
			ms = g.now()
		}
		g.seq = 0
	}
	g.lastMs = ms

	var out ID
	binary.BigEndian.PutUint64(out[0:8], uint64(ms))
	binary.BigEndian.PutUint64(out[8:16], g.seq)
	return out
}
