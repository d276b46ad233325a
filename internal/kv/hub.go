package kv

import (
	"context"
	"strings"
	"sync"
)

// hubBuffer bounds pending events per subscriber. When it is full the
// oldest pending event makes room for the new one.
const hubBuffer = 16

// Offer sends ev on ch without blocking. A full ch loses its oldest event
// instead of ev, so the most recent change is always observable. Callers
// must be the only writer to ch.
func Offer(ch chan Event, ev Event) {
	for {
		select {
		case ch <- ev:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Hub fans change events out to in-process prefix subscribers. Stores
// without a native change feed publish to it after each committed write.
type Hub struct {
	mu   sync.Mutex
	subs map[*hubSub]struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub { return &Hub{subs: map[*hubSub]struct{}{}} }

// Publish delivers ev to every subscriber whose prefix matches ev.Key.
// It never blocks.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		if !strings.HasPrefix(ev.Key, s.prefix) {
			continue
		}
		Offer(s.ch, ev)
	}
}

// Subscribe registers a prefix watch. The subscription ends when Cancel is
// called or ctx is done.
func (h *Hub) Subscribe(ctx context.Context, prefix string) Subscription {
	s := &hubSub{hub: h, prefix: prefix, ch: make(chan Event, hubBuffer)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	stop := context.AfterFunc(ctx, s.Cancel)
	s.mu.Lock()
	s.stop = stop
	s.mu.Unlock()
	return s
}

// Len reports the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := make([]*hubSub, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()
	for _, s := range subs {
		s.Cancel()
	}
}

type hubSub struct {
	hub    *Hub
	prefix string
	ch     chan Event
	once   sync.Once

	mu   sync.Mutex
	stop func() bool
}

func (s *hubSub) Events() <-chan Event { return s.ch }

func (s *hubSub) Cancel() {
	s.once.Do(func() {
		s.mu.Lock()
		if s.stop != nil {
			s.stop()
		}
		s.mu.Unlock()
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		s.hub.mu.Unlock()
		// Publish holds the hub lock while sending, so nothing can be
		// written after the delete above; drop what is already buffered.
		for {
			select {
			case <-s.ch:
			default:
				close(s.ch)
				return
			}
		}
	})
}
