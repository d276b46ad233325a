// Package redisstore is a kv.Store and kv.Watcher backed by Redis.
//
// Keys live under a configurable namespace. Every Put/Delete is paired, in
// the same MULTI block, with a PUBLISH on "<namespace>watch:<key>" so
// watchers can PSUBSCRIBE to a key prefix without relying on server-side
// keyspace notifications.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/CHESTERFIELD/simple-chat/internal/kv"
	logpkg "github.com/CHESTERFIELD/simple-chat/pkg/log"
)

const (
	scanBatch = 256
	mgetBatch = 256
)

// Options configures the Redis client.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Namespace prefixes every key and watch channel, e.g. "simplechat/".
	Namespace    string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	Logger       logpkg.Logger
}

// Store implements kv.Store and kv.Watcher.
type Store struct {
	rdb    *goredis.Client
	ns     string
	logger logpkg.Logger
}

var (
	_ kv.Store   = (*Store)(nil)
	_ kv.Watcher = (*Store)(nil)
)

// Open connects to Redis and verifies the connection with PING.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis: Options.Addr is required")
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 3 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 3 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNop()
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})
	s := &Store{rdb: rdb, ns: opts.Namespace, logger: logger.With(logpkg.Component("redisstore"))}
	if err := s.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}
	return s, nil
}

func (s *Store) key(k string) string     { return s.ns + k }
func (s *Store) channel(k string) string { return s.ns + "watch:" + k }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.rdb.Ping(ctx).Err() }

// Close closes the client pool.
func (s *Store) Close() error { return s.rdb.Close() }

// Get returns kv.ErrNotFound for a missing key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, kv.ErrNotFound
	}
	return b, err
}

// Put sets key and publishes a put event atomically.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.key(key), value, 0)
	pipe.Publish(ctx, s.channel(key), kv.EventPut.String())
	_, err := pipe.Exec(ctx)
	return err
}

// Delete removes key and publishes a delete event. Missing keys are fine.
func (s *Store) Delete(ctx context.Context, key string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.key(key))
	pipe.Publish(ctx, s.channel(key), kv.EventDelete.String())
	_, err := pipe.Exec(ctx)
	return err
}

// Scan walks keys with SCAN MATCH and fetches values with MGET. Keys removed
// between the two steps are skipped. The result is sorted by key.
func (s *Store) Scan(ctx context.Context, prefix string) ([]kv.Pair, error) {
	var keys []string
	seen := map[string]struct{}{}
	it := s.rdb.Scan(ctx, 0, globEscape(s.key(prefix))+"*", scanBatch).Iterator()
	for it.Next(ctx) {
		k := it.Val()
		// SCAN may return a key more than once.
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)

	out := make([]kv.Pair, 0, len(keys))
	for start := 0; start < len(keys); start += mgetBatch {
		end := min(start+mgetBatch, len(keys))
		vals, err := s.rdb.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			str, ok := v.(string)
			if !ok {
				continue
			}
			out = append(out, kv.Pair{Key: strings.TrimPrefix(keys[start+i], s.ns), Value: []byte(str)})
		}
	}
	return out, nil
}

// Watch pattern-subscribes to change events for keys under prefix.
func (s *Store) Watch(ctx context.Context, prefix string) (kv.Subscription, error) {
	ps := s.rdb.PSubscribe(ctx, globEscape(s.channel(prefix))+"*")
	// Wait for the subscription confirmation so no event published after
	// Watch returns can be missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	sub := &pubsubSub{
		ps:     ps,
		out:    make(chan kv.Event, 16),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
		chanNS: s.channel(""),
		logger: s.logger,
	}
	go sub.run(ctx)
	return sub, nil
}

type pubsubSub struct {
	ps     *goredis.PubSub
	out    chan kv.Event
	done   chan struct{}
	exited chan struct{}
	once   sync.Once
	chanNS string
	logger logpkg.Logger
}

func (p *pubsubSub) Events() <-chan kv.Event { return p.out }

func (p *pubsubSub) run(ctx context.Context) {
	defer close(p.exited)
	msgs := p.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			go p.Cancel()
			return
		case <-p.done:
			return
		case m, ok := <-msgs:
			if !ok {
				go p.Cancel()
				return
			}
			ev, err := decodeEvent(p.chanNS, m.Channel, m.Payload)
			if err != nil {
				p.logger.Warn("redisstore.watch: dropping event", logpkg.Str("channel", m.Channel), logpkg.Err(err))
				continue
			}
			kv.Offer(p.out, ev)
		}
	}
}

func (p *pubsubSub) Cancel() {
	p.once.Do(func() {
		close(p.done)
		_ = p.ps.Close()
		<-p.exited
		for {
			select {
			case <-p.out:
			default:
				close(p.out)
				return
			}
		}
	})
}

func decodeEvent(chanNS, channel, payload string) (kv.Event, error) {
	key, ok := strings.CutPrefix(channel, chanNS)
	if !ok {
		return kv.Event{}, fmt.Errorf("channel outside namespace")
	}
	switch payload {
	case kv.EventPut.String():
		return kv.Event{Type: kv.EventPut, Key: key}, nil
	case kv.EventDelete.String():
		return kv.Event{Type: kv.EventDelete, Key: key}, nil
	default:
		return kv.Event{}, fmt.Errorf("unknown event %q", payload)
	}
}

// globEscape quotes the characters Redis treats specially in MATCH and
// PSUBSCRIBE patterns so a prefix is matched literally.
func globEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\', '^', '-':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
