package mailbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/CHESTERFIELD/simple-chat/internal/errs"
	"github.com/CHESTERFIELD/simple-chat/internal/kv"
	logpkg "github.com/CHESTERFIELD/simple-chat/pkg/log"
)

const (
	// DefaultPollInterval is the idle wait used when no strategy is configured.
	DefaultPollInterval = time.Second
	// DefaultOpTimeout bounds each individual store call.
	DefaultOpTimeout = 5 * time.Second
)

var errNonBoolFilter = errors.New("filter must evaluate to bool")

// Observer receives engine events, typically to feed metrics.
type Observer interface {
	MessageEnqueued()
	MessageDelivered()
	CorruptEntry()
	ScanFailed()
	DeleteFailed()
}

// NoopObserver discards every event.
type NoopObserver struct{}

func (NoopObserver) MessageEnqueued()  {}
func (NoopObserver) MessageDelivered() {}
func (NoopObserver) CorruptEntry()     {}
func (NoopObserver) ScanFailed()       {}
func (NoopObserver) DeleteFailed()     {}

// Engine implements the directory and mailbox operations on top of a
// kv.Store. It holds no locks over mailbox data; concurrent operations are
// safe as long as the store's operations are.
type Engine struct {
	adapter   *Adapter
	ids       IDFunc
	idle      IdleStrategy
	opTimeout time.Duration
	logger    logpkg.Logger
	observer  Observer
	now       func() time.Time

	// corrupt keys already reported at warn level
	reported sync.Map
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l logpkg.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithIDFunc selects how message ids are derived. Default CompositeID.
func WithIDFunc(f IDFunc) Option {
	return func(e *Engine) {
		if f != nil {
			e.ids = f
		}
	}
}

// WithIdle sets the default idle strategy of DeliverLoop.
func WithIdle(s IdleStrategy) Option {
	return func(e *Engine) {
		if s != nil {
			e.idle = s
		}
	}
}

// WithOpTimeout bounds each store call; zero or negative disables the bound.
func WithOpTimeout(d time.Duration) Option {
	return func(e *Engine) { e.opTimeout = d }
}

// WithClock overrides the source of created timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine builds an Engine over store.
func NewEngine(store kv.Store, opts ...Option) *Engine {
	e := &Engine{
		adapter:   NewAdapter(store),
		ids:       CompositeID,
		idle:      PollIdle{Interval: DefaultPollInterval},
		opTimeout: DefaultOpTimeout,
		logger:    logpkg.NewNop(),
		observer:  NoopObserver{},
		now:       time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	e.logger = e.logger.With(logpkg.Component("mailbox"))
	return e
}

// Adapter exposes the typed store view.
func (e *Engine) Adapter() *Adapter { return e.adapter }

func (e *Engine) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.opTimeout)
}

// ListUsers returns every decodable directory entry in key order. Corrupt
// entries are skipped and logged.
func (e *Engine) ListUsers(ctx context.Context) ([]User, error) {
	octx, cancel := e.opCtx(ctx)
	defer cancel()
	entries, err := e.adapter.ScanUsers(octx)
	if err != nil {
		return nil, err
	}
	users := make([]User, 0, len(entries))
	for _, en := range entries {
		if en.Err != nil {
			e.corrupt(en.Key, en.Err)
			continue
		}
		users = append(users, en.Value)
	}
	return users, nil
}

// RegisterUser upserts a directory entry.
func (e *Engine) RegisterUser(ctx context.Context, u User) error {
	if u.Login == "" {
		return fmt.Errorf("%w: empty login", errs.ErrInvalidRequest)
	}
	octx, cancel := e.opCtx(ctx)
	defer cancel()
	return e.adapter.PutUser(octx, u)
}

// Enqueue stores m in its recipient's mailbox and returns it with Created
// assigned (when it was zero) and truncated to microseconds.
func (e *Engine) Enqueue(ctx context.Context, m Message) (Message, error) {
	if m.Recipient == "" {
		return Message{}, fmt.Errorf("%w: empty recipient", errs.ErrInvalidMessage)
	}
	if m.Created.IsZero() {
		m.Created = e.now()
	}
	m.Created = m.Created.UTC().Truncate(time.Microsecond)
	key := MailboxKey(m.Recipient, e.ids(m))

	octx, cancel := e.opCtx(ctx)
	defer cancel()
	if err := e.adapter.PutMessage(octx, key, m); err != nil {
		return Message{}, err
	}
	e.observer.MessageEnqueued()
	e.logger.Debug("mailbox.enqueue", logpkg.Str("key", key), logpkg.Str("sender", m.Sender))
	return m, nil
}

// DrainOnce returns every decodable message currently queued for recipient,
// in key order, without deleting anything. Undecodable entries and entries
// whose recipient does not match the mailbox are skipped and left in place.
func (e *Engine) DrainOnce(ctx context.Context, recipient string) ([]Queued, error) {
	if recipient == "" {
		return nil, fmt.Errorf("%w: empty recipient", errs.ErrInvalidRequest)
	}
	octx, cancel := e.opCtx(ctx)
	defer cancel()
	entries, err := e.adapter.ScanMessages(octx, MailboxPrefix(recipient))
	if err != nil {
		return nil, err
	}
	out := make([]Queued, 0, len(entries))
	for _, en := range entries {
		if en.Err != nil {
			e.corrupt(en.Key, en.Err)
			continue
		}
		if en.Value.Recipient != recipient {
			e.corrupt(en.Key, fmt.Errorf("%w: recipient %q in mailbox of %q",
				errs.ErrStorageCorruption, en.Value.Recipient, recipient))
			continue
		}
		out = append(out, Queued{Key: en.Key, Message: en.Value})
	}
	return out, nil
}

// DeleteQueued removes one drained message by its exact key.
func (e *Engine) DeleteQueued(ctx context.Context, key string) error {
	octx, cancel := e.opCtx(ctx)
	defer cancel()
	return e.adapter.Delete(octx, key)
}

func (e *Engine) corrupt(key string, err error) {
	if _, seen := e.reported.LoadOrStore(key, struct{}{}); seen {
		e.logger.Debug("mailbox: skipping corrupt entry", logpkg.Str("key", key))
		return
	}
	e.observer.CorruptEntry()
	e.logger.Warn("mailbox: skipping corrupt entry", logpkg.Str("key", key), logpkg.Err(err))
}
