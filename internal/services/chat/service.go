package chatsvc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/CHESTERFIELD/simple-chat/internal/errs"
	"github.com/CHESTERFIELD/simple-chat/internal/mailbox"
	"github.com/CHESTERFIELD/simple-chat/internal/runtime"
	logpkg "github.com/CHESTERFIELD/simple-chat/pkg/log"
)

// Sink is implemented by transports to receive streamed messages.
type Sink interface {
	Send(mailbox.Message) error
	Context() context.Context
	Flush() error
}

// ReceiveOptions narrows a receive stream.
type ReceiveOptions struct {
	// Filter is a CEL expression over sender, recipient, body and created.
	Filter string
	// Limit closes the stream after this many messages; zero means unlimited.
	Limit int
}

// Service is the transport-facing chat API. It validates requests and
// delegates storage work to the mailbox engine.
type Service struct {
	rt     *runtime.Runtime
	logger logpkg.Logger

	// activeSubs counts open receive streams per login.
	subsMu     sync.Mutex
	activeSubs map[string]int

	limiter *senderLimiter
}

// New returns a Service using the runtime's logger.
func New(rt *runtime.Runtime) *Service {
	return NewWithLogger(rt, rt.Logger())
}

// NewWithLogger returns a Service using the provided logger.
func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewNop()
	}
	send := rt.Config().Send
	return &Service{
		rt:         rt,
		logger:     logger.With(logpkg.Component("chat")),
		activeSubs: map[string]int{},
		limiter:    newSenderLimiter(send.RatePerSecond, send.Burst),
	}
}

// GetUsers lists the directory.
func (s *Service) GetUsers(ctx context.Context) ([]mailbox.User, error) {
	return s.rt.Engine().ListUsers(ctx)
}

// SendMessage validates m and enqueues it for its recipient. The returned
// message carries the assigned created timestamp.
func (s *Service) SendMessage(ctx context.Context, m mailbox.Message) (mailbox.Message, error) {
	switch {
	case m.Sender == "":
		return mailbox.Message{}, fmt.Errorf("%w: sender is required", errs.ErrInvalidMessage)
	case m.Recipient == "":
		return mailbox.Message{}, fmt.Errorf("%w: recipient is required", errs.ErrInvalidMessage)
	case m.Body == "":
		return mailbox.Message{}, fmt.Errorf("%w: body is required", errs.ErrInvalidMessage)
	}
	if !s.limiter.allow(m.Sender) {
		s.rt.Metrics().RateLimited.Inc()
		return mailbox.Message{}, fmt.Errorf("%w: sender %q", errs.ErrRateLimited, m.Sender)
	}
	// created is always server-assigned
	m.Created = time.Time{}
	stored, err := s.rt.Engine().Enqueue(ctx, m)
	if err != nil {
		return mailbox.Message{}, err
	}
	return stored, nil
}

// ReceiveMessages streams login's mailbox into sink until the sink's context
// ends, the sink fails, or opts.Limit messages were sent.
func (s *Service) ReceiveMessages(ctx context.Context, login string, opts ReceiveOptions, sink Sink) error {
	if err := ValidateReceive(login, opts); err != nil {
		return err
	}

	s.incSub(login)
	defer s.decSub(login)
	s.logger.Info("receive.start", logpkg.Str("login", login), logpkg.Str("filter", opts.Filter))
	defer s.logger.Info("receive.end", logpkg.Str("login", login))

	emit := func(_ context.Context, m mailbox.Message) error {
		if err := sink.Send(m); err != nil {
			return err
		}
		return sink.Flush()
	}
	return s.rt.Engine().DeliverLoop(ctx, login, emit, mailbox.DeliverOptions{
		Filter: opts.Filter,
		Limit:  opts.Limit,
	})
}

// ValidateReceive checks a receive request without touching the store.
// Transports that must commit response headers before streaming call it first.
func ValidateReceive(login string, opts ReceiveOptions) error {
	if login == "" {
		return fmt.Errorf("%w: login is required", errs.ErrInvalidRequest)
	}
	if err := mailbox.ValidateFilter(opts.Filter); err != nil {
		return fmt.Errorf("%w: filter: %v", errs.ErrInvalidRequest, err)
	}
	if opts.Limit < 0 {
		return fmt.Errorf("%w: negative limit", errs.ErrInvalidRequest)
	}
	return nil
}

// ActiveSubscribers returns the number of open receive streams for login.
func (s *Service) ActiveSubscribers(login string) int {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	return s.activeSubs[login]
}

func (s *Service) incSub(login string) {
	s.subsMu.Lock()
	s.activeSubs[login] = s.activeSubs[login] + 1
	s.subsMu.Unlock()
	s.rt.Metrics().ActiveSubscribers.Inc()
}

func (s *Service) decSub(login string) {
	s.subsMu.Lock()
	if v := s.activeSubs[login]; v > 1 {
		s.activeSubs[login] = v - 1
	} else {
		delete(s.activeSubs, login)
	}
	s.subsMu.Unlock()
	s.rt.Metrics().ActiveSubscribers.Dec()
}

// senderLimiter keeps one token bucket per sender. A nil limiter allows
// everything.
type senderLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[string]*rate.Limiter
}

func newSenderLimiter(perSecond float64, burst int) *senderLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &senderLimiter{limit: rate.Limit(perSecond), burst: burst, buckets: map[string]*rate.Limiter{}}
}

func (l *senderLimiter) allow(sender string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	b, ok := l.buckets[sender]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[sender] = b
	}
	l.mu.Unlock()
	return b.Allow()
}
