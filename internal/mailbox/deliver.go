package mailbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/CHESTERFIELD/simple-chat/internal/errs"
	logpkg "github.com/CHESTERFIELD/simple-chat/pkg/log"
)

// State is a delivery loop phase.
type State int

const (
	StateScanning State = iota
	StateEmitting
	StateDeleting
	StateIdle
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateEmitting:
		return "emitting"
	case StateDeleting:
		return "deleting"
	case StateIdle:
		return "idle"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ErrStopDelivery may be returned by an EmitFunc to end the loop without
// error. The message it was called with is not deleted.
var ErrStopDelivery = errors.New("mailbox: stop delivery")

// EmitFunc hands one message to the subscriber. A nil return means the
// message was accepted and may be deleted from the mailbox.
type EmitFunc func(ctx context.Context, m Message) error

// DeliverOptions tunes a single DeliverLoop call.
type DeliverOptions struct {
	// Idle overrides the engine's idle strategy.
	Idle IdleStrategy
	// Filter is a CEL expression; rejected messages stay queued.
	Filter string
	// Limit ends the loop after this many deliveries; zero means unlimited.
	Limit int
	// OnState, if set, observes every state transition.
	OnState func(State)
}

// DeliverLoop streams recipient's mailbox to emit until ctx ends, emit
// returns an error, or Limit deliveries have been made.
//
// Each message is deleted only after emit accepted it, so a crash or a
// failed delete leads to redelivery rather than loss. A failed scan is
// treated as an empty cycle. The return value is nil for cancellation,
// ErrStopDelivery and a reached limit; other emit errors are returned
// wrapped.
func (e *Engine) DeliverLoop(ctx context.Context, recipient string, emit EmitFunc, opts DeliverOptions) error {
	if recipient == "" {
		return fmt.Errorf("%w: empty recipient", errs.ErrInvalidRequest)
	}
	if emit == nil {
		return fmt.Errorf("%w: nil emit func", errs.ErrInvalidRequest)
	}
	filter, err := newMessageFilter(opts.Filter)
	if err != nil {
		return fmt.Errorf("%w: filter: %v", errs.ErrInvalidRequest, err)
	}
	strategy := opts.Idle
	if strategy == nil {
		strategy = e.idle
	}
	logger := e.logger.With(logpkg.Str("recipient", recipient))

	idler, err := strategy.Open(ctx, MailboxPrefix(recipient))
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		logger.Warn("mailbox.deliver: idle strategy unavailable, polling", logpkg.Err(err))
		idler, _ = PollIdle{}.Open(ctx, "")
	}
	defer idler.Close()

	d := &delivery{
		engine:    e,
		recipient: recipient,
		emit:      emit,
		filter:    filter,
		limit:     opts.Limit,
		onState:   opts.OnState,
		idler:     idler,
		logger:    logger,
	}
	return d.run(ctx)
}

type delivery struct {
	engine    *Engine
	recipient string
	emit      EmitFunc
	filter    messageFilter
	limit     int
	onState   func(State)
	idler     Idler
	logger    logpkg.Logger
}

func (d *delivery) run(ctx context.Context) error {
	var (
		batch     []Queued
		pos       int
		delivered int
		// emitted counts messages of the current batch that were delivered
		// and removed.
		emitted   int
		result    error
	)
	state := StateScanning
	for {
		if d.onState != nil {
			d.onState(state)
		}
		switch state {
		case StateScanning:
			if ctx.Err() != nil {
				state = StateCancelled
				continue
			}
			batch, pos, emitted = d.scan(ctx), 0, 0
			if len(batch) == 0 {
				state = StateIdle
				continue
			}
			state = StateEmitting

		case StateEmitting:
			for pos < len(batch) && !d.filter.Match(batch[pos].Message) {
				pos++
			}
			if pos >= len(batch) {
				// Only a pass that removed nothing may idle; writes made
				// while a batch was emitted are found by the next scan.
				if emitted > 0 {
					state = StateScanning
				} else {
					state = StateIdle
				}
				continue
			}
			if ctx.Err() != nil {
				state = StateCancelled
				continue
			}
			if err := d.emit(ctx, batch[pos].Message); err != nil {
				if !errors.Is(err, ErrStopDelivery) && ctx.Err() == nil {
					result = fmt.Errorf("mailbox: emit: %w", err)
				}
				state = StateCancelled
				continue
			}
			d.engine.observer.MessageDelivered()
			state = StateDeleting

		case StateDeleting:
			if d.remove(ctx, batch[pos]) {
				emitted++
			}
			pos++
			delivered++
			if d.limit > 0 && delivered >= d.limit {
				state = StateCancelled
				continue
			}
			state = StateEmitting

		case StateIdle:
			if err := d.idler.Wait(ctx); err != nil {
				state = StateCancelled
				continue
			}
			state = StateScanning

		case StateCancelled:
			return result
		}
	}
}

func (d *delivery) scan(ctx context.Context) []Queued {
	batch, err := d.engine.DrainOnce(ctx, d.recipient)
	if err != nil {
		if ctx.Err() == nil {
			d.engine.observer.ScanFailed()
			d.logger.Warn("mailbox.deliver: scan failed, retrying after idle", logpkg.Err(err))
		}
		return nil
	}
	return batch
}

// remove deletes an emitted message. The delete outlives cancellation of
// ctx: the subscriber already has the message.
func (d *delivery) remove(ctx context.Context, q Queued) bool {
	if err := d.engine.DeleteQueued(context.WithoutCancel(ctx), q.Key); err != nil {
		d.engine.observer.DeleteFailed()
		d.logger.Warn("mailbox.deliver: delete failed, message will be redelivered",
			logpkg.Str("key", q.Key), logpkg.Err(err))
		return false
	}
	return true
}
