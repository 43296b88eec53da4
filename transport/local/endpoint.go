package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/distgraph/transport"
)

// Endpoint is one rank's channel into a Group.
type Endpoint struct {
	group  *Group
	rank   int
	inbox  *mailbox
	logger *slog.Logger

	mu       sync.Mutex
	handlers map[transport.Tag]transport.Handler
	parked   []envelope // messages whose tag has no handler yet
	synced   bool       // set by the first Synchronize; unknown tags fail from then on
	asyncErr []error
	forks    int

	inflight *semaphore.Weighted // nil if unbounded

	closed atomic.Bool
	done   chan struct{}
	exited chan struct{}
}

// Compile-time interface check
var _ transport.Channel = (*Endpoint)(nil)

func newEndpoint(g *Group, rank int) *Endpoint {
	e := &Endpoint{
		group:    g,
		rank:     rank,
		inbox:    newMailbox(),
		logger:   g.logger.With("rank", rank),
		handlers: make(map[transport.Tag]transport.Handler),
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
	if g.opts.MaxInflight > 0 {
		e.inflight = semaphore.NewWeighted(g.opts.MaxInflight)
	}

	go e.dispatch()
	return e
}

// Rank implements transport.Channel.
func (e *Endpoint) Rank() int { return e.rank }

// Size implements transport.Channel.
func (e *Endpoint) Size() int { return e.group.size }

// Group returns the group the endpoint belongs to.
func (e *Endpoint) Group() *Group { return e.group }

// RegisterHandler implements transport.Channel.
// Messages that arrived before their handler was registered are redelivered.
func (e *Endpoint) RegisterHandler(tag transport.Tag, h transport.Handler) {
	e.mu.Lock()
	e.handlers[tag] = h

	var redeliver []envelope
	kept := e.parked[:0]
	for _, env := range e.parked {
		if env.msg.Tag == tag {
			redeliver = append(redeliver, env)
		} else {
			kept = append(kept, env)
		}
	}
	e.parked = kept
	e.mu.Unlock()

	for _, env := range redeliver {
		if !e.inbox.push(env) {
			e.fail(env, transport.ErrClosed)
		}
	}
}

// Send implements transport.Channel.
func (e *Endpoint) Send(ctx context.Context, to int, tag transport.Tag, payload []byte) error {
	return e.post(ctx, to, tag, payload, nil)
}

// SendWithReply implements transport.Channel.
func (e *Endpoint) SendWithReply(ctx context.Context, to int, tag transport.Tag, payload []byte) ([]byte, error) {
	if transport.OnDispatchPath(ctx, e) {
		return nil, transport.ErrReplyOnDispatchPath
	}

	if e.inflight != nil {
		if err := e.inflight.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer e.inflight.Release(1)
	}

	reply := make(chan result, 1)
	if err := e.post(ctx, to, tag, payload, reply); err != nil {
		return nil, err
	}

	target := e.group.endpoints[to]
	select {
	case res := <-reply:
		return res.payload, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.done:
		return nil, transport.ErrClosed
	case <-target.exited:
		// The target may have answered before exiting.
		select {
		case res := <-reply:
			return res.payload, res.err
		default:
			return nil, transport.ErrClosed
		}
	}
}

func (e *Endpoint) post(ctx context.Context, to int, tag transport.Tag, payload []byte, reply chan result) error {
	if e.closed.Load() {
		return transport.ErrClosed
	}
	if to < 0 || to >= e.group.size {
		return fmt.Errorf("%w: %d", transport.ErrInvalidRank, to)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	env := envelope{
		msg:   transport.Message{From: e.rank, To: to, Tag: tag, Payload: payload},
		reply: reply,
	}

	e.group.beginMessage()
	if !e.group.endpoints[to].inbox.push(env) {
		e.group.endMessage()
		return transport.ErrClosed
	}
	return nil
}

// Exec implements transport.Channel.
func (e *Endpoint) Exec(ctx context.Context, fn func(ctx context.Context)) error {
	if transport.OnDispatchPath(ctx, e) {
		fn(ctx)
		return nil
	}
	if e.closed.Load() {
		return transport.ErrClosed
	}

	done := make(chan struct{})
	if !e.inbox.push(envelope{fn: fn, done: done}) {
		return transport.ErrClosed
	}

	// Once queued the closure always runs; waiting for it keeps callers from
	// observing half-applied state after a cancellation.
	select {
	case <-done:
		return nil
	case <-e.exited:
		return transport.ErrClosed
	}
}

// Synchronize implements transport.Channel.
func (e *Endpoint) Synchronize(ctx context.Context) error {
	if e.closed.Load() {
		return transport.ErrClosed
	}

	// Handlers are registered before the first barrier; anything still
	// parked can never be delivered.
	e.mu.Lock()
	parked := e.parked
	e.parked = nil
	e.synced = true
	e.mu.Unlock()
	for _, env := range parked {
		e.fail(env, unknownTag(env.msg.Tag))
	}

	if err := e.group.barrier(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	errs := e.asyncErr
	e.asyncErr = nil
	e.mu.Unlock()

	return errors.Join(errs...)
}

// Fork implements transport.Channel.
func (e *Endpoint) Fork() (transport.Channel, error) {
	if e.closed.Load() {
		return nil, transport.ErrClosed
	}

	e.mu.Lock()
	k := e.forks
	e.forks++
	e.mu.Unlock()

	return e.group.child(k).endpoints[e.rank], nil
}

// Close implements transport.Channel. Queued envelopes are still processed.
func (e *Endpoint) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(e.done)
	e.inbox.close()
	<-e.exited

	e.mu.Lock()
	parked := e.parked
	e.parked = nil
	e.mu.Unlock()
	for _, env := range parked {
		e.fail(env, transport.ErrClosed)
	}

	e.group.rankClosed()
	return nil
}

func (e *Endpoint) dispatch() {
	defer close(e.exited)

	ctx := transport.WithDispatch(e.group.baseCtx, e)
	for {
		env, ok := e.inbox.pop()
		if !ok {
			return
		}

		if env.fn != nil {
			env.fn(ctx)
			close(env.done)
			continue
		}

		e.mu.Lock()
		h, ok := e.handlers[env.msg.Tag]
		if !ok {
			synced := e.synced
			if !synced {
				e.parked = append(e.parked, env)
			}
			e.mu.Unlock()
			if synced {
				e.fail(env, unknownTag(env.msg.Tag))
			}
			continue
		}
		e.mu.Unlock()

		payload, err := h(ctx, env.msg)
		e.complete(env, payload, err)
	}
}

func unknownTag(tag transport.Tag) error {
	return fmt.Errorf("%w: %s", transport.ErrUnknownTag, tag)
}

func (e *Endpoint) fail(env envelope, err error) {
	e.complete(env, nil, err)
}

func (e *Endpoint) complete(env envelope, payload []byte, err error) {
	if env.reply != nil {
		if err != nil {
			err = &transport.RemoteError{Rank: e.rank, Tag: env.msg.Tag, Err: err}
		}
		env.reply <- result{payload: payload, err: err}
	} else if err != nil {
		e.logger.Warn("async handler failed", "tag", env.msg.Tag.String(), "from", env.msg.From, "error", err)
		e.mu.Lock()
		e.asyncErr = append(e.asyncErr, &transport.HandlerError{From: env.msg.From, Tag: env.msg.Tag, Err: err})
		e.mu.Unlock()
	}
	e.group.endMessage()
}
