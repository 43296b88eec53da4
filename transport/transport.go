// Package transport defines the process-group messaging contract used by the
// distributed graph coordinator.
//
// A Channel connects one rank to the other ranks of a fixed-size process
// group. It offers fire-and-forget Send, synchronous SendWithReply, tagged
// handler registration and a collective Synchronize barrier. Handlers of a
// rank run strictly on that rank's single dispatch path; Exec runs a closure
// on the same path, so state owned by a rank is never touched by two
// goroutines at once.
package transport

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrClosed is returned when the channel (or its peer) has been closed.
	ErrClosed = errors.New("transport: channel closed")
	// ErrInvalidRank is returned for a target outside [0, Size()).
	ErrInvalidRank = errors.New("transport: invalid rank")
	// ErrUnknownTag is returned when no handler is registered for a tag.
	ErrUnknownTag = errors.New("transport: no handler registered for tag")
	// ErrReplyOnDispatchPath is returned by SendWithReply when called from a
	// handler or Exec closure, where waiting would deadlock the group.
	ErrReplyOnDispatchPath = errors.New("transport: SendWithReply on dispatch path")
)

// Tag identifies a message type.
type Tag uint16

// String returns the registered name of the tag, or its number.
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "tag(" + strconv.Itoa(int(t)) + ")"
}

var tagNames = map[Tag]string{}

// RegisterTagName associates a human-readable name with a tag for logs.
// It must be called during package initialization.
func RegisterTagName(t Tag, name string) {
	tagNames[t] = name
}

// Message is a delivered message.
type Message struct {
	From    int
	To      int
	Tag     Tag
	Payload []byte
}

// Handler processes an inbound message. The returned bytes are the reply
// for SendWithReply; they are discarded for Send.
type Handler func(ctx context.Context, m Message) ([]byte, error)

// Channel is one rank's view of a process group.
type Channel interface {
	// Rank returns this process's rank.
	Rank() int
	// Size returns the number of ranks in the group.
	Size() int
	// Send delivers payload to the handler for tag on rank to, without
	// waiting. Delivery is guaranteed no later than the next Synchronize.
	Send(ctx context.Context, to int, tag Tag, payload []byte) error
	// SendWithReply blocks until the handler for tag on rank to has run and
	// returns its reply. A handler error is returned as *RemoteError.
	SendWithReply(ctx context.Context, to int, tag Tag, payload []byte) ([]byte, error)
	// RegisterHandler associates tag with h, replacing any previous handler.
	RegisterHandler(tag Tag, h Handler)
	// Synchronize blocks until every rank has called it and every message
	// sent before any rank's call has been handled.
	Synchronize(ctx context.Context) error
	// Exec runs fn on this rank's dispatch path and waits for it.
	// The context passed to fn is marked as being on the dispatch path.
	Exec(ctx context.Context, fn func(ctx context.Context)) error
	// Fork returns an independent channel over the same ranks. Fork is
	// collective: the k-th Fork on every rank joins the same new group.
	Fork() (Channel, error)
	// Close releases the channel.
	Close() error
}

// RemoteError is a handler failure reported back to a SendWithReply caller.
type RemoteError struct {
	Rank int
	Tag  Tag
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("transport: handler %s on rank %d failed: %v", e.Tag, e.Rank, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// HandlerError is a fire-and-forget handler failure, surfaced by the
// Synchronize call that follows it on the rank where the handler ran.
type HandlerError struct {
	From int
	Tag  Tag
	Err  error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("transport: async handler %s (from rank %d) failed: %v", e.Tag, e.From, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

type dispatchKey struct{}

// WithDispatch marks ctx as running on ch's dispatch path.
// Channel implementations apply it to the contexts passed to handlers.
func WithDispatch(ctx context.Context, ch Channel) context.Context {
	return context.WithValue(ctx, dispatchKey{}, ch)
}

// DispatchChannel returns the channel whose dispatch path ctx runs on.
func DispatchChannel(ctx context.Context) (Channel, bool) {
	ch, ok := ctx.Value(dispatchKey{}).(Channel)
	return ch, ok
}

// OnDispatchPath reports whether ctx runs on ch's dispatch path.
func OnDispatchPath(ctx context.Context, ch Channel) bool {
	d, ok := DispatchChannel(ctx)
	return ok && d == ch
}
