package local

import (
	"context"
	"sync"

	"github.com/hupe1980/distgraph/transport"
)

type result struct {
	payload []byte
	err     error
}

// envelope is either an inbound message or an Exec closure.
type envelope struct {
	msg   transport.Message
	reply chan result // nil for fire-and-forget

	fn   func(ctx context.Context)
	done chan struct{}
}

// mailbox is an unbounded FIFO queue. push never blocks.
type mailbox struct {
	mu     sync.Mutex
	items  []envelope
	notify chan struct{}
	closed bool
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

func (m *mailbox) push(e envelope) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.items = append(m.items, e)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return true
}

// pop blocks until an envelope is available or the mailbox is closed and drained.
func (m *mailbox) pop() (envelope, bool) {
	for {
		m.mu.Lock()
		if len(m.items) > 0 {
			e := m.items[0]
			m.items[0] = envelope{}
			m.items = m.items[1:]
			m.mu.Unlock()
			return e, true
		}
		if m.closed {
			m.mu.Unlock()
			return envelope{}, false
		}
		m.mu.Unlock()

		<-m.notify
	}
}

func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}
