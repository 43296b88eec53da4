package local

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/distgraph/transport"
)

const (
	tagEcho transport.Tag = iota + 1
	tagCount
	tagRelay
	tagFail
	tagLate
)

func newTestGroup(t *testing.T, size int, optFns ...func(o *Options)) *Group {
	t.Helper()
	g, err := NewGroup(size, optFns...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func TestNewGroup_InvalidSize(t *testing.T) {
	_, err := NewGroup(0)
	assert.Error(t, err)
}

func TestEndpoint_RankAndSize(t *testing.T) {
	g := newTestGroup(t, 3)

	for r, ch := range g.Channels() {
		assert.Equal(t, r, ch.Rank())
		assert.Equal(t, 3, ch.Size())
	}
	assert.NotEmpty(t, g.ID())
	assert.Panics(t, func() { g.Endpoint(3) })
}

func TestEndpoint_SendWithReply(t *testing.T) {
	g := newTestGroup(t, 2)
	ctx := context.Background()

	g.Endpoint(1).RegisterHandler(tagEcho, func(_ context.Context, m transport.Message) ([]byte, error) {
		return append([]byte("echo:"), m.Payload...), nil
	})

	reply, err := g.Endpoint(0).SendWithReply(ctx, 1, tagEcho, []byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, "echo:hi", string(reply))

	// Self-send from the caller path works too.
	g.Endpoint(0).RegisterHandler(tagEcho, func(_ context.Context, m transport.Message) ([]byte, error) {
		return []byte(strconv.Itoa(m.From)), nil
	})
	reply, err = g.Endpoint(0).SendWithReply(ctx, 0, tagEcho, nil)
	require.NoError(t, err)
	assert.Equal(t, "0", string(reply))
}

func TestEndpoint_RemoteError(t *testing.T) {
	g := newTestGroup(t, 2)
	cause := errors.New("boom")

	g.Endpoint(1).RegisterHandler(tagFail, func(context.Context, transport.Message) ([]byte, error) {
		return nil, cause
	})

	_, err := g.Endpoint(0).SendWithReply(context.Background(), 1, tagFail, nil)
	require.Error(t, err)

	var re *transport.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, re.Rank)
	assert.Equal(t, tagFail, re.Tag)
	assert.ErrorIs(t, err, cause)
}

func TestEndpoint_InvalidRank(t *testing.T) {
	g := newTestGroup(t, 2)

	err := g.Endpoint(0).Send(context.Background(), 2, tagCount, nil)
	assert.ErrorIs(t, err, transport.ErrInvalidRank)

	_, err = g.Endpoint(0).SendWithReply(context.Background(), -1, tagCount, nil)
	assert.ErrorIs(t, err, transport.ErrInvalidRank)
}

func TestSynchronize_DeliversAllSends(t *testing.T) {
	const size = 4
	const perRank = 50

	g := newTestGroup(t, size)
	var counts [size]atomic.Int64
	for r := 0; r < size; r++ {
		g.Endpoint(r).RegisterHandler(tagCount, func(_ context.Context, m transport.Message) ([]byte, error) {
			counts[m.To].Add(1)
			return nil, nil
		})
	}

	err := Run(context.Background(), g, func(ctx context.Context, ch transport.Channel) error {
		for i := 0; i < perRank; i++ {
			if err := ch.Send(ctx, (ch.Rank()+i)%size, tagCount, nil); err != nil {
				return err
			}
		}
		return ch.Synchronize(ctx)
	})
	require.NoError(t, err)

	var total int64
	for r := range counts {
		total += counts[r].Load()
	}
	assert.Equal(t, int64(size*perRank), total)
	assert.Equal(t, int64(0), g.Pending())
}

func TestSynchronize_CascadingSends(t *testing.T) {
	// Each relay hop forwards to the next rank until no hops remain.
	const size = 3
	g := newTestGroup(t, size)

	var delivered atomic.Int64
	for r := 0; r < size; r++ {
		ch := g.Endpoint(r)
		ch.RegisterHandler(tagRelay, func(ctx context.Context, m transport.Message) ([]byte, error) {
			hops, _ := strconv.Atoi(string(m.Payload))
			if hops == 0 {
				delivered.Add(1)
				return nil, nil
			}
			next := strconv.Itoa(hops - 1)
			return nil, ch.Send(ctx, (ch.Rank()+1)%size, tagRelay, []byte(next))
		})
	}

	err := Run(context.Background(), g, func(ctx context.Context, ch transport.Channel) error {
		if ch.Rank() == 0 {
			for i := 0; i < 10; i++ {
				if err := ch.Send(ctx, 1, tagRelay, []byte("7")); err != nil {
					return err
				}
			}
		}
		return ch.Synchronize(ctx)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), delivered.Load())
}

func TestSynchronize_ReturnsAsyncHandlerErrors(t *testing.T) {
	g := newTestGroup(t, 2)
	cause := errors.New("bad payload")

	g.Endpoint(1).RegisterHandler(tagFail, func(context.Context, transport.Message) ([]byte, error) {
		return nil, cause
	})

	errs := make([]error, 2)
	err := Run(context.Background(), g, func(ctx context.Context, ch transport.Channel) error {
		if ch.Rank() == 0 {
			if err := ch.Send(ctx, 1, tagFail, nil); err != nil {
				return err
			}
		}
		errs[ch.Rank()] = ch.Synchronize(ctx)
		return nil
	})
	require.NoError(t, err)

	assert.NoError(t, errs[0])
	require.Error(t, errs[1])
	var he *transport.HandlerError
	require.ErrorAs(t, errs[1], &he)
	assert.Equal(t, 0, he.From)
	assert.ErrorIs(t, errs[1], cause)

	// Errors are reported once.
	err = Run(context.Background(), g, func(ctx context.Context, ch transport.Channel) error {
		return ch.Synchronize(ctx)
	})
	assert.NoError(t, err)
}

func TestEndpoint_LateHandlerRegistration(t *testing.T) {
	g := newTestGroup(t, 2)
	ctx := context.Background()

	var got atomic.Int64
	require.NoError(t, g.Endpoint(0).Send(ctx, 1, tagLate, nil))

	require.Eventually(t, func() bool {
		g.Endpoint(1).mu.Lock()
		defer g.Endpoint(1).mu.Unlock()
		return len(g.Endpoint(1).parked) == 1
	}, time.Second, time.Millisecond)

	g.Endpoint(1).RegisterHandler(tagLate, func(context.Context, transport.Message) ([]byte, error) {
		got.Add(1)
		return nil, nil
	})

	err := Run(ctx, g, func(ctx context.Context, ch transport.Channel) error {
		return ch.Synchronize(ctx)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Load())
}

func TestEndpoint_UnknownTagFailsAtSynchronize(t *testing.T) {
	g := newTestGroup(t, 2)

	errs := make([]error, 2)
	err := Run(context.Background(), g, func(ctx context.Context, ch transport.Channel) error {
		if ch.Rank() == 0 {
			if err := ch.Send(ctx, 1, tagLate, nil); err != nil {
				return err
			}
		}
		errs[ch.Rank()] = ch.Synchronize(ctx)
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, errs[1], transport.ErrUnknownTag)

	// After the first barrier unknown tags fail immediately on reply paths.
	_, err = g.Endpoint(0).SendWithReply(context.Background(), 1, tagLate, nil)
	assert.ErrorIs(t, err, transport.ErrUnknownTag)
}

func TestEndpoint_ExecSerializesWithHandlers(t *testing.T) {
	g := newTestGroup(t, 2)
	ctx := context.Background()

	// Unsynchronized state: only the dispatch goroutine of rank 1 touches it.
	counter := 0
	g.Endpoint(1).RegisterHandler(tagCount, func(context.Context, transport.Message) ([]byte, error) {
		counter++
		return nil, nil
	})

	err := Run(ctx, g, func(ctx context.Context, ch transport.Channel) error {
		for i := 0; i < 100; i++ {
			if ch.Rank() == 0 {
				if err := ch.Send(ctx, 1, tagCount, nil); err != nil {
					return err
				}
			} else if err := ch.Exec(ctx, func(context.Context) { counter++ }); err != nil {
				return err
			}
		}
		return ch.Synchronize(ctx)
	})
	require.NoError(t, err)

	var got int
	require.NoError(t, g.Endpoint(1).Exec(ctx, func(context.Context) { got = counter }))
	assert.Equal(t, 200, got)
}

func TestEndpoint_ExecNestedRunsInline(t *testing.T) {
	g := newTestGroup(t, 1)
	ch := g.Endpoint(0)

	ran := false
	err := ch.Exec(context.Background(), func(ctx context.Context) {
		assert.True(t, transport.OnDispatchPath(ctx, ch))
		assert.NoError(t, ch.Exec(ctx, func(context.Context) { ran = true }))

		_, err := ch.SendWithReply(ctx, 0, tagEcho, nil)
		assert.ErrorIs(t, err, transport.ErrReplyOnDispatchPath)
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestSynchronize_ContextCancel(t *testing.T) {
	g := newTestGroup(t, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Rank 1 never arrives.
	err := g.Endpoint(0).Synchronize(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The aborted arrival does not count towards the next barrier.
	err = Run(context.Background(), g, func(ctx context.Context, ch transport.Channel) error {
		return ch.Synchronize(ctx)
	})
	assert.NoError(t, err)
}

func TestEndpoint_Close(t *testing.T) {
	g := newTestGroup(t, 2)
	ctx := context.Background()

	require.NoError(t, g.Endpoint(1).Close())
	require.NoError(t, g.Endpoint(1).Close())

	assert.ErrorIs(t, g.Endpoint(0).Send(ctx, 1, tagCount, nil), transport.ErrClosed)
	assert.ErrorIs(t, g.Endpoint(1).Send(ctx, 0, tagCount, nil), transport.ErrClosed)
	assert.ErrorIs(t, g.Endpoint(0).Synchronize(ctx), transport.ErrClosed)
	assert.ErrorIs(t, g.Endpoint(1).Exec(ctx, func(context.Context) {}), transport.ErrClosed)
}

func TestEndpoint_ForkIsIndependent(t *testing.T) {
	g := newTestGroup(t, 2)

	forks := make([]transport.Channel, 2)
	err := Run(context.Background(), g, func(ctx context.Context, ch transport.Channel) error {
		f, err := ch.Fork()
		forks[ch.Rank()] = f
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 0, forks[0].Rank())
	assert.Equal(t, 1, forks[1].Rank())
	assert.NotSame(t, g.Endpoint(0), forks[0])
	assert.Same(t, forks[0].(*Endpoint).Group(), forks[1].(*Endpoint).Group())

	forks[1].RegisterHandler(tagEcho, func(context.Context, transport.Message) ([]byte, error) {
		return []byte("fork"), nil
	})
	reply, err := forks[0].SendWithReply(context.Background(), 1, tagEcho, nil)
	require.NoError(t, err)
	assert.Equal(t, "fork", string(reply))

	// The parent has no handler for the tag.
	g.Endpoint(1).mu.Lock()
	_, ok := g.Endpoint(1).handlers[tagEcho]
	g.Endpoint(1).mu.Unlock()
	assert.False(t, ok)
}

func TestEndpoint_MaxInflight(t *testing.T) {
	g := newTestGroup(t, 2, func(o *Options) { o.MaxInflight = 1 })

	release := make(chan struct{})
	g.Endpoint(1).RegisterHandler(tagEcho, func(context.Context, transport.Message) ([]byte, error) {
		<-release
		return nil, nil
	})

	go func() {
		_, _ = g.Endpoint(0).SendWithReply(context.Background(), 1, tagEcho, nil)
	}()

	require.Eventually(t, func() bool { return g.Pending() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := g.Endpoint(0).SendWithReply(ctx, 1, tagEcho, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}
