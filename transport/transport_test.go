package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTag_String(t *testing.T) {
	RegisterTagName(Tag(900), "test-tag")

	assert.Equal(t, "test-tag", Tag(900).String())
	assert.Equal(t, "tag(901)", Tag(901).String())
}

func TestErrors_Unwrap(t *testing.T) {
	cause := errors.New("boom")

	re := &RemoteError{Rank: 1, Tag: Tag(3), Err: cause}
	assert.ErrorIs(t, re, cause)
	assert.Contains(t, re.Error(), "rank 1")

	he := &HandlerError{From: 2, Tag: Tag(3), Err: cause}
	assert.ErrorIs(t, he, cause)
	assert.Contains(t, he.Error(), "rank 2")
}

type fakeChannel struct{ Channel }

func TestDispatchMarker(t *testing.T) {
	a := &fakeChannel{}
	b := &fakeChannel{}

	ctx := context.Background()
	assert.False(t, OnDispatchPath(ctx, a))

	ctx = WithDispatch(ctx, a)
	assert.True(t, OnDispatchPath(ctx, a))
	assert.False(t, OnDispatchPath(ctx, b))

	ch, ok := DispatchChannel(ctx)
	assert.True(t, ok)
	assert.Same(t, a, ch)
}
