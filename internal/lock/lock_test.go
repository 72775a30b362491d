package lock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInflight_RejectsSecondAcquire(t *testing.T) {
	l := NewInflight()
	ctx := context.Background()

	release, err := l.TryAcquire(ctx, "7")
	require.NoError(t, err)
	assert.True(t, l.Held("7"))

	_, err = l.TryAcquire(ctx, "7")
	assert.ErrorIs(t, err, ErrHeld)

	other, err := l.TryAcquire(ctx, "8")
	require.NoError(t, err)
	other()

	release()
	release()
	assert.False(t, l.Held("7"))

	again, err := l.TryAcquire(ctx, "7")
	require.NoError(t, err)
	again()
}

type failingLocker struct{ err error }

func (f failingLocker) TryAcquire(context.Context, string) (Release, error) {
	return nil, f.err
}

func TestChain_ReleasesOnPartialFailure(t *testing.T) {
	first := NewInflight()
	boom := errors.New("db down")

	_, err := Chain(first, failingLocker{err: boom}).TryAcquire(context.Background(), "7")
	assert.ErrorIs(t, err, boom)
	assert.False(t, first.Held("7"), "first lock must be released when a later one fails")
}

func TestChain_AcquiresAll(t *testing.T) {
	a, b := NewInflight(), NewInflight()
	release, err := Chain(a, b).TryAcquire(context.Background(), "7")
	require.NoError(t, err)
	assert.True(t, a.Held("7"))
	assert.True(t, b.Held("7"))

	release()
	assert.False(t, a.Held("7"))
	assert.False(t, b.Held("7"))
}
