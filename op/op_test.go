package op

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tokamak/future"
	"github.com/roach88/tokamak/internal/breaksig"
	"github.com/roach88/tokamak/strand"
)

func TestAwaitValue_NotReadyBreaksAndRegistersPending(t *testing.T) {
	rc := strand.New()
	blocked := makeNeverReady[int]()
	_, err := AwaitValue(Default, rc, blocked)
	require.Error(t, err)
	assert.True(t, breaksig.Is(err))
	assert.False(t, rc.Pending().Empty())
}

func TestAwaitValue_ReadyMemoizesAndReturns(t *testing.T) {
	rc := strand.New()
	f := future.Completed(42)

	v, err := AwaitValue(Default, rc, f)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	rc.Trace().Rollback()
	v2, err2 := AwaitValue(Default, rc, f)
	require.NoError(t, err2)
	assert.Equal(t, 42, v2, "replay must return the memoized value")
}

func TestAwaitValue_RetryEligibleErrorClearsAndBreaks(t *testing.T) {
	sentinel := errors.New("transient")
	o := NewBuilder().RetryOn(func(err error) bool { return errors.Is(err, sentinel) }).Build()

	rc := strand.New()
	f := future.Failed[int](sentinel)

	_, err := AwaitValue(o, rc, f)
	require.Error(t, err)
	assert.True(t, breaksig.Is(err))
	assert.False(t, rc.Pending().Empty(), "a retry must register a wakeup future")

	rec, ok := rc.Trace().At(0)
	require.True(t, ok)
	assert.Equal(t, 0, int(rec.Kind), "record must be cleared back to Unset")
}

func TestAwaitValue_NonRetriedErrorIsMemoized(t *testing.T) {
	sentinel := errors.New("permanent")
	rc := strand.New()
	f := future.Failed[int](sentinel)

	_, err := AwaitValue(Default, rc, f)
	assert.Same(t, sentinel, err)

	rec, ok := rc.Trace().At(0)
	require.True(t, ok)
	assert.Equal(t, 1, int(rec.Kind), "non-retried error is a permanent Payload")
}

func TestPerformOnce_MemoizesSideEffectCount(t *testing.T) {
	rc := strand.New()
	calls := 0
	fn := func() (int, error) {
		calls++
		return calls, nil
	}

	v, err := PerformOnce(Default, rc, fn)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	rc.Trace().Rollback()
	v2, err2 := PerformOnce(Default, rc, fn)
	require.NoError(t, err2)
	assert.Equal(t, 1, v2, "replay must not re-run fn")
	assert.Equal(t, 1, calls)
}

func TestPerformOnceVoid_PropagatesError(t *testing.T) {
	rc := strand.New()
	sentinel := errors.New("boom")
	err := PerformOnceVoid(Default, rc, func() error { return sentinel })
	assert.Same(t, sentinel, err)
}

// makeNeverReady returns a Future that is never ready, without
// leaking a goroutine the way future.Go would for an infinite select.
func makeNeverReady[T any]() future.Future[T] {
	return &neverReady[T]{}
}

type neverReady[T any] struct{}

func (n *neverReady[T]) Ready() bool          { return false }
func (n *neverReady[T]) OnComplete(fn func()) {}
func (n *neverReady[T]) Cancel()              {}
func (n *neverReady[T]) Result() (T, error) {
	var zero T
	return zero, nil
}
