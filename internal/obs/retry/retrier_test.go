package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noWait struct{}

func (noWait) Next(int) time.Duration { return 0 }

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, Policy{Name: "test_ok", Attempts: 5, Backoff: noWait{}})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	var exhausted error
	err := Do(context.Background(), func() error {
		calls++
		return fatal
	}, Policy{
		Name:      "test_fatal",
		Attempts:  5,
		Backoff:   noWait{},
		Retryable: func(err error) bool { return !errors.Is(err, fatal) },
		OnExhaust: func(err error) { exhausted = err },
	})

	require.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, exhausted, fatal)
}

func TestDo_HonoursContextWhileBackingOff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, func() error { return errors.New("x") },
		Policy{Name: "test_ctx", Attempts: 3, Backoff: ExpoJitter{Base: time.Hour}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestExpoJitter_CapsAtMax(t *testing.T) {
	b := ExpoJitter{Base: time.Second, Max: 4 * time.Second}
	assert.Equal(t, time.Second, b.Next(0))
	assert.Equal(t, 2*time.Second, b.Next(1))
	assert.Equal(t, 4*time.Second, b.Next(5))
}
