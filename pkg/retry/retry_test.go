package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errConflict = errors.New("conflict")

func TestDo_RetriesRetryableUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errConflict)
		}
		return nil
	}, WithMaxAttempts(5), WithoutSleep())

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ReturnsUnwrappedErrorWhenExhausted(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Retryable(errConflict)
	}, WithMaxAttempts(2), WithoutSleep())

	assert.Equal(t, 2, calls)
	assert.Same(t, errConflict, err)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(errConflict)
	}, WithMaxAttempts(5), WithoutSleep())

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, errConflict)
}

func TestDo_PlainErrorsAreNotRetriedByDefault(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errConflict
	}, WithMaxAttempts(5), WithoutSleep())

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, errConflict)
}

func TestTransactionRetrier_UsesPredicateAndCallback(t *testing.T) {
	var retried []int
	r := TransactionRetrier(4,
		func(err error) bool { return errors.Is(err, errConflict) },
		WithoutSleep(),
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			retried = append(retried, attempt)
		}),
	)

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errConflict
	})

	assert.ErrorIs(t, err, errConflict)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []int{1, 2, 3}, retried)
	assert.Equal(t, 4, r.MaxAttempts())
}

func TestDo_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoWithData(t *testing.T) {
	calls := 0
	v, err := DoWithData(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, Retryable(errConflict)
		}
		return 42, nil
	}, WithoutSleep())

	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestDelay_IsCappedAndNonNegative(t *testing.T) {
	r := New(WithInitialDelay(time.Second), WithMaxDelay(2*time.Second), WithJitter(0))
	assert.Equal(t, time.Second, r.delay(1))
	assert.Equal(t, 2*time.Second, r.delay(2))
	assert.Equal(t, 2*time.Second, r.delay(10))
}
