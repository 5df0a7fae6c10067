package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"studyapp/internal/observability"
	contextutils "studyapp/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopLogger() *observability.Logger {
	return observability.NewLogger(nil)
}

func TestCallWithRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := callWithRetry(context.Background(), nopLogger(), 3, time.Millisecond,
		func(context.Context) (string, error) {
			calls++
			return "ok", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestCallWithRetry_RetriesTransientFailures(t *testing.T) {
	calls := 0
	result, err := callWithRetry(context.Background(), nopLogger(), 3, time.Millisecond,
		func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", contextutils.WrapError(contextutils.ErrAIProviderUnavailable, "upstream 500")
			}
			return "recovered", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "recovered", result)
	assert.Equal(t, 3, calls)
}

func TestCallWithRetry_NonTransientPropagatesImmediately(t *testing.T) {
	calls := 0
	_, err := callWithRetry(context.Background(), nopLogger(), 3, time.Millisecond,
		func(context.Context) (string, error) {
			calls++
			return "", contextutils.WrapError(contextutils.ErrAIBlocked, "safety refusal")
		})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "client-side faults must not consume retry attempts")
	assert.True(t, errors.Is(err, contextutils.ErrAIBlocked))
}

func TestCallWithRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := callWithRetry(context.Background(), nopLogger(), 3, time.Millisecond,
		func(context.Context) (string, error) {
			calls++
			return "", contextutils.WrapError(contextutils.ErrAIProviderUnavailable, "upstream 503")
		})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, errors.Is(err, contextutils.ErrAIProviderUnavailable))
}

func TestCallWithRetry_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := callWithRetry(ctx, nopLogger(), 3, time.Hour,
			func(context.Context) (string, error) {
				calls++
				return "", contextutils.WrapError(contextutils.ErrAIProviderUnavailable, "upstream 500")
			})
		done <- err
	}()

	// Give the first attempt time to fail and enter backoff, then cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	case <-time.After(5 * time.Second):
		t.Fatal("retry loop did not observe context cancellation")
	}
}
