package services

import (
	"context"
	"time"

	"studyapp/internal/config"
	"studyapp/internal/observability"
	contextutils "studyapp/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// callWithRetry invokes call, retrying only on transient-server failures
// (contextutils.IsRetryable). The wait before attempt n+1 is n * baseDelay.
// Non-transient failures propagate immediately; after maxAttempts the last
// error propagates. The wrapper knows nothing about response contents;
// malformed-output recovery is the extractor's job, one layer up.
func callWithRetry[T any](ctx context.Context, logger *observability.Logger, maxAttempts int, baseDelay time.Duration, call func(context.Context) (T, error)) (result T, err error) {
	ctx, span := observability.TraceAIFunction(ctx, "call_with_retry",
		attribute.Int("retry.max_attempts", maxAttempts),
	)
	defer observability.FinishSpan(span, &err)

	var zero T
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err = call(ctx)
		if err == nil {
			span.SetAttributes(attribute.Int("retry.attempts_used", attempt))
			return result, nil
		}

		if !contextutils.IsRetryable(err) || attempt == maxAttempts {
			span.SetAttributes(attribute.Int("retry.attempts_used", attempt))
			return zero, err
		}

		logger.Warn(ctx, "Transient AI failure, retrying", map[string]interface{}{
			"attempt":      attempt,
			"max_attempts": maxAttempts,
			"error":        err.Error(),
		})

		select {
		case <-time.After(time.Duration(attempt) * baseDelay):
		case <-ctx.Done():
			return zero, contextutils.WrapError(ctx.Err(), "retry interrupted")
		}
	}

	return zero, err
}

// invokeGeneration is the standard retry wrapper for one generation-service
// call: config.MaxAIAttempts attempts with linear backoff on
// config.AIRetryBaseDelay.
func invokeGeneration(ctx context.Context, logger *observability.Logger, call func(context.Context) (string, error)) (string, error) {
	return callWithRetry(ctx, logger, config.MaxAIAttempts, config.AIRetryBaseDelay, call)
}
