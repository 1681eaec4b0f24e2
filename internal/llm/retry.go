package llm

import (
	"context"
	"errors"
	"time"
)

// RetryProvider wraps a Provider with a per-call timeout and a bounded
// number of retries with exponential backoff. Callers above it treat a
// returned error as "the collaborator is unavailable" and fall back; the
// retry budget is spent here, at the call boundary.
type RetryProvider struct {
	provider   Provider
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
}

// NewRetryProvider wraps the given provider. maxRetries counts retries
// after the first attempt; backoff doubles after each failed attempt.
func NewRetryProvider(provider Provider, timeout time.Duration, maxRetries int, backoff time.Duration) *RetryProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &RetryProvider{
		provider:   provider,
		timeout:    timeout,
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

func (r *RetryProvider) Name() string { return r.provider.Name() }

func (r *RetryProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var lastErr error
	wait := r.backoff

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
		}

		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		resp, err := r.provider.Complete(callCtx, req)
		cancel()
		if err == nil {
			return resp, nil
		}
		lastErr = err

		// The caller's context expiring means the whole turn is over;
		// only the per-attempt deadline is worth retrying.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
	}

	return nil, lastErr
}
