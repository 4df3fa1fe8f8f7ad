package client

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds Retry.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy retries twice, starting at one second.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:      2,
	InitialInterval: time.Second,
	MaxInterval:     5 * time.Second,
}

// Retry runs op until it succeeds, fails with a non-retryable error, the
// retries are used up or ctx is done. Only network and server errors are
// retried.
func Retry(ctx context.Context, p RetryPolicy, op func(context.Context) error) error {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(p.InitialInterval),
		backoff.WithMaxInterval(p.MaxInterval),
		backoff.WithMaxElapsedTime(0),
	)
	policy := backoff.WithContext(backoff.WithMaxRetries(b, p.MaxRetries), ctx)
	return backoff.Retry(func() error {
		err := op(ctx)
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}
