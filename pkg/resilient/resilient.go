// Package resilient wraps outbound network calls with bounded
// retry-with-backoff. Transient failures (connection errors, timeouts,
// 429/5xx responses) are retried; anything marked permanent surfaces
// immediately. Exhausted retries are the caller's signal to degrade that
// single call to an empty result, never to abort the run.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
)

// ErrPermanent marks a failure that must not be retried, e.g. an HTTP 4xx
// response other than an auth-retry case
var ErrPermanent = errors.New("permanent failure")

// Permanent wraps err so Runner.Do gives up on the first attempt
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// Runner executes operations with a fixed exponential backoff schedule
type Runner struct {
	attempts int
	initial  time.Duration
	maxDelay time.Duration
}

// New creates a runner with the given total attempt count and backoff bounds
func New(attempts int, initial, maxDelay time.Duration) *Runner {
	if attempts < 1 {
		attempts = 1
	}
	return &Runner{attempts: attempts, initial: initial, maxDelay: maxDelay}
}

// Do runs fn, retrying transient failures up to the configured attempt count
// with exponential backoff. An error wrapped with ErrPermanent stops retries
// immediately. The name is used for logging only.
func (r *Runner) Do(ctx context.Context, name string, fn func() error) error {
	attempt := 0
	retrier := repeater.NewBackoff(r.attempts, r.initial, repeater.WithMaxDelay(r.maxDelay))

	err := retrier.Do(ctx, func() error {
		attempt++
		if err := fn(); err != nil {
			if attempt < r.attempts && !errors.Is(err, ErrPermanent) {
				lgr.Printf("[DEBUG] %s attempt %d/%d failed: %v", name, attempt, r.attempts, err)
			}
			return err
		}
		return nil
	}, ErrPermanent)

	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
