// Package retry implements C5: bounded retry with exponential backoff and
// full jitter, plus a concurrent batch executor over the same policy.
package retry

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/luxfi/concord/random"
)

// Classifier reports whether an error is eligible for retry. A nil
// Classifier treats every error as retryable.
type Classifier func(err error) (tag string, recoverable bool)

// Options configures Execute, per spec.md §4.5.
type Options struct {
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	Jitter            bool
	RetryableErrors   []string
	Classify          Classifier
	Source            random.Source
}

// DefaultOptions is a conservative retry profile.
func DefaultOptions() Options {
	return Options{
		MaxRetries:        3,
		BaseDelay:         200 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// ExhaustedError is returned when every attempt, including retries, has
// failed. It carries the attempt count and the last underlying error.
type ExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	return errors.Wrapf(e.LastErr, "retry: exhausted after %d attempts", e.Attempts).Error()
}

func (e *ExhaustedError) Unwrap() error { return e.LastErr }

// delay returns the backoff delay after failed attempt i (0-indexed, i.e.
// the wait before the (i+1)th retry), per spec.md §4.5:
// d_i = min(maxDelay, baseDelay * backoffMultiplier^i), optionally jittered.
func delay(opts Options, i int) time.Duration {
	d := float64(opts.BaseDelay)
	for n := 0; n < i; n++ {
		d *= opts.BackoffMultiplier
	}
	capped := time.Duration(d)
	if opts.MaxDelay > 0 && capped > opts.MaxDelay {
		capped = opts.MaxDelay
	}
	if !opts.Jitter {
		return capped
	}
	src := opts.Source
	if src == nil {
		src = random.NewSource()
	}
	return random.Jitter(src, capped)
}

func retryable(opts Options, err error) bool {
	if opts.Classify == nil {
		return true
	}
	tag, recoverable := opts.Classify(err)
	if !recoverable {
		return false
	}
	if len(opts.RetryableErrors) == 0 {
		return true
	}
	for _, t := range opts.RetryableErrors {
		if t == tag {
			return true
		}
	}
	return false
}

// Execute runs fn, retrying on failure per opts until success, retry
// exhaustion, or a non-retryable classification. ctx cancellation aborts
// the wait between attempts.
func Execute(ctx context.Context, opts Options, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	var lastErr error
	attempts := 0

	for i := 0; i <= opts.MaxRetries; i++ {
		attempts++
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryable(opts, err) {
			return nil, err
		}
		if i == opts.MaxRetries {
			break
		}

		wait := delay(opts, i)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, &ExhaustedError{Attempts: attempts, LastErr: lastErr}
}

// Outcome is one item's result from BatchExecutor.
type Outcome struct {
	Index  int
	Result interface{}
	Err    error
}

// BatchExecutor applies Options concurrently to a set of callables,
// returning one Outcome per input in the original order.
type BatchExecutor struct {
	Options Options
}

// Run executes every fn in fns concurrently under the same retry policy.
func (b BatchExecutor) Run(ctx context.Context, fns []func(ctx context.Context) (interface{}, error)) []Outcome {
	outcomes := make([]Outcome, len(fns))
	done := make(chan int, len(fns))

	for i, fn := range fns {
		i, fn := i, fn
		go func() {
			result, err := Execute(ctx, b.Options, fn)
			outcomes[i] = Outcome{Index: i, Result: result, Err: err}
			done <- i
		}()
	}

	for range fns {
		<-done
	}
	return outcomes
}
