package relay

import (
	"context"
	"time"

	"go.llib.dev/frameless/pkg/errorkit"
	"go.llib.dev/frameless/pkg/resilience"
	"go.llib.dev/testcase/clock"
)

const (
	// ErrInvalidAttempts signals that Subject.Retry was called with an attempt count below one.
	ErrInvalidAttempts errorkit.Error = "relay: retry attempt count must be at least one"
	// ErrInvalidDelay signals that Subject.Retry was called with a negative delay.
	ErrInvalidDelay errorkit.Error = "relay: retry delay must not be negative"
	// ErrNoAttempt signals that the retry policy refused even the first attempt.
	ErrNoAttempt errorkit.Error = "relay: the retry policy did not allow any attempt"
)

// RetryPolicy decides whether another attempt should be made
// after a given number of failed attempts, waiting as part of the decision.
// The resilience package provides ready-made implementations,
// such as resilience.FixedDelay and resilience.ExponentialBackoff.
type RetryPolicy = resilience.RetryPolicy[resilience.FailureCount]

// Retry attempts the operation up to the given number of times,
// the first try plus attempts-1 retries,
// publishing the first successful value and stopping there.
// If every attempt fails, the last failure is published as an error event.
// A positive delay is waited between failed attempts.
//
// Invalid arguments are rejected synchronously before the first attempt,
// since they indicate a programming error rather than a runtime failure;
// this is the only case where Retry reports back to its caller.
func (s *Subject[T]) Retry(op Operation[T], attempts int, delay time.Duration) error {
	if attempts < 1 {
		return ErrInvalidAttempts.F("got: %d", attempts)
	}
	if delay < 0 {
		return ErrInvalidDelay.F("got: %s", delay)
	}
	return s.RetryWith(context.Background(), op, attemptLimit{Attempts: attempts, Delay: delay})
}

// RetryWith is the policy-driven variant of Retry.
// The context interrupts the waiting between attempts;
// a failure that already happened is still published.
// When the operation never ran because the policy refused the first attempt,
// nothing is published and RetryWith returns the context's error,
// or ErrNoAttempt if the context is still live.
func (s *Subject[T]) RetryWith(ctx context.Context, op Operation[T], policy RetryPolicy) error {
	var lastErr error
	for i := 0; policy.ShouldTry(ctx, i); i++ {
		v, err := op.call()
		if err == nil {
			s.Next(v)
			return nil
		}
		lastErr = err
	}
	if lastErr != nil {
		s.Fail(lastErr)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrNoAttempt
}

// attemptLimit is the RetryPolicy behind Subject.Retry.
// Unlike resilience.FixedDelay, a zero Delay means no waiting at all.
type attemptLimit struct {
	Attempts int
	Delay    time.Duration
}

func (rs attemptLimit) ShouldTry(ctx context.Context, failureCount resilience.FailureCount) bool {
	if rs.Attempts <= failureCount {
		return false
	}
	if ctx.Err() != nil {
		return false
	}
	if failureCount == 0 || rs.Delay <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-clock.After(rs.Delay):
		return true
	}
}
