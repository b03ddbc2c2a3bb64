package gateway

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds how often a failed reaction is attempted and how
// long to wait in between. Delays grow by Multiplier up to MaxDelay.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// DefaultRetryPolicy tries three times, waiting 1s then 2s.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		Multiplier:   2,
		MaxDelay:     30 * time.Second,
	}
}

// Retryable reports whether running the failed operation again may
// succeed. Errors that classify themselves through a Retryable or
// Temporary method are trusted; cancellation is final; anything else is
// assumed transient.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	var t interface{ Temporary() bool }
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return true
}

// ShouldRetry reports whether attempt (1-based) may be followed by another.
func (p *RetryPolicy) ShouldRetry(err error, attempt int) bool {
	return attempt < p.MaxAttempts && Retryable(err)
}

// NextDelay is the wait after the given 1-based attempt.
func (p *RetryPolicy) NextDelay(attempt int) time.Duration {
	delay := p.InitialDelay
	for i := 1; i < attempt && delay < p.MaxDelay; i++ {
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
	return min(delay, p.MaxDelay)
}

// Execute calls fn until it succeeds, fails permanently, runs out of
// attempts, or ctx ends during a wait. The last error is returned.
// onRetry may be nil.
func (p *RetryPolicy) Execute(ctx context.Context, fn func() error, onRetry func(attempt int, err error)) error {
	attempt := 0
	for {
		attempt++
		err := fn()
		if err == nil || !p.ShouldRetry(err, attempt) {
			return err
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}

		timer := time.NewTimer(p.NextDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}
