package leads

import "time"

// RetryPolicy decides whether a failed transport attempt is retried.
// attempt is zero-based; returning false stops with the last failure.
type RetryPolicy interface {
	Next(attempt int, err error) (time.Duration, bool)
}

// NoRetry makes a single attempt.
type NoRetry struct{}

func (NoRetry) Next(int, error) (time.Duration, bool) { return 0, false }

// ExponentialBackoff retries up to MaxRetries times, doubling Base each time and capping at Max.
type ExponentialBackoff struct {
	MaxRetries int
	Base       time.Duration
	Max        time.Duration
}

func (b ExponentialBackoff) Next(attempt int, _ error) (time.Duration, bool) {
	if attempt >= b.MaxRetries {
		return 0, false
	}
	base := b.Base
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	delay := base * time.Duration(1<<attempt)
	if b.Max > 0 && delay > b.Max {
		delay = b.Max
	}
	return delay, true
}

// PolicyFor returns NoRetry for maxRetries <= 0 and exponential backoff otherwise.
func PolicyFor(maxRetries int, base time.Duration) RetryPolicy {
	if maxRetries <= 0 {
		return NoRetry{}
	}
	return ExponentialBackoff{MaxRetries: maxRetries, Base: base, Max: 30 * time.Second}
}
