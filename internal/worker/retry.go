package worker

import "time"

// RetryPolicy computes the backoff before a failed job becomes ready
// again: Base doubled per attempt already made, capped at Max.
type RetryPolicy struct {
	Base time.Duration
	Max  time.Duration
}

// Delay returns the backoff after the given number of attempts
// (attempts >= 1; the first retry waits Base).
func (p RetryPolicy) Delay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}

	d := p.Base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= p.Max {
			return p.Max
		}
	}
	if d > p.Max {
		return p.Max
	}
	return d
}
