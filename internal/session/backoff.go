package session

import "time"

// LinearBackoff waits Base*N before the Nth reconnect, for N in 1..MaxAttempts.
type LinearBackoff struct {
	Base        time.Duration
	MaxAttempts int
}

// DefaultBackoff retries five times at 2s, 4s, 6s, 8s and 10s.
func DefaultBackoff() LinearBackoff {
	return LinearBackoff{Base: 2 * time.Second, MaxAttempts: 5}
}

// Delay returns the wait before reconnect attempt n (1-based).
func (b LinearBackoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return b.Base * time.Duration(attempt)
}

// Exhausted reports whether attempts already made leave no budget.
func (b LinearBackoff) Exhausted(attempts int) bool {
	return attempts >= b.MaxAttempts
}
