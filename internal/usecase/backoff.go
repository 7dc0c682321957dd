package usecase

import "time"

// Backoff computes the delay before retrying a failed AI call. This governs
// only internal attempts inside one job run; whole-job scheduling is the
// queue's business.
type Backoff struct {
	Base time.Duration
	Cap  time.Duration
}

// DefaultBackoff gives 500ms, 1s, 2s for attempts 1..3.
var DefaultBackoff = Backoff{Base: 500 * time.Millisecond, Cap: 2 * time.Second}

// Delay returns min(Base * 2^(attempt-1), Cap). attempt is 1-indexed;
// attempts below 1 are treated as the first.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := b.Base << (attempt - 1)
	// Guard against shift overflow for absurd attempt numbers.
	if d <= 0 || d > b.Cap {
		return b.Cap
	}
	return d
}
