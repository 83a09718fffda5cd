package completion

import (
	"fmt"
	"time"
)

// RateLimitError marks a transient rate-limit or quota condition reported by
// the completion backend. The retry policy keys off this type, never off
// provider error message text; producing it is the backend adapter's job.
type RateLimitError struct {
	// RetryAfter is the provider-suggested delay before retrying, zero when
	// the provider gave none.
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.Err == nil {
		return "rate limited"
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}
