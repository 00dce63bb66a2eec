package llm

import "time"

// RetryConfig holds retry configuration for provider requests.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (first call included).
	MaxAttempts int

	// Backoff is the delay before the retry.
	Backoff time.Duration
}

// DefaultRetryConfig retries once after a 30 second back-off. Retries only
// apply to timeout and transient failures.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 2,
		Backoff:     30 * time.Second,
	}
}
