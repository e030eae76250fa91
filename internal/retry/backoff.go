package retry

import "time"

const (
	// baseRetryDelay is the wait after the first failed attempt.
	baseRetryDelay = 60 * time.Second
	// maxRetryDelay caps the exponential schedule.
	maxRetryDelay = 1 * time.Hour
)

// RetryDelay returns how long to wait before the next attempt.
// retryCount is the record's retry count after the failed attempt has been
// counted, so counts 1, 2, 3 yield 60s, 120s, 240s, capped at one hour.
func RetryDelay(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}

	delay := baseRetryDelay
	for i := 1; i < retryCount; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}
