package supervisor

import (
	"math/rand"
	"time"
)

// RetryDelay computes the sleep before the given attempt (attempt >= 1).
// The base delay optionally grows exponentially (base * 2^(attempt-1)) and is
// optionally jittered by up to a tenth of the base in either direction.
// Results never go negative.
func RetryDelay(base time.Duration, attempt int, expoBackoff, jitter bool) time.Duration {
	baseSecs := base.Seconds()

	factor := 1.0
	if expoBackoff {
		factor = float64(int64(1) << (attempt - 1))
	}

	jitterSecs := 0.0
	if jitter {
		maxJitter := baseSecs / 10
		jitterSecs = (rand.Float64()*2 - 1) * maxJitter
	}

	delay := time.Duration((factor*baseSecs + jitterSecs) * float64(time.Second))
	if delay < 0 {
		return 0
	}
	return delay
}
