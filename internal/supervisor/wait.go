package supervisor

import (
	"context"
	"os"
	"time"
)

// pollInterval is the cadence for the wait gate and abort monitor loops.
const pollInterval = 100 * time.Millisecond

// WaitGate blocks until every configured wait condition holds in a single
// sample: the wall clock has passed both waitTime and base+waitDuration, and
// every path in waitForFiles exists. Absent conditions are satisfied
// immediately, so a zero-wait policy returns on the first pass. The gate only
// samples, so a file that appears and disappears is tolerated by re-checking
// each tick.
func WaitGate(ctx context.Context, base time.Time, waitTime *time.Time,
	waitDuration *time.Duration, waitForFiles []string) error {

	deadline := combineWaits(base, waitTime, waitDuration)

	for {
		if !time.Now().Before(deadline) && allFilesExist(waitForFiles) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// combineWaits reduces the two temporal wait conditions to a single instant:
// the later of waitTime and base+waitDuration, with absent conditions
// collapsing to base.
func combineWaits(base time.Time, waitTime *time.Time, waitDuration *time.Duration) time.Time {
	deadline := base
	if waitDuration != nil {
		deadline = base.Add(*waitDuration)
	}
	if waitTime != nil && waitTime.After(deadline) {
		deadline = *waitTime
	}
	return deadline
}

func allFilesExist(files []string) bool {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return false
		}
	}
	return true
}
