package supervisor

import (
	"context"
	"log"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// AbortMonitor watches a job's abort conditions concurrently with the
// supervised child and delivers a signal to the target pid once any of them
// fires. It is one-shot: after delivering it exits. The supervisor stops it
// unconditionally via context cancellation when the job finishes.
type AbortMonitor struct {
	TargetPID int
	Signal    unix.Signal

	AbortTime     *time.Time
	AbortDuration *time.Duration
	AbortForFiles []string

	// kill is swappable for tests.
	kill func(pid int, sig unix.Signal) error

	done chan struct{}
}

// NewAbortMonitor builds a monitor targeting pid with the job's abort policy.
func NewAbortMonitor(pid int, sig unix.Signal, abortTime *time.Time,
	abortDuration *time.Duration, abortForFiles []string) *AbortMonitor {

	return &AbortMonitor{
		TargetPID:     pid,
		Signal:        sig,
		AbortTime:     abortTime,
		AbortDuration: abortDuration,
		AbortForFiles: abortForFiles,
		kill:          unix.Kill,
		done:          make(chan struct{}),
	}
}

// Armed reports whether any abort condition is configured. An unarmed
// monitor never fires and need not be started.
func (m *AbortMonitor) Armed() bool {
	return m.AbortTime != nil || m.AbortDuration != nil || len(m.AbortForFiles) > 0
}

// Start launches the monitor loop in its own goroutine. The Go runtime
// delivers signals over channels rather than interrupting syscalls, so
// unlike the classical implementation this does not need a sibling process
// to survive the supervisor's own signal handling.
func (m *AbortMonitor) Start(ctx context.Context) {
	deadline := m.combineAborts(time.Now())
	go func() {
		defer close(m.done)
		for {
			if m.shouldFire(deadline) {
				if err := m.kill(m.TargetPID, m.Signal); err != nil {
					// The target may have exited already; that is fine.
					log.Printf("abort monitor: signal %v to pid %d failed: %v",
						m.Signal, m.TargetPID, err)
				}
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollInterval):
			}
		}
	}()
}

// Done closes once the monitor has fired or been cancelled.
func (m *AbortMonitor) Done() <-chan struct{} {
	return m.done
}

func (m *AbortMonitor) shouldFire(deadline time.Time) bool {
	if !time.Now().Before(deadline) {
		return true
	}
	return anyFileExists(m.AbortForFiles)
}

// combineAborts reduces the two temporal abort conditions to the earlier of
// abortTime and start+abortDuration. With neither set, the deadline is
// effectively never.
func (m *AbortMonitor) combineAborts(start time.Time) time.Time {
	// Far enough out to be "never" for a single-host job supervisor.
	deadline := start.AddDate(1000, 0, 0)
	if m.AbortDuration != nil {
		deadline = start.Add(*m.AbortDuration)
	}
	if m.AbortTime != nil && m.AbortTime.Before(deadline) {
		deadline = *m.AbortTime
	}
	return deadline
}

func anyFileExists(files []string) bool {
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			return true
		}
	}
	return false
}
