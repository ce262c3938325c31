package store

import "time"

// State is the lifecycle state shared by jobs and runs. States only ever
// advance: Submitted -> Running -> Complete.
type State int

const (
	StateSubmitted State = 0
	StateRunning   State = 1
	StateComplete  State = 2
)

// String returns the display name for a state.
func (s State) String() string {
	switch s {
	case StateSubmitted:
		return "Submitted"
	case StateRunning:
		return "Running"
	case StateComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Job is a user-submitted command plus its policy and terminal outcome.
type Job struct {
	JobID   string
	HostID  string
	Command string

	// Wait policy: the first run starts only after all of these hold.
	WaitTime     *time.Time
	WaitDuration *time.Duration
	WaitForFiles []string

	// Abort policy: the supervised process is signalled when any of these
	// fires.
	AbortTime     *time.Time
	AbortDuration *time.Duration
	AbortForFiles []string

	// Retry policy. Total attempts = RetryAttempts + 1.
	RetryAttempts    int
	RetryDelay       *time.Duration
	RetryExpoBackoff bool
	RetryJitter      bool

	// SuccessCodes are the child exit codes treated as success. Defaults
	// to [0].
	SuccessCodes []int

	NotifyOnRunCompletion []string
	NotifyOnJobCompletion []string
	NotifyOnJobSuccess    []string
	NotifyOnRunSuccess    []string
	NotifyOnJobFailure    []string
	NotifyOnRunFailure    []string

	Follow     bool
	StartTime  *time.Time
	FinishTime *time.Time
	State      State
	ExitCode   *int
}

// IsSuccessCode reports whether code counts as success for this job.
func (j *Job) IsSuccessCode(code int) bool {
	codes := j.SuccessCodes
	if len(codes) == 0 {
		codes = []int{0}
	}
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// Run is a single attempted execution of a job.
type Run struct {
	JobID      string
	Attempt    int
	LogPath    string
	PID        *int
	StartTime  *time.Time
	FinishTime *time.Time
	State      State
	ExitCode   *int
	Killed     bool
}
