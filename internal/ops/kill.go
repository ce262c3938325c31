package ops

import (
	"log"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/jobman-sh/jobman/internal/errs"
	"github.com/jobman-sh/jobman/internal/store"
)

// RunRef identifies one run by its composite identity.
type RunRef struct {
	JobID   string `json:"job_id"`
	Attempt int    `json:"attempt"`
}

// KillResult reports the four disjoint outcomes of a kill request.
type KillResult struct {
	NonexistentJobIDs []string `json:"nonexistent_job_ids"`
	NonrunningJobIDs  []string `json:"nonrunning_job_ids"`
	KilledRuns        []RunRef `json:"killed_runs"`
	FailedKilledRuns  []RunRef `json:"failed_killed_runs"`
}

// Failed reports whether anything about the request did not go to plan.
func (r *KillResult) Failed() bool {
	return len(r.NonexistentJobIDs) > 0 || len(r.NonrunningJobIDs) > 0 ||
		len(r.FailedKilledRuns) > 0
}

// Kill signals the active runs of the given jobs. Unless allowRetries is
// set, each selected run's killed flag is flipped first so the supervisor
// breaks its attempt loop after reaping.
func Kill(st *store.Store, jobIDs []string, sig unix.Signal, allowRetries bool) (*KillResult, error) {
	result := &KillResult{}

	jobs, err := st.ListJobs(store.JobFilter{IDs: jobIDs})
	if err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(jobs))
	for _, j := range jobs {
		existing[j.JobID] = true
	}
	for _, id := range jobIDs {
		if !existing[id] {
			result.NonexistentJobIDs = append(result.NonexistentJobIDs, id)
		}
	}

	active, err := st.ActiveRuns(store.JobIDsOf(jobs))
	if err != nil {
		return nil, err
	}
	activeByJob := store.RunsByJob(active)
	for _, j := range jobs {
		if len(activeByJob[j.JobID]) == 0 {
			result.NonrunningJobIDs = append(result.NonrunningJobIDs, j.JobID)
		}
	}

	for _, run := range active {
		ref := RunRef{JobID: run.JobID, Attempt: run.Attempt}

		if !allowRetries {
			if err := st.SetRunKilled(run.JobID, run.Attempt); err != nil {
				log.Printf("kill: failed to flag run %s/%d: %v", run.JobID, run.Attempt, err)
				result.FailedKilledRuns = append(result.FailedKilledRuns, ref)
				continue
			}
		}
		if err := unix.Kill(*run.PID, sig); err != nil {
			log.Printf("kill: signal %v to pid %d failed: %v", sig, *run.PID, err)
			result.FailedKilledRuns = append(result.FailedKilledRuns, ref)
			continue
		}
		result.KilledRuns = append(result.KilledRuns, ref)
	}

	return result, nil
}

// ParseSignal accepts a signal name ("SIGINT", "INT") or number ("2").
// An empty value means the default SIGINT.
func ParseSignal(value string) (unix.Signal, error) {
	if value == "" {
		return unix.SIGINT, nil
	}
	if n, err := strconv.Atoi(value); err == nil {
		if n <= 0 || n >= 65 {
			return 0, errs.Usage("signal number %d out of range", n)
		}
		return unix.Signal(n), nil
	}
	name := strings.ToUpper(value)
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	if sig := unix.SignalNum(name); sig != 0 {
		return sig, nil
	}
	return 0, errs.Usage("unknown signal %q", value)
}
