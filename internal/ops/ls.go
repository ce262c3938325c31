// Package ops implements the inspection and control operations that
// collaborate with live supervisors through the store: ls, status, logs,
// kill, purge, reset, and the background log GC.
package ops

import (
	"github.com/jobman-sh/jobman/internal/store"
)

// JobWithRuns pairs a job with its runs for display.
type JobWithRuns struct {
	Job  *store.Job
	Runs []*store.Run
}

// Ls lists this host's jobs, newest first. Unless all is set, only jobs
// still in flight (Submitted or Running) are returned.
func Ls(st *store.Store, all bool) ([]*JobWithRuns, error) {
	filter := store.JobFilter{}
	if !all {
		filter.States = []store.State{store.StateSubmitted, store.StateRunning}
	}

	jobs, err := st.ListJobs(filter)
	if err != nil {
		return nil, err
	}
	return attachRuns(st, jobs)
}

func attachRuns(st *store.Store, jobs []*store.Job) ([]*JobWithRuns, error) {
	runs, err := st.ListRuns(store.JobIDsOf(jobs))
	if err != nil {
		return nil, err
	}
	grouped := store.RunsByJob(runs)

	result := make([]*JobWithRuns, len(jobs))
	for i, job := range jobs {
		result[i] = &JobWithRuns{Job: job, Runs: grouped[job.JobID]}
	}
	return result, nil
}
