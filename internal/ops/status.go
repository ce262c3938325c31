package ops

import (
	"github.com/jobman-sh/jobman/internal/store"
)

// StatusResult holds the jobs found for a status query plus the requested
// ids that matched nothing on this host. The caller maps a non-empty
// MissingIDs to an unavailable exit code.
type StatusResult struct {
	Jobs       []*JobWithRuns
	MissingIDs []string
}

// Status fetches each requested job with its runs, preserving request order.
func Status(st *store.Store, jobIDs []string) (*StatusResult, error) {
	jobs, err := st.ListJobs(store.JobFilter{IDs: jobIDs})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*store.Job, len(jobs))
	for _, j := range jobs {
		byID[j.JobID] = j
	}

	result := &StatusResult{}
	var found []*store.Job
	for _, id := range jobIDs {
		if job, ok := byID[id]; ok {
			found = append(found, job)
		} else {
			result.MissingIDs = append(result.MissingIDs, id)
		}
	}

	result.Jobs, err = attachRuns(st, found)
	if err != nil {
		return nil, err
	}
	return result, nil
}
