package ops

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jobman-sh/jobman/internal/config"
	"github.com/jobman-sh/jobman/internal/errs"
	"github.com/jobman-sh/jobman/internal/store"
)

// PurgeResult reports which jobs were purged, which were skipped because
// they have not completed, and which of the requested ids matched nothing.
type PurgeResult struct {
	PurgedJobIDs      []string `json:"purged_job_ids"`
	SkippedJobIDs     []string `json:"skipped_job_ids"`
	NonexistentJobIDs []string `json:"nonexistent_job_ids"`
}

// Failed reports whether any requested job could not be purged.
func (r *PurgeResult) Failed() bool {
	return len(r.SkippedJobIDs) > 0 || len(r.NonexistentJobIDs) > 0
}

// Purge deletes the log directories of completed jobs matching the filter,
// and with metadata also cascade-deletes the rows. Exactly one of jobIDs and
// all must be given. Jobs that have not reached Complete are skipped.
func Purge(st *store.Store, cfg *config.Config, jobIDs []string, all, metadata bool,
	since, until *time.Time) (*PurgeResult, error) {

	if (len(jobIDs) > 0) == all {
		return nil, errs.Usage(
			"must supply either a job-id argument or the -a/--all flag, but not both")
	}

	filter := store.JobFilter{IDs: jobIDs, Since: since, Until: until}
	jobs, err := st.ListJobs(filter)
	if err != nil {
		return nil, err
	}

	result := &PurgeResult{}

	found := make(map[string]bool, len(jobs))
	for _, j := range jobs {
		found[j.JobID] = true
	}
	for _, id := range jobIDs {
		if !found[id] {
			result.NonexistentJobIDs = append(result.NonexistentJobIDs, id)
		}
	}

	for _, job := range jobs {
		if job.State != store.StateComplete {
			result.SkippedJobIDs = append(result.SkippedJobIDs, job.JobID)
			continue
		}

		logDir := filepath.Join(cfg.StdioPath, job.JobID)
		if err := os.RemoveAll(logDir); err != nil {
			return nil, err
		}
		if metadata {
			if err := st.DeleteJob(job.JobID); err != nil {
				return nil, err
			}
		}
		result.PurgedJobIDs = append(result.PurgedJobIDs, job.JobID)
	}

	return result, nil
}

// GCLogs is the background sweep: purge the log directories (not metadata)
// of completed jobs older than the configured expiry. Best-effort; failures
// go to the logger only.
func GCLogs(st *store.Store, cfg *config.Config) {
	until := time.Now().Add(-cfg.GCExpiry())
	result, err := Purge(st, cfg, nil, true, false, nil, &until)
	if err != nil {
		log.Printf("log gc: %v", err)
		return
	}
	if len(result.PurgedJobIDs) > 0 {
		log.Printf("log gc: purged logs for %d jobs older than %s", len(result.PurgedJobIDs), until)
	}
}
