package ops

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jobman-sh/jobman/internal/config"
	"github.com/jobman-sh/jobman/internal/store"
)

const testHostID = "feedfacecafe"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		StoragePath:  dir,
		GCExpiryDays: 14,
		DBPath:       filepath.Join(dir, "db"),
		StdioPath:    filepath.Join(dir, "stdio"),
		LogPath:      filepath.Join(dir, "log"),
	}
}

func openTestStore(t *testing.T, cfg *config.Config) *store.Store {
	t.Helper()
	st, err := store.Open(cfg.DBPath, testHostID)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func insertJob(t *testing.T, st *store.Store, jobID string, state store.State, start time.Time) *store.Job {
	t.Helper()
	job := &store.Job{
		JobID:     jobID,
		HostID:    testHostID,
		Command:   "true",
		State:     state,
		StartTime: &start,
	}
	require.NoError(t, st.InsertJob(job))
	return job
}

func insertRun(t *testing.T, st *store.Store, jobID string, attempt int, logPath string) *store.Run {
	t.Helper()
	run := &store.Run{
		JobID:   jobID,
		Attempt: attempt,
		LogPath: logPath,
		State:   store.StateSubmitted,
	}
	require.NoError(t, st.InsertRun(run))
	return run
}

func ptr[T any](v T) *T { return &v }
