package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobman-sh/jobman/internal/store"
)

func TestResetWipesEverything(t *testing.T) {
	cfg := testConfig(t)
	st := openTestStore(t, cfg)

	insertJob(t, st, "aaaa0001", store.StateComplete, time.Now())
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.StdioPath, "aaaa0001", "0"), 0o755))
	require.NoError(t, os.MkdirAll(cfg.LogPath, 0o755))
	require.NoError(t,
		os.WriteFile(filepath.Join(cfg.LogPath, "aaaa0001.log"), []byte("log\n"), 0o644))
	require.NoError(t, st.Close())

	require.NoError(t, Reset(cfg, testHostID))

	assert.NoDirExists(t, cfg.StdioPath)
	assert.NoDirExists(t, cfg.LogPath)

	// The store comes back empty with a fresh schema.
	st2, err := store.Open(cfg.DBPath, testHostID)
	require.NoError(t, err)
	defer st2.Close()

	jobs, err := st2.ListJobs(store.JobFilter{})
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestResetOnEmptyState(t *testing.T) {
	cfg := testConfig(t)

	require.NoError(t, Reset(cfg, testHostID))

	st, err := store.Open(cfg.DBPath, testHostID)
	require.NoError(t, err)
	require.NoError(t, st.Close())
}
