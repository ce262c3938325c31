package ops

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobman-sh/jobman/internal/store"
)

func TestStatusPreservesRequestOrder(t *testing.T) {
	cfg := testConfig(t)
	st := openTestStore(t, cfg)

	now := time.Now()
	insertJob(t, st, "aaaa0001", store.StateComplete, now.Add(-2*time.Hour))
	insertJob(t, st, "aaaa0002", store.StateRunning, now.Add(-1*time.Hour))

	result, err := Status(st, []string{"aaaa0001", "aaaa0002"})
	require.NoError(t, err)
	require.Len(t, result.Jobs, 2)
	assert.Equal(t, "aaaa0001", result.Jobs[0].Job.JobID)
	assert.Equal(t, "aaaa0002", result.Jobs[1].Job.JobID)
	assert.Empty(t, result.MissingIDs)
}

func TestStatusReportsMissing(t *testing.T) {
	cfg := testConfig(t)
	st := openTestStore(t, cfg)

	insertJob(t, st, "aaaa0001", store.StateRunning, time.Now())

	result, err := Status(st, []string{"aaaa0001", "deadbeef"})
	require.NoError(t, err)
	require.Len(t, result.Jobs, 1)
	assert.Equal(t, []string{"deadbeef"}, result.MissingIDs)
}

func TestStatusIncludesRuns(t *testing.T) {
	cfg := testConfig(t)
	st := openTestStore(t, cfg)

	insertJob(t, st, "aaaa0001", store.StateRunning, time.Now())
	insertRun(t, st, "aaaa0001", 0, "/tmp/a/0")

	result, err := Status(st, []string{"aaaa0001"})
	require.NoError(t, err)
	require.Len(t, result.Jobs, 1)
	require.Len(t, result.Jobs[0].Runs, 1)
}
