package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleJob(id string, startTime time.Time) *Job {
	return &Job{
		JobID:         id,
		HostID:        "feedfacecafe",
		Command:       "echo hi",
		SuccessCodes:  []int{0},
		StartTime:     &startTime,
		State:         StateSubmitted,
		RetryAttempts: 2,
	}
}

func TestInsertAndGetJob(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()
	delay := 5 * time.Second

	job := sampleJob("aaaa1111", now)
	job.WaitForFiles = []string{"/tmp/go", "/tmp/go2"}
	job.RetryDelay = &delay
	job.RetryExpoBackoff = true
	job.NotifyOnJobFailure = []string{"pager"}
	require.NoError(t, s.InsertJob(job))

	got, err := s.GetJob("aaaa1111")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "echo hi", got.Command)
	assert.Equal(t, []string{"/tmp/go", "/tmp/go2"}, got.WaitForFiles)
	assert.Equal(t, []int{0}, got.SuccessCodes)
	assert.Equal(t, delay, *got.RetryDelay)
	assert.True(t, got.RetryExpoBackoff)
	assert.Equal(t, []string{"pager"}, got.NotifyOnJobFailure)
	assert.Equal(t, StateSubmitted, got.State)
	assert.True(t, now.Equal(*got.StartTime))
	assert.Nil(t, got.ExitCode)
}

func TestGetJobMissing(t *testing.T) {
	s := openTestStore(t)

	got, err := s.GetJob("deadbeef")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetJobScopedToHost(t *testing.T) {
	s := openTestStore(t)

	other := sampleJob("bbbb2222", time.Now())
	other.HostID = "000000000000"
	require.NoError(t, s.InsertJob(other))

	got, err := s.GetJob("bbbb2222")
	require.NoError(t, err)
	assert.Nil(t, got, "jobs from other hosts must not be visible")
}

func TestInsertJobRejectsDelimiterInPath(t *testing.T) {
	s := openTestStore(t)

	job := sampleJob("cccc3333", time.Now())
	job.WaitForFiles = []string{"/tmp/evil|path"}
	assert.Error(t, s.InsertJob(job))
}

func TestListJobsFilterAndOrder(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.Local)

	older := sampleJob("11110000", base)
	newer := sampleJob("22220000", base.Add(time.Hour))
	newer.State = StateRunning
	done := sampleJob("33330000", base.Add(2*time.Hour))
	done.State = StateComplete
	for _, j := range []*Job{older, newer, done} {
		require.NoError(t, s.InsertJob(j))
	}

	all, err := s.ListJobs(JobFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "33330000", all[0].JobID, "newest first")
	assert.Equal(t, "11110000", all[2].JobID)

	active, err := s.ListJobs(JobFilter{States: []State{StateSubmitted, StateRunning}})
	require.NoError(t, err)
	assert.Equal(t, []string{"22220000", "11110000"}, JobIDsOf(active))

	windowed, err := s.ListJobs(JobFilter{
		Since: ptr(base.Add(30 * time.Minute)),
		Until: ptr(base.Add(90 * time.Minute)),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"22220000"}, JobIDsOf(windowed))

	byID, err := s.ListJobs(JobFilter{IDs: []string{"11110000", "33330000"}})
	require.NoError(t, err)
	assert.Len(t, byID, 2)
}

func TestListJobsNullStartTimeLast(t *testing.T) {
	s := openTestStore(t)

	noStart := sampleJob("aaaa0000", time.Time{})
	noStart.StartTime = nil
	require.NoError(t, s.InsertJob(noStart))
	require.NoError(t, s.InsertJob(sampleJob("bbbb0000", time.Now())))

	jobs, err := s.ListJobs(JobFilter{})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "aaaa0000", jobs[1].JobID)
}

func TestFinalizeJob(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.InsertJob(sampleJob("dddd4444", time.Now())))

	finish := time.Now()
	require.NoError(t, s.UpdateJobState("dddd4444", StateRunning))
	require.NoError(t, s.FinalizeJob("dddd4444", &finish, ptr(3)))

	got, err := s.GetJob("dddd4444")
	require.NoError(t, err)
	assert.Equal(t, StateComplete, got.State)
	assert.Equal(t, 3, *got.ExitCode)
	assert.True(t, finish.Equal(*got.FinishTime))
}

func TestUpdateJobStateMissing(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.UpdateJobState("deadbeef", StateRunning))
}

func TestDeleteJobCascadesRuns(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.InsertJob(sampleJob("eeee5555", time.Now())))
	require.NoError(t, s.InsertRun(&Run{
		JobID: "eeee5555", Attempt: 0, LogPath: "/tmp/logs/eeee5555/0",
		State: StateSubmitted,
	}))

	require.NoError(t, s.DeleteJob("eeee5555"))

	runs, err := s.ListRuns([]string{"eeee5555"})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestJobIDExists(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.InsertJob(sampleJob("ffff6666", time.Now())))

	exists, err := s.JobIDExists("ffff6666")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.JobIDExists("00000000")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIsSuccessCode(t *testing.T) {
	job := &Job{SuccessCodes: []int{0, 3}}
	assert.True(t, job.IsSuccessCode(0))
	assert.True(t, job.IsSuccessCode(3))
	assert.False(t, job.IsSuccessCode(1))

	// Empty defaults to [0].
	assert.True(t, (&Job{}).IsSuccessCode(0))
	assert.False(t, (&Job{}).IsSuccessCode(2))
}
