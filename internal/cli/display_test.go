package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobman-sh/jobman/internal/errs"
	"github.com/jobman-sh/jobman/internal/ops"
	"github.com/jobman-sh/jobman/internal/store"
)

func newTestDisplayer(t *testing.T, jsonMode, plain, quiet bool) (*Displayer, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	d, err := NewDisplayer(out, errOut, jsonMode, plain, quiet)
	require.NoError(t, err)
	return d, out, errOut
}

func TestNewDisplayerRejectsJSONPlusPlain(t *testing.T) {
	_, err := NewDisplayer(&bytes.Buffer{}, &bytes.Buffer{}, true, true, false)
	require.Error(t, err)
	assert.Equal(t, errs.CodeConfig, errs.ExitCode(err))
}

func TestNewDisplayerDefaultsToPlainOffTerminal(t *testing.T) {
	d, _, _ := newTestDisplayer(t, false, false, false)
	assert.Equal(t, ModePlain, d.Mode())
}

func TestDisplayerErrorPlain(t *testing.T) {
	d, _, errOut := newTestDisplayer(t, false, true, false)
	d.Error(errors.New("boom"))
	assert.Equal(t, "ERROR! boom\n", errOut.String())
}

func TestDisplayerErrorJSON(t *testing.T) {
	d, _, errOut := newTestDisplayer(t, true, false, false)
	d.Error(errors.New("boom"))

	var obj map[string]string
	require.NoError(t, json.Unmarshal(errOut.Bytes(), &obj))
	assert.Equal(t, "error", obj["result"])
	assert.Equal(t, "boom", obj["message"])
}

func TestDisplayerJobID(t *testing.T) {
	d, out, _ := newTestDisplayer(t, false, true, false)
	d.JobID("cafe0001")
	assert.Equal(t, "cafe0001\n", out.String())
}

func TestDisplayerJobIDSurvivesQuiet(t *testing.T) {
	d, out, _ := newTestDisplayer(t, false, true, true)
	d.JobID("cafe0001")
	assert.Equal(t, "cafe0001\n", out.String())
}

func TestDisplayerJobIDJSON(t *testing.T) {
	d, out, _ := newTestDisplayer(t, true, false, false)
	d.JobID("cafe0001")

	var obj map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &obj))
	assert.Equal(t, "cafe0001", obj["job_id"])
	assert.Equal(t, "ok", obj["result"])
}

func TestDisplayerInfoQuiet(t *testing.T) {
	d, out, _ := newTestDisplayer(t, false, true, true)
	d.Info("hello")
	assert.Empty(t, out.String())
}

func TestDisplayerJobsPlainTable(t *testing.T) {
	d, out, _ := newTestDisplayer(t, false, true, false)

	start := time.Date(2026, 8, 26, 12, 0, 0, 0, time.Local)
	exit := 0
	d.Jobs([]*ops.JobWithRuns{{
		Job: &store.Job{
			JobID:     "cafe0001",
			Command:   "echo hi",
			State:     store.StateComplete,
			StartTime: &start,
			ExitCode:  &exit,
		},
		Runs: []*store.Run{{JobID: "cafe0001", Attempt: 0}},
	}})

	text := out.String()
	assert.Contains(t, text, "JOB")
	assert.Contains(t, text, "cafe0001")
	assert.Contains(t, text, "Complete")
	assert.Contains(t, text, "echo hi")
}

func TestDisplayerJobsJSON(t *testing.T) {
	d, out, _ := newTestDisplayer(t, true, false, false)

	d.Jobs([]*ops.JobWithRuns{{
		Job: &store.Job{JobID: "cafe0001", Command: "true", State: store.StateRunning},
	}})

	var jobs []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, "cafe0001", jobs[0]["job_id"])
	assert.Equal(t, "Running", jobs[0]["state"])
}
