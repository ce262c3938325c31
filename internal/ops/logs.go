package ops

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jobman-sh/jobman/internal/errs"
	"github.com/jobman-sh/jobman/internal/store"
)

// Log streams.
const (
	StreamStdout = "out"
	StreamStderr = "err"
)

// LogOptions filters what Logs returns.
type LogOptions struct {
	HideStdout bool
	HideStderr bool

	// Tail keeps only the last N lines per stream per run.
	Tail *int

	// Since/Until restrict output to runs whose execution window overlaps
	// the given bounds. Log lines themselves carry no timestamps.
	Since *time.Time
	Until *time.Time
}

// LogChunk is the content of one stream of one run.
type LogChunk struct {
	JobID   string
	Attempt int
	Stream  string
	Lines   []string
}

// Logs reads the captured stdout/stderr of a job's runs. An unknown job id
// is an unavailable error.
func Logs(st *store.Store, jobID string, opts LogOptions) ([]LogChunk, error) {
	job, err := st.GetJob(jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, errs.New(errs.CodeUnavailable, "no such job: %s", jobID)
	}

	runs, err := st.ListRuns([]string{jobID})
	if err != nil {
		return nil, err
	}

	var chunks []LogChunk
	for _, run := range runs {
		if !runOverlaps(run, opts.Since, opts.Until) {
			continue
		}
		for _, stream := range []string{StreamStdout, StreamStderr} {
			if stream == StreamStdout && opts.HideStdout {
				continue
			}
			if stream == StreamStderr && opts.HideStderr {
				continue
			}
			lines, err := readLogLines(run.LogPath, stream)
			if err != nil {
				return nil, err
			}
			if opts.Tail != nil && len(lines) > *opts.Tail {
				lines = lines[len(lines)-*opts.Tail:]
			}
			chunks = append(chunks, LogChunk{
				JobID:   jobID,
				Attempt: run.Attempt,
				Stream:  stream,
				Lines:   lines,
			})
		}
	}
	return chunks, nil
}

// FollowLogs emits log lines as they appear until the job reaches Complete
// (and one final drain has run) or the context is cancelled. emit is called
// from the polling goroutine's loop, one line at a time, in order.
func FollowLogs(ctx context.Context, st *store.Store, jobID string, opts LogOptions,
	emit func(chunk LogChunk, line string)) error {

	// Tail only bounds the initial snapshot; afterwards everything new is
	// emitted.
	seen := make(map[string]int) // attempt/stream -> lines already emitted

	for {
		job, err := st.GetJob(jobID)
		if err != nil {
			return err
		}
		if job == nil {
			return errs.New(errs.CodeUnavailable, "no such job: %s", jobID)
		}

		chunks, err := Logs(st, jobID, opts)
		if err != nil {
			return err
		}
		for _, chunk := range chunks {
			key := chunk.Stream + "/" + strconv.Itoa(chunk.Attempt)
			emitted := seen[key]
			for _, line := range chunk.Lines[min(emitted, len(chunk.Lines)):] {
				emit(chunk, line)
			}
			if len(chunk.Lines) > emitted {
				seen[key] = len(chunk.Lines)
			}
		}

		if job.State == store.StateComplete {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func runOverlaps(run *store.Run, since, until *time.Time) bool {
	if since != nil && run.FinishTime != nil && run.FinishTime.Before(*since) {
		return false
	}
	if until != nil && run.StartTime != nil && run.StartTime.After(*until) {
		return false
	}
	return true
}

func readLogLines(logDir, stream string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(logDir, stream+".txt"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n"), nil
}
