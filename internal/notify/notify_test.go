package notify

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobman-sh/jobman/internal/config"
)

func TestDispatchToNamedSinks(t *testing.T) {
	d := NewDispatcher([]config.SinkSpec{
		{Name: "a", Type: "file", Target: "/unused"},
		{Name: "b", Type: "file", Target: "/unused"},
	})

	var delivered []string
	d.deliver = func(spec config.SinkSpec, data []byte) error {
		delivered = append(delivered, spec.Name)

		var p Payload
		require.NoError(t, json.Unmarshal(data, &p))
		assert.Equal(t, EventRunSuccess, p.Event)
		assert.Equal(t, "aaaa1111", p.JobID)
		assert.NotEmpty(t, p.EventID)
		return nil
	}

	d.Dispatch([]string{"a", "b"}, EventRunSuccess, Payload{JobID: "aaaa1111"})
	assert.Equal(t, []string{"a", "b"}, delivered)
}

func TestDispatchUnknownSinkIsSwallowed(t *testing.T) {
	d := NewDispatcher(nil)
	d.deliver = func(config.SinkSpec, []byte) error {
		t.Fatal("should not deliver to unknown sink")
		return nil
	}

	// Must not panic or error.
	d.Dispatch([]string{"ghost"}, EventJobFailure, Payload{JobID: "aaaa1111"})
}

func TestDispatchDeliveryFailureIsSwallowed(t *testing.T) {
	d := NewDispatcher([]config.SinkSpec{{Name: "bad", Type: "file", Target: "/unused"}})
	d.deliver = func(config.SinkSpec, []byte) error {
		return errors.New("sink exploded")
	}

	d.Dispatch([]string{"bad"}, EventJobCompletion, Payload{JobID: "aaaa1111"})
}

func TestDispatchEmptyCallbacksIsNoop(t *testing.T) {
	d := NewDispatcher(nil)
	d.deliver = func(config.SinkSpec, []byte) error {
		t.Fatal("no callbacks means no delivery")
		return nil
	}
	d.Dispatch(nil, EventJobSuccess, Payload{JobID: "aaaa1111"})
}

func TestFileSinkAppendsJSONLines(t *testing.T) {
	target := filepath.Join(t.TempDir(), "events.jsonl")
	spec := config.SinkSpec{Name: "audit", Type: "file", Target: target}

	require.NoError(t, deliverToSink(spec, []byte(`{"event":"run_completion"}`)))
	require.NoError(t, deliverToSink(spec, []byte(`{"event":"job_completion"}`)))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "{\"event\":\"run_completion\"}\n{\"event\":\"job_completion\"}\n", string(data))
}

func TestCommandSinkReceivesPayloadOnStdin(t *testing.T) {
	out := filepath.Join(t.TempDir(), "received")
	spec := config.SinkSpec{Name: "hook", Type: "command", Target: "cat > " + out}

	require.NoError(t, deliverToSink(spec, []byte(`{"job_id":"aaaa1111"}`)))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"job_id":"aaaa1111"}`, string(data))
}

func TestCommandSinkFailureReturnsError(t *testing.T) {
	spec := config.SinkSpec{Name: "hook", Type: "command", Target: "exit 3"}
	assert.Error(t, deliverToSink(spec, []byte(`{}`)))
}
