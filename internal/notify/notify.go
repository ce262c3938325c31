// Package notify resolves a job's notify lists against the sinks configured
// in config.yml and delivers lifecycle event payloads to them. Delivery is
// strictly best-effort: a sink failure is logged and never fails the job.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jobman-sh/jobman/internal/config"
)

// Event is one of the six job/run lifecycle event kinds.
type Event string

const (
	EventRunCompletion Event = "run_completion"
	EventRunSuccess    Event = "run_success"
	EventRunFailure    Event = "run_failure"
	EventJobCompletion Event = "job_completion"
	EventJobSuccess    Event = "job_success"
	EventJobFailure    Event = "job_failure"
)

// Payload is the structured message delivered to a sink.
type Payload struct {
	EventID    string     `json:"event_id"`
	Event      Event      `json:"event"`
	JobID      string     `json:"job_id"`
	Attempt    *int       `json:"attempt,omitempty"`
	ExitCode   *int       `json:"exit_code,omitempty"`
	StartTime  *time.Time `json:"start_time,omitempty"`
	FinishTime *time.Time `json:"finish_time,omitempty"`
}

// Dispatcher delivers payloads to named sinks.
type Dispatcher struct {
	sinks map[string]config.SinkSpec

	// deliver is swappable for tests.
	deliver func(spec config.SinkSpec, data []byte) error
}

// NewDispatcher builds a dispatcher from the configured sink specs.
func NewDispatcher(specs []config.SinkSpec) *Dispatcher {
	sinks := make(map[string]config.SinkSpec, len(specs))
	for _, spec := range specs {
		sinks[spec.Name] = spec
	}
	return &Dispatcher{sinks: sinks, deliver: deliverToSink}
}

// Dispatch sends the payload to every named callback. Unknown sink names and
// delivery failures are logged and swallowed.
func (d *Dispatcher) Dispatch(callbacks []string, event Event, payload Payload) {
	if len(callbacks) == 0 {
		return
	}

	payload.Event = event
	payload.EventID = ulid.Make().String()

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("notify: failed to encode %s payload for job %s: %v", event, payload.JobID, err)
		return
	}

	for _, name := range callbacks {
		spec, ok := d.sinks[name]
		if !ok {
			log.Printf("notify: no sink named %q configured, skipping", name)
			continue
		}
		if err := d.deliver(spec, data); err != nil {
			log.Printf("notify: sink %q failed for %s on job %s: %v", name, event, payload.JobID, err)
		}
	}
}

func deliverToSink(spec config.SinkSpec, data []byte) error {
	switch spec.Type {
	case "command":
		cmd := exec.Command("sh", "-c", spec.Target)
		cmd.Stdin = bytes.NewReader(data)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("%w (output: %s)", err, out)
		}
		return nil
	case "file":
		f, err := os.OpenFile(spec.Target, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = f.Write(append(data, '\n'))
		return err
	default:
		return fmt.Errorf("unsupported sink type %q", spec.Type)
	}
}
