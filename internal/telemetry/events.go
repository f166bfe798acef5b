package telemetry

import (
	"time"

	"github.com/josephgoksu/ReqWing/internal/project"
)

// Event names. Properties never carry project text.
const (
	EventCommandExecuted   = "command_executed"
	EventProjectStarted    = "project_started"
	EventStageTransition   = "stage_transition"
	EventDocumentGenerated = "document_generated"
	EventStepFailed        = "step_failed"
)

// Tracker reports workflow activity to a Client. It satisfies the engine's
// observer interface.
type Tracker struct {
	client Client
}

// NewTracker wraps a client. A nil client drops everything.
func NewTracker(c Client) *Tracker {
	if c == nil {
		c = NoopClient{}
	}
	return &Tracker{client: c}
}

func (t *Tracker) StepDone(step string, d time.Duration, err error) {
	if err == nil {
		return
	}
	t.client.Track(EventStepFailed, Properties{
		"step":        step,
		"duration_ms": d.Milliseconds(),
	})
}

func (t *Tracker) Transitioned(from, to project.Stage) {
	switch {
	case to == project.StageFinalDocument:
		t.client.Track(EventDocumentGenerated, Properties{"from": string(from)})
	case from == project.StageInitial && to == project.StageClarification:
		t.client.Track(EventProjectStarted, nil)
	default:
		t.client.Track(EventStageTransition, Properties{"from": string(from), "to": string(to)})
	}
}

// Command reports a finished CLI command.
func (t *Tracker) Command(name string, d time.Duration, err error) {
	props := Properties{
		"command":     name,
		"duration_ms": d.Milliseconds(),
		"success":     err == nil,
	}
	t.client.Track(EventCommandExecuted, props)
}
