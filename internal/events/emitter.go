// Package events emits the JSONL lifecycle stream: one structured event per
// call, one line each, in emission order, with no queueing or batching.
package events

import (
	"encoding/json"
	"io"
	"time"

	"github.com/pagelift-ai/pagelift/internal/job"
)

// Type is the lifecycle event type.
type Type string

const (
	TypeStarted   Type = "job.started"
	TypeProgress  Type = "job.progress"
	TypeSucceeded Type = "job.succeeded"
	TypeFailed    Type = "job.failed"
	TypeCancelled Type = "job.cancelled"
)

// Event is one emitted lifecycle record. Progress is the harness's own
// notion of completion percentage; the engine is opaque and contributes
// nothing to it.
type Event struct {
	Type      Type           `json:"type"`
	TS        string         `json:"ts"`
	JobID     string         `json:"jobId"`
	Stage     string         `json:"stage"`
	Progress  int            `json:"progress"`
	Message   string         `json:"message"`
	ErrorCode *job.Code      `json:"errorCode"`
	Payload   map[string]any `json:"payload"`
}

// Emitter writes events to an observability stream when enabled, and is
// completely silent when disabled.
type Emitter struct {
	enabled bool
	w       io.Writer
	now     func() time.Time
}

// NewEmitter returns an emitter writing single-line JSON events to w.
func NewEmitter(enabled bool, w io.Writer) *Emitter {
	return &Emitter{enabled: enabled, w: w, now: time.Now}
}

// Emit writes one event synchronously. A nil payload is emitted as {}.
// Serialization problems are swallowed: the event stream is observability,
// never a failure source for the job itself.
func (e *Emitter) Emit(t Type, jobID, stage string, progress int, message string, errorCode *job.Code, payload map[string]any) {
	if e == nil || !e.enabled {
		return
	}
	if payload == nil {
		payload = map[string]any{}
	}
	line, err := json.Marshal(Event{
		Type:      t,
		TS:        job.Stamp(e.now()),
		JobID:     jobID,
		Stage:     stage,
		Progress:  progress,
		Message:   message,
		ErrorCode: errorCode,
		Payload:   payload,
	})
	if err != nil {
		return
	}
	_, _ = e.w.Write(append(line, '\n'))
}
