// Package events publishes task lifecycle events to NATS.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/buildseq/internal/logfields"
	"git.home.luguber.info/inful/buildseq/internal/sequencer"
)

// Event types, appended to the configured subject.
const (
	TypeRunStarted   = "run.started"
	TypeTaskStarted  = "task.started"
	TypeTaskFinished = "task.finished"
	TypeRunFinished  = "run.finished"
)

// Event is the JSON payload of every message.
type Event struct {
	Type       string    `json:"type"`
	RunID      string    `json:"run_id"`
	Targets    []string  `json:"targets,omitempty"`
	Task       string    `json:"task,omitempty"`
	State      string    `json:"state,omitempty"`
	DurationMS int64     `json:"duration_ms,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher is the subset of *nats.Conn used here.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Connect dials a NATS server for event publication.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("buildseq"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// Observer turns sequencer callbacks into published events. Publication errors are
// logged and never fail a build.
type Observer struct {
	pub     Publisher
	subject string
	logger  *slog.Logger
	now     func() time.Time
}

var _ sequencer.Observer = (*Observer)(nil)

// NewObserver creates an Observer publishing under subject.
func NewObserver(pub Publisher, subject string, logger *slog.Logger) *Observer {
	if subject == "" {
		subject = "buildseq"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{pub: pub, subject: subject, logger: logger, now: time.Now}
}

func (o *Observer) RunStarted(r *sequencer.Report) {
	o.publish(Event{Type: TypeRunStarted, RunID: r.RunID, Targets: r.Targets})
}

func (o *Observer) TaskStarted(r *sequencer.Report, task string) {
	o.publish(Event{Type: TypeTaskStarted, RunID: r.RunID, Task: task, State: string(sequencer.StateRunning)})
}

func (o *Observer) TaskFinished(r *sequencer.Report, res sequencer.TaskResult) {
	ev := Event{
		Type:       TypeTaskFinished,
		RunID:      r.RunID,
		Task:       res.Name,
		State:      string(res.State),
		DurationMS: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}
	o.publish(ev)
}

func (o *Observer) RunFinished(r *sequencer.Report) {
	ev := Event{
		Type:       TypeRunFinished,
		RunID:      r.RunID,
		Targets:    r.Targets,
		State:      r.Outcome(),
		DurationMS: r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		ev.Error = r.Err.Error()
	}
	o.publish(ev)
}

func (o *Observer) publish(ev Event) {
	ev.Timestamp = o.now().UTC()
	data, err := json.Marshal(ev)
	if err != nil {
		o.logger.Warn("Failed to marshal event", logfields.RunID(ev.RunID), logfields.Error(err))
		return
	}
	subject := o.subject + "." + ev.Type
	if err := o.pub.Publish(subject, data); err != nil {
		o.logger.Warn("Failed to publish event",
			slog.String("subject", subject),
			logfields.RunID(ev.RunID),
			logfields.Error(err))
		return
	}
	o.logger.Debug("Published event", slog.String("subject", subject), logfields.Task(ev.Task))
}
