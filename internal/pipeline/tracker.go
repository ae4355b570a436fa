package pipeline

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// StepTiming captures one tracked pipeline step.
type StepTiming struct {
	Step       string        `json:"step"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
}

// Tracker records per-step timings for one pipeline run.
type Tracker struct {
	start time.Time
	steps []StepTiming
}

// NewTracker starts a tracker for one run.
func NewTracker() *Tracker {
	return &Tracker{start: time.Now()}
}

// Track runs fn and records its timing; fn's error passes through.
func (t *Tracker) Track(step string, fn func() error) error {
	started := time.Now()
	err := fn()
	timing := StepTiming{
		Step:       step,
		StartedAt:  started,
		Duration:   time.Since(started),
		DurationMS: time.Since(started).Milliseconds(),
		Success:    err == nil,
	}
	if err != nil {
		timing.Error = err.Error()
	}
	t.steps = append(t.steps, timing)

	evt := log.Info()
	if err != nil {
		evt = log.Warn().Err(err)
	}
	evt.Str("step", step).Dur("duration", timing.Duration).Msg("pipeline step finished")
	return err
}

// Steps returns the recorded step timings.
func (t *Tracker) Steps() []StepTiming {
	return t.steps
}

// TotalDuration returns the elapsed time since tracking started.
func (t *Tracker) TotalDuration() time.Duration {
	return time.Since(t.start)
}

// Report serializes the timings as an indented JSON document.
func (t *Tracker) Report() []byte {
	report := struct {
		TotalDurationMS int64        `json:"total_duration_ms"`
		Steps           []StepTiming `json:"steps"`
	}{
		TotalDurationMS: t.TotalDuration().Milliseconds(),
		Steps:           t.steps,
	}
	data, _ := json.MarshalIndent(report, "", "  ")
	return data
}
