package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the lifecycle state of a batch compute run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ComputeRun journals one batch factor-computation run.
type ComputeRun struct {
	ID          uuid.UUID  `json:"id"`
	Status      RunStatus  `json:"status"`
	Total       int        `json:"total"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// BatchResult reports the outcome of a batch factor computation.
// Per-instrument failures are isolated: a failed instrument never stops
// the rest of the batch.
type BatchResult struct {
	RunID             uuid.UUID `json:"run_id"`
	Total             int       `json:"total"`
	Succeeded         int       `json:"succeeded"`
	Failed            int       `json:"failed"`
	FailedInstruments []string  `json:"failed_instruments,omitempty"`
}
