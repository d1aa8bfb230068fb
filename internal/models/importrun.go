package models

import "time"

// ImportStatus is the lifecycle state of a bulk import run.
type ImportStatus string

const (
	ImportPending ImportStatus = "pending"
	ImportRunning ImportStatus = "running"
	ImportDone    ImportStatus = "done"
	ImportFailed  ImportStatus = "failed"
)

// ImportStats accumulates what the upstream reported so far. Stats reported
// before a mid-stream failure are preserved so the run shows what succeeded.
type ImportStats struct {
	Processed int `json:"processed"`
	Imported  int `json:"imported"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// ImportEvent is one decoded event from the upstream's streamed response.
type ImportEvent struct {
	Type    string       `json:"type"`
	Message string       `json:"message,omitempty"`
	Stats   *ImportStats `json:"importStats,omitempty"`
}

// ImportRun tracks one bulk upload from submission to terminal state.
type ImportRun struct {
	ID         string       `json:"id"`
	FileName   string       `json:"file_name"`
	Term       string       `json:"term"`
	Status     ImportStatus `json:"status"`
	Message    string       `json:"message,omitempty"`
	Stats      ImportStats  `json:"stats"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
}
