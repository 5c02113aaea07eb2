package model

import "time"

// IngestRunStatus is the lifecycle state of an ingestion run.
type IngestRunStatus string

const (
	IngestRunning  IngestRunStatus = "running"
	IngestComplete IngestRunStatus = "complete"
	IngestFailed   IngestRunStatus = "failed"
)

// IngestRun is the audit record of one ingestion pass.
type IngestRun struct {
	ID           string          `json:"id"`
	Status       IngestRunStatus `json:"status"`
	Seeded       int             `json:"seeded"`
	Expanded     int             `json:"expanded"`
	Total        int             `json:"total"`
	Inserted     int             `json:"inserted"`
	Refreshed    int             `json:"refreshed"`
	Skipped      int             `json:"skipped"`
	Failed       int             `json:"failed"`
	ModelVersion string          `json:"model_version"`
	Error        string          `json:"error,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}
