package dto

import "github.com/noah-isme/schedule-api/internal/models"

// ImportAccepted is returned when an import is queued.
type ImportAccepted struct {
	JobID  string              `json:"job_id"`
	Kind   models.ImportKind   `json:"kind"`
	Status models.ImportStatus `json:"status"`
}

// PurgeResult reports a housekeeping delete.
type PurgeResult struct {
	Before  string `json:"before"`
	Removed int64  `json:"removed"`
}
