package models

import "time"

// ImportKind selects which spreadsheet an import job reads.
type ImportKind string

const (
	ImportSchedule ImportKind = "schedule"
	ImportTeachers ImportKind = "teachers"
)

// ImportStatus tracks the lifecycle of an async import.
type ImportStatus string

const (
	ImportQueued    ImportStatus = "QUEUED"
	ImportRunning   ImportStatus = "RUNNING"
	ImportSucceeded ImportStatus = "SUCCEEDED"
	ImportFailed    ImportStatus = "FAILED"
)

// ImportResult summarises what an import wrote.
type ImportResult struct {
	Format       string `json:"format,omitempty"`
	RowsRead     int    `json:"rows_read"`
	BaseRows     int    `json:"base_rows"`
	WeeklyEdits  int    `json:"weekly_edits"`
	UsersUpdated int    `json:"users_updated"`
	Skipped      int    `json:"skipped"`
}

// ImportJob is the in-memory record of a queued import.
type ImportJob struct {
	ID         string        `json:"id"`
	Kind       ImportKind    `json:"kind"`
	Status     ImportStatus  `json:"status"`
	Attempts   int           `json:"attempts"`
	Result     *ImportResult `json:"result,omitempty"`
	Error      string        `json:"error,omitempty"`
	Archive    string        `json:"archive,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}
