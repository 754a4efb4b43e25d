package models

import "time"

// WeekdayScheduleEntry is a recurring class slot of the base timetable.
type WeekdayScheduleEntry struct {
	ID            int64     `db:"id" json:"id"`
	GroupName     string    `db:"group_name" json:"group_name"`
	GroupNameNorm string    `db:"group_name_norm" json:"-"`
	Weekday       int       `db:"weekday" json:"weekday"`
	PairNumber    int       `db:"pair_number" json:"pair_number"`
	TimeStart     string    `db:"time_start" json:"time_start"`
	TimeEnd       string    `db:"time_end" json:"time_end"`
	Subject       string    `db:"subject" json:"subject"`
	SessionType   string    `db:"session_type" json:"session_type"`
	Room          string    `db:"room" json:"room"`
	Teacher       string    `db:"teacher" json:"teacher"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// WeekdayScheduleFilter describes query params for listing base entries.
type WeekdayScheduleFilter struct {
	Group     string
	Teacher   string
	Weekday   int
	Room      string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// DateScheduleEntry is a row of the legacy flattened date-keyed timetable.
type DateScheduleEntry struct {
	ID            int64     `db:"id" json:"id"`
	GroupName     string    `db:"group_name" json:"group_name"`
	GroupNameNorm string    `db:"group_name_norm" json:"-"`
	Date          time.Time `db:"date" json:"date"`
	PairNumber    int       `db:"pair_number" json:"pair_number"`
	TimeStart     string    `db:"time_start" json:"time_start"`
	TimeEnd       string    `db:"time_end" json:"time_end"`
	Subject       string    `db:"subject" json:"subject"`
	SessionType   string    `db:"session_type" json:"session_type"`
	Room          string    `db:"room" json:"room"`
	Teacher       string    `db:"teacher" json:"teacher"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
