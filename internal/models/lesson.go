package models

import "time"

// LessonSource names the layer a resolved lesson came from.
type LessonSource string

const (
	SourceBase   LessonSource = "base"
	SourceWeekly LessonSource = "weekly"
	SourceOnce   LessonSource = "once"
	SourceLegacy LessonSource = "legacy"
)

// Lesson is one pair of the effective timetable for a concrete date.
type Lesson struct {
	Date        string       `json:"date"`
	Weekday     int          `json:"weekday"`
	PairNumber  int          `json:"pair_number"`
	TimeStart   string       `json:"time_start"`
	TimeEnd     string       `json:"time_end"`
	Subject     string       `json:"subject"`
	SessionType string       `json:"session_type"`
	Room        string       `json:"room"`
	Teacher     string       `json:"teacher"`
	GroupName   string       `json:"group_name"`
	Source      LessonSource `json:"source"`
	BaseID      *int64       `json:"base_id,omitempty"`
	EditID      *int64       `json:"edit_id,omitempty"`
}

// DaySchedule is the resolved timetable of a group for one date.
type DaySchedule struct {
	Group   string     `json:"group"`
	Date    string     `json:"date"`
	Weekday int        `json:"weekday"`
	Parity  WeekParity `json:"parity,omitempty"`
	Lessons []Lesson   `json:"lessons"`
}

// WeekSchedule is seven consecutive resolved days starting on a Monday.
type WeekSchedule struct {
	Group     string        `json:"group,omitempty"`
	Teacher   string        `json:"teacher,omitempty"`
	WeekStart string        `json:"week_start"`
	WeekEnd   string        `json:"week_end"`
	Parity    WeekParity    `json:"parity,omitempty"`
	Days      []DaySchedule `json:"days"`
	Generated time.Time     `json:"generated_at"`
}

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"
