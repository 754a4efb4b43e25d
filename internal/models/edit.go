package models

import (
	"strings"
	"time"
)

// WeekParity scopes a weekly edit to even, odd or all teaching weeks.
type WeekParity string

const (
	WeekParityAll  WeekParity = "all"
	WeekParityEven WeekParity = "even"
	WeekParityOdd  WeekParity = "odd"
)

// Valid reports whether p is one of the known parities.
func (p WeekParity) Valid() bool {
	switch p {
	case WeekParityAll, WeekParityEven, WeekParityOdd:
		return true
	}
	return false
}

// ParseWeekParity accepts the English values plus the spellings found in the
// college spreadsheets; blank means all weeks.
func ParseWeekParity(raw string) (WeekParity, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all", "все", "всё", "nan":
		return WeekParityAll, true
	case "even", "четная", "чётная", "чет", "ч":
		return WeekParityEven, true
	case "odd", "нечетная", "нечётная", "нечет", "нч", "н":
		return WeekParityOdd, true
	}
	return "", false
}

// LessonFields are the replacement values carried by an override. Nil keeps the
// value of the layer underneath.
type LessonFields struct {
	TimeStart   *string `db:"time_start" json:"time_start,omitempty"`
	TimeEnd     *string `db:"time_end" json:"time_end,omitempty"`
	Subject     *string `db:"subject" json:"subject,omitempty"`
	SessionType *string `db:"session_type" json:"session_type,omitempty"`
	Room        *string `db:"room" json:"room,omitempty"`
	Teacher     *string `db:"teacher" json:"teacher,omitempty"`
}

// WeeklyEdit is a recurring override keyed by day of week, parity and pair.
type WeeklyEdit struct {
	ID            int64      `db:"id" json:"id"`
	GroupName     string     `db:"group_name" json:"group_name"`
	GroupNameNorm string     `db:"group_name_norm" json:"-"`
	DayOfWeek     int        `db:"day_of_week" json:"day_of_week"`
	WeekType      WeekParity `db:"week_type" json:"week_type"`
	PairNumber    int        `db:"pair_number" json:"pair_number"`
	LessonFields
	IsDeleted bool      `db:"is_deleted" json:"is_deleted"`
	Imported  bool      `db:"imported" json:"imported"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// OnceEdit is an override for a single calendar date.
type OnceEdit struct {
	ID            int64     `db:"id" json:"id"`
	GroupName     string    `db:"group_name" json:"group_name"`
	GroupNameNorm string    `db:"group_name_norm" json:"-"`
	EditDate      time.Time `db:"edit_date" json:"edit_date"`
	PairNumber    int       `db:"pair_number" json:"pair_number"`
	LessonFields
	IsDeleted bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EditFilter narrows admin listings of overrides. Dates are YYYY-MM-DD and only
// apply to once edits.
type EditFilter struct {
	Group     string
	DayOfWeek int
	From      string
	To        string
}
