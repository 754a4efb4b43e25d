package dto

// BaseEntryRequest creates or replaces a slot of the base weekday timetable.
type BaseEntryRequest struct {
	GroupName   string `json:"group_name" validate:"required,max=64"`
	Weekday     int    `json:"weekday" validate:"required,min=1,max=7"`
	PairNumber  int    `json:"pair_number" validate:"required,min=1,max=20"`
	TimeStart   string `json:"time_start" validate:"required,datetime=15:04"`
	TimeEnd     string `json:"time_end" validate:"required,datetime=15:04"`
	Subject     string `json:"subject" validate:"max=256"`
	SessionType string `json:"session_type" validate:"max=64"`
	Room        string `json:"room" validate:"max=32"`
	Teacher     string `json:"teacher" validate:"max=256"`
}

// LessonOverride carries the optional replacement fields of an edit. Omitted fields
// keep the value of the layer underneath.
type LessonOverride struct {
	TimeStart   *string `json:"time_start" validate:"omitempty,datetime=15:04"`
	TimeEnd     *string `json:"time_end" validate:"omitempty,datetime=15:04"`
	Subject     *string `json:"subject" validate:"omitempty,max=256"`
	SessionType *string `json:"session_type" validate:"omitempty,max=64"`
	Room        *string `json:"room" validate:"omitempty,max=32"`
	Teacher     *string `json:"teacher" validate:"omitempty,max=256"`
}

// WeeklyEditRequest upserts a recurring override. is_deleted cancels the pair.
type WeeklyEditRequest struct {
	GroupName  string `json:"group_name" validate:"required,max=64"`
	DayOfWeek  int    `json:"day_of_week" validate:"required,min=1,max=7"`
	WeekType   string `json:"week_type" validate:"omitempty,oneof=all even odd"`
	PairNumber int    `json:"pair_number" validate:"required,min=1,max=20"`
	LessonOverride
	IsDeleted bool `json:"is_deleted"`
}

// OnceEditRequest upserts an override for a single date. is_deleted cancels the pair.
type OnceEditRequest struct {
	GroupName  string `json:"group_name" validate:"required,max=64"`
	EditDate   string `json:"edit_date" validate:"required,datetime=2006-01-02"`
	PairNumber int    `json:"pair_number" validate:"required,min=1,max=20"`
	LessonOverride
	IsDeleted bool `json:"is_deleted"`
}

// ScheduleQuery is bound from /api/schedule query parameters.
type ScheduleQuery struct {
	Group string `form:"group"`
	Date  string `form:"date"`
}

// WeekQuery is bound from the week views' query parameters.
type WeekQuery struct {
	Group   string `form:"group"`
	Teacher string `form:"teacher"`
	Week    string `form:"week"`
	Format  string `form:"format"`
}

// HealthStatus is the body of the liveness probes.
type HealthStatus struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}
