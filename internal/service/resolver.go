package service

import (
	"sort"
	"time"

	"github.com/noah-isme/schedule-api/internal/models"
)

// DayLayers are the stored rows that may contribute to one group's date.
// Rows for other days are ignored, so whole-week slices can be passed in.
type DayLayers struct {
	Base   []models.WeekdayScheduleEntry
	Weekly []models.WeeklyEdit
	Once   []models.OnceEdit
}

type slot struct {
	lesson    models.Lesson
	present   bool
	cancelled bool
}

// ResolveDay merges the three layers into the effective timetable of a date.
// Per pair number the once-off edit wins over a weekly edit for the week's parity,
// which wins over a weekly edit for all weeks, which wins over the base row. Nil
// replacement fields fall through to the layer below; a deleted winner cancels the pair.
func ResolveDay(group string, date time.Time, parity models.WeekParity, layers DayLayers) models.DaySchedule {
	weekday := ISOWeekday(date)
	dateKey := date.Format(models.DateLayout)
	slots := make(map[int]*slot)

	get := func(pair int) *slot {
		s, ok := slots[pair]
		if !ok {
			s = &slot{lesson: models.Lesson{Date: dateKey, Weekday: weekday, PairNumber: pair, GroupName: group}}
			slots[pair] = s
		}
		return s
	}

	for _, row := range layers.Base {
		if row.Weekday != weekday {
			continue
		}
		s := get(row.PairNumber)
		id := row.ID
		s.lesson.TimeStart = row.TimeStart
		s.lesson.TimeEnd = row.TimeEnd
		s.lesson.Subject = row.Subject
		s.lesson.SessionType = row.SessionType
		s.lesson.Room = row.Room
		s.lesson.Teacher = row.Teacher
		if row.GroupName != "" {
			s.lesson.GroupName = row.GroupName
		}
		s.lesson.Source = models.SourceBase
		s.lesson.BaseID = &id
		s.present = true
	}

	// all-weeks edits first so parity-scoped ones override them
	for _, scope := range []models.WeekParity{models.WeekParityAll, parity} {
		if scope == "" {
			continue
		}
		for _, edit := range layers.Weekly {
			if edit.DayOfWeek != weekday || edit.WeekType != scope {
				continue
			}
			applyOverride(get(edit.PairNumber), edit.ID, edit.IsDeleted, edit.LessonFields, models.SourceWeekly)
		}
	}

	for _, edit := range layers.Once {
		if edit.EditDate.Format(models.DateLayout) != dateKey {
			continue
		}
		applyOverride(get(edit.PairNumber), edit.ID, edit.IsDeleted, edit.LessonFields, models.SourceOnce)
	}

	lessons := make([]models.Lesson, 0, len(slots))
	for _, s := range slots {
		if s.present && !s.cancelled {
			lessons = append(lessons, s.lesson)
		}
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].PairNumber < lessons[j].PairNumber })

	return models.DaySchedule{
		Group:   group,
		Date:    dateKey,
		Weekday: weekday,
		Parity:  parity,
		Lessons: lessons,
	}
}

func applyOverride(s *slot, editID int64, deleted bool, fields models.LessonFields, source models.LessonSource) {
	id := editID
	s.lesson.Source = source
	s.lesson.EditID = &id
	if deleted {
		s.cancelled = true
		return
	}
	s.cancelled = false
	s.present = true
	if fields.TimeStart != nil {
		s.lesson.TimeStart = *fields.TimeStart
	}
	if fields.TimeEnd != nil {
		s.lesson.TimeEnd = *fields.TimeEnd
	}
	if fields.Subject != nil {
		s.lesson.Subject = *fields.Subject
	}
	if fields.SessionType != nil {
		s.lesson.SessionType = *fields.SessionType
	}
	if fields.Room != nil {
		s.lesson.Room = *fields.Room
	}
	if fields.Teacher != nil {
		s.lesson.Teacher = *fields.Teacher
	}
}
