package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/schedule-api/internal/models"
	appErrors "github.com/noah-isme/schedule-api/pkg/errors"
)

func scheduleFixture(t *testing.T) (*fakeBaseRepo, *fakeWeeklyRepo, *fakeOnceRepo) {
	t.Helper()
	base := &fakeBaseRepo{rows: []models.WeekdayScheduleEntry{
		{ID: 1, GroupName: "ИСП-21", GroupNameNorm: "исп21", Weekday: 1, PairNumber: 1, TimeStart: "08:30", TimeEnd: "10:00", Subject: "Математика", Teacher: "Иванов"},
		{ID: 2, GroupName: "ИСП-21", GroupNameNorm: "исп21", Weekday: 1, PairNumber: 2, TimeStart: "10:10", TimeEnd: "11:40", Subject: "Физика", Teacher: "Петров"},
		{ID: 3, GroupName: "ИСП-21", GroupNameNorm: "исп21", Weekday: 3, PairNumber: 1, TimeStart: "08:30", TimeEnd: "10:00", Subject: "История", Teacher: "Иванов"},
		{ID: 4, GroupName: "КС-11", GroupNameNorm: "кс11", Weekday: 1, PairNumber: 3, TimeStart: "12:00", TimeEnd: "13:30", Subject: "Сети", Teacher: "Иванов"},
	}}
	weekly := &fakeWeeklyRepo{edits: []models.WeeklyEdit{
		{ID: 10, GroupNameNorm: "исп21", DayOfWeek: 1, WeekType: models.WeekParityEven, PairNumber: 2, LessonFields: models.LessonFields{Subject: strPtr("Химия")}},
	}}
	once := &fakeOnceRepo{edits: []models.OnceEdit{
		{ID: 20, GroupNameNorm: "исп21", EditDate: mustDate(t, "2024-09-04"), PairNumber: 1, IsDeleted: true},
	}}
	return base, weekly, once
}

func newScheduleServiceForTest(t *testing.T, cache *CacheService) (*ScheduleService, *fakeBaseRepo) {
	base, weekly, once := scheduleFixture(t)
	anchor, err := ParseWeekAnchor("2024-09-02")
	require.NoError(t, err)
	svc := NewScheduleService(base, weekly, once, &fakeLegacyRepo{}, cache, nil, nil, ScheduleServiceConfig{Anchor: anchor})
	svc.now = func() time.Time { return time.Date(2024, 9, 11, 9, 0, 0, 0, time.UTC) }
	return svc, base
}

func TestScheduleServiceDayMatchesFoldedGroup(t *testing.T) {
	svc, _ := newScheduleServiceForTest(t, nil)

	day, err := svc.Day(context.Background(), " исп 21 ", "2024-09-02")
	require.NoError(t, err)
	assert.Equal(t, "ИСП-21", day.Group)
	assert.Equal(t, models.WeekParityOdd, day.Parity)
	require.Len(t, day.Lessons, 2)
	assert.Equal(t, "Физика", day.Lessons[1].Subject)
}

func TestScheduleServiceDayEvenWeekUsesParityEdit(t *testing.T) {
	svc, _ := newScheduleServiceForTest(t, nil)

	day, err := svc.Day(context.Background(), "ИСП-21", "2024-09-09")
	require.NoError(t, err)
	assert.Equal(t, models.WeekParityEven, day.Parity)
	require.Len(t, day.Lessons, 2)
	assert.Equal(t, "Химия", day.Lessons[1].Subject)
	assert.Equal(t, models.SourceWeekly, day.Lessons[1].Source)
}

func TestScheduleServiceDayValidation(t *testing.T) {
	svc, _ := newScheduleServiceForTest(t, nil)

	_, err := svc.Day(context.Background(), "", "2024-09-02")
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	_, err = svc.Day(context.Background(), "ИСП-21", "02.09.2024")
	assert.Equal(t, "invalid 'date' (YYYY-MM-DD)", appErrors.FromError(err).Message)

	_, err = svc.Day(context.Background(), "--", "2024-09-02")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceDayRepositoryError(t *testing.T) {
	svc, base := newScheduleServiceForTest(t, nil)
	base.err = errors.New("db down")

	_, err := svc.Day(context.Background(), "ИСП-21", "2024-09-02")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
}

func TestScheduleServiceDayUsesCache(t *testing.T) {
	store := newMemoryCache()
	cache := NewCacheService(store, nil, time.Minute, nil, true)
	svc, base := newScheduleServiceForTest(t, cache)

	first, err := svc.Day(context.Background(), "ИСП-21", "2024-09-02")
	require.NoError(t, err)
	second, err := svc.Day(context.Background(), "исп21", "2024-09-02")
	require.NoError(t, err)

	assert.Equal(t, 1, base.calls)
	assert.Equal(t, first.Lessons, second.Lessons)
	assert.Contains(t, store.keys(), "schedule:исп21:day:2024-09-02")
}

func TestScheduleServiceWeek(t *testing.T) {
	svc, _ := newScheduleServiceForTest(t, nil)

	week, err := svc.Week(context.Background(), "ИСП-21", "2024-09-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-09-08", week.WeekEnd)
	require.Len(t, week.Days, 7)
	assert.Len(t, week.Days[0].Lessons, 2)
	assert.Empty(t, week.Days[2].Lessons, "wednesday pair cancelled by once edit")
	assert.Empty(t, week.Days[6].Lessons)
}

func TestScheduleServiceWeekDefaultsToCurrent(t *testing.T) {
	svc, _ := newScheduleServiceForTest(t, nil)

	week, err := svc.Week(context.Background(), "ИСП-21", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-09-09", week.WeekStart)
	assert.Equal(t, models.WeekParityEven, week.Parity)
	assert.Len(t, week.Days[2].Lessons, 1)
}

func TestScheduleServiceWeekRejectsNonMonday(t *testing.T) {
	svc, _ := newScheduleServiceForTest(t, nil)

	_, err := svc.Week(context.Background(), "ИСП-21", "2024-09-03")
	require.Error(t, err)
	assert.Equal(t, "'week' must be a Monday", appErrors.FromError(err).Message)
}

func TestScheduleServiceTeacherWeek(t *testing.T) {
	svc, base := newScheduleServiceForTest(t, nil)
	base.teacherGroups = []string{"ИСП-21", "КС-11"}

	week, err := svc.TeacherWeek(context.Background(), "иванов", "2024-09-02")
	require.NoError(t, err)
	assert.Equal(t, "иванов", week.Teacher)
	require.Len(t, week.Days[0].Lessons, 2)
	assert.Equal(t, "ИСП-21", week.Days[0].Lessons[0].GroupName)
	assert.Equal(t, "КС-11", week.Days[0].Lessons[1].GroupName)
	assert.Empty(t, week.Days[2].Lessons)
}

func TestScheduleServiceGroupsNeverNil(t *testing.T) {
	svc, _ := newScheduleServiceForTest(t, nil)
	groups, err := svc.Groups(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, groups)
}

func TestScheduleServiceLegacyDay(t *testing.T) {
	svc, _ := newScheduleServiceForTest(t, nil)
	svc.legacy = &fakeLegacyRepo{rows: []models.DateScheduleEntry{{GroupName: "ИСП-21", PairNumber: 1, TimeStart: "08:30", TimeEnd: "10:00", Subject: "Линейка"}}}

	day, err := svc.LegacyDay(context.Background(), "исп-21", "2023-09-01")
	require.NoError(t, err)
	assert.Equal(t, 5, day.Weekday)
	require.Len(t, day.Lessons, 1)
	assert.Equal(t, models.SourceLegacy, day.Lessons[0].Source)
}
