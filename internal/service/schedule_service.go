package service

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/noah-isme/schedule-api/internal/models"
	appErrors "github.com/noah-isme/schedule-api/pkg/errors"
	"github.com/noah-isme/schedule-api/pkg/groupname"
)

const maxGroupNameLength = 64

type scheduleBaseReader interface {
	ListByGroupDay(ctx context.Context, norm string, weekday int) ([]models.WeekdayScheduleEntry, error)
	ListByGroup(ctx context.Context, norm string) ([]models.WeekdayScheduleEntry, error)
	ListGroups(ctx context.Context) ([]string, error)
	ListGroupsByTeacher(ctx context.Context, teacher, from, to string) ([]string, error)
}

type weeklyEditReader interface {
	ListForDay(ctx context.Context, norm string, weekday int, parities []models.WeekParity) ([]models.WeeklyEdit, error)
	ListForGroup(ctx context.Context, norm string, parities []models.WeekParity) ([]models.WeeklyEdit, error)
}

type onceEditReader interface {
	ListForRange(ctx context.Context, norm, from, to string) ([]models.OnceEdit, error)
}

type dateScheduleReader interface {
	ListByGroupDate(ctx context.Context, norm, date string) ([]models.DateScheduleEntry, error)
}

// ScheduleServiceConfig tunes resolution and caching.
type ScheduleServiceConfig struct {
	Anchor   WeekAnchor
	CacheTTL time.Duration
}

// ScheduleService answers read queries over the effective timetable.
type ScheduleService struct {
	base    scheduleBaseReader
	weekly  weeklyEditReader
	once    onceEditReader
	legacy  dateScheduleReader
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	config  ScheduleServiceConfig
	now     func() time.Time
}

// NewScheduleService constructs a ScheduleService. cache and metrics may be nil.
func NewScheduleService(base scheduleBaseReader, weekly weeklyEditReader, once onceEditReader, legacy dateScheduleReader, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg ScheduleServiceConfig) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		base:    base,
		weekly:  weekly,
		once:    once,
		legacy:  legacy,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		config:  cfg,
		now:     time.Now,
	}
}

// Parity returns the parity of the week containing date, or "" without an anchor.
func (s *ScheduleService) Parity(date time.Time) models.WeekParity {
	parity, _ := s.config.Anchor.ParityFor(date)
	return parity
}

// Day resolves the timetable of a group for one date. A blank date means today.
func (s *ScheduleService) Day(ctx context.Context, group, rawDate string) (*models.DaySchedule, error) {
	display, norm, err := normalizeGroup(group)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rawDate) == "" {
		rawDate = today(s.now())
	}
	date, err := ParseDate(rawDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid 'date' (YYYY-MM-DD)")
	}

	dateKey := date.Format(models.DateLayout)
	cacheKey := DayCacheKey(norm, dateKey)
	var cached models.DaySchedule
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	parity := s.Parity(date)
	weekday := ISOWeekday(date)
	start := time.Now()

	base, err := s.base.ListByGroupDay(ctx, norm, weekday)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load base schedule")
	}
	weekly, err := s.weekly.ListForDay(ctx, norm, weekday, parities(parity))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly edits")
	}
	once, err := s.once.ListForRange(ctx, norm, dateKey, dateKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load once edits")
	}
	s.metrics.ObserveDBQuery("schedule_day", time.Since(start))

	day := ResolveDay(displayName(display, base), date, parity, DayLayers{Base: base, Weekly: weekly, Once: once})
	s.metrics.RecordLessons(day.Lessons)
	_ = s.cache.Set(ctx, cacheKey, day, s.config.CacheTTL)
	return &day, nil
}

// Week resolves seven days of a group starting at monday. A blank week means the current one.
func (s *ScheduleService) Week(ctx context.Context, group, rawWeek string) (*models.WeekSchedule, error) {
	display, norm, err := normalizeGroup(group)
	if err != nil {
		return nil, err
	}
	monday, err := s.weekStart(rawWeek)
	if err != nil {
		return nil, err
	}
	return s.groupWeek(ctx, display, norm, monday)
}

func (s *ScheduleService) groupWeek(ctx context.Context, display, norm string, monday time.Time) (*models.WeekSchedule, error) {
	mondayKey := monday.Format(models.DateLayout)
	cacheKey := WeekCacheKey(norm, mondayKey)
	var cached models.WeekSchedule
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	parity := s.Parity(monday)
	sunday := monday.AddDate(0, 0, 6)
	start := time.Now()

	base, err := s.base.ListByGroup(ctx, norm)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load base schedule")
	}
	weekly, err := s.weekly.ListForGroup(ctx, norm, parities(parity))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly edits")
	}
	once, err := s.once.ListForRange(ctx, norm, mondayKey, sunday.Format(models.DateLayout))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load once edits")
	}
	s.metrics.ObserveDBQuery("schedule_week", time.Since(start))

	name := displayName(display, base)
	layers := DayLayers{Base: base, Weekly: weekly, Once: once}
	week := &models.WeekSchedule{
		Group:     name,
		WeekStart: mondayKey,
		WeekEnd:   sunday.Format(models.DateLayout),
		Parity:    parity,
		Days:      make([]models.DaySchedule, 0, 7),
		Generated: s.now().UTC(),
	}
	for i := 0; i < 7; i++ {
		day := ResolveDay(name, monday.AddDate(0, 0, i), parity, layers)
		s.metrics.RecordLessons(day.Lessons)
		week.Days = append(week.Days, day)
	}

	_ = s.cache.Set(ctx, cacheKey, week, s.config.CacheTTL)
	return week, nil
}

// TeacherWeek collects the lessons a teacher gives during a week across all groups.
func (s *ScheduleService) TeacherWeek(ctx context.Context, teacher, rawWeek string) (*models.WeekSchedule, error) {
	teacher = strings.TrimSpace(teacher)
	if teacher == "" || utf8.RuneCountInString(teacher) > 128 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is required")
	}
	monday, err := s.weekStart(rawWeek)
	if err != nil {
		return nil, err
	}
	mondayKey := monday.Format(models.DateLayout)
	sunday := monday.AddDate(0, 0, 6)

	groups, err := s.base.ListGroupsByTeacher(ctx, teacher, mondayKey, sunday.Format(models.DateLayout))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher groups")
	}

	result := &models.WeekSchedule{
		Teacher:   teacher,
		WeekStart: mondayKey,
		WeekEnd:   sunday.Format(models.DateLayout),
		Parity:    s.Parity(monday),
		Days:      make([]models.DaySchedule, 7),
		Generated: s.now().UTC(),
	}
	for i := range result.Days {
		date := monday.AddDate(0, 0, i)
		result.Days[i] = models.DaySchedule{Date: date.Format(models.DateLayout), Weekday: ISOWeekday(date), Parity: result.Parity, Lessons: []models.Lesson{}}
	}

	for _, group := range groups {
		week, err := s.groupWeek(ctx, group, groupname.Normalize(group), monday)
		if err != nil {
			return nil, err
		}
		for i, day := range week.Days {
			for _, lesson := range day.Lessons {
				if strings.EqualFold(strings.TrimSpace(lesson.Teacher), teacher) {
					result.Days[i].Lessons = append(result.Days[i].Lessons, lesson)
				}
			}
		}
	}

	for i := range result.Days {
		lessons := result.Days[i].Lessons
		sort.SliceStable(lessons, func(a, b int) bool {
			if lessons[a].PairNumber != lessons[b].PairNumber {
				return lessons[a].PairNumber < lessons[b].PairNumber
			}
			return lessons[a].GroupName < lessons[b].GroupName
		})
	}
	return result, nil
}

// Groups lists the known groups.
func (s *ScheduleService) Groups(ctx context.Context) ([]string, error) {
	groups, err := s.base.ListGroups(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}
	if groups == nil {
		groups = []string{}
	}
	return groups, nil
}

// LegacyDay reads the flattened per-date table of the first schema revision.
func (s *ScheduleService) LegacyDay(ctx context.Context, group, rawDate string) (*models.DaySchedule, error) {
	display, norm, err := normalizeGroup(group)
	if err != nil {
		return nil, err
	}
	date, err := ParseDate(rawDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid 'date' (YYYY-MM-DD)")
	}
	dateKey := date.Format(models.DateLayout)

	rows, err := s.legacy.ListByGroupDate(ctx, norm, dateKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load legacy schedule")
	}

	day := &models.DaySchedule{Group: display, Date: dateKey, Weekday: ISOWeekday(date), Lessons: make([]models.Lesson, 0, len(rows))}
	for _, row := range rows {
		day.Group = row.GroupName
		day.Lessons = append(day.Lessons, models.Lesson{
			Date:        dateKey,
			Weekday:     day.Weekday,
			PairNumber:  row.PairNumber,
			TimeStart:   row.TimeStart,
			TimeEnd:     row.TimeEnd,
			Subject:     row.Subject,
			SessionType: row.SessionType,
			Room:        row.Room,
			Teacher:     row.Teacher,
			GroupName:   row.GroupName,
			Source:      models.SourceLegacy,
		})
	}
	return day, nil
}

func (s *ScheduleService) weekStart(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return MondayOf(s.now()), nil
	}
	date, err := ParseDate(raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid 'week' (YYYY-MM-DD)")
	}
	if ISOWeekday(date) != 1 {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "'week' must be a Monday")
	}
	return date, nil
}

// normalizeGroup validates a group parameter and returns its trimmed and folded forms.
func normalizeGroup(group string) (string, string, error) {
	display := strings.TrimSpace(group)
	if display == "" {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "group is required")
	}
	if utf8.RuneCountInString(display) > maxGroupNameLength {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "group must be at most 64 characters")
	}
	norm := groupname.Normalize(display)
	if norm == "" {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "group has no letters or digits")
	}
	return display, norm, nil
}

func displayName(input string, base []models.WeekdayScheduleEntry) string {
	if len(base) > 0 && base[0].GroupName != "" {
		return base[0].GroupName
	}
	return input
}
