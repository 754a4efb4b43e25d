package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/schedule-api/internal/dto"
	"github.com/noah-isme/schedule-api/internal/models"
	appErrors "github.com/noah-isme/schedule-api/pkg/errors"
	"github.com/noah-isme/schedule-api/pkg/groupname"
)

type weeklyEditRepository interface {
	List(ctx context.Context, filter models.EditFilter) ([]models.WeeklyEdit, error)
	FindByID(ctx context.Context, id int64) (*models.WeeklyEdit, error)
	Upsert(ctx context.Context, edit *models.WeeklyEdit) error
	Update(ctx context.Context, edit *models.WeeklyEdit) error
	Delete(ctx context.Context, id int64) (string, error)
}

type onceEditRepository interface {
	List(ctx context.Context, filter models.EditFilter) ([]models.OnceEdit, error)
	FindByID(ctx context.Context, id int64) (*models.OnceEdit, error)
	Upsert(ctx context.Context, edit *models.OnceEdit) error
	Update(ctx context.Context, edit *models.OnceEdit) error
	Delete(ctx context.Context, id int64) (string, error)
	PurgeBefore(ctx context.Context, date string) (int64, error)
}

// EditService manages weekly and once-off overrides of the base timetable.
type EditService struct {
	weekly    weeklyEditRepository
	once      onceEditRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEditService constructs an EditService.
func NewEditService(weekly weeklyEditRepository, once onceEditRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EditService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditService{weekly: weekly, once: once, cache: cache, validator: validate, logger: logger}
}

// ListWeekly returns weekly edits, optionally for one group.
func (s *EditService) ListWeekly(ctx context.Context, filter models.EditFilter) ([]models.WeeklyEdit, error) {
	filter.Group = foldFilterGroup(filter.Group)
	edits, err := s.weekly.List(ctx, filter)
	if err != nil {
		return nil, repoError(err, "", "failed to list weekly edits")
	}
	if edits == nil {
		edits = []models.WeeklyEdit{}
	}
	return edits, nil
}

// GetWeekly returns one weekly edit.
func (s *EditService) GetWeekly(ctx context.Context, id int64) (*models.WeeklyEdit, error) {
	edit, err := s.weekly.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "weekly edit not found", "failed to load weekly edit")
	}
	return edit, nil
}

// PutWeekly stores the edit for its slot, replacing an existing one.
func (s *EditService) PutWeekly(ctx context.Context, req dto.WeeklyEditRequest) (*models.WeeklyEdit, error) {
	edit, err := s.buildWeekly(req)
	if err != nil {
		return nil, err
	}
	if err := s.weekly.Upsert(ctx, edit); err != nil {
		return nil, repoError(err, "", "failed to save weekly edit")
	}
	s.invalidate(ctx, edit.GroupNameNorm)
	s.logger.Info("weekly edit saved",
		zap.Int64("id", edit.ID),
		zap.String("group", edit.GroupName),
		zap.Int("day_of_week", edit.DayOfWeek),
		zap.String("week_type", string(edit.WeekType)),
		zap.Bool("cancelled", edit.IsDeleted),
	)
	return edit, nil
}

// UpdateWeekly rewrites a weekly edit by ID.
func (s *EditService) UpdateWeekly(ctx context.Context, id int64, req dto.WeeklyEditRequest) (*models.WeeklyEdit, error) {
	edit, err := s.buildWeekly(req)
	if err != nil {
		return nil, err
	}
	existing, err := s.weekly.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "weekly edit not found", "failed to load weekly edit")
	}
	edit.ID = id
	if err := s.weekly.Update(ctx, edit); err != nil {
		return nil, repoError(err, "weekly edit not found", "failed to update weekly edit")
	}
	s.invalidate(ctx, existing.GroupNameNorm, edit.GroupNameNorm)
	return edit, nil
}

// DeleteWeekly removes a weekly edit so the base pair applies again.
func (s *EditService) DeleteWeekly(ctx context.Context, id int64) error {
	norm, err := s.weekly.Delete(ctx, id)
	if err != nil {
		return repoError(err, "weekly edit not found", "failed to delete weekly edit")
	}
	s.invalidate(ctx, norm)
	return nil
}

// ListOnce returns once edits filtered by group and date range.
func (s *EditService) ListOnce(ctx context.Context, filter models.EditFilter) ([]models.OnceEdit, error) {
	filter.Group = foldFilterGroup(filter.Group)
	for _, raw := range []string{filter.From, filter.To} {
		if raw == "" {
			continue
		}
		if _, err := ParseDate(raw); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date range (YYYY-MM-DD)")
		}
	}
	edits, err := s.once.List(ctx, filter)
	if err != nil {
		return nil, repoError(err, "", "failed to list once edits")
	}
	if edits == nil {
		edits = []models.OnceEdit{}
	}
	return edits, nil
}

// GetOnce returns one once edit.
func (s *EditService) GetOnce(ctx context.Context, id int64) (*models.OnceEdit, error) {
	edit, err := s.once.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "once edit not found", "failed to load once edit")
	}
	return edit, nil
}

// PutOnce stores the edit for its group, date and pair.
func (s *EditService) PutOnce(ctx context.Context, req dto.OnceEditRequest) (*models.OnceEdit, error) {
	edit, err := s.buildOnce(req)
	if err != nil {
		return nil, err
	}
	if err := s.once.Upsert(ctx, edit); err != nil {
		return nil, repoError(err, "", "failed to save once edit")
	}
	s.invalidate(ctx, edit.GroupNameNorm)
	s.logger.Info("once edit saved",
		zap.Int64("id", edit.ID),
		zap.String("group", edit.GroupName),
		zap.String("date", edit.EditDate.Format(models.DateLayout)),
		zap.Bool("cancelled", edit.IsDeleted),
	)
	return edit, nil
}

// UpdateOnce rewrites a once edit by ID.
func (s *EditService) UpdateOnce(ctx context.Context, id int64, req dto.OnceEditRequest) (*models.OnceEdit, error) {
	edit, err := s.buildOnce(req)
	if err != nil {
		return nil, err
	}
	existing, err := s.once.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "once edit not found", "failed to load once edit")
	}
	edit.ID = id
	if err := s.once.Update(ctx, edit); err != nil {
		return nil, repoError(err, "once edit not found", "failed to update once edit")
	}
	s.invalidate(ctx, existing.GroupNameNorm, edit.GroupNameNorm)
	return edit, nil
}

// DeleteOnce removes a once edit.
func (s *EditService) DeleteOnce(ctx context.Context, id int64) error {
	norm, err := s.once.Delete(ctx, id)
	if err != nil {
		return repoError(err, "once edit not found", "failed to delete once edit")
	}
	s.invalidate(ctx, norm)
	return nil
}

// PurgeOnce drops once edits dated before the given day, today when blank.
func (s *EditService) PurgeOnce(ctx context.Context, before string) (int64, error) {
	if strings.TrimSpace(before) == "" {
		before = today(time.Now())
	}
	date, err := ParseDate(before)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid 'before' (YYYY-MM-DD)")
	}
	removed, err := s.once.PurgeBefore(ctx, date.Format(models.DateLayout))
	if err != nil {
		return 0, repoError(err, "", "failed to purge once edits")
	}
	if removed > 0 {
		// purged rows may belong to any group
		if err := s.cache.Invalidate(ctx, AllSchedulesPattern); err != nil {
			s.logger.Warn("failed to invalidate schedule cache after purge", zap.Error(err))
		}
	}
	s.logger.Info("once edits purged", zap.String("before", before), zap.Int64("removed", removed))
	return removed, nil
}

func (s *EditService) buildWeekly(req dto.WeeklyEditRequest) (*models.WeeklyEdit, error) {
	req.GroupName = strings.TrimSpace(req.GroupName)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid weekly edit")
	}
	parity, ok := models.ParseWeekParity(req.WeekType)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "week_type must be all, even or odd")
	}
	fields, err := s.buildFields(req.GroupName, req.LessonOverride, req.IsDeleted)
	if err != nil {
		return nil, err
	}
	return &models.WeeklyEdit{
		GroupName:     req.GroupName,
		GroupNameNorm: groupname.Normalize(req.GroupName),
		DayOfWeek:     req.DayOfWeek,
		WeekType:      parity,
		PairNumber:    req.PairNumber,
		LessonFields:  fields,
		IsDeleted:     req.IsDeleted,
	}, nil
}

func (s *EditService) buildOnce(req dto.OnceEditRequest) (*models.OnceEdit, error) {
	req.GroupName = strings.TrimSpace(req.GroupName)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid once edit")
	}
	date, err := ParseDate(req.EditDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid edit_date (YYYY-MM-DD)")
	}
	fields, err := s.buildFields(req.GroupName, req.LessonOverride, req.IsDeleted)
	if err != nil {
		return nil, err
	}
	return &models.OnceEdit{
		GroupName:     req.GroupName,
		GroupNameNorm: groupname.Normalize(req.GroupName),
		EditDate:      date,
		PairNumber:    req.PairNumber,
		LessonFields:  fields,
		IsDeleted:     req.IsDeleted,
	}, nil
}

func (s *EditService) buildFields(group string, in dto.LessonOverride, cancelled bool) (models.LessonFields, error) {
	if _, _, err := normalizeGroup(group); err != nil {
		return models.LessonFields{}, err
	}
	fields := models.LessonFields{
		Subject:     trimmedPtr(in.Subject),
		SessionType: trimmedPtr(in.SessionType),
		Room:        trimmedPtr(in.Room),
		Teacher:     trimmedPtr(in.Teacher),
	}
	if in.TimeStart != nil {
		v, err := normalizeClock(*in.TimeStart)
		if err != nil {
			return fields, appErrors.Clone(appErrors.ErrValidation, "time_start must be HH:MM")
		}
		fields.TimeStart = &v
	}
	if in.TimeEnd != nil {
		v, err := normalizeClock(*in.TimeEnd)
		if err != nil {
			return fields, appErrors.Clone(appErrors.ErrValidation, "time_end must be HH:MM")
		}
		fields.TimeEnd = &v
	}
	if fields.TimeStart != nil && fields.TimeEnd != nil && *fields.TimeEnd <= *fields.TimeStart {
		return fields, appErrors.Clone(appErrors.ErrValidation, "time_end must be after time_start")
	}
	if !cancelled && fields == (models.LessonFields{}) {
		return fields, appErrors.Clone(appErrors.ErrValidation, "edit must replace at least one field or cancel the pair")
	}
	return fields, nil
}

func (s *EditService) invalidate(ctx context.Context, norms ...string) {
	seen := make(map[string]struct{}, len(norms))
	for _, norm := range norms {
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		_ = s.cache.Invalidate(ctx, GroupCachePattern(norm))
	}
}

func foldFilterGroup(group string) string {
	if strings.TrimSpace(group) == "" {
		return ""
	}
	return groupname.Normalize(group)
}

// today is the UTC calendar date used as the default purge cut-off.
func today(now time.Time) string {
	return now.UTC().Format(models.DateLayout)
}
