package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/schedule-api/internal/dto"
	"github.com/noah-isme/schedule-api/internal/models"
	"github.com/noah-isme/schedule-api/pkg/groupname"
)

type baseScheduleRepository interface {
	List(ctx context.Context, filter models.WeekdayScheduleFilter) ([]models.WeekdayScheduleEntry, int, error)
	FindByID(ctx context.Context, id int64) (*models.WeekdayScheduleEntry, error)
	Create(ctx context.Context, entry *models.WeekdayScheduleEntry) error
	Update(ctx context.Context, entry *models.WeekdayScheduleEntry) error
	Delete(ctx context.Context, id int64) (string, error)
}

// BaseScheduleService manages the base weekday timetable.
type BaseScheduleService struct {
	repo      baseScheduleRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBaseScheduleService constructs a BaseScheduleService.
func NewBaseScheduleService(repo baseScheduleRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *BaseScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseScheduleService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns a page of base entries. filter.Group is matched on its folded form.
func (s *BaseScheduleService) List(ctx context.Context, filter models.WeekdayScheduleFilter) ([]models.WeekdayScheduleEntry, *models.Pagination, error) {
	if filter.Group != "" {
		filter.Group = groupname.Normalize(filter.Group)
	}
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, repoError(err, "", "failed to list base schedule")
	}
	if entries == nil {
		entries = []models.WeekdayScheduleEntry{}
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return entries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one base entry.
func (s *BaseScheduleService) Get(ctx context.Context, id int64) (*models.WeekdayScheduleEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "schedule entry not found", "failed to load schedule entry")
	}
	return entry, nil
}

// Create validates and stores a new base entry.
func (s *BaseScheduleService) Create(ctx context.Context, req dto.BaseEntryRequest) (*models.WeekdayScheduleEntry, error) {
	entry, err := s.buildEntry(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, repoError(err, "", "failed to create schedule entry")
	}
	s.invalidate(ctx, entry.GroupNameNorm)
	s.logger.Info("base schedule entry created", zap.Int64("id", entry.ID), zap.String("group", entry.GroupName))
	return entry, nil
}

// Update replaces a base entry.
func (s *BaseScheduleService) Update(ctx context.Context, id int64, req dto.BaseEntryRequest) (*models.WeekdayScheduleEntry, error) {
	entry, err := s.buildEntry(req)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "schedule entry not found", "failed to load schedule entry")
	}
	entry.ID = id
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, repoError(err, "schedule entry not found", "failed to update schedule entry")
	}
	s.invalidate(ctx, existing.GroupNameNorm)
	if entry.GroupNameNorm != existing.GroupNameNorm {
		s.invalidate(ctx, entry.GroupNameNorm)
	}
	return entry, nil
}

// Delete removes a base entry.
func (s *BaseScheduleService) Delete(ctx context.Context, id int64) error {
	norm, err := s.repo.Delete(ctx, id)
	if err != nil {
		return repoError(err, "schedule entry not found", "failed to delete schedule entry")
	}
	s.invalidate(ctx, norm)
	return nil
}

func (s *BaseScheduleService) buildEntry(req dto.BaseEntryRequest) (*models.WeekdayScheduleEntry, error) {
	req.GroupName = strings.TrimSpace(req.GroupName)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid schedule entry")
	}
	if _, _, err := normalizeGroup(req.GroupName); err != nil {
		return nil, err
	}
	start, end, err := clockRange(req.TimeStart, req.TimeEnd)
	if err != nil {
		return nil, err
	}
	return &models.WeekdayScheduleEntry{
		GroupName:     req.GroupName,
		GroupNameNorm: groupname.Normalize(req.GroupName),
		Weekday:       req.Weekday,
		PairNumber:    req.PairNumber,
		TimeStart:     start,
		TimeEnd:       end,
		Subject:       strings.TrimSpace(req.Subject),
		SessionType:   strings.TrimSpace(req.SessionType),
		Room:          strings.TrimSpace(req.Room),
		Teacher:       strings.TrimSpace(req.Teacher),
	}, nil
}

func (s *BaseScheduleService) invalidate(ctx context.Context, norm string) {
	if norm == "" {
		return
	}
	_ = s.cache.Invalidate(ctx, GroupCachePattern(norm))
}
