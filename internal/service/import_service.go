package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/schedule-api/internal/models"
	appErrors "github.com/noah-isme/schedule-api/pkg/errors"
	"github.com/noah-isme/schedule-api/pkg/jobs"
)

type importBaseRepository interface {
	ReplaceAll(ctx context.Context, rows []models.WeekdayScheduleEntry, pageSize int) (int, error)
}

type importWeeklyRepository interface {
	ReplaceImported(ctx context.Context, edits []models.WeeklyEdit) (int, error)
}

type importUserRepository interface {
	Upsert(ctx context.Context, user *models.User) error
}

// importArchive keeps uploaded workbooks for replays.
type importArchive interface {
	Save(kind, id string, data []byte) (string, error)
	Read(name string) ([]byte, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ImportServiceConfig tunes bulk writes and the async job queue.
type ImportServiceConfig struct {
	BulkPageSize int
	Workers      int
	MaxRetries   int
	RetryDelay   time.Duration
	// JobRetention bounds how long finished jobs stay queryable.
	JobRetention time.Duration
	// ArchiveTTL bounds how long uploaded workbooks are kept on disk.
	ArchiveTTL time.Duration
}

// ImportService loads schedule and teacher workbooks into the database.
type ImportService struct {
	base    importBaseRepository
	weekly  importWeeklyRepository
	users   importUserRepository
	cache   *CacheService
	metrics *MetricsService
	archive importArchive
	logger  *zap.Logger
	cfg     ImportServiceConfig
	now     func() time.Time

	queue *jobs.Queue
	mu    sync.RWMutex
	jobs  map[string]*models.ImportJob
}

// NewImportService constructs an ImportService.
func NewImportService(base importBaseRepository, weekly importWeeklyRepository, users importUserRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg ImportServiceConfig) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BulkPageSize <= 0 {
		cfg.BulkPageSize = 2000
	}
	if cfg.JobRetention <= 0 {
		cfg.JobRetention = 24 * time.Hour
	}
	if cfg.ArchiveTTL <= 0 {
		cfg.ArchiveTTL = 7 * 24 * time.Hour
	}
	return &ImportService{
		base:    base,
		weekly:  weekly,
		users:   users,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
		jobs:    make(map[string]*models.ImportJob),
	}
}

// ImportSchedule replaces the base timetable with the workbook contents. Rows
// scoped to even or odd weeks are stored as weekly edits.
func (s *ImportService) ImportSchedule(ctx context.Context, r io.Reader) (*models.ImportResult, error) {
	parsed, err := ParseScheduleWorkbook(r)
	if err != nil {
		s.metrics.RecordImport(models.ImportSchedule, models.ImportFailed, 0)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "cannot read schedule workbook")
	}

	result := &models.ImportResult{Format: parsed.Format, RowsRead: len(parsed.Rows), Skipped: parsed.Skipped}
	if len(parsed.Rows) == 0 {
		s.logger.Sugar().Infow("schedule import found no rows", "format", parsed.Format, "skipped", parsed.Skipped)
		s.metrics.RecordImport(models.ImportSchedule, models.ImportSucceeded, 0)
		return result, nil
	}

	base, edits := splitImportedRows(parsed.Rows)

	written, err := s.base.ReplaceAll(ctx, base, s.cfg.BulkPageSize)
	if err != nil {
		s.metrics.RecordImport(models.ImportSchedule, models.ImportFailed, 0)
		return nil, repoError(err, "", "failed to replace base schedule")
	}
	result.BaseRows = written
	// the base table is committed even if storing week-scoped rows fails below
	defer func() {
		if err := s.cache.Invalidate(ctx, AllSchedulesPattern); err != nil {
			s.logger.Sugar().Warnw("failed to invalidate schedule cache after import", "error", err)
		}
	}()

	if s.weekly != nil {
		n, err := s.weekly.ReplaceImported(ctx, edits)
		if err != nil {
			s.metrics.RecordImport(models.ImportSchedule, models.ImportFailed, written)
			return nil, repoError(err, "", "failed to store week-scoped lessons")
		}
		result.WeeklyEdits = n
	}

	s.metrics.RecordImport(models.ImportSchedule, models.ImportSucceeded, result.BaseRows+result.WeeklyEdits)
	s.logger.Sugar().Infow("schedule imported",
		"format", result.Format,
		"rows", result.RowsRead,
		"base_rows", result.BaseRows,
		"weekly_edits", result.WeeklyEdits,
		"skipped", result.Skipped,
	)
	return result, nil
}

// ImportTeachers upserts teacher logins with bcrypt hashed passwords.
func (s *ImportService) ImportTeachers(ctx context.Context, r io.Reader) (*models.ImportResult, error) {
	logins, skipped, err := ParseTeacherWorkbook(r)
	if err != nil {
		s.metrics.RecordImport(models.ImportTeachers, models.ImportFailed, 0)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "cannot read teachers workbook")
	}

	result := &models.ImportResult{RowsRead: len(logins), Skipped: skipped}
	for _, login := range logins {
		hash, err := HashPassword(login.Password)
		if err != nil {
			s.metrics.RecordImport(models.ImportTeachers, models.ImportFailed, result.UsersUpdated)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		user := &models.User{
			Username:     login.Username,
			PasswordHash: hash,
			Role:         models.RoleTeacher,
			FullName:     login.FullName,
		}
		if err := s.users.Upsert(ctx, user); err != nil {
			s.metrics.RecordImport(models.ImportTeachers, models.ImportFailed, result.UsersUpdated)
			return nil, repoError(err, "", fmt.Sprintf("failed to store teacher %s", login.Username))
		}
		result.UsersUpdated++
	}

	s.metrics.RecordImport(models.ImportTeachers, models.ImportSucceeded, result.UsersUpdated)
	s.logger.Sugar().Infow("teachers imported", "users", result.UsersUpdated, "skipped", result.Skipped)
	return result, nil
}

// Import dispatches on kind.
func (s *ImportService) Import(ctx context.Context, kind models.ImportKind, r io.Reader) (*models.ImportResult, error) {
	switch kind {
	case models.ImportSchedule:
		return s.ImportSchedule(ctx, r)
	case models.ImportTeachers:
		return s.ImportTeachers(ctx, r)
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown import kind %q", kind))
}

type importPayload struct {
	kind models.ImportKind
	data []byte
}

// UseArchive stores every queued workbook so it can be replayed with Retry.
func (s *ImportService) UseArchive(archive importArchive) {
	s.mu.Lock()
	s.archive = archive
	s.mu.Unlock()
}

// Start launches the background import queue and drops expired archived uploads.
func (s *ImportService) Start(ctx context.Context) {
	if s.archive != nil {
		removed, err := s.archive.CleanupOlderThan(s.cfg.ArchiveTTL)
		if err != nil {
			s.logger.Sugar().Warnw("failed to clean import archive", "error", err)
		} else if len(removed) > 0 {
			s.logger.Sugar().Infow("import archive cleaned", "files", len(removed))
		}
	}

	s.mu.Lock()
	if s.queue == nil {
		s.queue = jobs.NewQueue("imports", s.runJob, jobs.QueueConfig{
			Workers:    s.cfg.Workers,
			MaxRetries: s.cfg.MaxRetries,
			RetryDelay: s.cfg.RetryDelay,
			Logger:     s.logger,
			OnGiveUp:   s.jobGaveUp,
		})
	}
	queue := s.queue
	s.mu.Unlock()
	queue.Start(ctx)
}

// Stop drains the workers.
func (s *ImportService) Stop() {
	s.mu.RLock()
	queue := s.queue
	s.mu.RUnlock()
	if queue != nil {
		queue.Stop()
	}
}

// Enqueue schedules an import of data and returns the queued job.
func (s *ImportService) Enqueue(kind models.ImportKind, data []byte) (*models.ImportJob, error) {
	if kind != models.ImportSchedule && kind != models.ImportTeachers {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown import kind %q", kind))
	}
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "workbook is empty")
	}

	s.mu.Lock()
	queue := s.queue
	if queue == nil {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "import queue is not running")
	}
	s.pruneLocked()
	job := &models.ImportJob{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    models.ImportQueued,
		CreatedAt: s.now().UTC(),
	}
	if s.archive != nil {
		name, err := s.archive.Save(string(kind), job.ID, data)
		if err != nil {
			s.logger.Sugar().Warnw("failed to archive workbook", "job_id", job.ID, "error", err)
		} else {
			job.Archive = name
		}
	}
	s.jobs[job.ID] = job
	snapshot := *job
	s.mu.Unlock()

	if err := queue.Enqueue(jobs.Job{ID: job.ID, Type: string(kind), Payload: importPayload{kind: kind, data: data}}); err != nil {
		s.finish(job.ID, nil, err)
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to queue import")
	}
	return &snapshot, nil
}

// Retry queues the archived workbook of a finished job again.
func (s *ImportService) Retry(id string) (*models.ImportJob, error) {
	prev, err := s.Job(id)
	if err != nil {
		return nil, err
	}
	if prev.Status != models.ImportFailed && prev.Status != models.ImportSucceeded {
		return nil, appErrors.Clone(appErrors.ErrConflict, "import job is still running")
	}
	s.mu.RLock()
	archive := s.archive
	s.mu.RUnlock()
	if archive == nil || prev.Archive == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "workbook of this job was not archived")
	}
	data, err := archive.Read(prev.Archive)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "archived workbook is gone")
	}
	return s.Enqueue(prev.Kind, data)
}

// Job returns a copy of the job record.
func (s *ImportService) Job(id string) (*models.ImportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "import job not found")
	}
	out := *job
	return &out, nil
}

// Jobs lists known jobs, newest first.
func (s *ImportService) Jobs() []models.ImportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ImportJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *ImportService) runJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(importPayload)
	if !ok {
		return jobs.Permanent(fmt.Errorf("unexpected payload %T", job.Payload))
	}

	s.mu.Lock()
	if record, ok := s.jobs[job.ID]; ok {
		record.Status = models.ImportRunning
		record.Attempts = job.Attempt + 1
	}
	s.mu.Unlock()

	result, err := s.Import(ctx, payload.kind, bytes.NewReader(payload.data))
	if err != nil {
		if appErr := appErrors.FromError(err); appErr.Status < 500 {
			return jobs.Permanent(err)
		}
		return err
	}
	s.finish(job.ID, result, nil)
	return nil
}

func (s *ImportService) jobGaveUp(job jobs.Job, err error) {
	s.finish(job.ID, nil, err)
}

func (s *ImportService) finish(id string, result *models.ImportResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.jobs[id]
	if !ok {
		return
	}
	finished := s.now().UTC()
	record.FinishedAt = &finished
	record.Result = result
	if err != nil {
		record.Status = models.ImportFailed
		record.Error = err.Error()
		return
	}
	record.Status = models.ImportSucceeded
	record.Error = ""
}

func (s *ImportService) pruneLocked() {
	cutoff := s.now().UTC().Add(-s.cfg.JobRetention)
	for id, job := range s.jobs {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
}

// splitImportedRows sends lessons held every week to the base table and
// parity-scoped ones to weekly edits.
func splitImportedRows(rows []ScheduleRow) ([]models.WeekdayScheduleEntry, []models.WeeklyEdit) {
	base := make([]models.WeekdayScheduleEntry, 0, len(rows))
	var edits []models.WeeklyEdit
	for _, row := range rows {
		if row.WeekType == models.WeekParityAll || row.WeekType == "" {
			base = append(base, models.WeekdayScheduleEntry{
				GroupName:   row.GroupName,
				Weekday:     row.Weekday,
				PairNumber:  row.PairNumber,
				TimeStart:   row.TimeStart,
				TimeEnd:     row.TimeEnd,
				Subject:     row.Subject,
				SessionType: row.SessionType,
				Room:        row.Room,
				Teacher:     row.Teacher,
			})
			continue
		}
		edits = append(edits, models.WeeklyEdit{
			GroupName:  row.GroupName,
			DayOfWeek:  row.Weekday,
			WeekType:   row.WeekType,
			PairNumber: row.PairNumber,
			LessonFields: models.LessonFields{
				TimeStart:   stringPtr(row.TimeStart),
				TimeEnd:     stringPtr(row.TimeEnd),
				Subject:     optionalString(row.Subject),
				SessionType: optionalString(row.SessionType),
				Room:        optionalString(row.Room),
				Teacher:     optionalString(row.Teacher),
			},
		})
	}
	return base, edits
}

func stringPtr(v string) *string { return &v }

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
