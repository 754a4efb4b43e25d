package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/schedule-api/internal/models"
	appErrors "github.com/noah-isme/schedule-api/pkg/errors"
	"github.com/noah-isme/schedule-api/pkg/export"
)

// ExportFormat names a rendered schedule format.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportPDF  ExportFormat = "pdf"
	ExportXLSX ExportFormat = "xlsx"
)

var exportContentTypes = map[ExportFormat]string{
	ExportCSV:  "text/csv; charset=utf-8",
	ExportPDF:  "application/pdf",
	ExportXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

type weekResolver interface {
	Week(ctx context.Context, group, rawWeek string) (*models.WeekSchedule, error)
	TeacherWeek(ctx context.Context, teacher, rawWeek string) (*models.WeekSchedule, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered schedule ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders resolved weeks as downloadable files.
type ExportService struct {
	schedule  weekResolver
	renderers map[ExportFormat]datasetRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService. fontPath is the UTF-8 font used for PDFs.
func NewExportService(schedule weekResolver, fontPath string, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		schedule: schedule,
		renderers: map[ExportFormat]datasetRenderer{
			ExportCSV:  export.NewCSVExporter(0),
			ExportPDF:  export.NewPDFExporter(fontPath),
			ExportXLSX: export.NewXLSXExporter(),
		},
		logger: logger,
	}
}

// ParseExportFormat defaults to CSV.
func ParseExportFormat(raw string) (ExportFormat, error) {
	format := ExportFormat(strings.ToLower(strings.TrimSpace(raw)))
	if format == "" {
		return ExportCSV, nil
	}
	if _, ok := exportContentTypes[format]; !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, "format must be csv, pdf or xlsx")
	}
	return format, nil
}

// GroupWeek renders the resolved week of a group.
func (s *ExportService) GroupWeek(ctx context.Context, group, rawWeek string, format ExportFormat) (*ExportFile, error) {
	week, err := s.schedule.Week(ctx, group, rawWeek)
	if err != nil {
		return nil, err
	}
	return s.render(week, week.Group, format)
}

// TeacherWeek renders the resolved week of a teacher across groups.
func (s *ExportService) TeacherWeek(ctx context.Context, teacher, rawWeek string, format ExportFormat) (*ExportFile, error) {
	week, err := s.schedule.TeacherWeek(ctx, teacher, rawWeek)
	if err != nil {
		return nil, err
	}
	return s.render(week, week.Teacher, format)
}

func (s *ExportService) render(week *models.WeekSchedule, subject string, format ExportFormat) (*ExportFile, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv, pdf or xlsx")
	}
	data, err := renderer.Render(weekDataset(week, subject))
	if err != nil {
		s.logger.Error("schedule export failed", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule")
	}
	return &ExportFile{
		Filename:    exportFilename(subject, week.WeekStart, format),
		ContentType: exportContentTypes[format],
		Data:        data,
	}, nil
}

func weekDataset(week *models.WeekSchedule, subject string) export.Dataset {
	title := fmt.Sprintf("%s: %s .. %s", subject, week.WeekStart, week.WeekEnd)
	if week.Parity != "" {
		title += " (" + string(week.Parity) + ")"
	}
	data := export.Dataset{
		Title:   title,
		Headers: []string{"date", "weekday", "pair", "time", "group", "subject", "type", "room", "teacher", "source"},
	}
	for _, day := range week.Days {
		for _, lesson := range day.Lessons {
			data.Rows = append(data.Rows, []string{
				day.Date,
				strconv.Itoa(day.Weekday),
				strconv.Itoa(lesson.PairNumber),
				lesson.TimeStart + "-" + lesson.TimeEnd,
				lesson.GroupName,
				lesson.Subject,
				lesson.SessionType,
				lesson.Room,
				lesson.Teacher,
				string(lesson.Source),
			})
		}
	}
	return data
}

func exportFilename(subject, weekStart string, format ExportFormat) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, subject)
	if name == "" {
		name = "schedule"
	}
	return fmt.Sprintf("%s_%s.%s", name, weekStart, format)
}
