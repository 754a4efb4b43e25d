package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schedule-api/internal/dto"
	"github.com/noah-isme/schedule-api/internal/middleware"
	"github.com/noah-isme/schedule-api/internal/models"
	"github.com/noah-isme/schedule-api/internal/service"
	appErrors "github.com/noah-isme/schedule-api/pkg/errors"
	"github.com/noah-isme/schedule-api/pkg/response"
)

type scheduleReader interface {
	Day(ctx context.Context, group, rawDate string) (*models.DaySchedule, error)
	Week(ctx context.Context, group, rawWeek string) (*models.WeekSchedule, error)
	TeacherWeek(ctx context.Context, teacher, rawWeek string) (*models.WeekSchedule, error)
	Groups(ctx context.Context) ([]string, error)
	LegacyDay(ctx context.Context, group, rawDate string) (*models.DaySchedule, error)
}

type scheduleExporter interface {
	GroupWeek(ctx context.Context, group, rawWeek string, format service.ExportFormat) (*service.ExportFile, error)
	TeacherWeek(ctx context.Context, teacher, rawWeek string, format service.ExportFormat) (*service.ExportFile, error)
}

// ScheduleHandler serves the read side of the timetable.
type ScheduleHandler struct {
	schedule scheduleReader
	export   scheduleExporter
}

// NewScheduleHandler constructs a schedule handler. export may be nil to disable downloads.
func NewScheduleHandler(schedule scheduleReader, export scheduleExporter) *ScheduleHandler {
	return &ScheduleHandler{schedule: schedule, export: export}
}

// Day godoc
// @Summary Resolved timetable of a group for one date
// @Tags Schedule
// @Produce json
// @Param group query string true "Group name"
// @Param date query string false "Date (YYYY-MM-DD), today when omitted"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) Day(c *gin.Context) {
	var query dto.ScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	if strings.TrimSpace(query.Group) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "group is required"))
		return
	}
	day, err := h.schedule.Day(c.Request.Context(), query.Group, query.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	if day.Parity != "" {
		middleware.SetMeta(c, "parity", day.Parity)
	}
	response.JSON(c, http.StatusOK, day, nil, middleware.Meta(c))
}

// Week godoc
// @Summary Resolved timetable of a group for a week
// @Tags Schedule
// @Produce json
// @Param group query string true "Group name"
// @Param week query string false "Monday of the week (YYYY-MM-DD), current week when omitted"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedule/week [get]
func (h *ScheduleHandler) Week(c *gin.Context) {
	var query dto.WeekQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	if strings.TrimSpace(query.Group) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "group is required"))
		return
	}
	week, err := h.schedule.Week(c.Request.Context(), query.Group, query.Week)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondWeek(c, week)
}

// TeacherWeek godoc
// @Summary Lessons of a teacher across groups for a week
// @Tags Schedule
// @Produce json
// @Param teacher query string true "Teacher name as written in the timetable"
// @Param week query string false "Monday of the week (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedule/teacher [get]
func (h *ScheduleHandler) TeacherWeek(c *gin.Context) {
	var query dto.WeekQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	week, err := h.schedule.TeacherWeek(c.Request.Context(), query.Teacher, query.Week)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondWeek(c, week)
}

// Export godoc
// @Summary Download a resolved week
// @Description Renders the week of a group, or of a teacher when teacher is set.
// @Tags Schedule
// @Produce octet-stream
// @Param group query string false "Group name"
// @Param teacher query string false "Teacher name"
// @Param week query string false "Monday of the week (YYYY-MM-DD)"
// @Param format query string false "csv, pdf or xlsx" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /schedule/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	if h.export == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export disabled"))
		return
	}
	var query dto.WeekQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	format, err := service.ParseExportFormat(query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}

	var file *service.ExportFile
	switch {
	case strings.TrimSpace(query.Teacher) != "":
		file, err = h.export.TeacherWeek(c.Request.Context(), query.Teacher, query.Week, format)
	case strings.TrimSpace(query.Group) != "":
		file, err = h.export.GroupWeek(c.Request.Context(), query.Group, query.Week, format)
	default:
		err = appErrors.Clone(appErrors.ErrValidation, "group or teacher is required")
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// Groups godoc
// @Summary List known groups
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /groups [get]
func (h *ScheduleHandler) Groups(c *gin.Context) {
	groups, err := h.schedule.Groups(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "count", len(groups))
	response.JSON(c, http.StatusOK, groups, nil, middleware.Meta(c))
}

// LegacyDay godoc
// @Summary Day from the legacy date-keyed table
// @Tags Schedule
// @Produce json
// @Param group query string true "Group name"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /legacy/schedule [get]
func (h *ScheduleHandler) LegacyDay(c *gin.Context) {
	var query dto.ScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	if strings.TrimSpace(query.Group) == "" || strings.TrimSpace(query.Date) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "group and date are required"))
		return
	}
	day, err := h.schedule.LegacyDay(c.Request.Context(), query.Group, query.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day, nil, middleware.Meta(c))
}

func (h *ScheduleHandler) respondWeek(c *gin.Context, week *models.WeekSchedule) {
	if week.Parity != "" {
		middleware.SetMeta(c, "parity", week.Parity)
	}
	response.JSON(c, http.StatusOK, week, nil, middleware.Meta(c))
}
