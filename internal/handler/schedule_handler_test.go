package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/schedule-api/internal/middleware"
	"github.com/noah-isme/schedule-api/internal/models"
	"github.com/noah-isme/schedule-api/internal/service"
	appErrors "github.com/noah-isme/schedule-api/pkg/errors"
)

type scheduleReaderMock struct {
	day       *models.DaySchedule
	week      *models.WeekSchedule
	groups    []string
	err       error
	lastGroup string
	lastDate  string
}

func (m *scheduleReaderMock) Day(ctx context.Context, group, rawDate string) (*models.DaySchedule, error) {
	m.lastGroup, m.lastDate = group, rawDate
	return m.day, m.err
}

func (m *scheduleReaderMock) Week(ctx context.Context, group, rawWeek string) (*models.WeekSchedule, error) {
	m.lastGroup, m.lastDate = group, rawWeek
	return m.week, m.err
}

func (m *scheduleReaderMock) TeacherWeek(ctx context.Context, teacher, rawWeek string) (*models.WeekSchedule, error) {
	return m.week, m.err
}

func (m *scheduleReaderMock) Groups(ctx context.Context) ([]string, error) {
	return m.groups, m.err
}

func (m *scheduleReaderMock) LegacyDay(ctx context.Context, group, rawDate string) (*models.DaySchedule, error) {
	return m.day, m.err
}

type scheduleExporterMock struct {
	file        *service.ExportFile
	err         error
	teacherUsed bool
	format      service.ExportFormat
}

func (m *scheduleExporterMock) GroupWeek(ctx context.Context, group, rawWeek string, format service.ExportFormat) (*service.ExportFile, error) {
	m.format = format
	return m.file, m.err
}

func (m *scheduleExporterMock) TeacherWeek(ctx context.Context, teacher, rawWeek string, format service.ExportFormat) (*service.ExportFile, error) {
	m.teacherUsed = true
	m.format = format
	return m.file, m.err
}

func newScheduleContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestScheduleDayRequiresGroup(t *testing.T) {
	reader := &scheduleReaderMock{}
	handler := NewScheduleHandler(reader, nil)
	c, w := newScheduleContext("/api/schedule?date=2024-09-02")

	handler.Day(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, reader.lastGroup)
}

func TestScheduleDayReportsParity(t *testing.T) {
	reader := &scheduleReaderMock{day: &models.DaySchedule{Group: "ИСП-21", Date: "2024-09-02", Weekday: 1, Parity: models.WeekParityOdd, Lessons: []models.Lesson{}}}
	handler := NewScheduleHandler(reader, nil)
	c, w := newScheduleContext("/api/schedule?group=%D0%98%D0%A1%D0%9F-21&date=2024-09-02")
	middleware.WithResponseMeta()(c)

	handler.Day(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ИСП-21", reader.lastGroup)
	require.Equal(t, "2024-09-02", reader.lastDate)

	var body struct {
		Data models.DaySchedule     `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "odd", body.Meta["parity"])
	require.Contains(t, body.Meta, "processing_time_ms")
	require.Equal(t, "2024-09-02", body.Data.Date)
}

func TestScheduleWeekPropagatesValidation(t *testing.T) {
	reader := &scheduleReaderMock{err: appErrors.Clone(appErrors.ErrValidation, "'week' must be a Monday")}
	handler := NewScheduleHandler(reader, nil)
	c, w := newScheduleContext("/api/schedule/week?group=isp21&week=2024-09-03")

	handler.Week(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "must be a Monday")
}

func TestScheduleGroups(t *testing.T) {
	handler := NewScheduleHandler(&scheduleReaderMock{groups: []string{"ИСП-21", "КС-11"}}, nil)
	c, w := newScheduleContext("/api/groups")

	handler.Groups(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"count":2`)
}

func TestScheduleLegacyRequiresDate(t *testing.T) {
	handler := NewScheduleHandler(&scheduleReaderMock{}, nil)
	c, w := newScheduleContext("/api/legacy/schedule?group=isp21")

	handler.LegacyDay(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleExportAttachment(t *testing.T) {
	exporter := &scheduleExporterMock{file: &service.ExportFile{Filename: "ИСП-21_2024-09-02.xlsx", ContentType: "application/octet-stream", Data: []byte("PK")}}
	handler := NewScheduleHandler(&scheduleReaderMock{}, exporter)
	c, w := newScheduleContext("/api/schedule/export?teacher=Ivanov&format=xlsx")

	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, exporter.teacherUsed)
	require.Equal(t, service.ExportXLSX, exporter.format)
	require.Contains(t, w.Header().Get("Content-Disposition"), "attachment;")
	require.Equal(t, "PK", w.Body.String())
}

func TestScheduleExportRejectsUnknownFormat(t *testing.T) {
	exporter := &scheduleExporterMock{}
	handler := NewScheduleHandler(&scheduleReaderMock{}, exporter)
	c, w := newScheduleContext("/api/schedule/export?group=isp21&format=docx")

	handler.Export(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, exporter.format)
}

func TestScheduleExportNeedsSubject(t *testing.T) {
	handler := NewScheduleHandler(&scheduleReaderMock{}, &scheduleExporterMock{})
	c, w := newScheduleContext("/api/schedule/export")

	handler.Export(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
