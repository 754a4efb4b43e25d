package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schedule-api/internal/dto"
	"github.com/noah-isme/schedule-api/internal/models"
	appErrors "github.com/noah-isme/schedule-api/pkg/errors"
	"github.com/noah-isme/schedule-api/pkg/response"
)

// maxWorkbookSize caps uploaded spreadsheets.
const maxWorkbookSize = 20 << 20

type importQueue interface {
	Enqueue(kind models.ImportKind, data []byte) (*models.ImportJob, error)
	Retry(id string) (*models.ImportJob, error)
	Job(id string) (*models.ImportJob, error)
	Jobs() []models.ImportJob
}

// ImportHandler accepts workbook uploads and reports async import jobs.
type ImportHandler struct {
	imports importQueue
}

// NewImportHandler constructs an import handler.
func NewImportHandler(imports importQueue) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// Schedule godoc
// @Summary Import the schedule workbook
// @Description Replaces the base timetable and imported weekly edits. Runs in the background.
// @Tags Import
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Schedule workbook (.xlsx)"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/import/schedule [post]
func (h *ImportHandler) Schedule(c *gin.Context) {
	h.enqueue(c, models.ImportSchedule)
}

// Teachers godoc
// @Summary Import teacher logins
// @Tags Import
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Teacher workbook (.xlsx)"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/import/teachers [post]
func (h *ImportHandler) Teachers(c *gin.Context) {
	h.enqueue(c, models.ImportTeachers)
}

// Jobs godoc
// @Summary List import jobs
// @Tags Import
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/import/jobs [get]
func (h *ImportHandler) Jobs(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.imports.Jobs(), nil)
}

// Job godoc
// @Summary Get import job
// @Tags Import
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/import/jobs/{id} [get]
func (h *ImportHandler) Job(c *gin.Context) {
	job, err := h.imports.Job(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Retry godoc
// @Summary Re-run an import from its archived workbook
// @Tags Import
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/import/jobs/{id}/retry [post]
func (h *ImportHandler) Retry(c *gin.Context) {
	job, err := h.imports.Retry(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.ImportAccepted{JobID: job.ID, Kind: job.Kind, Status: job.Status})
}

func (h *ImportHandler) enqueue(c *gin.Context, kind models.ImportKind) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}
	if header.Size > maxWorkbookSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "workbook is too large"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "cannot read upload"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxWorkbookSize))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "cannot read upload"))
		return
	}
	job, err := h.imports.Enqueue(kind, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.ImportAccepted{JobID: job.ID, Kind: job.Kind, Status: job.Status})
}
