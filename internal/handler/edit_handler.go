package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schedule-api/internal/dto"
	"github.com/noah-isme/schedule-api/internal/models"
	appErrors "github.com/noah-isme/schedule-api/pkg/errors"
	"github.com/noah-isme/schedule-api/pkg/response"
)

type editService interface {
	ListWeekly(ctx context.Context, filter models.EditFilter) ([]models.WeeklyEdit, error)
	GetWeekly(ctx context.Context, id int64) (*models.WeeklyEdit, error)
	PutWeekly(ctx context.Context, req dto.WeeklyEditRequest) (*models.WeeklyEdit, error)
	UpdateWeekly(ctx context.Context, id int64, req dto.WeeklyEditRequest) (*models.WeeklyEdit, error)
	DeleteWeekly(ctx context.Context, id int64) error
	ListOnce(ctx context.Context, filter models.EditFilter) ([]models.OnceEdit, error)
	GetOnce(ctx context.Context, id int64) (*models.OnceEdit, error)
	PutOnce(ctx context.Context, req dto.OnceEditRequest) (*models.OnceEdit, error)
	UpdateOnce(ctx context.Context, id int64, req dto.OnceEditRequest) (*models.OnceEdit, error)
	DeleteOnce(ctx context.Context, id int64) error
	PurgeOnce(ctx context.Context, before string) (int64, error)
}

// EditHandler exposes weekly and once-off overrides.
type EditHandler struct {
	service editService
}

// NewEditHandler constructs an edit handler.
func NewEditHandler(svc editService) *EditHandler {
	return &EditHandler{service: svc}
}

// ListWeekly godoc
// @Summary List weekly edits
// @Tags Edits
// @Produce json
// @Param group query string false "Filter by group"
// @Param day_of_week query int false "Filter by day of week (1-7)"
// @Success 200 {object} response.Envelope
// @Router /edits/weekly [get]
func (h *EditHandler) ListWeekly(c *gin.Context) {
	filter := models.EditFilter{Group: strings.TrimSpace(c.Query("group"))}
	if day, err := strconv.Atoi(c.Query("day_of_week")); err == nil {
		filter.DayOfWeek = day
	}
	edits, err := h.service.ListWeekly(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, edits, nil)
}

// GetWeekly godoc
// @Summary Get weekly edit
// @Tags Edits
// @Produce json
// @Param id path int true "Edit ID"
// @Success 200 {object} response.Envelope
// @Router /edits/weekly/{id} [get]
func (h *EditHandler) GetWeekly(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	edit, err := h.service.GetWeekly(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, edit, nil)
}

// PutWeekly godoc
// @Summary Create or replace a weekly edit
// @Description Upserts on (group, day_of_week, week_type, pair_number). is_deleted cancels the pair.
// @Tags Edits
// @Accept json
// @Produce json
// @Param payload body dto.WeeklyEditRequest true "Weekly edit"
// @Success 200 {object} response.Envelope
// @Router /edits/weekly [post]
func (h *EditHandler) PutWeekly(c *gin.Context) {
	var req dto.WeeklyEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	edit, err := h.service.PutWeekly(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, edit, nil)
}

// UpdateWeekly godoc
// @Summary Update weekly edit
// @Tags Edits
// @Accept json
// @Produce json
// @Param id path int true "Edit ID"
// @Param payload body dto.WeeklyEditRequest true "Weekly edit"
// @Success 200 {object} response.Envelope
// @Router /edits/weekly/{id} [put]
func (h *EditHandler) UpdateWeekly(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.WeeklyEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	edit, err := h.service.UpdateWeekly(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, edit, nil)
}

// DeleteWeekly godoc
// @Summary Delete weekly edit
// @Description Removes the override so the base entry applies again.
// @Tags Edits
// @Param id path int true "Edit ID"
// @Success 204
// @Router /edits/weekly/{id} [delete]
func (h *EditHandler) DeleteWeekly(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteWeekly(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListOnce godoc
// @Summary List once edits
// @Tags Edits
// @Produce json
// @Param group query string false "Filter by group"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /edits/once [get]
func (h *EditHandler) ListOnce(c *gin.Context) {
	filter := models.EditFilter{
		Group: strings.TrimSpace(c.Query("group")),
		From:  strings.TrimSpace(c.Query("from")),
		To:    strings.TrimSpace(c.Query("to")),
	}
	edits, err := h.service.ListOnce(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, edits, nil)
}

// GetOnce godoc
// @Summary Get once edit
// @Tags Edits
// @Produce json
// @Param id path int true "Edit ID"
// @Success 200 {object} response.Envelope
// @Router /edits/once/{id} [get]
func (h *EditHandler) GetOnce(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	edit, err := h.service.GetOnce(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, edit, nil)
}

// PutOnce godoc
// @Summary Create or replace a once edit
// @Description Upserts on (group, edit_date, pair_number). is_deleted cancels the pair.
// @Tags Edits
// @Accept json
// @Produce json
// @Param payload body dto.OnceEditRequest true "Once edit"
// @Success 200 {object} response.Envelope
// @Router /edits/once [post]
func (h *EditHandler) PutOnce(c *gin.Context) {
	var req dto.OnceEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	edit, err := h.service.PutOnce(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, edit, nil)
}

// UpdateOnce godoc
// @Summary Update once edit
// @Tags Edits
// @Accept json
// @Produce json
// @Param id path int true "Edit ID"
// @Param payload body dto.OnceEditRequest true "Once edit"
// @Success 200 {object} response.Envelope
// @Router /edits/once/{id} [put]
func (h *EditHandler) UpdateOnce(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.OnceEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	edit, err := h.service.UpdateOnce(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, edit, nil)
}

// DeleteOnce godoc
// @Summary Delete once edit
// @Tags Edits
// @Param id path int true "Edit ID"
// @Success 204
// @Router /edits/once/{id} [delete]
func (h *EditHandler) DeleteOnce(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteOnce(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// PurgeOnce godoc
// @Summary Drop once edits dated before a day
// @Tags Edits
// @Produce json
// @Param before query string false "Cut-off date (YYYY-MM-DD), today when omitted"
// @Success 200 {object} response.Envelope
// @Router /edits/once/purge [post]
func (h *EditHandler) PurgeOnce(c *gin.Context) {
	before := strings.TrimSpace(c.Query("before"))
	removed, err := h.service.PurgeOnce(c.Request.Context(), before)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.PurgeResult{Before: before, Removed: removed}, nil)
}
