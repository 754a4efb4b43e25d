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

type baseScheduleService interface {
	List(ctx context.Context, filter models.WeekdayScheduleFilter) ([]models.WeekdayScheduleEntry, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.WeekdayScheduleEntry, error)
	Create(ctx context.Context, req dto.BaseEntryRequest) (*models.WeekdayScheduleEntry, error)
	Update(ctx context.Context, id int64, req dto.BaseEntryRequest) (*models.WeekdayScheduleEntry, error)
	Delete(ctx context.Context, id int64) error
}

// BaseHandler exposes CRUD over the base weekday timetable.
type BaseHandler struct {
	service baseScheduleService
}

// NewBaseHandler constructs a base timetable handler.
func NewBaseHandler(svc baseScheduleService) *BaseHandler {
	return &BaseHandler{service: svc}
}

// List godoc
// @Summary List base timetable entries
// @Tags Base
// @Produce json
// @Param group query string false "Filter by group"
// @Param teacher query string false "Filter by teacher"
// @Param weekday query int false "Filter by weekday (1-7)"
// @Param room query string false "Filter by room"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort column"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /base [get]
func (h *BaseHandler) List(c *gin.Context) {
	var filter models.WeekdayScheduleFilter
	filter.Group = strings.TrimSpace(c.Query("group"))
	filter.Teacher = strings.TrimSpace(c.Query("teacher"))
	filter.Room = strings.TrimSpace(c.Query("room"))
	if weekday, err := strconv.Atoi(c.Query("weekday")); err == nil {
		filter.Weekday = weekday
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	entries, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Get godoc
// @Summary Get base timetable entry
// @Tags Base
// @Produce json
// @Param id path int true "Entry ID"
// @Success 200 {object} response.Envelope
// @Router /base/{id} [get]
func (h *BaseHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	entry, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Create godoc
// @Summary Create base timetable entry
// @Tags Base
// @Accept json
// @Produce json
// @Param payload body dto.BaseEntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /base [post]
func (h *BaseHandler) Create(c *gin.Context) {
	var req dto.BaseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Update godoc
// @Summary Replace base timetable entry
// @Tags Base
// @Accept json
// @Produce json
// @Param id path int true "Entry ID"
// @Param payload body dto.BaseEntryRequest true "Entry payload"
// @Success 200 {object} response.Envelope
// @Router /base/{id} [put]
func (h *BaseHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.BaseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Delete godoc
// @Summary Delete base timetable entry
// @Tags Base
// @Produce json
// @Param id path int true "Entry ID"
// @Success 204
// @Router /base/{id} [delete]
func (h *BaseHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
