package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
	"github.com/drivedrcc-eng/central-senai-api/internal/scheduling"
	"github.com/drivedrcc-eng/central-senai-api/internal/service"
	appErrors "github.com/drivedrcc-eng/central-senai-api/pkg/errors"
	"github.com/drivedrcc-eng/central-senai-api/pkg/response"
)

// BookingHandler exposes booking endpoints.
type BookingHandler struct {
	service *service.BookingService
}

// NewBookingHandler constructs a booking handler.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{service: svc}
}

// List godoc
// @Summary List bookings
// @Tags Bookings
// @Produce json
// @Param from query string false "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (YYYY-MM-DD)"
// @Param shift query string false "Shift filter (MANHA|TARDE|NOITE)"
// @Param type query string false "Activity type filter"
// @Param instructorId query string false "Instructor ID"
// @Param roomId query string false "Room ID"
// @Param classGroupId query string false "Class group ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	var filter models.BookingFilter
	if from, err := parseDateQuery(c, "from"); err != nil {
		response.Error(c, err)
		return
	} else {
		filter.From = from
	}
	if to, err := parseDateQuery(c, "to"); err != nil {
		response.Error(c, err)
		return
	} else {
		filter.To = to
	}
	filter.Shift = models.Shift(c.Query("shift"))
	filter.Type = models.ActivityType(c.Query("type"))
	filter.InstructorID = strings.TrimSpace(c.Query("instructorId"))
	filter.RoomID = strings.TrimSpace(c.Query("roomId"))
	filter.ClassGroupID = strings.TrimSpace(c.Query("classGroupId"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	bookings, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, pagination)
}

// Get godoc
// @Summary Get booking detail
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	booking, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Create godoc
// @Summary Create booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body service.CreateBookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	actorID, _ := actorFromContext(c)
	req.CreatedBy = actorID
	booking, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// CreateRecurring godoc
// @Summary Create a recurring series of class bookings
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body service.CreateRecurringRequest true "Recurrence payload"
// @Success 201 {object} response.Envelope
// @Router /bookings/recurring [post]
func (h *BookingHandler) CreateRecurring(c *gin.Context) {
	var req service.CreateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	actorID, _ := actorFromContext(c)
	req.CreatedBy = actorID
	result, err := h.service.CreateRecurring(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	var meta map[string]interface{}
	if result.Partial {
		meta = map[string]interface{}{"partial": true}
	}
	response.JSON(c, http.StatusCreated, result, nil, meta)
}

// Update godoc
// @Summary Update booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body service.UpdateBookingRequest true "Booking payload"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id} [put]
func (h *BookingHandler) Update(c *gin.Context) {
	var req service.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	booking, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Delete godoc
// @Summary Delete booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 204
// @Router /bookings/{id} [delete]
func (h *BookingHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Quota godoc
// @Summary Remaining session quota for a group and subject
// @Tags Bookings
// @Produce json
// @Param classGroupId query string true "Class group ID"
// @Param subject query string true "Subject name"
// @Success 200 {object} response.Envelope
// @Router /bookings/quota [get]
func (h *BookingHandler) Quota(c *gin.Context) {
	groupID := strings.TrimSpace(c.Query("classGroupId"))
	subject := strings.TrimSpace(c.Query("subject"))
	if groupID == "" || subject == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "classGroupId and subject required"))
		return
	}
	quota, err := h.service.RemainingQuota(c.Request.Context(), groupID, subject)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quota, nil)
}

func parseDateQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(scheduling.DateLayout, raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid "+key+" date")
	}
	return &parsed, nil
}
