package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/drivedrcc-eng/central-senai-api/internal/models"
	"github.com/drivedrcc-eng/central-senai-api/internal/scheduling"
	"github.com/drivedrcc-eng/central-senai-api/internal/service"
	appErrors "github.com/drivedrcc-eng/central-senai-api/pkg/errors"
	"github.com/drivedrcc-eng/central-senai-api/pkg/response"
)

// CalendarHandler exposes blackout calendar endpoints.
type CalendarHandler struct {
	service *service.CalendarService
}

// NewCalendarHandler constructs a calendar handler.
func NewCalendarHandler(svc *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{service: svc}
}

// List godoc
// @Summary List calendar entries
// @Tags Calendar
// @Produce json
// @Param from query string false "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (YYYY-MM-DD)"
// @Param dayOff query bool false "Filter on day-off flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /calendar [get]
func (h *CalendarHandler) List(c *gin.Context) {
	var filter models.BlackoutFilter
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
	if raw := c.Query("dayOff"); raw != "" {
		dayOff, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid dayOff flag"))
			return
		}
		filter.DayOff = &dayOff
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	entries, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Get godoc
// @Summary Get the calendar entry for a date
// @Tags Calendar
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /calendar/{date} [get]
func (h *CalendarHandler) Get(c *gin.Context) {
	date, err := parseDateParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entry, err := h.service.Lookup(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Upsert godoc
// @Summary Create or replace the calendar entry for a date
// @Description Marking a date as a day off displaces its class bookings and
// @Description reallocates each to the tail of its subject's timeline. The
// @Description reallocation summary is returned alongside the stored entry.
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body service.UpsertBlackoutRequest true "Calendar entry payload"
// @Success 200 {object} response.Envelope
// @Router /calendar [put]
func (h *CalendarHandler) Upsert(c *gin.Context) {
	var req service.UpsertBlackoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	actorID, _ := actorFromContext(c)
	req.CreatedBy = actorID
	result, err := h.service.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Remove the calendar entry for a date
// @Tags Calendar
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 204
// @Router /calendar/{date} [delete]
func (h *CalendarHandler) Delete(c *gin.Context) {
	date, err := parseDateParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), date); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func parseDateParam(c *gin.Context) (time.Time, error) {
	parsed, err := time.Parse(scheduling.DateLayout, c.Param("date"))
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}
	return parsed, nil
}
