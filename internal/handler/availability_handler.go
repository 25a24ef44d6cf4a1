package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hostfolio/hostfolio-api/internal/service"
	appErrors "github.com/hostfolio/hostfolio-api/pkg/errors"
	"github.com/hostfolio/hostfolio-api/pkg/response"
)

// AvailabilityHandler exposes the calendar resolution endpoint.
type AvailabilityHandler struct {
	service *service.AvailabilityService
}

// NewAvailabilityHandler creates a new handler.
func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// Calendar godoc
// @Summary Resolve the availability calendar for a date range
// @Description Applies the property's active rules to every day in the range
// @Tags Availability
// @Produce json
// @Param id path string true "Property ID"
// @Param start_date query string true "Range start (YYYY-MM-DD)"
// @Param end_date query string true "Range end, inclusive (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /properties/{id}/availability [get]
func (h *AvailabilityHandler) Calendar(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("start_date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "start_date must be formatted as YYYY-MM-DD"))
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("end_date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "end_date must be formatted as YYYY-MM-DD"))
		return
	}

	calendar, err := h.service.Calendar(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, calendar, nil)
}
