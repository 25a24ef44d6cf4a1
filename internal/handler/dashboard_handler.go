package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hostfolio/hostfolio-api/internal/middleware"
	"github.com/hostfolio/hostfolio-api/internal/service"
	appErrors "github.com/hostfolio/hostfolio-api/pkg/errors"
	"github.com/hostfolio/hostfolio-api/pkg/response"
)

// DashboardHandler exposes the manager dashboard endpoint.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Summary godoc
// @Summary Occupancy and revenue summary
// @Tags Dashboard
// @Produce json
// @Param property_id query string false "Limit to one property"
// @Param from query string false "Period start (YYYY-MM-DD)"
// @Param to query string false "Period end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	query := service.DashboardQuery{
		ManagerID:  claims.UserID,
		PropertyID: c.Query("property_id"),
		From:       c.Query("from"),
		To:         c.Query("to"),
	}

	summary, cacheHit, err := h.service.Summary(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}
