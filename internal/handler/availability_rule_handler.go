package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hostfolio/hostfolio-api/internal/models"
	"github.com/hostfolio/hostfolio-api/internal/service"
	appErrors "github.com/hostfolio/hostfolio-api/pkg/errors"
	"github.com/hostfolio/hostfolio-api/pkg/response"
)

// RuleHandler wires HTTP endpoints to the availability rule service.
type RuleHandler struct {
	service *service.RuleService
}

// NewRuleHandler creates a new handler.
func NewRuleHandler(svc *service.RuleService) *RuleHandler {
	return &RuleHandler{service: svc}
}

// List godoc
// @Summary List availability rules for a property
// @Tags Availability Rules
// @Produce json
// @Param id path string true "Property ID"
// @Param action query string false "Filter by action"
// @Param active_only query bool false "Only active rules"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /properties/{id}/rules [get]
func (h *RuleHandler) List(c *gin.Context) {
	filter := models.RuleFilter{
		PropertyID: c.Param("id"),
		ActiveOnly: c.Query("active_only") == "true",
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 50),
	}
	if raw := c.Query("action"); raw != "" {
		action := models.RuleAction(raw)
		filter.Action = &action
	}

	rules, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, rules, pagination)
}

// Get godoc
// @Summary Get one availability rule
// @Tags Availability Rules
// @Produce json
// @Param id path string true "Property ID"
// @Param ruleId path string true "Rule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /properties/{id}/rules/{ruleId} [get]
func (h *RuleHandler) Get(c *gin.Context) {
	rule, err := h.service.Get(c.Request.Context(), c.Param("id"), c.Param("ruleId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// Create godoc
// @Summary Create availability rule
// @Tags Availability Rules
// @Accept json
// @Produce json
// @Param id path string true "Property ID"
// @Param payload body service.CreateRuleRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /properties/{id}/rules [post]
func (h *RuleHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rule payload"))
		return
	}
	req.CreatedBy = claims.UserID

	rule, err := h.service.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, rule)
}

// Update godoc
// @Summary Update availability rule
// @Tags Availability Rules
// @Accept json
// @Produce json
// @Param id path string true "Property ID"
// @Param ruleId path string true "Rule ID"
// @Param payload body service.UpdateRuleRequest true "Rule payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /properties/{id}/rules/{ruleId} [put]
func (h *RuleHandler) Update(c *gin.Context) {
	var req service.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rule payload"))
		return
	}

	rule, err := h.service.Update(c.Request.Context(), c.Param("id"), c.Param("ruleId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, rule, nil)
}

// Toggle godoc
// @Summary Enable or disable a rule
// @Tags Availability Rules
// @Accept json
// @Produce json
// @Param id path string true "Property ID"
// @Param ruleId path string true "Rule ID"
// @Param payload body map[string]bool true "Active flag"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /properties/{id}/rules/{ruleId}/toggle [patch]
func (h *RuleHandler) Toggle(c *gin.Context) {
	var payload struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "is_active flag required"))
		return
	}

	rule, err := h.service.Toggle(c.Request.Context(), c.Param("id"), c.Param("ruleId"), *payload.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, rule, nil)
}

// Delete godoc
// @Summary Delete availability rule
// @Tags Availability Rules
// @Produce json
// @Param id path string true "Property ID"
// @Param ruleId path string true "Rule ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /properties/{id}/rules/{ruleId} [delete]
func (h *RuleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), c.Param("ruleId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
