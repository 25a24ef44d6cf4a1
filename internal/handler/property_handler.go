package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hostfolio/hostfolio-api/internal/models"
	"github.com/hostfolio/hostfolio-api/internal/service"
	appErrors "github.com/hostfolio/hostfolio-api/pkg/errors"
	"github.com/hostfolio/hostfolio-api/pkg/response"
)

// PropertyHandler wires HTTP endpoints to the property service.
type PropertyHandler struct {
	service *service.PropertyService
}

// NewPropertyHandler creates a new handler.
func NewPropertyHandler(svc *service.PropertyService) *PropertyHandler {
	return &PropertyHandler{service: svc}
}

// List godoc
// @Summary List properties
// @Tags Properties
// @Produce json
// @Param city query string false "Filter by city"
// @Param active query bool false "Filter by active flag"
// @Param search query string false "Search by name"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /properties [get]
func (h *PropertyHandler) List(c *gin.Context) {
	filter := models.PropertyFilter{
		City:     c.Query("city"),
		Search:   c.Query("search"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	if raw := c.Query("active"); raw != "" {
		active := raw == "true"
		filter.Active = &active
	}
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleManager {
		filter.ManagerID = claims.UserID
	}

	properties, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, properties, pagination)
}

// Get godoc
// @Summary Get property by ID
// @Tags Properties
// @Produce json
// @Param id path string true "Property ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /properties/{id} [get]
func (h *PropertyHandler) Get(c *gin.Context) {
	property, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, property, nil)
}

// Create godoc
// @Summary Create property
// @Tags Properties
// @Accept json
// @Produce json
// @Param payload body service.CreatePropertyRequest true "Property payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /properties [post]
func (h *PropertyHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid property payload"))
		return
	}
	req.ManagerID = claims.UserID

	property, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, property)
}

// Update godoc
// @Summary Update property
// @Tags Properties
// @Accept json
// @Produce json
// @Param id path string true "Property ID"
// @Param payload body service.UpdatePropertyRequest true "Property payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /properties/{id} [put]
func (h *PropertyHandler) Update(c *gin.Context) {
	var req service.UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid property payload"))
		return
	}

	property, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, property, nil)
}

// Delete godoc
// @Summary Delete property
// @Tags Properties
// @Produce json
// @Param id path string true "Property ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /properties/{id} [delete]
func (h *PropertyHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
