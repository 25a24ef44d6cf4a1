package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostfolio/hostfolio-api/internal/dto"
	"github.com/hostfolio/hostfolio-api/internal/models"
	"github.com/hostfolio/hostfolio-api/internal/service"
)

type stubPropertyReader struct {
	properties map[string]*models.Property
}

func (s *stubPropertyReader) GetByID(ctx context.Context, id string) (*models.Property, error) {
	if p, ok := s.properties[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

type stubRuleLister struct {
	rules []models.AvailabilityRule
}

func (s *stubRuleLister) ListByProperty(ctx context.Context, propertyID string) ([]models.AvailabilityRule, error) {
	return s.rules, nil
}

func stubProperty() *models.Property {
	base := 100.0
	return &models.Property{
		ID:               "prop-1",
		ManagerID:        "mgr-1",
		Name:             "Beach House",
		Currency:         "EUR",
		BasePrice:        &base,
		CleaningFee:      40,
		DefaultMinNights: 2,
		DefaultMaxNights: 30,
		MaxGuests:        6,
		IsActive:         true,
	}
}

func saturdayPricingRule() models.AvailabilityRule {
	value := 180.0
	return models.AvailabilityRule{
		ID:          "r-1",
		PropertyID:  "prop-1",
		Name:        "Weekend pricing",
		Type:        models.RuleTypeWeekly,
		Pattern:     models.RulePattern{DayIndexes: []int{6}},
		Action:      models.RuleActionPrice,
		ActionValue: &value,
		Priority:    5,
		IsActive:    true,
		UpdatedAt:   time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newCalendarContext(t *testing.T, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "prop-1"}}
	return c, w
}

func TestAvailabilityHandlerCalendar(t *testing.T) {
	svc := service.NewAvailabilityService(
		&stubPropertyReader{properties: map[string]*models.Property{"prop-1": stubProperty()}},
		&stubRuleLister{rules: []models.AvailabilityRule{saturdayPricingRule()}},
		366, nil,
	)
	h := NewAvailabilityHandler(svc)

	// 2025-03-01 is a Saturday.
	c, w := newCalendarContext(t, "/properties/prop-1/availability?start_date=2025-03-01&end_date=2025-03-03")
	h.Calendar(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.AvailabilityResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "prop-1", envelope.Data.PropertyID)
	assert.Equal(t, "EUR", envelope.Data.Currency)
	require.Len(t, envelope.Data.Days, 3)
	assert.Equal(t, "2025-03-01", envelope.Data.Days[0].Date)
	assert.Equal(t, 180.0, envelope.Data.Days[0].Price)
	assert.Equal(t, 100.0, envelope.Data.Days[1].Price)
}

func TestAvailabilityHandlerCalendarBadDates(t *testing.T) {
	svc := service.NewAvailabilityService(
		&stubPropertyReader{properties: map[string]*models.Property{"prop-1": stubProperty()}},
		&stubRuleLister{}, 366, nil,
	)
	h := NewAvailabilityHandler(svc)

	c, w := newCalendarContext(t, "/properties/prop-1/availability?start_date=01-03-2025&end_date=2025-03-03")
	h.Calendar(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailabilityHandlerCalendarUnknownProperty(t *testing.T) {
	svc := service.NewAvailabilityService(
		&stubPropertyReader{properties: map[string]*models.Property{}},
		&stubRuleLister{}, 366, nil,
	)
	h := NewAvailabilityHandler(svc)

	c, w := newCalendarContext(t, "/properties/prop-1/availability?start_date=2025-03-01&end_date=2025-03-03")
	h.Calendar(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
