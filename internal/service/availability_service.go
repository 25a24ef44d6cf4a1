package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hostfolio/hostfolio-api/internal/dto"
	"github.com/hostfolio/hostfolio-api/internal/models"
	appErrors "github.com/hostfolio/hostfolio-api/pkg/errors"
)

type availabilityPropertyReader interface {
	GetByID(ctx context.Context, id string) (*models.Property, error)
}

type availabilityRuleLister interface {
	ListByProperty(ctx context.Context, propertyID string) ([]models.AvailabilityRule, error)
}

// AvailabilityService feeds the dashboard calendar. It loads the property
// and its current rule snapshot, then defers entirely to the pure engine;
// no decision is cached between calls.
type AvailabilityService struct {
	properties     availabilityPropertyReader
	rules          availabilityRuleLister
	maxRangeNights int
	logger         *zap.Logger
}

// NewAvailabilityService constructs the service.
func NewAvailabilityService(properties availabilityPropertyReader, rules availabilityRuleLister, maxRangeNights int, logger *zap.Logger) *AvailabilityService {
	if maxRangeNights <= 0 {
		maxRangeNights = 366
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{properties: properties, rules: rules, maxRangeNights: maxRangeNights, logger: logger}
}

// Calendar evaluates every date in the inclusive [from, to] range.
func (s *AvailabilityService) Calendar(ctx context.Context, propertyID string, from, to time.Time) (*dto.AvailabilityResponse, error) {
	start := DateOnly(from)
	end := DateOnly(to)
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be on or after start date")
	}
	if days := int(end.Sub(start)/(24*time.Hour)) + 1; days > s.maxRangeNights {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("range exceeds %d days", s.maxRangeNights))
	}

	property, rules, err := s.load(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	decisions, err := EvaluateRange(*property, rules, start, end)
	if err != nil {
		return nil, err
	}

	resp := &dto.AvailabilityResponse{
		PropertyID: property.ID,
		Currency:   property.Currency,
		Days:       make([]dto.AvailabilityDay, 0, len(decisions)),
	}
	warningSet := map[string]struct{}{}
	for _, decision := range decisions {
		resp.Days = append(resp.Days, dto.AvailabilityDay{
			Date:         decision.Date.Format("2006-01-02"),
			Status:       string(decision.Status),
			Price:        decision.Price,
			MinNights:    decision.MinNights,
			MaxNights:    decision.MaxNights,
			AppliedRules: decision.Applied,
		})
		for _, w := range decision.Warnings {
			warningSet[w] = struct{}{}
		}
	}
	for w := range warningSet {
		resp.Warnings = append(resp.Warnings, w)
	}
	sort.Strings(resp.Warnings)
	if len(resp.Warnings) > 0 {
		s.logger.Warn("misconfigured availability rules", zap.String("property_id", property.ID), zap.Strings("warnings", resp.Warnings))
	}
	return resp, nil
}

func (s *AvailabilityService) load(ctx context.Context, propertyID string) (*models.Property, []models.AvailabilityRule, error) {
	property, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "property not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load property")
	}
	rules, err := s.rules.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rules")
	}
	return property, rules, nil
}
