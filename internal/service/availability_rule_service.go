package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hostfolio/hostfolio-api/internal/models"
	appErrors "github.com/hostfolio/hostfolio-api/pkg/errors"
)

type ruleRepository interface {
	ListByProperty(ctx context.Context, propertyID string) ([]models.AvailabilityRule, error)
	List(ctx context.Context, filter models.RuleFilter) ([]models.AvailabilityRule, int, error)
	GetByID(ctx context.Context, id string) (*models.AvailabilityRule, error)
	Create(ctx context.Context, rule *models.AvailabilityRule) error
	Update(ctx context.Context, rule *models.AvailabilityRule) error
	SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type rulePropertyReader interface {
	GetByID(ctx context.Context, id string) (*models.Property, error)
}

// RuleService manages the availability rules attached to a property. All
// structural invariants are enforced here at write time; the evaluation
// engine assumes stored rules are well formed and merely degrades when
// they are not.
type RuleService struct {
	repo       ruleRepository
	properties rulePropertyReader
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewRuleService constructs the service.
func NewRuleService(repo ruleRepository, properties rulePropertyReader, validate *validator.Validate, logger *zap.Logger) *RuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleService{repo: repo, properties: properties, validator: validate, logger: logger}
}

// CreateRuleRequest describes the create payload.
type CreateRuleRequest struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	Type        string     `json:"type" validate:"required,oneof=WEEKLY MONTHLY SEASONAL CUSTOM"`
	DayIndexes  []int      `json:"day_indexes"`
	Action      string     `json:"action" validate:"required,oneof=BLOCK PRICE MIN_NIGHTS MAX_NIGHTS"`
	ActionValue *float64   `json:"action_value"`
	ValidFrom   *time.Time `json:"valid_from"`
	ValidUntil  *time.Time `json:"valid_until"`
	Priority    int        `json:"priority" validate:"required,min=1,max=10"`
	IsActive    *bool      `json:"is_active"`
	CreatedBy   string     `json:"-"`
}

// UpdateRuleRequest describes the update payload.
type UpdateRuleRequest struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	Type        string     `json:"type" validate:"required,oneof=WEEKLY MONTHLY SEASONAL CUSTOM"`
	DayIndexes  []int      `json:"day_indexes"`
	Action      string     `json:"action" validate:"required,oneof=BLOCK PRICE MIN_NIGHTS MAX_NIGHTS"`
	ActionValue *float64   `json:"action_value"`
	ValidFrom   *time.Time `json:"valid_from"`
	ValidUntil  *time.Time `json:"valid_until"`
	Priority    int        `json:"priority" validate:"required,min=1,max=10"`
	IsActive    *bool      `json:"is_active"`
}

// List returns rules for a property.
func (s *RuleService) List(ctx context.Context, filter models.RuleFilter) ([]models.AvailabilityRule, *models.Pagination, error) {
	if filter.PropertyID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "property_id is required")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	rules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rules")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rules, pagination, nil
}

// Get returns a rule by id, scoped to the property.
func (s *RuleService) Get(ctx context.Context, propertyID, id string) (*models.AvailabilityRule, error) {
	rule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get rule")
	}
	if rule.PropertyID != propertyID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "rule not found")
	}
	return rule, nil
}

// Create registers a new rule for the property.
func (s *RuleService) Create(ctx context.Context, propertyID string, req CreateRuleRequest) (*models.AvailabilityRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}

	if _, err := s.properties.GetByID(ctx, propertyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "property not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load property")
	}

	rule := &models.AvailabilityRule{
		PropertyID:  propertyID,
		Name:        req.Name,
		Description: req.Description,
		Type:        models.RuleType(strings.ToUpper(req.Type)),
		Pattern:     models.RulePattern{DayIndexes: req.DayIndexes},
		Action:      models.RuleAction(strings.ToUpper(req.Action)),
		ActionValue: req.ActionValue,
		ValidFrom:   req.ValidFrom,
		ValidUntil:  req.ValidUntil,
		Priority:    req.Priority,
		IsActive:    true,
		CreatedBy:   req.CreatedBy,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if err := validateRuleShape(rule); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create rule")
	}
	return rule, nil
}

// Update modifies an existing rule.
func (s *RuleService) Update(ctx context.Context, propertyID, id string, req UpdateRuleRequest) (*models.AvailabilityRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}

	rule, err := s.Get(ctx, propertyID, id)
	if err != nil {
		return nil, err
	}

	rule.Name = req.Name
	rule.Description = req.Description
	rule.Type = models.RuleType(strings.ToUpper(req.Type))
	rule.Pattern = models.RulePattern{DayIndexes: req.DayIndexes}
	rule.Action = models.RuleAction(strings.ToUpper(req.Action))
	rule.ActionValue = req.ActionValue
	rule.ValidFrom = req.ValidFrom
	rule.ValidUntil = req.ValidUntil
	rule.Priority = req.Priority
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if err := validateRuleShape(rule); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update rule")
	}
	return rule, nil
}

// Toggle flips a rule's active flag. Inactive rules are excluded from
// evaluation but retained in storage.
func (s *RuleService) Toggle(ctx context.Context, propertyID, id string, active bool) (*models.AvailabilityRule, error) {
	rule, err := s.Get(ctx, propertyID, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := s.repo.SetActive(ctx, rule.ID, active, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle rule")
	}
	rule.IsActive = active
	rule.UpdatedAt = now
	return rule, nil
}

// Delete removes a rule.
func (s *RuleService) Delete(ctx context.Context, propertyID, id string) error {
	rule, err := s.Get(ctx, propertyID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, rule.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete rule")
	}
	return nil
}

// validateRuleShape enforces the invariants that the evaluation engine
// relies on: pattern day sets for recurring rules, validity windows for
// seasonal ones and a sensible action value per action.
func validateRuleShape(rule *models.AvailabilityRule) error {
	if rule.ValidFrom != nil && rule.ValidUntil != nil && rule.ValidUntil.Before(*rule.ValidFrom) {
		return appErrors.Clone(appErrors.ErrValidation, "valid_until must be on or after valid_from")
	}

	switch rule.Type {
	case models.RuleTypeWeekly:
		if len(rule.Pattern.DayIndexes) == 0 {
			return appErrors.Clone(appErrors.ErrValidation, "WEEKLY rules require at least one day index")
		}
		for _, d := range rule.Pattern.DayIndexes {
			if d < 0 || d > 6 {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("weekday index %d out of range 0..6", d))
			}
		}
	case models.RuleTypeMonthly:
		if len(rule.Pattern.DayIndexes) == 0 {
			return appErrors.Clone(appErrors.ErrValidation, "MONTHLY rules require at least one day index")
		}
		for _, d := range rule.Pattern.DayIndexes {
			if d < 1 || d > 31 {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("month day index %d out of range 1..31", d))
			}
		}
	case models.RuleTypeSeasonal, models.RuleTypeCustom:
		if rule.ValidFrom == nil || rule.ValidUntil == nil {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s rules require both valid_from and valid_until", rule.Type))
		}
		rule.Pattern = models.RulePattern{DayIndexes: []int{}}
	}

	switch rule.Action {
	case models.RuleActionBlock:
		// Matching alone yields the blocked status.
		rule.ActionValue = nil
	case models.RuleActionPrice:
		if rule.ActionValue == nil || *rule.ActionValue < 0 {
			return appErrors.Clone(appErrors.ErrValidation, "PRICE rules require a non-negative action_value")
		}
	case models.RuleActionMinNights, models.RuleActionMaxNights:
		if rule.ActionValue == nil || *rule.ActionValue < 1 || *rule.ActionValue != float64(int(*rule.ActionValue)) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s rules require a positive integer action_value", rule.Action))
		}
	}

	return nil
}
