package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hostfolio/hostfolio-api/internal/models"
	appErrors "github.com/hostfolio/hostfolio-api/pkg/errors"
)

type propertyRepository interface {
	List(ctx context.Context, filter models.PropertyFilter) ([]models.Property, int, error)
	GetByID(ctx context.Context, id string) (*models.Property, error)
	Create(ctx context.Context, property *models.Property) error
	Update(ctx context.Context, property *models.Property) error
	Delete(ctx context.Context, id string) error
}

// PropertyService manages rental property records.
type PropertyService struct {
	repo      propertyRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPropertyService constructs the service.
func NewPropertyService(repo propertyRepository, validate *validator.Validate, logger *zap.Logger) *PropertyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PropertyService{repo: repo, validator: validate, logger: logger}
}

// CreatePropertyRequest describes the create payload.
type CreatePropertyRequest struct {
	Name             string   `json:"name" validate:"required"`
	Address          string   `json:"address" validate:"required"`
	City             string   `json:"city" validate:"required"`
	Country          string   `json:"country" validate:"required"`
	Currency         string   `json:"currency" validate:"required,len=3"`
	BasePrice        *float64 `json:"base_price" validate:"omitempty,gte=0"`
	CleaningFee      float64  `json:"cleaning_fee" validate:"gte=0"`
	DefaultMinNights int      `json:"default_min_nights" validate:"gte=0"`
	DefaultMaxNights int      `json:"default_max_nights" validate:"gte=0"`
	MaxGuests        int      `json:"max_guests" validate:"gte=0"`
	ManagerID        string   `json:"-"`
}

// UpdatePropertyRequest describes the update payload.
type UpdatePropertyRequest struct {
	Name             string   `json:"name" validate:"required"`
	Address          string   `json:"address" validate:"required"`
	City             string   `json:"city" validate:"required"`
	Country          string   `json:"country" validate:"required"`
	Currency         string   `json:"currency" validate:"required,len=3"`
	BasePrice        *float64 `json:"base_price" validate:"omitempty,gte=0"`
	CleaningFee      float64  `json:"cleaning_fee" validate:"gte=0"`
	DefaultMinNights int      `json:"default_min_nights" validate:"gte=0"`
	DefaultMaxNights int      `json:"default_max_nights" validate:"gte=0"`
	MaxGuests        int      `json:"max_guests" validate:"gte=0"`
	IsActive         *bool    `json:"is_active"`
}

// List returns properties matching the filter.
func (s *PropertyService) List(ctx context.Context, filter models.PropertyFilter) ([]models.Property, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	properties, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list properties")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return properties, pagination, nil
}

// Get returns a property by id.
func (s *PropertyService) Get(ctx context.Context, id string) (*models.Property, error) {
	property, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "property not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get property")
	}
	return property, nil
}

// Create registers a new property.
func (s *PropertyService) Create(ctx context.Context, req CreatePropertyRequest) (*models.Property, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid property payload")
	}
	property := &models.Property{
		ManagerID:        req.ManagerID,
		Name:             req.Name,
		Address:          req.Address,
		City:             req.City,
		Country:          req.Country,
		Currency:         req.Currency,
		BasePrice:        req.BasePrice,
		CleaningFee:      req.CleaningFee,
		DefaultMinNights: req.DefaultMinNights,
		DefaultMaxNights: req.DefaultMaxNights,
		MaxGuests:        req.MaxGuests,
		IsActive:         true,
	}
	if err := s.repo.Create(ctx, property); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create property")
	}
	return property, nil
}

// Update modifies a property.
func (s *PropertyService) Update(ctx context.Context, id string, req UpdatePropertyRequest) (*models.Property, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid property payload")
	}
	property, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	property.Name = req.Name
	property.Address = req.Address
	property.City = req.City
	property.Country = req.Country
	property.Currency = req.Currency
	property.BasePrice = req.BasePrice
	property.CleaningFee = req.CleaningFee
	property.DefaultMinNights = req.DefaultMinNights
	property.DefaultMaxNights = req.DefaultMaxNights
	property.MaxGuests = req.MaxGuests
	if req.IsActive != nil {
		property.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, property); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update property")
	}
	return property, nil
}

// Delete removes a property.
func (s *PropertyService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete property")
	}
	return nil
}
