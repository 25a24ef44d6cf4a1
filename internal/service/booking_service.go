package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hostfolio/hostfolio-api/internal/dto"
	"github.com/hostfolio/hostfolio-api/internal/models"
	appErrors "github.com/hostfolio/hostfolio-api/pkg/errors"
)

type bookingRepository interface {
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error)
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	Create(ctx context.Context, booking *models.Booking) error
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus, updatedAt time.Time) error
	CountOverlapping(ctx context.Context, propertyID string, checkIn, checkOut time.Time) (int, error)
}

type bookingQuoter interface {
	Quote(ctx context.Context, propertyID string, req dto.QuoteRequest) (*dto.QuoteResponse, error)
}

type bookingAuditor interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// BookingService creates and manages guest stays. Every create re-runs
// the quote pipeline so the rule engine's veto is authoritative at the
// moment of booking, then also rejects overlaps with confirmed stays.
type BookingService struct {
	repo      bookingRepository
	quotes    bookingQuoter
	audit     bookingAuditor
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBookingService constructs the service.
func NewBookingService(repo bookingRepository, quotes bookingQuoter, audit bookingAuditor, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{repo: repo, quotes: quotes, audit: audit, validator: validate, logger: logger}
}

// CreateBookingRequest describes the create payload.
type CreateBookingRequest struct {
	GuestName  string `json:"guest_name" validate:"required"`
	GuestPhone string `json:"guest_phone"`
	Guests     int    `json:"guests" validate:"required,min=1"`
	CheckIn    string `json:"check_in" validate:"required"`
	CheckOut   string `json:"check_out" validate:"required"`
	Source     string `json:"source"`
	CreatedBy  string `json:"-"`
	IP         string `json:"-"`
	UserAgent  string `json:"-"`
}

// List returns bookings for a property.
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, *models.Pagination, error) {
	if filter.PropertyID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "property_id is required")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return bookings, pagination, nil
}

// Get returns a booking by id.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get booking")
	}
	return booking, nil
}

// Create books a stay after an authoritative availability check.
func (s *BookingService) Create(ctx context.Context, propertyID string, req CreateBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	quote, err := s.quotes.Quote(ctx, propertyID, dto.QuoteRequest{
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
		Guests:   req.Guests,
	})
	if err != nil {
		return nil, err
	}

	checkIn, checkOut, nights, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	overlapping, err := s.repo.CountOverlapping(ctx, propertyID, checkIn, checkOut)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check overlapping bookings")
	}
	if overlapping > 0 {
		return nil, appErrors.Clone(appErrors.ErrDatesUnavailable, "dates overlap an existing booking")
	}

	booking := &models.Booking{
		PropertyID:  propertyID,
		GuestName:   req.GuestName,
		GuestPhone:  req.GuestPhone,
		Guests:      req.Guests,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Nights:      nights,
		NightlyRate: quote.NightlyAvg,
		Subtotal:    quote.Subtotal,
		CleaningFee: quote.CleaningFee,
		Total:       quote.Total,
		Currency:    quote.Currency,
		Status:      models.BookingStatusConfirmed,
		Source:      req.Source,
		CreatedBy:   req.CreatedBy,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}

	s.recordAudit(ctx, models.AuditActionBookingCreate, booking, req.CreatedBy, req.IP, req.UserAgent)
	return booking, nil
}

// Cancel transitions a booking to CANCELLED.
func (s *BookingService) Cancel(ctx context.Context, id, userID, ip, userAgent string) (*models.Booking, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "booking is already cancelled")
	}
	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, booking.ID, models.BookingStatusCancelled, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel booking")
	}
	booking.Status = models.BookingStatusCancelled
	booking.UpdatedAt = now

	s.recordAudit(ctx, models.AuditActionBookingCancel, booking, userID, ip, userAgent)
	return booking, nil
}

func (s *BookingService) recordAudit(ctx context.Context, action string, booking *models.Booking, userID, ip, userAgent string) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{
		"property_id": booking.PropertyID,
		"check_in":    booking.CheckIn.Format("2006-01-02"),
		"check_out":   booking.CheckOut.Format("2006-01-02"),
		"status":      string(booking.Status),
	})
	log := &models.AuditLog{
		Action:     action,
		Resource:   "booking",
		ResourceID: &booking.ID,
		NewValues:  payload,
		IPAddress:  ip,
		UserAgent:  userAgent,
	}
	if userID != "" {
		log.UserID = &userID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record booking audit log", zap.Error(err))
	}
}
