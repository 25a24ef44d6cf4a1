package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hostfolio/hostfolio-api/internal/dto"
	"github.com/hostfolio/hostfolio-api/internal/models"
	appErrors "github.com/hostfolio/hostfolio-api/pkg/errors"
)

// QuoteService prices prospective stays. A BLOCKED night anywhere in the
// stay is an authoritative veto; base pricing is never substituted for a
// blocked date.
type QuoteService struct {
	properties    availabilityPropertyReader
	rules         availabilityRuleLister
	validator     *validator.Validate
	logger        *zap.Logger
	maxStayNights int
}

// NewQuoteService constructs the service.
func NewQuoteService(properties availabilityPropertyReader, rules availabilityRuleLister, validate *validator.Validate, logger *zap.Logger, maxStayNights int) *QuoteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxStayNights <= 0 {
		maxStayNights = 90
	}
	return &QuoteService{properties: properties, rules: rules, validator: validate, logger: logger, maxStayNights: maxStayNights}
}

// Quote resolves a price quote for the requested stay.
func (s *QuoteService) Quote(ctx context.Context, propertyID string, req dto.QuoteRequest) (*dto.QuoteResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quote payload")
	}
	checkIn, checkOut, nights, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	if nights > s.maxStayNights {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("stay exceeds %d nights", s.maxStayNights))
	}

	property, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "property not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load property")
	}
	if !property.IsActive {
		return nil, appErrors.Clone(appErrors.ErrConflict, "property is not accepting bookings")
	}
	if property.MaxGuests > 0 && req.Guests > property.MaxGuests {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("property sleeps at most %d guests", property.MaxGuests))
	}

	rules, err := s.rules.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rules")
	}

	// The last billed night is the day before departure.
	decisions, err := EvaluateRange(*property, rules, checkIn, checkOut.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}

	resp := &dto.QuoteResponse{
		PropertyID:  property.ID,
		CheckIn:     checkIn.Format("2006-01-02"),
		CheckOut:    checkOut.Format("2006-01-02"),
		Nights:      nights,
		Currency:    property.Currency,
		CleaningFee: property.CleaningFee,
		Breakdown:   make([]dto.QuoteNight, 0, len(decisions)),
	}

	warningSet := map[string]struct{}{}
	for _, decision := range decisions {
		if decision.Status == models.AvailabilityStatusBlocked {
			return nil, appErrors.Clone(appErrors.ErrDatesUnavailable,
				fmt.Sprintf("%s is blocked", decision.Date.Format("2006-01-02")))
		}
		resp.Subtotal += decision.Price
		resp.Breakdown = append(resp.Breakdown, dto.QuoteNight{Date: decision.Date.Format("2006-01-02"), Price: decision.Price})
		for _, w := range decision.Warnings {
			warningSet[w] = struct{}{}
		}
	}

	// Stay-length bounds are taken from the arrival night's decision.
	arrival := decisions[0]
	resp.MinNights = arrival.MinNights
	resp.MaxNights = arrival.MaxNights
	if nights < arrival.MinNights {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("stay requires at least %d nights", arrival.MinNights))
	}
	if arrival.MaxNights > 0 && nights > arrival.MaxNights {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("stay allows at most %d nights", arrival.MaxNights))
	}

	resp.Total = resp.Subtotal + resp.CleaningFee
	resp.NightlyAvg = resp.Subtotal / float64(nights)
	for w := range warningSet {
		resp.Warnings = append(resp.Warnings, w)
	}
	sort.Strings(resp.Warnings)
	return resp, nil
}

// parseStay validates and normalises a check-in/check-out pair.
func parseStay(checkInRaw, checkOutRaw string) (checkIn, checkOut time.Time, nights int, err error) {
	checkIn, err = time.Parse("2006-01-02", checkInRaw)
	if err != nil {
		return time.Time{}, time.Time{}, 0, appErrors.Clone(appErrors.ErrValidation, "invalid check_in, expected YYYY-MM-DD")
	}
	checkOut, err = time.Parse("2006-01-02", checkOutRaw)
	if err != nil {
		return time.Time{}, time.Time{}, 0, appErrors.Clone(appErrors.ErrValidation, "invalid check_out, expected YYYY-MM-DD")
	}
	checkIn = DateOnly(checkIn)
	checkOut = DateOnly(checkOut)
	if !checkOut.After(checkIn) {
		return time.Time{}, time.Time{}, 0, appErrors.Clone(appErrors.ErrValidation, "check_out must be after check_in")
	}
	nights = int(checkOut.Sub(checkIn) / (24 * time.Hour))
	return checkIn, checkOut, nights, nil
}
