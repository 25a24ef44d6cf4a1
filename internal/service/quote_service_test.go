package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostfolio/hostfolio-api/internal/dto"
	"github.com/hostfolio/hostfolio-api/internal/models"
	appErrors "github.com/hostfolio/hostfolio-api/pkg/errors"
)

type mockRuleLister struct {
	rules []models.AvailabilityRule
}

func (m *mockRuleLister) ListByProperty(ctx context.Context, propertyID string) ([]models.AvailabilityRule, error) {
	var out []models.AvailabilityRule
	for _, rule := range m.rules {
		if rule.PropertyID == propertyID {
			out = append(out, rule)
		}
	}
	return out, nil
}

func newQuoteServiceForTest(property models.Property, rules []models.AvailabilityRule) *QuoteService {
	props := &mockPropertyReader{properties: map[string]*models.Property{property.ID: &property}}
	return NewQuoteService(props, &mockRuleLister{rules: rules}, nil, nil, 90)
}

func TestQuoteBaseRateStay(t *testing.T) {
	svc := newQuoteServiceForTest(testProperty(), nil)

	// Monday to Thursday: three nights at the base rate.
	quote, err := svc.Quote(context.Background(), "prop-1", dto.QuoteRequest{
		CheckIn:  "2025-03-03",
		CheckOut: "2025-03-06",
		Guests:   2,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, quote.Nights)
	assert.Equal(t, 300.0, quote.Subtotal)
	assert.Equal(t, 340.0, quote.Total)
	assert.Equal(t, 100.0, quote.NightlyAvg)
	assert.Equal(t, "EUR", quote.Currency)
	require.Len(t, quote.Breakdown, 3)
	assert.Equal(t, "2025-03-05", quote.Breakdown[2].Date)
}

func TestQuoteWeekendSurcharge(t *testing.T) {
	rules := []models.AvailabilityRule{
		weeklyRule("r-weekend", []int{5, 6}, models.RuleActionPrice, floatPtr(300), 5),
	}
	svc := newQuoteServiceForTest(testProperty(), rules)

	// Friday to Sunday: both billed nights carry the weekend rate.
	quote, err := svc.Quote(context.Background(), "prop-1", dto.QuoteRequest{
		CheckIn:  "2025-03-07",
		CheckOut: "2025-03-09",
		Guests:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, 600.0, quote.Subtotal)
}

func TestQuoteDepartureDayNotBilled(t *testing.T) {
	rules := []models.AvailabilityRule{
		// Sundays are blocked, but a Sunday departure only sleeps through
		// Saturday night.
		weeklyRule("r-block", []int{0}, models.RuleActionBlock, nil, 5),
	}
	svc := newQuoteServiceForTest(testProperty(), rules)

	quote, err := svc.Quote(context.Background(), "prop-1", dto.QuoteRequest{
		CheckIn:  "2025-03-07",
		CheckOut: "2025-03-09",
		Guests:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, quote.Nights)
}

func TestQuoteBlockedNightRejected(t *testing.T) {
	rules := []models.AvailabilityRule{
		weeklyRule("r-block", []int{6}, models.RuleActionBlock, nil, 5),
	}
	svc := newQuoteServiceForTest(testProperty(), rules)

	_, err := svc.Quote(context.Background(), "prop-1", dto.QuoteRequest{
		CheckIn:  "2025-03-07",
		CheckOut: "2025-03-09",
		Guests:   2,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDatesUnavailable.Code, appErrors.FromError(err).Code)
}

func TestQuoteMinNightsFromArrivalNight(t *testing.T) {
	from := time.Date(2025, time.December, 20, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	rules := []models.AvailabilityRule{
		seasonalRule("r-holiday", from, until, models.RuleActionMinNights, floatPtr(7), 8),
	}
	svc := newQuoteServiceForTest(testProperty(), rules)

	_, err := svc.Quote(context.Background(), "prop-1", dto.QuoteRequest{
		CheckIn:  "2025-12-22",
		CheckOut: "2025-12-25",
		Guests:   2,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	quote, err := svc.Quote(context.Background(), "prop-1", dto.QuoteRequest{
		CheckIn:  "2025-12-20",
		CheckOut: "2025-12-27",
		Guests:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, quote.MinNights)
}

func TestQuoteMaxNightsCapEnforced(t *testing.T) {
	rules := []models.AvailabilityRule{
		weeklyRule("r-max", []int{0, 1, 2, 3, 4, 5, 6}, models.RuleActionMaxNights, floatPtr(3), 5),
	}
	svc := newQuoteServiceForTest(testProperty(), rules)

	_, err := svc.Quote(context.Background(), "prop-1", dto.QuoteRequest{
		CheckIn:  "2025-03-03",
		CheckOut: "2025-03-08",
		Guests:   2,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestQuoteRejectsReversedDates(t *testing.T) {
	svc := newQuoteServiceForTest(testProperty(), nil)

	_, err := svc.Quote(context.Background(), "prop-1", dto.QuoteRequest{
		CheckIn:  "2025-03-09",
		CheckOut: "2025-03-07",
		Guests:   2,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestQuoteRejectsInactiveProperty(t *testing.T) {
	property := testProperty()
	property.IsActive = false
	svc := newQuoteServiceForTest(property, nil)

	_, err := svc.Quote(context.Background(), "prop-1", dto.QuoteRequest{
		CheckIn:  "2025-03-03",
		CheckOut: "2025-03-05",
		Guests:   2,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestQuoteRejectsTooManyGuests(t *testing.T) {
	svc := newQuoteServiceForTest(testProperty(), nil)

	_, err := svc.Quote(context.Background(), "prop-1", dto.QuoteRequest{
		CheckIn:  "2025-03-03",
		CheckOut: "2025-03-05",
		Guests:   7,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestQuoteUnknownPropertyNotFound(t *testing.T) {
	svc := newQuoteServiceForTest(testProperty(), nil)

	_, err := svc.Quote(context.Background(), "prop-missing", dto.QuoteRequest{
		CheckIn:  "2025-03-03",
		CheckOut: "2025-03-05",
		Guests:   2,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestQuoteNoRateConfigured(t *testing.T) {
	property := testProperty()
	property.BasePrice = nil
	svc := newQuoteServiceForTest(property, nil)

	_, err := svc.Quote(context.Background(), "prop-1", dto.QuoteRequest{
		CheckIn:  "2025-03-03",
		CheckOut: "2025-03-05",
		Guests:   2,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRateIncomplete.Code, appErrors.FromError(err).Code)
}
