package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostfolio/hostfolio-api/internal/models"
	appErrors "github.com/hostfolio/hostfolio-api/pkg/errors"
)

type mockBookingRepo struct {
	bookings    map[string]*models.Booking
	overlapping int
}

func (m *mockBookingRepo) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	var out []models.Booking
	for _, b := range m.bookings {
		if b.PropertyID == filter.PropertyID {
			out = append(out, *b)
		}
	}
	return out, len(out), nil
}

func (m *mockBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	if b, ok := m.bookings[id]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	if m.bookings == nil {
		m.bookings = make(map[string]*models.Booking)
	}
	if booking.ID == "" {
		booking.ID = "bk-1"
	}
	m.bookings[booking.ID] = booking
	return nil
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, updatedAt time.Time) error {
	if b, ok := m.bookings[id]; ok {
		b.Status = status
		b.UpdatedAt = updatedAt
	}
	return nil
}

func (m *mockBookingRepo) CountOverlapping(ctx context.Context, propertyID string, checkIn, checkOut time.Time) (int, error) {
	return m.overlapping, nil
}

type mockAuditor struct {
	logs []*models.AuditLog
}

func (m *mockAuditor) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func newBookingServiceForTest(rules []models.AvailabilityRule) (*BookingService, *mockBookingRepo, *mockAuditor) {
	repo := &mockBookingRepo{bookings: map[string]*models.Booking{}}
	audit := &mockAuditor{}
	quotes := newQuoteServiceForTest(testProperty(), rules)
	return NewBookingService(repo, quotes, audit, nil, nil), repo, audit
}

func TestBookingCreateCarriesQuotePricing(t *testing.T) {
	svc, repo, audit := newBookingServiceForTest(nil)

	booking, err := svc.Create(context.Background(), "prop-1", CreateBookingRequest{
		GuestName: "Ana Silva",
		Guests:    2,
		CheckIn:   "2025-03-03",
		CheckOut:  "2025-03-06",
		Source:    "direct",
		CreatedBy: "user-1",
	})
	require.NoError(t, err)

	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, 3, booking.Nights)
	assert.Equal(t, 300.0, booking.Subtotal)
	assert.Equal(t, 40.0, booking.CleaningFee)
	assert.Equal(t, 340.0, booking.Total)
	assert.Equal(t, "EUR", booking.Currency)
	assert.Contains(t, repo.bookings, booking.ID)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionBookingCreate, audit.logs[0].Action)
}

func TestBookingCreateBlockedDatesRejected(t *testing.T) {
	rules := []models.AvailabilityRule{
		weeklyRule("r-block", []int{1}, models.RuleActionBlock, nil, 5),
	}
	svc, repo, _ := newBookingServiceForTest(rules)

	_, err := svc.Create(context.Background(), "prop-1", CreateBookingRequest{
		GuestName: "Ana Silva",
		Guests:    2,
		CheckIn:   "2025-03-03",
		CheckOut:  "2025-03-06",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDatesUnavailable.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.bookings)
}

func TestBookingCreateOverlapRejected(t *testing.T) {
	svc, repo, _ := newBookingServiceForTest(nil)
	repo.overlapping = 1

	_, err := svc.Create(context.Background(), "prop-1", CreateBookingRequest{
		GuestName: "Ana Silva",
		Guests:    2,
		CheckIn:   "2025-03-03",
		CheckOut:  "2025-03-06",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDatesUnavailable.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.bookings)
}

func TestBookingCreateValidationFailure(t *testing.T) {
	svc, _, _ := newBookingServiceForTest(nil)

	_, err := svc.Create(context.Background(), "prop-1", CreateBookingRequest{
		Guests:   2,
		CheckIn:  "2025-03-03",
		CheckOut: "2025-03-06",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookingCancel(t *testing.T) {
	svc, repo, audit := newBookingServiceForTest(nil)
	repo.bookings["bk-1"] = &models.Booking{
		ID:         "bk-1",
		PropertyID: "prop-1",
		Status:     models.BookingStatusConfirmed,
		CheckIn:    day(2025, time.March, 3),
		CheckOut:   day(2025, time.March, 6),
	}

	booking, err := svc.Cancel(context.Background(), "bk-1", "user-2", "10.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, booking.Status)
	assert.Equal(t, models.BookingStatusCancelled, repo.bookings["bk-1"].Status)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionBookingCancel, audit.logs[0].Action)
	require.NotNil(t, audit.logs[0].UserID)
	assert.Equal(t, "user-2", *audit.logs[0].UserID)
}

func TestBookingCancelAlreadyCancelled(t *testing.T) {
	svc, repo, _ := newBookingServiceForTest(nil)
	repo.bookings["bk-1"] = &models.Booking{
		ID:         "bk-1",
		PropertyID: "prop-1",
		Status:     models.BookingStatusCancelled,
	}

	_, err := svc.Cancel(context.Background(), "bk-1", "user-2", "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBookingGetNotFound(t *testing.T) {
	svc, _, _ := newBookingServiceForTest(nil)

	_, err := svc.Get(context.Background(), "bk-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
