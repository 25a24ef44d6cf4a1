package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostfolio/hostfolio-api/internal/models"
)

func newBookingMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func bookingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "property_id", "guest_name", "guest_phone", "guests", "check_in", "check_out", "nights", "nightly_rate", "subtotal", "cleaning_fee", "total", "currency", "status", "source", "created_by", "created_at", "updated_at"})
}

func TestBookingRepositoryListWithWindow(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	from := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)
	rows := bookingRows().
		AddRow("bk-1", "prop-1", "Ada Guest", "+3112345", 2, from.AddDate(0, 0, 2), from.AddDate(0, 0, 5), 3, 100.0, 300.0, 40.0, 340.0, "EUR", "CONFIRMED", "direct", "user-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE property_id = $1 AND check_out > $2 AND check_in < $3 ORDER BY check_in ASC LIMIT 50 OFFSET 0")).
		WithArgs("prop-1", from, to).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings WHERE property_id = $1 AND check_out > $2 AND check_in < $3")).
		WithArgs("prop-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	bookings, total, err := repo.List(context.Background(), models.BookingFilter{
		PropertyID: "prop-1",
		From:       &from,
		To:         &to,
	})
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "Ada Guest", bookings[0].GuestName)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	booking := &models.Booking{
		PropertyID:  "prop-1",
		GuestName:   "Ada Guest",
		Guests:      2,
		CheckIn:     time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
		CheckOut:    time.Date(2025, time.March, 6, 0, 0, 0, 0, time.UTC),
		Nights:      3,
		NightlyRate: 100,
		Subtotal:    300,
		CleaningFee: 40,
		Total:       340,
		Currency:    "EUR",
		Status:      models.BookingStatusConfirmed,
		CreatedBy:   "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), booking))
	assert.NotEmpty(t, booking.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCountOverlapping(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	checkIn := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2025, time.March, 6, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings WHERE property_id = $1 AND status = $2 AND check_in < $3 AND check_out > $4")).
		WithArgs("prop-1", models.BookingStatusConfirmed, checkOut, checkIn).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountOverlapping(context.Background(), "prop-1", checkIn, checkOut)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	ts := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(models.BookingStatusCancelled, ts, "bk-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "bk-1", models.BookingStatusCancelled, ts))
	assert.NoError(t, mock.ExpectationsWereMet())
}
