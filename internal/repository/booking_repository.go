package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hostfolio/hostfolio-api/internal/models"
)

// BookingRepository persists guest bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, property_id, guest_name, guest_phone, guests, check_in, check_out, nights, nightly_rate, subtotal, cleaning_fee, total, currency, status, source, created_by, created_at, updated_at`

// List returns bookings matching the filter.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	where := []string{"property_id = $1"}
	args := []interface{}{filter.PropertyID}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(*filter.Status))
	}
	if filter.From != nil {
		where = append(where, fmt.Sprintf("check_out > $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		where = append(where, fmt.Sprintf("check_in < $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE %s ORDER BY check_in ASC LIMIT %d OFFSET %d`,
		bookingColumns, whereClause, size, offset)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM bookings WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}
	return bookings, total, nil
}

// GetByID fetches a booking.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// Create inserts a booking.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now
	query := `INSERT INTO bookings (id, property_id, guest_name, guest_phone, guests, check_in, check_out, nights, nightly_rate, subtotal, cleaning_fee, total, currency, status, source, created_by, created_at, updated_at)
VALUES (:id, :property_id, :guest_name, :guest_phone, :guests, :check_in, :check_out, :nights, :nightly_rate, :subtotal, :cleaning_fee, :total, :currency, :status, :source, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// UpdateStatus transitions a booking's lifecycle state.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, updatedAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3", status, updatedAt, id); err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	return nil
}

// CountOverlapping counts confirmed bookings intersecting [checkIn, checkOut).
func (r *BookingRepository) CountOverlapping(ctx context.Context, propertyID string, checkIn, checkOut time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM bookings WHERE property_id = $1 AND status = $2 AND check_in < $3 AND check_out > $4`
	var count int
	if err := r.db.GetContext(ctx, &count, query, propertyID, models.BookingStatusConfirmed, checkOut, checkIn); err != nil {
		return 0, fmt.Errorf("count overlapping bookings: %w", err)
	}
	return count, nil
}
