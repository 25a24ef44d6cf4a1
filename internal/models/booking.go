package models

import "time"

// BookingStatus captures the booking lifecycle.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking represents a confirmed or cancelled guest stay. CheckIn is the
// first night, CheckOut the departure day (exclusive).
type Booking struct {
	ID          string        `db:"id" json:"id"`
	PropertyID  string        `db:"property_id" json:"property_id"`
	GuestName   string        `db:"guest_name" json:"guest_name"`
	GuestPhone  string        `db:"guest_phone" json:"guest_phone"`
	Guests      int           `db:"guests" json:"guests"`
	CheckIn     time.Time     `db:"check_in" json:"check_in"`
	CheckOut    time.Time     `db:"check_out" json:"check_out"`
	Nights      int           `db:"nights" json:"nights"`
	NightlyRate float64       `db:"nightly_rate" json:"nightly_rate"`
	Subtotal    float64       `db:"subtotal" json:"subtotal"`
	CleaningFee float64       `db:"cleaning_fee" json:"cleaning_fee"`
	Total       float64       `db:"total" json:"total"`
	Currency    string        `db:"currency" json:"currency"`
	Status      BookingStatus `db:"status" json:"status"`
	Source      string        `db:"source" json:"source"`
	CreatedBy   string        `db:"created_by" json:"created_by"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// BookingFilter narrows down booking listings.
type BookingFilter struct {
	PropertyID string
	Status     *BookingStatus
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}
