package models

import "time"

// Property represents a short-term-rental listing managed by a tenant.
type Property struct {
	ID               string    `db:"id" json:"id"`
	ManagerID        string    `db:"manager_id" json:"manager_id"`
	Name             string    `db:"name" json:"name"`
	Address          string    `db:"address" json:"address"`
	City             string    `db:"city" json:"city"`
	Country          string    `db:"country" json:"country"`
	Currency         string    `db:"currency" json:"currency"`
	BasePrice        *float64  `db:"base_price" json:"base_price,omitempty"`
	CleaningFee      float64   `db:"cleaning_fee" json:"cleaning_fee"`
	DefaultMinNights int       `db:"default_min_nights" json:"default_min_nights"`
	DefaultMaxNights int       `db:"default_max_nights" json:"default_max_nights"` // 0 = no cap
	MaxGuests        int       `db:"max_guests" json:"max_guests"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// PropertyFilter captures filtering criteria for listing properties.
type PropertyFilter struct {
	ManagerID string
	City      string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
}
