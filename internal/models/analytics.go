package models

import "time"

// OccupancySummary aggregates booked nights and revenue for one property
// over a reporting period.
type OccupancySummary struct {
	PropertyID    string  `db:"property_id" json:"property_id"`
	PropertyName  string  `db:"property_name" json:"property_name"`
	TotalNights   int     `db:"total_nights" json:"total_nights"`
	BookedNights  int     `db:"booked_nights" json:"booked_nights"`
	OccupancyRate float64 `db:"occupancy_rate" json:"occupancy_rate"`
	Bookings      int     `db:"bookings" json:"bookings"`
	Revenue       float64 `db:"revenue" json:"revenue"`
	Currency      string  `db:"currency" json:"currency"`
}

// OccupancyFilter bounds a summary query.
type OccupancyFilter struct {
	ManagerID  string
	PropertyID string
	From       time.Time
	To         time.Time
}

// RevenuePoint is one bucket of the revenue timeline.
type RevenuePoint struct {
	Month    string  `db:"month" json:"month"`
	Revenue  float64 `db:"revenue" json:"revenue"`
	Bookings int     `db:"bookings" json:"bookings"`
}
