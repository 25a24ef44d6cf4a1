package dto

import "github.com/hostfolio/hostfolio-api/internal/models"

// AvailabilityDay is the wire form of one per-date decision.
type AvailabilityDay struct {
	Date         string              `json:"date"`
	Status       string              `json:"status"`
	Price        float64             `json:"price"`
	MinNights    int                 `json:"min_nights"`
	MaxNights    int                 `json:"max_nights"`
	AppliedRules models.AppliedRules `json:"applied_rules"`
}

// AvailabilityResponse is the calendar feed for one property.
type AvailabilityResponse struct {
	PropertyID string            `json:"property_id"`
	Currency   string            `json:"currency"`
	Days       []AvailabilityDay `json:"days"`
	Warnings   []string          `json:"warnings,omitempty"`
}
