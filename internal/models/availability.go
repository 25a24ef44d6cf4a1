package models

import "time"

// AvailabilityStatus is the resolved state of a property on a given date.
type AvailabilityStatus string

const (
	AvailabilityStatusAvailable AvailabilityStatus = "AVAILABLE"
	AvailabilityStatusBlocked   AvailabilityStatus = "BLOCKED"
)

// AppliedRules records which rule won each action category, for traceability.
// A nil entry means the category resolved from the property defaults.
type AppliedRules struct {
	Block     *string `json:"block,omitempty"`
	Price     *string `json:"price,omitempty"`
	MinNights *string `json:"min_nights,omitempty"`
	MaxNights *string `json:"max_nights,omitempty"`
}

// IDs returns the winning rule ids in a stable category order.
func (a AppliedRules) IDs() []string {
	ids := make([]string, 0, 4)
	for _, id := range []*string{a.Block, a.Price, a.MinNights, a.MaxNights} {
		if id != nil {
			ids = append(ids, *id)
		}
	}
	return ids
}

// AvailabilityDecision is the evaluator output for one property and one
// date. It is computed per request and never persisted.
type AvailabilityDecision struct {
	Date      time.Time          `json:"date"`
	Status    AvailabilityStatus `json:"status"`
	Price     float64            `json:"price"`
	MinNights int                `json:"min_nights"`
	MaxNights int                `json:"max_nights"` // 0 = no cap
	Applied   AppliedRules       `json:"applied_rules"`
	Warnings  []string           `json:"warnings,omitempty"`
}
