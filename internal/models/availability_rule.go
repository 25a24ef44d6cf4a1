package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// RuleType determines which pattern fields of an availability rule are meaningful.
type RuleType string

const (
	RuleTypeWeekly   RuleType = "WEEKLY"
	RuleTypeMonthly  RuleType = "MONTHLY"
	RuleTypeSeasonal RuleType = "SEASONAL"
	RuleTypeCustom   RuleType = "CUSTOM"
)

// RuleAction is the effect applied when a rule matches a date.
type RuleAction string

const (
	RuleActionBlock     RuleAction = "BLOCK"
	RuleActionPrice     RuleAction = "PRICE"
	RuleActionMinNights RuleAction = "MIN_NIGHTS"
	RuleActionMaxNights RuleAction = "MAX_NIGHTS"
)

// Priority bounds for availability rules.
const (
	RulePriorityMin = 1
	RulePriorityMax = 10
)

// RulePattern holds the recurrence data for WEEKLY and MONTHLY rules.
// For WEEKLY rules DayIndexes are weekdays (0=Sunday..6=Saturday); for
// MONTHLY rules they are days of the month (1..31). SEASONAL and CUSTOM
// rules ignore the pattern entirely and match on the validity window.
type RulePattern struct {
	DayIndexes []int `json:"day_indexes"`
}

// Value marshals the pattern to JSON for persistence.
func (p RulePattern) Value() (driver.Value, error) {
	if p.DayIndexes == nil {
		p.DayIndexes = []int{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal rule pattern: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the pattern struct.
func (p *RulePattern) Scan(value interface{}) error {
	if value == nil {
		*p = RulePattern{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for RulePattern", value)
	}
	if len(data) == 0 {
		*p = RulePattern{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal rule pattern: %w", err)
	}
	return nil
}

// ContainsDay reports whether the pattern includes the given day index.
func (p RulePattern) ContainsDay(index int) bool {
	for _, d := range p.DayIndexes {
		if d == index {
			return true
		}
	}
	return false
}

// AvailabilityRule is a named, prioritized availability directive attached
// to a single property. Rules are never shared across properties.
type AvailabilityRule struct {
	ID          string      `db:"id" json:"id"`
	PropertyID  string      `db:"property_id" json:"property_id"`
	Name        string      `db:"name" json:"name"`
	Description string      `db:"description" json:"description"`
	Type        RuleType    `db:"type" json:"type"`
	Pattern     RulePattern `db:"pattern" json:"pattern"`
	Action      RuleAction  `db:"action" json:"action"`
	ActionValue *float64    `db:"action_value" json:"action_value,omitempty"`
	ValidFrom   *time.Time  `db:"valid_from" json:"valid_from,omitempty"`
	ValidUntil  *time.Time  `db:"valid_until" json:"valid_until,omitempty"`
	Priority    int         `db:"priority" json:"priority"`
	IsActive    bool        `db:"is_active" json:"is_active"`
	CreatedBy   string      `db:"created_by" json:"created_by"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// RuleFilter narrows down rule listings.
type RuleFilter struct {
	PropertyID string
	Action     *RuleAction
	ActiveOnly bool
	Page       int
	PageSize   int
}
