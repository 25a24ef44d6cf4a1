package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/hostfolio/hostfolio-api/internal/models"
	appErrors "github.com/hostfolio/hostfolio-api/pkg/errors"
)

// The availability engine is a set of pure functions over in-memory data.
// It performs no I/O, holds no state and is safe to call concurrently;
// callers fetch the property and its rule snapshot before invoking it.

// DateOnly truncates a timestamp to its calendar date in UTC. All engine
// comparisons operate on calendar dates, never wall-clock instants.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RuleMatches reports whether a rule applies on the given date.
//
// Inactive rules never match. validFrom/validUntil bounds are inclusive
// and checked for every rule type. A malformed rule (empty day set,
// seasonal rule missing a bound) degrades to "never matches" rather than
// failing; write-time validation is the rule store's job.
func RuleMatches(rule models.AvailabilityRule, date time.Time) bool {
	if !rule.IsActive {
		return false
	}

	day := DateOnly(date)
	if rule.ValidFrom != nil && day.Before(DateOnly(*rule.ValidFrom)) {
		return false
	}
	if rule.ValidUntil != nil && day.After(DateOnly(*rule.ValidUntil)) {
		return false
	}

	switch rule.Type {
	case models.RuleTypeSeasonal, models.RuleTypeCustom:
		// A seasonal rule without both bounds is a configuration error;
		// CUSTOM has no pattern format of its own and behaves the same.
		return rule.ValidFrom != nil && rule.ValidUntil != nil
	case models.RuleTypeWeekly:
		return rule.Pattern.ContainsDay(int(day.Weekday()))
	case models.RuleTypeMonthly:
		// Day indexes beyond the month length (31 in April) simply never
		// match: day.Day() is always a real day of the month.
		return rule.Pattern.ContainsDay(day.Day())
	default:
		return false
	}
}

// Evaluate resolves the availability decision for one property and one
// date from the supplied rule snapshot.
//
// Matching rules are grouped by action and one winner is selected per
// group: highest priority first, then most recent updatedAt, then lowest
// id. The ordering is total, so the result never depends on input order.
// A winning BLOCK rule vetoes the date; price and stay bounds then report
// the property defaults for display only.
func Evaluate(property models.Property, rules []models.AvailabilityRule, date time.Time) (models.AvailabilityDecision, error) {
	day := DateOnly(date)
	decision := models.AvailabilityDecision{
		Date:      day,
		Status:    models.AvailabilityStatusAvailable,
		MinNights: defaultMinNights(property),
		MaxNights: property.DefaultMaxNights,
	}

	winners := map[models.RuleAction]models.AvailabilityRule{}
	for _, rule := range rules {
		if rule.PropertyID != property.ID || !rule.IsActive {
			continue
		}
		if warning := ruleConfigWarning(rule); warning != "" {
			decision.Warnings = append(decision.Warnings, warning)
		}
		if !RuleMatches(rule, day) {
			continue
		}
		current, ok := winners[rule.Action]
		if !ok || beats(rule, current) {
			winners[rule.Action] = rule
		}
	}
	sort.Strings(decision.Warnings)

	if block, ok := winners[models.RuleActionBlock]; ok {
		decision.Status = models.AvailabilityStatusBlocked
		decision.Applied.Block = &block.ID
		// Price and stay bounds on a blocked date are informational only,
		// so a missing base price is not a hard error here.
		if property.BasePrice != nil {
			decision.Price = *property.BasePrice
		} else {
			decision.Warnings = append(decision.Warnings, fmt.Sprintf("property %s: no base price configured", property.ID))
		}
		return decision, nil
	}

	price, appliedPrice, warning := resolvePrice(property, winners)
	if warning != "" {
		decision.Warnings = append(decision.Warnings, warning)
	}
	if price == nil {
		return decision, appErrors.Clone(appErrors.ErrRateIncomplete,
			fmt.Sprintf("property %s has no base price and no pricing rule matched", property.ID))
	}
	decision.Price = *price
	decision.Applied.Price = appliedPrice

	if rule, ok := winners[models.RuleActionMinNights]; ok {
		if nights, valid := positiveNights(rule); valid {
			decision.MinNights = nights
			decision.Applied.MinNights = &rule.ID
		} else {
			decision.Warnings = append(decision.Warnings, fmt.Sprintf("rule %s: MIN_NIGHTS requires a positive value", rule.ID))
		}
	}
	if rule, ok := winners[models.RuleActionMaxNights]; ok {
		if nights, valid := positiveNights(rule); valid {
			decision.MaxNights = nights
			decision.Applied.MaxNights = &rule.ID
		} else {
			decision.Warnings = append(decision.Warnings, fmt.Sprintf("rule %s: MAX_NIGHTS requires a positive value", rule.ID))
		}
	}

	return decision, nil
}

// EvaluateRange runs the single-date evaluation for every day in the
// inclusive [from, to] range. Range behaviour is strictly layered on the
// per-date primitive so the two can never diverge.
func EvaluateRange(property models.Property, rules []models.AvailabilityRule, from, to time.Time) ([]models.AvailabilityDecision, error) {
	start := DateOnly(from)
	end := DateOnly(to)
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be on or after start date")
	}

	decisions := make([]models.AvailabilityDecision, 0, end.Sub(start)/(24*time.Hour)+1)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		decision, err := Evaluate(property, rules, day)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, decision)
	}
	return decisions, nil
}

// beats reports whether a wins over b within the same action group.
func beats(a, b models.AvailabilityRule) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.ID < b.ID
}

func resolvePrice(property models.Property, winners map[models.RuleAction]models.AvailabilityRule) (price *float64, applied *string, warning string) {
	if rule, ok := winners[models.RuleActionPrice]; ok {
		if rule.ActionValue != nil && *rule.ActionValue >= 0 {
			value := *rule.ActionValue
			return &value, &rule.ID, ""
		}
		warning = fmt.Sprintf("rule %s: PRICE requires a non-negative value", rule.ID)
	}
	if property.BasePrice != nil {
		value := *property.BasePrice
		return &value, nil, warning
	}
	return nil, nil, warning
}

func positiveNights(rule models.AvailabilityRule) (int, bool) {
	if rule.ActionValue == nil {
		return 0, false
	}
	nights := int(*rule.ActionValue)
	if nights <= 0 || float64(nights) != *rule.ActionValue {
		return 0, false
	}
	return nights, true
}

func defaultMinNights(property models.Property) int {
	if property.DefaultMinNights > 0 {
		return property.DefaultMinNights
	}
	return 1
}

func ruleConfigWarning(rule models.AvailabilityRule) string {
	switch rule.Type {
	case models.RuleTypeWeekly, models.RuleTypeMonthly:
		if len(rule.Pattern.DayIndexes) == 0 {
			return fmt.Sprintf("rule %s: %s rule has an empty day set and never matches", rule.ID, rule.Type)
		}
	case models.RuleTypeSeasonal, models.RuleTypeCustom:
		if rule.ValidFrom == nil || rule.ValidUntil == nil {
			return fmt.Sprintf("rule %s: %s rule is missing a validity bound and never matches", rule.ID, rule.Type)
		}
	}
	return ""
}
