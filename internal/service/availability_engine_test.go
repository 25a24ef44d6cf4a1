package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostfolio/hostfolio-api/internal/models"
	appErrors "github.com/hostfolio/hostfolio-api/pkg/errors"
)

func floatPtr(v float64) *float64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testProperty() models.Property {
	return models.Property{
		ID:               "prop-1",
		ManagerID:        "mgr-1",
		Name:             "Beach House",
		Currency:         "EUR",
		BasePrice:        floatPtr(100),
		CleaningFee:      40,
		DefaultMinNights: 2,
		DefaultMaxNights: 30,
		MaxGuests:        6,
		IsActive:         true,
	}
}

func weeklyRule(id string, days []int, action models.RuleAction, value *float64, priority int) models.AvailabilityRule {
	return models.AvailabilityRule{
		ID:          id,
		PropertyID:  "prop-1",
		Name:        "weekly " + id,
		Type:        models.RuleTypeWeekly,
		Pattern:     models.RulePattern{DayIndexes: days},
		Action:      action,
		ActionValue: value,
		Priority:    priority,
		IsActive:    true,
		UpdatedAt:   day(2025, time.January, 1),
	}
}

func seasonalRule(id string, from, until time.Time, action models.RuleAction, value *float64, priority int) models.AvailabilityRule {
	return models.AvailabilityRule{
		ID:          id,
		PropertyID:  "prop-1",
		Name:        "seasonal " + id,
		Type:        models.RuleTypeSeasonal,
		Action:      action,
		ActionValue: value,
		ValidFrom:   timePtr(from),
		ValidUntil:  timePtr(until),
		Priority:    priority,
		IsActive:    true,
		UpdatedAt:   day(2025, time.January, 1),
	}
}

func TestEvaluateNoRulesUsesPropertyDefaults(t *testing.T) {
	property := testProperty()

	decision, err := Evaluate(property, nil, day(2025, time.March, 3))
	require.NoError(t, err)

	assert.Equal(t, models.AvailabilityStatusAvailable, decision.Status)
	assert.Equal(t, 100.0, decision.Price)
	assert.Equal(t, 2, decision.MinNights)
	assert.Equal(t, 30, decision.MaxNights)
	assert.Nil(t, decision.Applied.Price)
	assert.Empty(t, decision.Warnings)
}

func TestEvaluateDefaultMinNightsFloorsAtOne(t *testing.T) {
	property := testProperty()
	property.DefaultMinNights = 0

	decision, err := Evaluate(property, nil, day(2025, time.March, 3))
	require.NoError(t, err)
	assert.Equal(t, 1, decision.MinNights)
}

func TestEvaluateWeekendPricing(t *testing.T) {
	property := testProperty()
	// Saturdays and Sundays cost 300 instead of the base 100.
	rules := []models.AvailabilityRule{
		weeklyRule("r-weekend", []int{0, 6}, models.RuleActionPrice, floatPtr(300), 5),
	}

	saturday, err := Evaluate(property, rules, day(2025, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, 300.0, saturday.Price)
	require.NotNil(t, saturday.Applied.Price)
	assert.Equal(t, "r-weekend", *saturday.Applied.Price)

	monday, err := Evaluate(property, rules, day(2025, time.March, 3))
	require.NoError(t, err)
	assert.Equal(t, 100.0, monday.Price)
	assert.Nil(t, monday.Applied.Price)
}

func TestEvaluateBlockVetoesPricing(t *testing.T) {
	property := testProperty()
	rules := []models.AvailabilityRule{
		weeklyRule("r-price", []int{0}, models.RuleActionPrice, floatPtr(300), 9),
		weeklyRule("r-block", []int{0}, models.RuleActionBlock, nil, 1),
	}

	// 2025-03-02 is a Sunday: both rules match, BLOCK wins regardless of
	// the PRICE rule's higher priority.
	decision, err := Evaluate(property, rules, day(2025, time.March, 2))
	require.NoError(t, err)

	assert.Equal(t, models.AvailabilityStatusBlocked, decision.Status)
	require.NotNil(t, decision.Applied.Block)
	assert.Equal(t, "r-block", *decision.Applied.Block)
	assert.Nil(t, decision.Applied.Price)
	assert.Equal(t, 100.0, decision.Price)
}

func TestEvaluateBlockedDateWithoutBasePriceWarnsOnly(t *testing.T) {
	property := testProperty()
	property.BasePrice = nil
	rules := []models.AvailabilityRule{
		weeklyRule("r-block", []int{0}, models.RuleActionBlock, nil, 5),
	}

	decision, err := Evaluate(property, rules, day(2025, time.March, 2))
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityStatusBlocked, decision.Status)
	assert.Equal(t, 0.0, decision.Price)
	assert.NotEmpty(t, decision.Warnings)
}

func TestEvaluatePriorityResolvesPriceConflict(t *testing.T) {
	property := testProperty()
	rules := []models.AvailabilityRule{
		weeklyRule("r-low", []int{6}, models.RuleActionPrice, floatPtr(200), 5),
		weeklyRule("r-high", []int{6}, models.RuleActionPrice, floatPtr(350), 7),
	}

	decision, err := Evaluate(property, rules, day(2025, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, 350.0, decision.Price)
	assert.Equal(t, "r-high", *decision.Applied.Price)

	// Input order must not change the outcome.
	reversed := []models.AvailabilityRule{rules[1], rules[0]}
	again, err := Evaluate(property, reversed, day(2025, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, decision, again)
}

func TestEvaluateTieBreakOnUpdatedAtThenID(t *testing.T) {
	property := testProperty()
	older := weeklyRule("r-a", []int{6}, models.RuleActionPrice, floatPtr(200), 5)
	older.UpdatedAt = day(2025, time.January, 1)
	newer := weeklyRule("r-b", []int{6}, models.RuleActionPrice, floatPtr(250), 5)
	newer.UpdatedAt = day(2025, time.February, 1)

	decision, err := Evaluate(property, []models.AvailabilityRule{older, newer}, day(2025, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, "r-b", *decision.Applied.Price)

	// Same priority and timestamp: the lexicographically smaller ID wins.
	newer.UpdatedAt = older.UpdatedAt
	decision, err = Evaluate(property, []models.AvailabilityRule{newer, older}, day(2025, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, "r-a", *decision.Applied.Price)
}

func TestEvaluateMonthlyDayIndexes(t *testing.T) {
	property := testProperty()
	rule := models.AvailabilityRule{
		ID:         "r-31st",
		PropertyID: "prop-1",
		Type:       models.RuleTypeMonthly,
		Pattern:    models.RulePattern{DayIndexes: []int{31}},
		Action:     models.RuleActionBlock,
		Priority:   5,
		IsActive:   true,
	}

	march, err := Evaluate(property, []models.AvailabilityRule{rule}, day(2025, time.March, 31))
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityStatusBlocked, march.Status)

	// April has no 31st; the rule can never fire there.
	april, err := Evaluate(property, []models.AvailabilityRule{rule}, day(2025, time.April, 30))
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityStatusAvailable, april.Status)
}

func TestEvaluateSeasonalMinNights(t *testing.T) {
	property := testProperty()
	rules := []models.AvailabilityRule{
		seasonalRule("r-holiday", day(2025, time.December, 20), day(2026, time.January, 5), models.RuleActionMinNights, floatPtr(7), 8),
	}

	inside, err := Evaluate(property, rules, day(2025, time.December, 25))
	require.NoError(t, err)
	assert.Equal(t, 7, inside.MinNights)
	require.NotNil(t, inside.Applied.MinNights)
	assert.Equal(t, "r-holiday", *inside.Applied.MinNights)

	// Bounds are inclusive on both ends.
	first, err := Evaluate(property, rules, day(2025, time.December, 20))
	require.NoError(t, err)
	assert.Equal(t, 7, first.MinNights)
	last, err := Evaluate(property, rules, day(2026, time.January, 5))
	require.NoError(t, err)
	assert.Equal(t, 7, last.MinNights)

	outside, err := Evaluate(property, rules, day(2026, time.January, 6))
	require.NoError(t, err)
	assert.Equal(t, 2, outside.MinNights)
	assert.Nil(t, outside.Applied.MinNights)
}

func TestEvaluateCustomBehavesLikeSeasonal(t *testing.T) {
	property := testProperty()
	rule := seasonalRule("r-custom", day(2025, time.June, 1), day(2025, time.June, 10), models.RuleActionBlock, nil, 5)
	rule.Type = models.RuleTypeCustom

	inside, err := Evaluate(property, []models.AvailabilityRule{rule}, day(2025, time.June, 5))
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityStatusBlocked, inside.Status)

	outside, err := Evaluate(property, []models.AvailabilityRule{rule}, day(2025, time.June, 11))
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityStatusAvailable, outside.Status)
}

func TestEvaluateSeasonalMissingBoundNeverMatches(t *testing.T) {
	property := testProperty()
	rule := seasonalRule("r-open", day(2025, time.June, 1), day(2025, time.June, 10), models.RuleActionBlock, nil, 5)
	rule.ValidUntil = nil

	decision, err := Evaluate(property, []models.AvailabilityRule{rule}, day(2025, time.June, 5))
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityStatusAvailable, decision.Status)
	require.Len(t, decision.Warnings, 1)
	assert.Contains(t, decision.Warnings[0], "missing a validity bound")
}

func TestEvaluateWeeklyEmptyDaySetNeverMatches(t *testing.T) {
	property := testProperty()
	rule := weeklyRule("r-empty", nil, models.RuleActionBlock, nil, 5)

	decision, err := Evaluate(property, []models.AvailabilityRule{rule}, day(2025, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityStatusAvailable, decision.Status)
	require.Len(t, decision.Warnings, 1)
	assert.Contains(t, decision.Warnings[0], "empty day set")
}

func TestEvaluateIgnoresInactiveAndForeignRules(t *testing.T) {
	property := testProperty()
	inactive := weeklyRule("r-off", []int{6}, models.RuleActionBlock, nil, 9)
	inactive.IsActive = false
	foreign := weeklyRule("r-other", []int{6}, models.RuleActionBlock, nil, 9)
	foreign.PropertyID = "prop-2"

	decision, err := Evaluate(property, []models.AvailabilityRule{inactive, foreign}, day(2025, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityStatusAvailable, decision.Status)
	assert.Empty(t, decision.Warnings)
}

func TestEvaluateNoBasePriceAndNoPricingRuleFails(t *testing.T) {
	property := testProperty()
	property.BasePrice = nil

	_, err := Evaluate(property, nil, day(2025, time.March, 1))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrRateIncomplete.Code, appErr.Code)
}

func TestEvaluateNoBasePriceRescuedByPricingRule(t *testing.T) {
	property := testProperty()
	property.BasePrice = nil
	rules := []models.AvailabilityRule{
		weeklyRule("r-sat", []int{6}, models.RuleActionPrice, floatPtr(180), 5),
	}

	decision, err := Evaluate(property, rules, day(2025, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, 180.0, decision.Price)
}

func TestEvaluateInvalidPriceValueFallsBackToBase(t *testing.T) {
	property := testProperty()
	rules := []models.AvailabilityRule{
		weeklyRule("r-neg", []int{6}, models.RuleActionPrice, floatPtr(-50), 5),
	}

	decision, err := Evaluate(property, rules, day(2025, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, 100.0, decision.Price)
	assert.Nil(t, decision.Applied.Price)
	require.Len(t, decision.Warnings, 1)
	assert.Contains(t, decision.Warnings[0], "non-negative")
}

func TestEvaluateInvalidNightBoundsKeepDefaults(t *testing.T) {
	property := testProperty()
	rules := []models.AvailabilityRule{
		weeklyRule("r-min", []int{6}, models.RuleActionMinNights, floatPtr(2.5), 5),
		weeklyRule("r-max", []int{6}, models.RuleActionMaxNights, nil, 5),
	}

	decision, err := Evaluate(property, rules, day(2025, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, decision.MinNights)
	assert.Equal(t, 30, decision.MaxNights)
	assert.Len(t, decision.Warnings, 2)
}

func TestEvaluateRangeSingleDayMatchesEvaluate(t *testing.T) {
	property := testProperty()
	rules := []models.AvailabilityRule{
		weeklyRule("r-weekend", []int{0, 6}, models.RuleActionPrice, floatPtr(300), 5),
	}
	target := day(2025, time.March, 1)

	single, err := Evaluate(property, rules, target)
	require.NoError(t, err)

	ranged, err := EvaluateRange(property, rules, target, target)
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, single, ranged[0])
}

func TestEvaluateRangeInclusiveAndOrdered(t *testing.T) {
	property := testProperty()

	decisions, err := EvaluateRange(property, nil, day(2025, time.March, 1), day(2025, time.March, 7))
	require.NoError(t, err)
	require.Len(t, decisions, 7)
	for i, decision := range decisions {
		assert.Equal(t, day(2025, time.March, 1+i), decision.Date)
	}
}

func TestEvaluateRangeRejectsReversedBounds(t *testing.T) {
	property := testProperty()

	_, err := EvaluateRange(property, nil, day(2025, time.March, 7), day(2025, time.March, 1))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestRuleMatchesTruncatesTimestamps(t *testing.T) {
	rule := weeklyRule("r-sat", []int{6}, models.RuleActionBlock, nil, 5)

	// A late-evening instant on Saturday still matches.
	assert.True(t, RuleMatches(rule, time.Date(2025, time.March, 1, 23, 45, 0, 0, time.UTC)))
	assert.False(t, RuleMatches(rule, time.Date(2025, time.March, 2, 0, 15, 0, 0, time.UTC)))
}

func TestRuleMatchesUnknownTypeNeverMatches(t *testing.T) {
	rule := weeklyRule("r-odd", []int{6}, models.RuleActionBlock, nil, 5)
	rule.Type = models.RuleType("YEARLY")

	assert.False(t, RuleMatches(rule, day(2025, time.March, 1)))
}
