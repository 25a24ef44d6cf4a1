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

func newRuleMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func ruleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "property_id", "name", "description", "type", "pattern", "action", "action_value", "valid_from", "valid_until", "priority", "is_active", "created_by", "created_at", "updated_at"})
}

func TestRuleRepositoryListByPropertyOrdering(t *testing.T) {
	db, mock, cleanup := newRuleMock(t)
	defer cleanup()
	repo := NewRuleRepository(db)

	rows := ruleRows().
		AddRow("r-1", "prop-1", "Weekend pricing", "", "WEEKLY", []byte(`{"day_indexes":[0,6]}`), "PRICE", 150.0, nil, nil, 7, true, "user-1", time.Now(), time.Now()).
		AddRow("r-2", "prop-1", "Monday block", "", "WEEKLY", []byte(`{"day_indexes":[1]}`), "BLOCK", nil, nil, nil, 5, true, "user-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, property_id, name, description, type, pattern, action, action_value, valid_from, valid_until, priority, is_active, created_by, created_at, updated_at FROM availability_rules WHERE property_id = $1 ORDER BY priority DESC, updated_at DESC, id ASC")).
		WithArgs("prop-1").
		WillReturnRows(rows)

	rules, err := repo.ListByProperty(context.Background(), "prop-1")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, []int{0, 6}, rules[0].Pattern.DayIndexes)
	require.NotNil(t, rules[0].ActionValue)
	assert.Equal(t, 150.0, *rules[0].ActionValue)
	assert.Nil(t, rules[1].ActionValue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleRepositoryListFiltersAndPaginates(t *testing.T) {
	db, mock, cleanup := newRuleMock(t)
	defer cleanup()
	repo := NewRuleRepository(db)

	action := models.RuleActionBlock
	rows := ruleRows().
		AddRow("r-2", "prop-1", "Monday block", "", "WEEKLY", []byte(`{"day_indexes":[1]}`), "BLOCK", nil, nil, nil, 5, true, "user-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE property_id = $1 AND action = $2 AND is_active = TRUE ORDER BY priority DESC, updated_at DESC, id ASC LIMIT 10 OFFSET 10")).
		WithArgs("prop-1", "BLOCK").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM availability_rules WHERE property_id = $1 AND action = $2 AND is_active = TRUE")).
		WithArgs("prop-1", "BLOCK").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	rules, total, err := repo.List(context.Background(), models.RuleFilter{
		PropertyID: "prop-1",
		Action:     &action,
		ActiveOnly: true,
		Page:       2,
		PageSize:   10,
	})
	require.NoError(t, err)
	assert.Len(t, rules, 1)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRuleMock(t)
	defer cleanup()
	repo := NewRuleRepository(db)

	mock.ExpectExec("INSERT INTO availability_rules").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rule := &models.AvailabilityRule{
		PropertyID: "prop-1",
		Name:       "Weekend pricing",
		Type:       models.RuleTypeWeekly,
		Pattern:    models.RulePattern{DayIndexes: []int{0, 6}},
		Action:     models.RuleActionPrice,
		Priority:   5,
		IsActive:   true,
		CreatedBy:  "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), rule))
	assert.NotEmpty(t, rule.ID)
	assert.False(t, rule.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleRepositorySetActive(t *testing.T) {
	db, mock, cleanup := newRuleMock(t)
	defer cleanup()
	repo := NewRuleRepository(db)

	ts := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE availability_rules SET is_active = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(false, ts, "r-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetActive(context.Background(), "r-1", false, ts))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRuleMock(t)
	defer cleanup()
	repo := NewRuleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_rules WHERE id = $1")).
		WithArgs("r-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "r-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
