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

func newPropertyMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func propertyRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "manager_id", "name", "address", "city", "country", "currency", "base_price", "cleaning_fee", "default_min_nights", "default_max_nights", "max_guests", "is_active", "created_at", "updated_at"})
}

func TestPropertyRepositoryListByManagerAndSearch(t *testing.T) {
	db, mock, cleanup := newPropertyMock(t)
	defer cleanup()
	repo := NewPropertyRepository(db)

	rows := propertyRows().
		AddRow("prop-1", "mgr-1", "Beach House", "1 Shore Rd", "Lagos", "PT", "EUR", 100.0, 40.0, 2, 30, 6, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND manager_id = $1 AND (name ILIKE $2 OR address ILIKE $2) ORDER BY name ASC LIMIT 50 OFFSET 0")).
		WithArgs("mgr-1", "%beach%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM properties WHERE 1=1 AND manager_id = $1 AND (name ILIKE $2 OR address ILIKE $2)")).
		WithArgs("mgr-1", "%beach%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	properties, total, err := repo.List(context.Background(), models.PropertyFilter{
		ManagerID: "mgr-1",
		Search:    "beach",
	})
	require.NoError(t, err)
	require.Len(t, properties, 1)
	assert.Equal(t, "Beach House", properties[0].Name)
	require.NotNil(t, properties[0].BasePrice)
	assert.Equal(t, 100.0, *properties[0].BasePrice)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPropertyRepositoryGetByIDScansNullBasePrice(t *testing.T) {
	db, mock, cleanup := newPropertyMock(t)
	defer cleanup()
	repo := NewPropertyRepository(db)

	rows := propertyRows().
		AddRow("prop-2", "mgr-1", "City Loft", "2 Main St", "Porto", "PT", "EUR", nil, 0.0, 1, 0, 2, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM properties WHERE id = $1")).
		WithArgs("prop-2").
		WillReturnRows(rows)

	property, err := repo.GetByID(context.Background(), "prop-2")
	require.NoError(t, err)
	assert.Nil(t, property.BasePrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPropertyRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newPropertyMock(t)
	defer cleanup()
	repo := NewPropertyRepository(db)

	mock.ExpectExec("INSERT INTO properties").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	base := 100.0
	property := &models.Property{
		ManagerID:        "mgr-1",
		Name:             "Beach House",
		City:             "Lagos",
		Country:          "PT",
		Currency:         "EUR",
		BasePrice:        &base,
		DefaultMinNights: 2,
		MaxGuests:        6,
		IsActive:         true,
	}
	require.NoError(t, repo.Create(context.Background(), property))
	assert.NotEmpty(t, property.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPropertyRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newPropertyMock(t)
	defer cleanup()
	repo := NewPropertyRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM properties WHERE id = $1")).
		WithArgs("prop-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "prop-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
