package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hostfolio/hostfolio-api/internal/models"
)

// PropertyRepository persists rental properties.
type PropertyRepository struct {
	db *sqlx.DB
}

// NewPropertyRepository constructs a property repository.
func NewPropertyRepository(db *sqlx.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

const propertyColumns = `id, manager_id, name, address, city, country, currency, base_price, cleaning_fee, default_min_nights, default_max_nights, max_guests, is_active, created_at, updated_at`

// List returns properties matching the filter.
func (r *PropertyRepository) List(ctx context.Context, filter models.PropertyFilter) ([]models.Property, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.ManagerID != "" {
		where = append(where, fmt.Sprintf("manager_id = $%d", len(args)+1))
		args = append(args, filter.ManagerID)
	}
	if filter.City != "" {
		where = append(where, fmt.Sprintf("city = $%d", len(args)+1))
		args = append(args, filter.City)
	}
	if filter.Active != nil {
		where = append(where, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR address ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM properties WHERE %s ORDER BY name ASC LIMIT %d OFFSET %d`,
		propertyColumns, whereClause, size, offset)
	var properties []models.Property
	if err := r.db.SelectContext(ctx, &properties, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list properties: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM properties WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count properties: %w", err)
	}
	return properties, total, nil
}

// GetByID fetches a property.
func (r *PropertyRepository) GetByID(ctx context.Context, id string) (*models.Property, error) {
	query := fmt.Sprintf(`SELECT %s FROM properties WHERE id = $1`, propertyColumns)
	var property models.Property
	if err := r.db.GetContext(ctx, &property, query, id); err != nil {
		return nil, err
	}
	return &property, nil
}

// Create inserts a property.
func (r *PropertyRepository) Create(ctx context.Context, property *models.Property) error {
	if property.ID == "" {
		property.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if property.CreatedAt.IsZero() {
		property.CreatedAt = now
	}
	property.UpdatedAt = now
	query := `INSERT INTO properties (id, manager_id, name, address, city, country, currency, base_price, cleaning_fee, default_min_nights, default_max_nights, max_guests, is_active, created_at, updated_at)
VALUES (:id, :manager_id, :name, :address, :city, :country, :currency, :base_price, :cleaning_fee, :default_min_nights, :default_max_nights, :max_guests, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, property); err != nil {
		return fmt.Errorf("create property: %w", err)
	}
	return nil
}

// Update modifies a property.
func (r *PropertyRepository) Update(ctx context.Context, property *models.Property) error {
	property.UpdatedAt = time.Now().UTC()
	query := `UPDATE properties SET name = :name, address = :address, city = :city, country = :country, currency = :currency,
base_price = :base_price, cleaning_fee = :cleaning_fee, default_min_nights = :default_min_nights,
default_max_nights = :default_max_nights, max_guests = :max_guests, is_active = :is_active, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, property); err != nil {
		return fmt.Errorf("update property: %w", err)
	}
	return nil
}

// Delete removes a property.
func (r *PropertyRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM properties WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	return nil
}
