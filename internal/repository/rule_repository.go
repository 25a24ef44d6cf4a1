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

// RuleRepository persists availability rules.
type RuleRepository struct {
	db *sqlx.DB
}

// NewRuleRepository constructs a rule repository.
func NewRuleRepository(db *sqlx.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

const ruleColumns = `id, property_id, name, description, type, pattern, action, action_value, valid_from, valid_until, priority, is_active, created_by, created_at, updated_at`

// ListByProperty returns every rule attached to a property, inactive ones
// included; the evaluator filters activity itself.
func (r *RuleRepository) ListByProperty(ctx context.Context, propertyID string) ([]models.AvailabilityRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM availability_rules WHERE property_id = $1 ORDER BY priority DESC, updated_at DESC, id ASC`, ruleColumns)
	var rules []models.AvailabilityRule
	if err := r.db.SelectContext(ctx, &rules, query, propertyID); err != nil {
		return nil, fmt.Errorf("list rules for property %s: %w", propertyID, err)
	}
	return rules, nil
}

// List returns rules matching the filter with pagination.
func (r *RuleRepository) List(ctx context.Context, filter models.RuleFilter) ([]models.AvailabilityRule, int, error) {
	where := []string{"property_id = $1"}
	args := []interface{}{filter.PropertyID}
	if filter.Action != nil {
		where = append(where, fmt.Sprintf("action = $%d", len(args)+1))
		args = append(args, string(*filter.Action))
	}
	if filter.ActiveOnly {
		where = append(where, "is_active = TRUE")
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

	query := fmt.Sprintf(`SELECT %s FROM availability_rules WHERE %s ORDER BY priority DESC, updated_at DESC, id ASC LIMIT %d OFFSET %d`,
		ruleColumns, whereClause, size, offset)
	var rules []models.AvailabilityRule
	if err := r.db.SelectContext(ctx, &rules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM availability_rules WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count rules: %w", err)
	}
	return rules, total, nil
}

// GetByID fetches a single rule.
func (r *RuleRepository) GetByID(ctx context.Context, id string) (*models.AvailabilityRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM availability_rules WHERE id = $1`, ruleColumns)
	var rule models.AvailabilityRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		return nil, err
	}
	return &rule, nil
}

// Create inserts a rule.
func (r *RuleRepository) Create(ctx context.Context, rule *models.AvailabilityRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now
	query := `INSERT INTO availability_rules (id, property_id, name, description, type, pattern, action, action_value, valid_from, valid_until, priority, is_active, created_by, created_at, updated_at)
VALUES (:id, :property_id, :name, :description, :type, :pattern, :action, :action_value, :valid_from, :valid_until, :priority, :is_active, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	return nil
}

// Update modifies a rule.
func (r *RuleRepository) Update(ctx context.Context, rule *models.AvailabilityRule) error {
	rule.UpdatedAt = time.Now().UTC()
	query := `UPDATE availability_rules SET name = :name, description = :description, type = :type, pattern = :pattern,
action = :action, action_value = :action_value, valid_from = :valid_from, valid_until = :valid_until,
priority = :priority, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	return nil
}

// SetActive toggles a rule without touching its other fields.
func (r *RuleRepository) SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE availability_rules SET is_active = $1, updated_at = $2 WHERE id = $3", active, updatedAt, id); err != nil {
		return fmt.Errorf("toggle rule %s: %w", id, err)
	}
	return nil
}

// Delete removes a rule.
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM availability_rules WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return nil
}
