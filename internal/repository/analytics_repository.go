package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/hostfolio/hostfolio-api/internal/models"
)

// AnalyticsRepository aggregates booking data for the dashboard.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository constructs an analytics repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// OccupancySummary aggregates booked nights and revenue per property over
// the filter period. Nights are clamped to the period bounds so stays
// straddling the edges count only their in-period portion.
func (r *AnalyticsRepository) OccupancySummary(ctx context.Context, filter models.OccupancyFilter) ([]models.OccupancySummary, error) {
	where := []string{"p.manager_id = $1"}
	args := []interface{}{filter.ManagerID, filter.From, filter.To}
	if filter.PropertyID != "" {
		where = append(where, fmt.Sprintf("p.id = $%d", len(args)+1))
		args = append(args, filter.PropertyID)
	}
	whereClause := strings.Join(where, " AND ")

	query := fmt.Sprintf(`SELECT
	p.id AS property_id,
	p.name AS property_name,
	DATE_PART('day', $3::timestamp - $2::timestamp)::int AS total_nights,
	COALESCE(SUM(DATE_PART('day', LEAST(b.check_out, $3::timestamp) - GREATEST(b.check_in, $2::timestamp))), 0)::int AS booked_nights,
	CASE WHEN DATE_PART('day', $3::timestamp - $2::timestamp) > 0
		THEN COALESCE(SUM(DATE_PART('day', LEAST(b.check_out, $3::timestamp) - GREATEST(b.check_in, $2::timestamp))), 0) / DATE_PART('day', $3::timestamp - $2::timestamp)
		ELSE 0 END AS occupancy_rate,
	COUNT(b.id)::int AS bookings,
	COALESCE(SUM(b.total), 0) AS revenue,
	p.currency AS currency
FROM properties p
LEFT JOIN bookings b ON b.property_id = p.id AND b.status = 'CONFIRMED' AND b.check_in < $3 AND b.check_out > $2
WHERE %s
GROUP BY p.id, p.name, p.currency
ORDER BY p.name ASC`, whereClause)

	var summaries []models.OccupancySummary
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, fmt.Errorf("occupancy summary: %w", err)
	}
	return summaries, nil
}

// RevenueTimeline buckets confirmed booking revenue by check-in month.
func (r *AnalyticsRepository) RevenueTimeline(ctx context.Context, filter models.OccupancyFilter) ([]models.RevenuePoint, error) {
	where := []string{"p.manager_id = $1", "b.status = 'CONFIRMED'", "b.check_in >= $2", "b.check_in < $3"}
	args := []interface{}{filter.ManagerID, filter.From, filter.To}
	if filter.PropertyID != "" {
		where = append(where, fmt.Sprintf("p.id = $%d", len(args)+1))
		args = append(args, filter.PropertyID)
	}
	whereClause := strings.Join(where, " AND ")

	query := fmt.Sprintf(`SELECT
	TO_CHAR(DATE_TRUNC('month', b.check_in), 'YYYY-MM') AS month,
	COALESCE(SUM(b.total), 0) AS revenue,
	COUNT(b.id)::int AS bookings
FROM bookings b
JOIN properties p ON p.id = b.property_id
WHERE %s
GROUP BY 1
ORDER BY 1 ASC`, whereClause)

	var points []models.RevenuePoint
	if err := r.db.SelectContext(ctx, &points, query, args...); err != nil {
		return nil, fmt.Errorf("revenue timeline: %w", err)
	}
	return points, nil
}
