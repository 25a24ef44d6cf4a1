package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hostfolio/hostfolio-api/internal/dto"
	"github.com/hostfolio/hostfolio-api/internal/models"
	appErrors "github.com/hostfolio/hostfolio-api/pkg/errors"
)

type occupancyRepository interface {
	OccupancySummary(ctx context.Context, filter models.OccupancyFilter) ([]models.OccupancySummary, error)
	RevenueTimeline(ctx context.Context, filter models.OccupancyFilter) ([]models.RevenuePoint, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL      time.Duration
	DefaultWindow time.Duration
}

// DashboardService composes the occupancy and revenue summary for managers.
type DashboardService struct {
	repo   occupancyRepository
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
	cfg    DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(repo occupancyRepository, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.DefaultWindow <= 0 {
		cfg.DefaultWindow = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, logger: logger, now: time.Now, cfg: cfg}
}

// DashboardQuery bounds a summary request. From and To are optional
// YYYY-MM-DD strings; empty values default to the trailing window.
type DashboardQuery struct {
	ManagerID  string
	PropertyID string
	From       string
	To         string
}

// Summary returns the dashboard payload and reports cache utilisation.
func (s *DashboardService) Summary(ctx context.Context, query DashboardQuery) (*dto.DashboardSummaryResponse, bool, error) {
	if query.ManagerID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "manager id is required")
	}

	from, to, err := s.resolveWindow(query.From, query.To)
	if err != nil {
		return nil, false, err
	}

	cacheKey := fmt.Sprintf("dashboard:%s:%s:%s:%s", query.ManagerID, query.PropertyID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if s.cache.Enabled() {
		var cached dto.DashboardSummaryResponse
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	filter := models.OccupancyFilter{
		ManagerID:  query.ManagerID,
		PropertyID: query.PropertyID,
		From:       from,
		To:         to,
	}

	properties, err := s.repo.OccupancySummary(ctx, filter)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate occupancy")
	}

	revenue, err := s.repo.RevenueTimeline(ctx, filter)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate revenue")
	}

	resp := &dto.DashboardSummaryResponse{
		From:       from.Format("2006-01-02"),
		To:         to.Format("2006-01-02"),
		Properties: properties,
		Revenue:    revenue,
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, resp, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to cache dashboard summary", zap.Error(err))
		}
	}

	return resp, false, nil
}

// InvalidateManager drops cached summaries for one manager. Called after
// booking mutations so the dashboard does not serve stale revenue.
func (s *DashboardService) InvalidateManager(ctx context.Context, managerID string) {
	if managerID == "" || !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("dashboard:%s:*", managerID)); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.String("manager_id", managerID), zap.Error(err))
	}
}

func (s *DashboardService) resolveWindow(fromRaw, toRaw string) (time.Time, time.Time, error) {
	now := s.now().UTC()
	to := DateOnly(now)
	from := to.Add(-s.cfg.DefaultWindow)

	if toRaw != "" {
		parsed, err := time.Parse("2006-01-02", toRaw)
		if err != nil {
			return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must be formatted as YYYY-MM-DD")
		}
		to = parsed
	}
	if fromRaw != "" {
		parsed, err := time.Parse("2006-01-02", fromRaw)
		if err != nil {
			return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "from must be formatted as YYYY-MM-DD")
		}
		from = parsed
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "from must be before to")
	}
	return from, to, nil
}
