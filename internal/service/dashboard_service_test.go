package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostfolio/hostfolio-api/internal/models"
	appErrors "github.com/hostfolio/hostfolio-api/pkg/errors"
)

type mockAnalyticsRepo struct {
	calls      int
	properties []models.OccupancySummary
	revenue    []models.RevenuePoint
}

func (m *mockAnalyticsRepo) OccupancySummary(ctx context.Context, filter models.OccupancyFilter) ([]models.OccupancySummary, error) {
	m.calls++
	return m.properties, nil
}

func (m *mockAnalyticsRepo) RevenueTimeline(ctx context.Context, filter models.OccupancyFilter) ([]models.RevenuePoint, error) {
	return m.revenue, nil
}

type memoryCacheRepo struct {
	entries map[string][]byte
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.entries = make(map[string][]byte)
	return nil
}

func newDashboardServiceForTest(repo *mockAnalyticsRepo, cached bool) *DashboardService {
	var cacheSvc *CacheService
	if cached {
		cacheSvc = NewCacheService(&memoryCacheRepo{}, nil, time.Minute, nil, true)
	} else {
		cacheSvc = NewCacheService(nil, nil, time.Minute, nil, false)
	}
	return NewDashboardService(repo, cacheSvc, nil, DashboardServiceConfig{CacheTTL: time.Minute})
}

func TestDashboardSummary(t *testing.T) {
	repo := &mockAnalyticsRepo{
		properties: []models.OccupancySummary{
			{PropertyID: "prop-1", PropertyName: "Beach House", TotalNights: 30, BookedNights: 21, OccupancyRate: 0.7, Bookings: 5, Revenue: 4200, Currency: "EUR"},
		},
		revenue: []models.RevenuePoint{{Month: "2025-03", Revenue: 4200, Bookings: 5}},
	}
	svc := newDashboardServiceForTest(repo, false)

	summary, cacheHit, err := svc.Summary(context.Background(), DashboardQuery{
		ManagerID: "mgr-1",
		From:      "2025-03-01",
		To:        "2025-03-31",
	})
	require.NoError(t, err)

	assert.False(t, cacheHit)
	assert.Equal(t, "2025-03-01", summary.From)
	require.Len(t, summary.Properties, 1)
	assert.Equal(t, 0.7, summary.Properties[0].OccupancyRate)
	require.Len(t, summary.Revenue, 1)
}

func TestDashboardSummaryUsesCacheOnSecondCall(t *testing.T) {
	repo := &mockAnalyticsRepo{
		properties: []models.OccupancySummary{{PropertyID: "prop-1", Revenue: 100}},
	}
	svc := newDashboardServiceForTest(repo, true)
	query := DashboardQuery{ManagerID: "mgr-1", From: "2025-03-01", To: "2025-03-31"}

	_, hit, err := svc.Summary(context.Background(), query)
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = svc.Summary(context.Background(), query)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, repo.calls)
}

func TestDashboardSummaryRequiresManager(t *testing.T) {
	svc := newDashboardServiceForTest(&mockAnalyticsRepo{}, false)

	_, _, err := svc.Summary(context.Background(), DashboardQuery{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDashboardSummaryRejectsBadWindow(t *testing.T) {
	svc := newDashboardServiceForTest(&mockAnalyticsRepo{}, false)

	_, _, err := svc.Summary(context.Background(), DashboardQuery{
		ManagerID: "mgr-1",
		From:      "2025-03-31",
		To:        "2025-03-01",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDashboardDefaultWindow(t *testing.T) {
	repo := &mockAnalyticsRepo{}
	svc := newDashboardServiceForTest(repo, false)
	svc.now = func() time.Time { return time.Date(2025, time.March, 31, 12, 0, 0, 0, time.UTC) }

	summary, _, err := svc.Summary(context.Background(), DashboardQuery{ManagerID: "mgr-1"})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-31", summary.To)
	assert.Equal(t, "2025-03-01", summary.From)
}
