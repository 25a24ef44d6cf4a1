package dto

import "github.com/hostfolio/hostfolio-api/internal/models"

// DashboardSummaryResponse is the manager dashboard payload.
type DashboardSummaryResponse struct {
	From       string                    `json:"from"`
	To         string                    `json:"to"`
	Properties []models.OccupancySummary `json:"properties"`
	Revenue    []models.RevenuePoint     `json:"revenue"`
}
