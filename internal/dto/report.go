package dto

// CreateReportRequest enqueues an asynchronous report export.
type CreateReportRequest struct {
	Type       string `json:"type" validate:"required,oneof=bookings occupancy"`
	PropertyID string `json:"property_id" validate:"required"`
	From       string `json:"from" validate:"required"`
	To         string `json:"to" validate:"required"`
	Format     string `json:"format" validate:"required,oneof=csv pdf"`
}

// ReportJobResponse describes a job's current state.
type ReportJobResponse struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	Progress    int     `json:"progress"`
	DownloadURL *string `json:"download_url,omitempty"`
	Error       *string `json:"error,omitempty"`
}
