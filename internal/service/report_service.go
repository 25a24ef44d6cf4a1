package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hostfolio/hostfolio-api/internal/dto"
	"github.com/hostfolio/hostfolio-api/internal/models"
	appErrors "github.com/hostfolio/hostfolio-api/pkg/errors"
	"github.com/hostfolio/hostfolio-api/pkg/export"
	"github.com/hostfolio/hostfolio-api/pkg/jobs"
	"github.com/hostfolio/hostfolio-api/pkg/storage"
)

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.ReportJob, error)
	UpdateStatus(ctx context.Context, id string, status models.ReportStatus, progress int) error
	Finish(ctx context.Context, id string, status models.ReportStatus, resultURL *string, errorMessage *string, finishedAt time.Time) error
}

type reportPropertyReader interface {
	GetByID(ctx context.Context, id string) (*models.Property, error)
}

type reportBookingSource interface {
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error)
}

type reportOccupancySource interface {
	OccupancySummary(ctx context.Context, filter models.OccupancyFilter) ([]models.OccupancySummary, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ReportServiceConfig governs report rendering and result lifetime.
type ReportServiceConfig struct {
	DownloadPath string
}

// ReportDownload aggregates a resolved download.
type ReportDownload struct {
	File     *os.File
	Filename string
	Format   models.ReportFormat
}

// ReportService manages asynchronous report exports.
type ReportService struct {
	repo       reportJobStore
	properties reportPropertyReader
	bookings   reportBookingSource
	occupancy  reportOccupancySource
	queue      jobDispatcher
	store      *storage.LocalStorage
	signer     *storage.SignedURLSigner
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        ReportServiceConfig
}

// ReportServiceParams groups constructor dependencies.
type ReportServiceParams struct {
	Repo       reportJobStore
	Properties reportPropertyReader
	Bookings   reportBookingSource
	Occupancy  reportOccupancySource
	Queue      jobDispatcher
	Store      *storage.LocalStorage
	Signer     *storage.SignedURLSigner
	Metrics    *MetricsService
	Validator  *validator.Validate
	Logger     *zap.Logger
	Config     ReportServiceConfig
}

// NewReportService constructs the report service.
func NewReportService(params ReportServiceParams) *ReportService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	cfg := params.Config
	if cfg.DownloadPath == "" {
		cfg.DownloadPath = "/api/v1/reports/download"
	}
	return &ReportService{
		repo:       params.Repo,
		properties: params.Properties,
		bookings:   params.Bookings,
		occupancy:  params.Occupancy,
		queue:      params.Queue,
		store:      params.Store,
		signer:     params.Signer,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		metrics:    params.Metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
}

// CreateJob validates the request, persists the job, and enqueues processing.
func (s *ReportService) CreateJob(ctx context.Context, req dto.CreateReportRequest, actor models.JWTClaims) (*dto.ReportJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
	}
	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must be formatted as YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", req.To)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must be formatted as YYYY-MM-DD")
	}
	if !from.Before(to) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must be before to")
	}

	property, err := s.properties.GetByID(ctx, req.PropertyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "property not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load property")
	}
	if actor.Role != models.RoleAdmin && property.ManagerID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "property belongs to another manager")
	}

	job := &models.ReportJob{
		Type: models.ReportType(req.Type),
		Params: models.ReportJobParams{
			PropertyID: req.PropertyID,
			From:       req.From,
			To:         req.To,
			Format:     models.ReportFormat(req.Format),
		},
		Status:    models.ReportStatusQueued,
		CreatedBy: actor.UserID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		if finishErr := s.repo.Finish(ctx, job.ID, models.ReportStatusFailed, nil, &msg, now); finishErr != nil {
			s.logger.Error("failed to mark unqueueable job as failed", zap.String("job_id", job.ID), zap.Error(finishErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}

	return toReportJobResponse(job), nil
}

// GetStatus exposes job metadata, enforcing ownership for non-admins.
func (s *ReportService) GetStatus(ctx context.Context, id string, actor models.JWTClaims) (*dto.ReportJobResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if actor.Role != models.RoleAdmin && job.CreatedBy != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report belongs to another user")
	}
	return toReportJobResponse(job), nil
}

// ListJobs returns the caller's recent report jobs.
func (s *ReportService) ListJobs(ctx context.Context, actor models.JWTClaims, limit int) ([]dto.ReportJobResponse, error) {
	jobsList, err := s.repo.ListByUser(ctx, actor.UserID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report jobs")
	}
	out := make([]dto.ReportJobResponse, 0, len(jobsList))
	for i := range jobsList {
		out = append(out, *toReportJobResponse(&jobsList[i]))
	}
	return out, nil
}

// Download resolves a signed token into an open file handle.
func (s *ReportService) Download(ctx context.Context, token string) (*ReportDownload, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.Status != models.ReportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrConflict, "report is not ready")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "report file is no longer available")
	}
	return &ReportDownload{File: file, Filename: relPath, Format: job.Params.Format}, nil
}

// Handle processes a queued report job. Registered as the queue handler.
func (s *ReportService) Handle(ctx context.Context, queued jobs.Job) error {
	job, err := s.repo.GetByID(ctx, queued.ID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", queued.ID, err)
	}
	if job.Status == models.ReportStatusFinished || job.Status == models.ReportStatusFailed {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, job.ID, models.ReportStatusProcessing, 10); err != nil {
		s.logger.Warn("failed to mark report job as processing", zap.String("job_id", job.ID), zap.Error(err))
	}

	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return s.fail(ctx, job, err)
	}

	var rendered []byte
	switch job.Params.Format {
	case models.ReportFormatPDF:
		rendered, err = s.pdf.Render(dataset, title)
	default:
		rendered, err = s.csv.Render(dataset)
	}
	if err != nil {
		return s.fail(ctx, job, fmt.Errorf("render report: %w", err))
	}

	filename := fmt.Sprintf("%s/%s-%s.%s", job.CreatedBy, job.Type, job.ID, job.Params.Format)
	relPath, err := s.store.Save(filename, rendered)
	if err != nil {
		return s.fail(ctx, job, fmt.Errorf("save report: %w", err))
	}

	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return s.fail(ctx, job, fmt.Errorf("sign report url: %w", err))
	}
	resultURL := fmt.Sprintf("%s?token=%s", s.cfg.DownloadPath, token)

	if err := s.repo.Finish(ctx, job.ID, models.ReportStatusFinished, &resultURL, nil, time.Now().UTC()); err != nil {
		return fmt.Errorf("finish report job %s: %w", job.ID, err)
	}
	s.metrics.CountReportJob(string(models.ReportStatusFinished))
	s.logger.Info("report job finished", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	return nil
}

func (s *ReportService) fail(ctx context.Context, job *models.ReportJob, cause error) error {
	msg := cause.Error()
	if err := s.repo.Finish(ctx, job.ID, models.ReportStatusFailed, nil, &msg, time.Now().UTC()); err != nil {
		s.logger.Error("failed to mark report job as failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	s.metrics.CountReportJob(string(models.ReportStatusFailed))
	return cause
}

func (s *ReportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	from, err := time.Parse("2006-01-02", job.Params.From)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("invalid job params: %w", err)
	}
	to, err := time.Parse("2006-01-02", job.Params.To)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("invalid job params: %w", err)
	}

	property, err := s.properties.GetByID(ctx, job.Params.PropertyID)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load property: %w", err)
	}

	switch job.Type {
	case models.ReportTypeBookings:
		return s.bookingsDataset(ctx, property, from, to)
	case models.ReportTypeOccupancy:
		return s.occupancyDataset(ctx, property, from, to)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %q", job.Type)
	}
}

func (s *ReportService) bookingsDataset(ctx context.Context, property *models.Property, from, to time.Time) (export.Dataset, string, error) {
	filter := models.BookingFilter{
		PropertyID: property.ID,
		From:       &from,
		To:         &to,
		Page:       1,
		PageSize:   1000,
	}
	bookings, _, err := s.bookings.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("list bookings: %w", err)
	}

	headers := []string{"Booking ID", "Guest", "Check-in", "Check-out", "Nights", "Nightly Rate", "Cleaning Fee", "Total", "Currency", "Status"}
	rows := make([]map[string]string, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, map[string]string{
			"Booking ID":   b.ID,
			"Guest":        b.GuestName,
			"Check-in":     b.CheckIn.Format("2006-01-02"),
			"Check-out":    b.CheckOut.Format("2006-01-02"),
			"Nights":       fmt.Sprintf("%d", b.Nights),
			"Nightly Rate": fmt.Sprintf("%.2f", b.NightlyRate),
			"Cleaning Fee": fmt.Sprintf("%.2f", b.CleaningFee),
			"Total":        fmt.Sprintf("%.2f", b.Total),
			"Currency":     b.Currency,
			"Status":       string(b.Status),
		})
	}
	title := fmt.Sprintf("Bookings %s (%s to %s)", property.Name, from.Format("2006-01-02"), to.Format("2006-01-02"))
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

func (s *ReportService) occupancyDataset(ctx context.Context, property *models.Property, from, to time.Time) (export.Dataset, string, error) {
	summaries, err := s.occupancy.OccupancySummary(ctx, models.OccupancyFilter{
		ManagerID:  property.ManagerID,
		PropertyID: property.ID,
		From:       from,
		To:         to,
	})
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("aggregate occupancy: %w", err)
	}

	headers := []string{"Property", "Total Nights", "Booked Nights", "Occupancy Rate", "Bookings", "Revenue", "Currency"}
	rows := make([]map[string]string, 0, len(summaries))
	for _, summary := range summaries {
		rows = append(rows, map[string]string{
			"Property":       summary.PropertyName,
			"Total Nights":   fmt.Sprintf("%d", summary.TotalNights),
			"Booked Nights":  fmt.Sprintf("%d", summary.BookedNights),
			"Occupancy Rate": fmt.Sprintf("%.1f%%", summary.OccupancyRate*100),
			"Bookings":       fmt.Sprintf("%d", summary.Bookings),
			"Revenue":        fmt.Sprintf("%.2f", summary.Revenue),
			"Currency":       summary.Currency,
		})
	}
	title := fmt.Sprintf("Occupancy %s (%s to %s)", property.Name, from.Format("2006-01-02"), to.Format("2006-01-02"))
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

func toReportJobResponse(job *models.ReportJob) *dto.ReportJobResponse {
	resp := &dto.ReportJobResponse{
		ID:       job.ID,
		Type:     string(job.Type),
		Status:   string(job.Status),
		Progress: job.Progress,
	}
	if job.ResultURL != nil {
		resp.DownloadURL = job.ResultURL
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp
}
