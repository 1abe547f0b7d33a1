package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/k-shtanenko/ridership-api/internal/application"
	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
	"github.com/k-shtanenko/ridership-api/internal/domain/ports"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

const Version = "1.0.0"

type APIHandler struct {
	dashboard ports.DashboardService
	reports   ports.ReportService
	cache     ports.CacheService
	datasets  ports.DatasetProvider
	scheduler ports.Scheduler
	logger    logger.Logger
}

func NewAPIHandler(
	dashboard ports.DashboardService,
	reports ports.ReportService,
	cache ports.CacheService,
	datasets ports.DatasetProvider,
	scheduler ports.Scheduler,
	log logger.Logger,
) *APIHandler {
	return &APIHandler{
		dashboard: dashboard,
		reports:   reports,
		cache:     cache,
		datasets:  datasets,
		scheduler: scheduler,
		logger:    logger.Component(log, "api_handler"),
	}
}

func (h *APIHandler) GetDashboard(c *gin.Context) {
	view, err := h.dashboard.Overview(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *APIHandler) GetTimeSeries(c *gin.Context) {
	mode, err := entities.ParseModeFilter(c.Query("mode"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	timeRange, err := entities.ParseTimeRange(c.Query("range"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	view, err := h.dashboard.TimeSeries(c.Request.Context(), mode, timeRange)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *APIHandler) GetRoutes(c *gin.Context) {
	mode, err := entities.ParseModeFilter(c.Query("mode"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	view, err := h.dashboard.Routes(c.Request.Context(), mode)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *APIHandler) GetWeather(c *gin.Context) {
	condition, err := entities.ParseWeatherCondition(c.Query("condition"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	view, err := h.dashboard.Weather(c.Request.Context(), condition)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *APIHandler) GetGeospatial(c *gin.Context) {
	mode, err := entities.ParseModeFilter(c.Query("mode"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	period, err := entities.ParseDayPeriod(c.Query("period"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	view, err := h.dashboard.Geospatial(c.Request.Context(), mode, period)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *APIHandler) GetDataset(c *gin.Context) {
	if h.datasets.Current() == nil {
		h.respondServiceError(c, application.ErrDatasetNotReady)
		return
	}
	c.JSON(http.StatusOK, h.dashboard.DatasetInfo(c.Request.Context()))
}

// RegenerateDataset replaces the dataset. An empty body or a zero seed
// picks a random seed.
func (h *APIHandler) RegenerateDataset(c *gin.Context) {
	var req RegenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if _, err := h.datasets.Regenerate(c.Request.Context(), req.Seed); err != nil {
		h.respondError(c, http.StatusInternalServerError, fmt.Sprintf("Failed to regenerate dataset: %v", err))
		return
	}

	c.JSON(http.StatusOK, h.dashboard.DatasetInfo(c.Request.Context()))
}

func (h *APIHandler) CreateReport(c *gin.Context) {
	var req entities.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	report, err := h.reports.GenerateReport(c.Request.Context(), req)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newReportResponse(report))
}

func (h *APIHandler) GetReport(c *gin.Context) {
	report, err := h.reports.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newReportResponse(report))
}

func (h *APIHandler) DownloadReport(c *gin.Context) {
	reader, fileName, err := h.reports.DownloadReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", fileName))
	c.Header("Content-Type", entities.ExcelContentType)
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, reader); err != nil {
		h.logger.Errorf("Failed to stream report: %v", err)
	}
}

// HealthCheck always answers 200; failing components turn the status to
// "degraded".
func (h *APIHandler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	health := HealthResponse{
		Status:   "healthy",
		Version:  Version,
		Time:     time.Now(),
		Services: map[string]string{"api": "healthy"},
	}

	check := func(name string, err error) {
		if err != nil {
			health.Status = "degraded"
			health.Services[name] = fmt.Sprintf("unhealthy: %v", err)
			return
		}
		health.Services[name] = "healthy"
	}

	if h.datasets.Current() == nil {
		check("dataset", application.ErrDatasetNotReady)
	} else {
		check("dataset", nil)
	}
	check("cache", h.cache.HealthCheck(ctx))
	check("reports", h.reports.HealthCheck(ctx))
	check("scheduler", h.scheduler.HealthCheck(ctx))

	c.JSON(http.StatusOK, health)
}

func (h *APIHandler) respondServiceError(c *gin.Context, err error) {
	var verr entities.ValidationError
	switch {
	case errors.As(err, &verr):
		h.respondError(c, http.StatusBadRequest, verr.Error())
	case errors.Is(err, application.ErrReportNotFound):
		h.respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, application.ErrDatasetNotReady):
		h.respondError(c, http.StatusServiceUnavailable, err.Error())
	default:
		h.respondError(c, http.StatusInternalServerError, err.Error())
	}
}

func (h *APIHandler) respondError(c *gin.Context, status int, message string) {
	if status >= http.StatusInternalServerError {
		h.logger.Errorf("HTTP %d: %s", status, message)
	} else {
		h.logger.Debugf("HTTP %d: %s", status, message)
	}
	c.JSON(status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Time:    time.Now(),
	})
}

type RegenerateRequest struct {
	Seed int64 `json:"seed"`
}

type ReportResponse struct {
	ID             string                 `json:"id"`
	Kind           entities.ReportKind    `json:"kind"`
	Filters        entities.ReportFilters `json:"filters"`
	DatasetVersion string                 `json:"dataset_version"`
	FileName       string                 `json:"file_name"`
	FileSize       int64                  `json:"file_size"`
	Checksum       string                 `json:"checksum"`
	DownloadURL    string                 `json:"download_url,omitempty"`
	GeneratedAt    time.Time              `json:"generated_at"`
	ExpiresAt      *time.Time             `json:"expires_at,omitempty"`
}

func newReportResponse(report entities.ExcelReportEntity) ReportResponse {
	return ReportResponse{
		ID:             report.GetID(),
		Kind:           report.GetKind(),
		Filters:        report.GetFilters(),
		DatasetVersion: report.GetDatasetVersion(),
		FileName:       report.GetFileName(),
		FileSize:       report.GetFileSize(),
		Checksum:       report.GetChecksum(),
		DownloadURL:    report.GetDownloadURL(),
		GeneratedAt:    report.GetGeneratedAt(),
		ExpiresAt:      report.GetExpiresAt(),
	}
}

type ErrorResponse struct {
	Error   string    `json:"error"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Time     time.Time         `json:"time"`
	Services map[string]string `json:"services"`
}
