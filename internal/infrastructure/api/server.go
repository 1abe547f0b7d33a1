package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/k-shtanenko/ridership-api/internal/config"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

type APIServer struct {
	server     *http.Server
	router     *gin.Engine
	handler    *APIHandler
	stream     *StreamHub
	middleware *Middleware
	config     *config.Config
	logger     logger.Logger
	errCh      chan error
}

func NewAPIServer(handler *APIHandler, stream *StreamHub, middleware *Middleware, cfg *config.Config, log logger.Logger) *APIServer {
	gin.SetMode(gin.ReleaseMode)
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	}

	s := &APIServer{
		router:     gin.New(),
		handler:    handler,
		stream:     stream,
		middleware: middleware,
		config:     cfg,
		logger:     logger.Component(log, "api_server"),
		errCh:      make(chan error, 1),
	}
	s.setupRoutes()
	return s
}

func (s *APIServer) setupRoutes() {
	// Router-level so preflight requests and unknown routes get them too.
	s.router.Use(s.middleware.Recovery())
	s.router.Use(s.middleware.RequestID())
	s.router.Use(s.middleware.Logging())
	s.router.Use(s.middleware.CORS())

	api := s.router.Group(s.config.API.BasePath)

	api.GET("/health", s.handler.HealthCheck)
	// Long-lived connection, kept out of the rate limiter and cache headers.
	api.GET("/stream", s.stream.Handle)

	limited := api.Group("")
	limited.Use(s.middleware.RateLimit())
	limited.Use(s.middleware.Cache())
	{
		limited.GET("/dashboard", s.handler.GetDashboard)
		limited.GET("/time-series", s.handler.GetTimeSeries)
		limited.GET("/routes", s.handler.GetRoutes)
		limited.GET("/weather", s.handler.GetWeather)
		limited.GET("/geospatial", s.handler.GetGeospatial)

		limited.GET("/dataset", s.handler.GetDataset)
		limited.POST("/dataset/regenerate", s.handler.RegenerateDataset)

		limited.POST("/reports", s.handler.CreateReport)
		limited.GET("/reports/:id", s.handler.GetReport)
		limited.GET("/reports/:id/download", s.handler.DownloadReport)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   http.StatusText(http.StatusNotFound),
			Message: fmt.Sprintf("Route %s not found", c.Request.URL.Path),
			Time:    time.Now(),
		})
	})
}

// Handler exposes the router, mainly for tests.
func (s *APIServer) Handler() http.Handler {
	return s.router
}

// Errors reports a listener failure after Start returned.
func (s *APIServer) Errors() <-chan error {
	return s.errCh
}

func (s *APIServer) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.App.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Infof("Starting API server on port %d", s.config.App.Port)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("API server failed: %v", err)
			s.errCh <- err
		}
	}()

	return nil
}

func (s *APIServer) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")
	s.stream.Close()

	if s.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.App.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	s.logger.Info("API server stopped")
	return nil
}
