// Package api exposes the HTTP interface: query submission, the human
// validation queue, and operational endpoints.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mirage-project/mirage/pkg/humanloop"
	"github.com/mirage-project/mirage/pkg/models"
	"github.com/mirage-project/mirage/pkg/orchestrator"
)

// Service is the orchestrator surface the API depends on.
type Service interface {
	ProcessQuery(ctx context.Context, q models.Query) (*models.FinalResponse, error)
	SubmitHumanDecision(id string, decision models.Decision, modifiedText, notes string) (*models.ValidationRequest, error)
	GetValidation(id string) (*models.ValidationRequest, error)
	GetValidationQueue() []models.ValidationRequest
	GetValidationStatistics() humanloop.Statistics
	ValidationResult(id string) (*models.FinalResponse, error)
	GetStatistics() orchestrator.Statistics
	Health() orchestrator.Health
	ClearCache()
}

// Server is the HTTP API server.
type Server struct {
	service Service
	logger  *slog.Logger
	http    *http.Server
}

// NewServer builds the server and its routes.
func NewServer(service Service, port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		service: service,
		logger:  logger.With("component", "api"),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes(router)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	v1.POST("/query", s.handleQuery)
	v1.GET("/validations", s.handleValidationQueue)
	v1.GET("/validations/stats", s.handleValidationStats)
	v1.GET("/validations/:id", s.handleGetValidation)
	v1.POST("/validations/:id/decision", s.handleSubmitDecision)
	v1.GET("/validations/:id/result", s.handleValidationResult)
	v1.GET("/stats", s.handleStats)
	v1.DELETE("/cache", s.handleClearCache)
	v1.GET("/health", s.handleHealth)
}

// Start serves HTTP until the listener closes.
func (s *Server) Start() error {
	s.logger.Info("api server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}
