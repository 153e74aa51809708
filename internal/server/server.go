package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/chrisdamba/opsboard/internal/dataset"
	"github.com/chrisdamba/opsboard/internal/events"
	"github.com/chrisdamba/opsboard/internal/kpi"
	"github.com/chrisdamba/opsboard/internal/models"
	"github.com/chrisdamba/opsboard/internal/predictor"
	"github.com/gin-gonic/gin"
)

// Server exposes the computed KPI snapshot and the delay predictor to the
// dashboard front-end. The snapshot is computed at startup and replaced
// wholesale on refresh; handlers only ever read it.
type Server struct {
	cfg       *models.Config
	source    dataset.Source
	predictor *predictor.Predictor
	publisher events.Publisher

	mu       sync.RWMutex
	snapshot kpi.Snapshot
}

func New(cfg *models.Config, source dataset.Source, pred *predictor.Predictor, publisher events.Publisher) *Server {
	return &Server{
		cfg:       cfg,
		source:    source,
		predictor: pred,
		publisher: publisher,
	}
}

// Refresh re-runs the full load and aggregation pipeline. On failure the
// previous snapshot stays in place; a broken load never produces a
// partially updated dashboard.
func (s *Server) Refresh(ctx context.Context) error {
	orders, payments, err := s.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading datasets: %w", err)
	}

	snapshot := kpi.Compute(orders, payments, s.cfg.SLADays)

	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()

	if err := s.publisher.SnapshotComputed(snapshot); err != nil {
		log.Printf("Failed to publish snapshot event: %v", err)
	}
	return nil
}

func (s *Server) currentSnapshot() kpi.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Router wires the presentation routes.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/health", s.handleHealth)

	v1 := router.Group("/api/v1")
	v1.GET("/kpis", s.handleKPIs)
	v1.GET("/charts/monthly-trend", s.handleMonthlyTrend)
	v1.GET("/charts/revenue-by-payment-type", s.handleRevenueByPaymentType)
	v1.GET("/charts/sla-breakdown", s.handleSLABreakdown)
	v1.POST("/predict", s.handlePredict)
	v1.POST("/refresh", s.handleRefresh)

	return router
}

// Run performs the initial load and serves until the listener fails.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		return err
	}

	log.Printf("Serving dashboard API on %s", s.cfg.ListenAddr)
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.Router(),
	}
	return srv.ListenAndServe()
}
