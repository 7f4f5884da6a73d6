// Package metrics exposes Prometheus instrumentation for TelimanShare.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telimanlogistique/telimanshare/internal/logger"
)

var (
	// UploadsTotal counts stored file uploads, by outcome.
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "telimanshare",
		Name:      "uploads_total",
		Help:      "Number of file uploads processed, by outcome.",
	}, []string{"outcome"})

	// DownloadsTotal counts signed download URL issuances.
	DownloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "telimanshare",
		Name:      "downloads_total",
		Help:      "Number of signed download URLs issued.",
	})

	// SoftDeletesTotal counts objects moved to the trash.
	SoftDeletesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "telimanshare",
		Name:      "soft_deletes_total",
		Help:      "Number of objects moved to the trash.",
	})

	// RestoresTotal counts objects restored from the trash.
	RestoresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "telimanshare",
		Name:      "restores_total",
		Help:      "Number of objects restored from the trash.",
	})

	// PermissionDenialsTotal counts authorization refusals, by operation.
	PermissionDenialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "telimanshare",
		Name:      "permission_denials_total",
		Help:      "Number of operations refused by the permission resolver.",
	}, []string{"operation"})
)

// Server serves the Prometheus scrape endpoint on its own listener.
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics server bound to addr.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	logger.Info("metrics server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}

// Shutdown stops the metrics server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
