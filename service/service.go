// Package service hosts the long-lived HTTP servers that run alongside a
// harness run: health checks, Prometheus metrics and the static content
// server the browser under test fetches test pages from.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/webcompat/wptharness/metrics"
)

const (
	HealthzHost = "0.0.0.0"
	HealthzPort = "8080"

	MetricsHost = "0.0.0.0"
	MetricsPort = "7300"

	ContentHost = "0.0.0.0"
	ContentPort = "8000"
)

type Service struct {
	Healthz *HealthzServer
	Metrics *MetricsServer
	Content *ContentServer
}

// New builds the service set. contentRoot is the directory tree served to the
// browser under test; with an empty root the content server is not started.
func New(contentRoot string) *Service {
	s := &Service{
		Healthz: &HealthzServer{},
		Metrics: &MetricsServer{},
	}
	if contentRoot != "" {
		s.Content = &ContentServer{Root: contentRoot}
	}
	return s
}

// Start launches each server on its own goroutine. The servers are daemons:
// they are left running until process exit and share no state with the main
// thread beyond the OS accept queue.
func (s *Service) Start(ctx context.Context) {
	slog.Info("service starting")

	go func() {
		addr := net.JoinHostPort(HealthzHost, HealthzPort)
		slog.Info("starting healthz server", "addr", addr)
		if err := s.Healthz.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("error starting healthz server", "err", err)
			metrics.RecordErrorDetails("error starting healthz server", err)
		}
	}()

	go func() {
		addr := net.JoinHostPort(MetricsHost, MetricsPort)
		slog.Info("starting metrics server", "addr", addr)
		if err := s.Metrics.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("error starting metrics server", "err", err)
			metrics.RecordErrorDetails("error starting metrics server", err)
		}
	}()

	if s.Content != nil {
		go func() {
			addr := net.JoinHostPort(ContentHost, ContentPort)
			slog.Info("starting content server", "addr", addr, "root", s.Content.Root)
			if err := s.Content.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("error starting content server", "err", err)
				metrics.RecordErrorDetails("error starting content server", err)
			}
		}()
	}

	slog.Info("service started")
}

func (s *Service) Shutdown() {
	slog.Info("service shutting down")

	_ = s.Healthz.Shutdown()
	slog.Info("healthz stopped")

	_ = s.Metrics.Shutdown()
	slog.Info("metrics stopped")

	if s.Content != nil {
		_ = s.Content.Shutdown()
		slog.Info("content stopped")
	}

	slog.Info("service stopped")
}
