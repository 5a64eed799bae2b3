package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wonny/aegis-screener/pkg/config"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// Server serves the screener API and progress streams
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	httpServer *http.Server
	routes     []Route
	logger     *logger.Logger
	config     *config.Config
}

// New creates the screener API server for the given router
func New(cfg *config.Config, log *logger.Logger, router *Router) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:        ":" + cfg.Port,
			Handler:     router,
			ReadTimeout: 15 * time.Second,
			// 스크리닝(수 분)과 진행 스트림 때문에 쓰기 타임아웃 없음
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		routes: router.Routes,
		logger: log.WithComponent("api"),
		config: cfg,
	}
}

// Routes returns the endpoints this server exposes
func (s *Server) Routes() []Route {
	return s.routes
}

// Start logs the served endpoints and blocks until the server stops
func (s *Server) Start() error {
	s.logger.WithFields(map[string]interface{}{
		"port":     s.config.Port,
		"env":      s.config.Env,
		"universe": s.config.Universe.Kind,
		"routes":   len(s.routes),
	}).Info("Starting screener API")

	for _, rt := range s.routes {
		s.logger.WithFields(map[string]interface{}{
			"method": rt.Method,
			"path":   rt.Path,
		}).Debug(rt.Description)
	}

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown stops accepting requests and waits for open progress streams to end
func (s *Server) Shutdown(ctx context.Context) error {
	start := time.Now()
	s.logger.Info("Shutting down screener API")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.WithField("took", time.Since(start).String()).Info("Screener API stopped")
	return nil
}
