// Package server exposes the elicitation workflow as an HTTP JSON API.
// Each client holds a session id, sent in the X-Session-ID header.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/josephgoksu/ReqWing/internal/elicit"
	"github.com/josephgoksu/ReqWing/internal/metrics"
	"github.com/josephgoksu/ReqWing/internal/session"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// SessionHeader carries the client's session id.
const SessionHeader = "X-Session-ID"

// DefaultMaxUpload caps multipart submissions.
const DefaultMaxUpload int64 = 10 << 20

// Config configures a Server.
type Config struct {
	Addr      string
	Engine    *elicit.Engine
	Sessions  *session.Manager
	Metrics   *metrics.Metrics // optional
	Origins   []string         // allowed CORS origins
	MaxUpload int64
}

type Server struct {
	engine    *elicit.Engine
	sessions  *session.Manager
	metrics   *metrics.Metrics
	origins   map[string]struct{}
	maxUpload int64
	handler   http.Handler
	server    *http.Server
}

// New builds the server and its routes.
func New(cfg Config) *Server {
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultMaxUpload
	}
	s := &Server{
		engine:    cfg.Engine,
		sessions:  cfg.Sessions,
		metrics:   cfg.Metrics,
		origins:   make(map[string]struct{}, len(cfg.Origins)),
		maxUpload: cfg.MaxUpload,
	}
	for _, o := range cfg.Origins {
		s.origins[o] = struct{}{}
	}
	s.handler = otelhttp.NewHandler(s.registerRoutes(), "reqwing-http")
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) Start(wg *sync.WaitGroup, errChan chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("api server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// PruneSessions drops idle sessions every interval until ctx is done.
func (s *Server) PruneSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.sessions.Prune(now); n > 0 {
				slog.Info("pruned idle sessions", "count", n)
			}
			if s.metrics != nil {
				s.metrics.ActiveSessions.Set(float64(s.sessions.Len()))
			}
		}
	}
}
