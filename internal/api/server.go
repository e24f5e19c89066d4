package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/buildwatch/buildwatch/internal/config"
	"github.com/buildwatch/buildwatch/internal/detect"
	"github.com/buildwatch/buildwatch/internal/domain"
	"github.com/buildwatch/buildwatch/internal/monitor"
)

const shutdownTimeout = 5 * time.Second

// Server exposes the monitoring state over HTTP: point-in-time JSON
// endpoints plus SSE and WebSocket live streams. It only ever reads the
// shared buffers; all responses are served from memory.
type Server struct {
	cfg    *config.Config
	buffer *monitor.LogBuffer
	issues *detect.IssueBuffer
	status func() domain.Status
	hub    *Hub
	clk    clock.Clock
	log    *zap.Logger
}

// NewServer wires the read-only HTTP surface over the shared state. status is
// called per request to derive the deployment view.
func NewServer(cfg *config.Config, buffer *monitor.LogBuffer, issues *detect.IssueBuffer, status func() domain.Status, hub *Hub, clk clock.Clock, log *zap.Logger) *Server {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:    cfg,
		buffer: buffer,
		issues: issues,
		status: status,
		hub:    hub,
		clk:    clk,
		log:    log,
	}
}

// Handler builds the routed and middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /logs", s.handleLogs)
	mux.HandleFunc("GET /issues", s.handleIssues)
	mux.HandleFunc("GET /system", s.handleSystem)
	mux.HandleFunc("GET /stream", s.handleStream)
	if s.hub != nil {
		mux.HandleFunc("GET /ws", s.handleWebSocket)
	}

	var h http.Handler = mux
	h = rateLimit(newIPRateLimiter(10, 20), h)
	h = requestLogger(s.log, h)
	h = recoverer(s.log, h)
	return h
}

// Run serves until ctx is cancelled, then drains connections for up to
// shutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("api server shutdown incomplete", zap.Error(err))
		return err
	}
	s.log.Info("api server stopped")
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
