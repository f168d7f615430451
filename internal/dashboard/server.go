// Package dashboard serves the local monitoring UI: an HTML page, a JSON
// state endpoint, and a Server-Sent Events stream of live events and
// alerts.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tjfontaine/openalerts/internal/domain"
	"github.com/tjfontaine/openalerts/internal/engine"
)

const (
	heartbeatInterval = 15 * time.Second
	historyReplay     = 200
	streamBufferSize  = 64
)

// Server hosts the dashboard over HTTP. Create with New, then Start; the
// listener is bound inside Start so a port conflict surfaces as its error.
type Server struct {
	engine *engine.Engine
	logger *slog.Logger
	addr   string

	httpServer *http.Server
	listener   net.Listener
}

// New creates a dashboard server for the engine, listening on addr.
func New(eng *engine.Engine, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: eng, logger: logger, addr: addr}
}

// Routes builds the dashboard's HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logging(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS)

	r.Get("/openalerts", s.handleIndex)
	r.Get("/openalerts/state", s.handleState)
	r.Get("/openalerts/events", s.handleEvents)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	})
	return otelhttp.NewHandler(r, "dashboard")
}

// Start binds the listener and serves until Shutdown. A bind failure is
// returned immediately.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("dashboard server failed", slog.String("error", err.Error()))
		}
	}()
	s.logger.Info("dashboard listening", slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown drains in-flight requests and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(dashboardHTML))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.engine.Snapshot()); err != nil {
		s.logger.Error("state encode failed", slog.String("error", err.Error()))
	}
}

// handleEvents is the SSE stream. On connect the client receives a replay
// of recent events and alerts, then live frames as they happen, with
// comment heartbeats keeping idle connections open.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	frames := make(chan sseFrame, streamBufferSize)

	unsubEvents := s.engine.Bus().Subscribe(func(ctx context.Context, ev domain.Event) error {
		select {
		case frames <- sseFrame{name: "openalerts", data: ev}:
		default:
			// Slow client: drop rather than stall ingestion.
		}
		return nil
	})
	defer unsubEvents()

	unsubAlerts := s.engine.OnAlert(func(alert domain.Alert) {
		select {
		case frames <- sseFrame{name: "alert", data: alert}:
		default:
		}
	})
	defer unsubAlerts()

	writeFrame(w, sseFrame{name: "history", data: s.engine.RecentLiveEvents(historyReplay)})
	writeFrame(w, sseFrame{name: "alert_history", data: s.engine.RecentAlerts(recentAlertReplay)})
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case f := <-frames:
			if err := writeFrame(w, f); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

const recentAlertReplay = 50

type sseFrame struct {
	name string
	data any
}

func writeFrame(w http.ResponseWriter, f sseFrame) error {
	data, err := json.Marshal(f.data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", f.name, data)
	return err
}
