package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"vuoro/internal/api"
	"vuoro/internal/config"
	"vuoro/internal/ledger"
	"vuoro/internal/logging"
	"vuoro/internal/queue"
)

const requestIDHeader = "X-Request-ID"

// Ledger is the queue surface the HTTP handlers drive.
type Ledger interface {
	IssueTicket(ctx context.Context) (ledger.Ticket, error)
	CallTicket(ctx context.Context, number int) (int, error)
	Snapshot() queue.Snapshot
}

type apiServer struct {
	bind        string
	adminRoute  string
	window      int
	pollMS      int
	closed      string
	displayOnly bool
	logger      *slog.Logger
	ledger      Ledger
	health      func() *api.SinkHealth

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, l Ledger, health func() *api.SinkHealth, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil {
		return nil, errors.New("api server requires configuration")
	}
	if l == nil && !cfg.Server.DisplayOnly {
		return nil, errors.New("api server requires a ledger unless display-only")
	}
	bind := strings.TrimSpace(cfg.Server.Bind)
	if bind == "" {
		return nil, errors.New("server.bind is empty")
	}

	srv := &apiServer{
		bind:        bind,
		adminRoute:  cfg.AdminRoute(),
		window:      cfg.Display.HistoryWindow,
		pollMS:      cfg.Display.PollIntervalMS,
		closed:      cfg.Display.ClosedMessage,
		displayOnly: cfg.Server.DisplayOnly,
		logger:      logging.NewComponentLogger(logger, "api-server"),
		ledger:      l,
		health:      health,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", srv.handleDisplay)
	mux.HandleFunc("GET "+srv.adminRoute, srv.handleAdmin)
	mux.HandleFunc("GET /api/status", srv.handleStatus)
	mux.HandleFunc("POST /api/call/{ticketId}", srv.handleCall)
	mux.HandleFunc("POST /api/tickets", authMiddleware(cfg.Server.APIToken, srv.handleIssue))
	mux.HandleFunc("GET /api/admin/queue", srv.handleAdminQueue)

	srv.server = &http.Server{
		Handler:           srv.withRequestContext(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_server_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "restart vuorod; check for port conflicts"),
			)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening",
		logging.String(logging.FieldEventType, "api_server_started"),
		logging.String("address", listener.Addr().String()),
		logging.String("admin_route", s.adminRoute),
		logging.Bool("display_only", s.displayOnly),
	)
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// statusRecorder captures the response code for access logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequestContext assigns a correlation id to every request and writes an
// access log line. Display polling is logged at debug level only.
func (s *apiServer) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := logging.WithSource(logging.WithRequestID(r.Context(), id), "http")

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))

		level := slog.LevelInfo
		if r.URL.Path == "/api/status" && rec.status < 400 {
			level = slog.LevelDebug
		}
		logging.WithContext(ctx, s.logger).Log(ctx, level, "http request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("duration", time.Since(started)),
			logging.String("remote", r.RemoteAddr),
		)
	})
}

func (s *apiServer) handleDisplay(w http.ResponseWriter, r *http.Request) {
	if s.closed != "" {
		s.render(w, "closed.html", closedPage{Message: s.closed})
		return
	}
	s.render(w, "display.html", displayPage{Window: s.window, PollMS: s.pollMS})
}

func (s *apiServer) handleAdmin(w http.ResponseWriter, r *http.Request) {
	if !s.requireLedger(w) {
		return
	}
	s.render(w, "admin.html", adminPage{
		Queue:     api.Admin(s.ledger.Snapshot(), s.sinkHealth()),
		RefreshMS: adminRefreshMS,
	})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.displayOnly {
		s.writeJSON(w, http.StatusOK, api.DisplayOnlyStatus())
		return
	}
	s.writeJSON(w, http.StatusOK, api.Display(s.ledger.Snapshot(), s.window))
}

func (s *apiServer) handleCall(w http.ResponseWriter, r *http.Request) {
	if !s.requireLedger(w) {
		return
	}
	number, err := strconv.Atoi(r.PathValue("ticketId"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid ticket id")
		return
	}
	called, err := s.ledger.CallTicket(r.Context(), number)
	switch {
	case errors.Is(err, queue.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "ticket not found")
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, "failed to persist queue")
	default:
		s.writeJSON(w, http.StatusOK, api.NewCallResponse(called))
	}
}

func (s *apiServer) handleIssue(w http.ResponseWriter, r *http.Request) {
	if !s.requireLedger(w) {
		return
	}
	ticket, err := s.ledger.IssueTicket(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to persist queue")
		return
	}
	s.writeJSON(w, http.StatusCreated, api.NewIssueResponse(ticket))
}

func (s *apiServer) handleAdminQueue(w http.ResponseWriter, r *http.Request) {
	if !s.requireLedger(w) {
		return
	}
	s.writeJSON(w, http.StatusOK, api.Admin(s.ledger.Snapshot(), s.sinkHealth()))
}

func (s *apiServer) requireLedger(w http.ResponseWriter) bool {
	if s.displayOnly || s.ledger == nil {
		s.writeError(w, http.StatusServiceUnavailable, "queue unavailable in display-only mode")
		return false
	}
	return true
}

func (s *apiServer) sinkHealth() *api.SinkHealth {
	if s.health == nil {
		return nil
	}
	return s.health()
}

func (s *apiServer) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("failed to render page", logging.String("page", name), logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
