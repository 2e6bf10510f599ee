// Package api provides the HTTP server for the reconciler.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"payment-reconciliation/internal/domain"
)

// Reconciler is the set of reconciliation operations exposed over HTTP.
type Reconciler interface {
	Reconcile(ctx context.Context, organizationID string) (*domain.ReconciliationResult, error)
	AutoReconcile(ctx context.Context, organizationID string) (*domain.ReconciliationResult, *domain.BatchResult, error)
	ApplyMatches(ctx context.Context, organizationID string, matches []domain.Match) (*domain.BatchResult, error)
	ManualReconcile(ctx context.Context, organizationID, paymentID, transactionID string) (*domain.Payment, error)
	BulkReconcile(ctx context.Context, organizationID string, pairs []domain.Pair) (*domain.BatchResult, error)
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server is the reconciler HTTP API server.
type Server struct {
	reconciler     Reconciler
	health         HealthChecker // nil skips the store check
	logger         *zap.Logger
	requestTimeout time.Duration
}

// NewServer creates a new API server.
func NewServer(reconciler Reconciler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		reconciler:     reconciler,
		logger:         logger,
		requestTimeout: 30 * time.Second,
	}
}

// SetHealthChecker makes /health ping the store.
func (s *Server) SetHealthChecker(h HealthChecker) { s.health = h }

// SetRequestTimeout bounds every request. Zero or less keeps the default.
func (s *Server) SetRequestTimeout(d time.Duration) {
	if d > 0 {
		s.requestTimeout = d
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/organizations/{orgID}/reconciliations", func(r chi.Router) {
		r.Post("/preview", s.handlePreview)
		r.Post("/auto", s.handleAuto)
		r.Post("/apply", s.handleApply)
		r.Post("/manual", s.handleManual)
		r.Post("/bulk", s.handleBulk)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	result, err := s.reconciler.Reconcile(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type autoResponse struct {
	Preview *domain.ReconciliationResult `json:"preview"`
	Applied *domain.BatchResult          `json:"applied"`
}

func (s *Server) handleAuto(w http.ResponseWriter, r *http.Request) {
	preview, applied, err := s.reconciler.AutoReconcile(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, autoResponse{Preview: preview, Applied: applied})
}

type applyRequest struct {
	Matches []domain.Match `json:"matches"`
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := s.reconciler.ApplyMatches(r.Context(), chi.URLParam(r, "orgID"), req.Matches)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleManual(w http.ResponseWriter, r *http.Request) {
	var req domain.Pair
	if !decodeJSON(w, r, &req) {
		return
	}
	payment, err := s.reconciler.ManualReconcile(r.Context(), chi.URLParam(r, "orgID"), req.PaymentID, req.TransactionID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

type bulkRequest struct {
	Pairs []domain.Pair `json:"pairs"`
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := s.reconciler.BulkReconcile(r.Context(), chi.URLParam(r, "orgID"), req.Pairs)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyReconciled):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStorageFailure):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError || status == http.StatusGatewayTimeout {
		s.logger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg = http.StatusText(status)
	}
	writeError(w, status, msg)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}
