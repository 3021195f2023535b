package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/decayscope/internal/domain"
	dombatch "github.com/kailas-cloud/decayscope/internal/domain/batch"
	"github.com/kailas-cloud/decayscope/internal/logger"
	analysisuc "github.com/kailas-cloud/decayscope/internal/usecase/analysis"
	audituc "github.com/kailas-cloud/decayscope/internal/usecase/audit"
	healthuc "github.com/kailas-cloud/decayscope/internal/usecase/health"
	usageuc "github.com/kailas-cloud/decayscope/internal/usecase/usage"
	"github.com/kailas-cloud/decayscope/internal/version"
)

// Request limits.
const (
	DefaultMaxBatchSize = 100
	DefaultMaxBodyBytes = 16 << 20
	DefaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the decay analysis API.
type Server struct {
	analysis      *analysisuc.Service
	audit         *audituc.Service
	health        *healthuc.Service
	usage         *usageuc.Service
	logger        *zap.Logger
	maxBatchSize  int
	maxBodyBytes  int64
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	analysis *analysisuc.Service,
	audit *audituc.Service,
	health *healthuc.Service,
	usage *usageuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		analysis:     analysis,
		audit:        audit,
		health:       health,
		usage:        usage,
		logger:       logger,
		maxBatchSize: DefaultMaxBatchSize,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrInvalidDocument, http.StatusBadRequest, CodeInvalidDocument),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidReviewTransition, http.StatusConflict, CodeInvalidReviewTransition),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, CodeEmbeddingQuotaExceeded),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
	}
	return s
}

// WithMaxBatchSize caps the number of documents per batch request.
func (s *Server) WithMaxBatchSize(n int) *Server {
	if n > 0 {
		s.maxBatchSize = n
	}
	return s
}

// WithMaxBodyBytes caps request body size.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r gochi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r gochi.Router) {
		r.Post("/analyses", s.CreateAnalysis)
		r.Post("/analyses/batch", s.BatchAnalyze)
		r.Get("/analyses/{id}", s.GetAnalysis)
		r.Put("/analyses/{id}/review", s.ReviewAnalysis)
		r.Get("/documents/{id}/analyses", s.ListDocumentAnalyses)
		r.Get("/documents/{id}/analyses/latest", s.LatestDocumentAnalysis)
		r.Get("/usage", s.GetUsage)
	})
}

// CreateAnalysis handles POST /api/v1/analyses.
func (s *Server) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !s.decode(w, r, &req) {
		return
	}

	out, err := s.analysis.Analyze(r.Context(), req.Input())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	rec, err := s.audit.Record(r.Context(), req.Document.ID, req.Document.WorkspaceID, out)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, recordToResponse(rec))
}

// BatchAnalyze handles POST /api/v1/analyses/batch.
func (s *Server) BatchAnalyze(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !s.decode(w, r, &req) {
		return
	}

	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "documents must not be empty")
		return
	}
	if len(req.Documents) > s.maxBatchSize {
		writeError(w, http.StatusBadRequest, CodeBadRequest,
			fmt.Sprintf("batch size %d exceeds maximum of %d", len(req.Documents), s.maxBatchSize))
		return
	}

	results := s.analysis.BatchAnalyze(r.Context(), req.Items(), req.Pool(), req.NowOrZero())

	resp := BatchResponse{Results: make([]BatchResultItem, 0, len(results))}
	for i, res := range results {
		analysisID := ""
		if res.Status() == dombatch.StatusOK {
			rec, err := s.audit.Record(r.Context(), res.ID(), req.Documents[i].Document.WorkspaceID, res.Outcome())
			if err != nil {
				logger.FromContext(r.Context()).Warn("Batch analysis not persisted",
					zap.String("document_id", res.ID()), zap.Error(err))
			} else {
				analysisID = rec.ID
			}
		}
		resp.Results = append(resp.Results, BatchResultToResponse(res, analysisID))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetAnalysis handles GET /api/v1/analyses/{id}.
func (s *Server) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	rec, err := s.audit.Get(r.Context(), gochi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(rec))
}

// ReviewAnalysis handles PUT /api/v1/analyses/{id}/review.
func (s *Server) ReviewAnalysis(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if !s.decode(w, r, &req) {
		return
	}

	rec, err := s.audit.Review(r.Context(), gochi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(rec))
}

// ListDocumentAnalyses handles GET /api/v1/documents/{id}/analyses.
func (s *Server) ListDocumentAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			writeError(w, http.StatusBadRequest, CodeBadRequest,
				fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit))
			return
		}
		limit = n
	}

	recs, err := s.audit.History(r.Context(), gochi.URLParam(r, "id"), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := AnalysisListResponse{Items: make([]AnalysisResponse, 0, len(recs))}
	for _, rec := range recs {
		resp.Items = append(resp.Items, recordToResponse(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

// LatestDocumentAnalysis handles GET /api/v1/documents/{id}/analyses/latest.
func (s *Server) LatestDocumentAnalysis(w http.ResponseWriter, r *http.Request) {
	rec, err := s.audit.Latest(r.Context(), gochi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(rec))
}

// GetUsage handles GET /api/v1/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, usageToResponse(s.usage.GetReport(r.Context())))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
		Build:  version.Current(),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Validation errors keep their full text since it names only request fields.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidDocument) || errors.Is(err, domain.ErrInvalidRequest) ||
		errors.Is(err, domain.ErrInvalidReviewTransition) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrRateLimited,
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
