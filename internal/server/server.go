// internal/server/server.go
// Package server exposes the advisor, score and admin operations as a thin
// JSON HTTP surface. Presentation stays with the clients; handlers return
// plain data.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	stderrors "evaldash/internal/common/errors"
	"evaldash/internal/common/logger"
	"evaldash/internal/models"
)

// SessionHeader carries the caller's session identifier. Quota and cache
// state are scoped to it.
const SessionHeader = "X-Session-ID"

// Advisor is the suggestion service surface the handlers depend on.
type Advisor interface {
	Generate(ctx context.Context, sessionID string, scores models.ScoreSet, templateID string) (string, error)
	RecordSuggestion(ctx context.Context, subjectID *string, text string) (string, error)
	UpdateStatus(ctx context.Context, recordID string, update models.StatusUpdate) (*models.SuggestionRecord, error)
	History(ctx context.Context, subjectID *string) ([]models.SuggestionRecord, error)
	CacheStatistics(sessionID string) models.CacheStats
	ClearCache(sessionID string)
	SetCacheTTL(hours int) int
}

// ScoreReader serves evaluation score reads.
type ScoreReader interface {
	FetchScores(ctx context.Context, subjectID string) (models.ScoreSet, error)
	FetchAggregateScores(ctx context.Context) (models.ScoreSet, error)
}

// TemplateAdmin serves prompt template administration.
type TemplateAdmin interface {
	List(ctx context.Context) ([]models.PromptTemplate, error)
	Insert(ctx context.Context, tmpl models.PromptTemplate) (string, error)
	Update(ctx context.Context, tmpl models.PromptTemplate) error
}

// MetricAdmin serves evaluation metric administration.
type MetricAdmin interface {
	ListActive(ctx context.Context) ([]models.EvaluationMetric, error)
	Add(ctx context.Context, metric models.EvaluationMetric) (string, error)
}

type Server struct {
	advisor   Advisor
	scores    ScoreReader
	templates TemplateAdmin
	metrics   MetricAdmin
	logger    logger.Logger
}

func New(adv Advisor, scores ScoreReader, templates TemplateAdmin, metricDefs MetricAdmin, log logger.Logger) *Server {
	return &Server{
		advisor:   adv,
		scores:    scores,
		templates: templates,
		metrics:   metricDefs,
		logger:    log.WithFields(map[string]interface{}{"component": "http-server"}),
	}
}

// Routes builds the request multiplexer for the JSON API.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/suggestions/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/suggestions", s.handleRecordSuggestion)
	mux.HandleFunc("PATCH /api/suggestions/{id}/status", s.handleUpdateStatus)
	mux.HandleFunc("GET /api/suggestions", s.handleListSuggestions)

	mux.HandleFunc("GET /api/cache/stats", s.handleCacheStats)
	mux.HandleFunc("DELETE /api/cache", s.handleClearCache)
	mux.HandleFunc("PUT /api/cache/ttl", s.handleSetCacheTTL)

	mux.HandleFunc("GET /api/scores/aggregate", s.handleAggregateScores)
	mux.HandleFunc("GET /api/scores/{subjectId}", s.handleSubjectScores)

	mux.HandleFunc("GET /api/templates", s.handleListTemplates)
	mux.HandleFunc("POST /api/templates", s.handleCreateTemplate)
	mux.HandleFunc("PUT /api/templates/{id}", s.handleUpdateTemplate)

	mux.HandleFunc("GET /api/metric-definitions", s.handleListMetrics)
	mux.HandleFunc("POST /api/metric-definitions", s.handleAddMetric)

	return mux
}

// sessionID extracts the session header; an empty value is a caller error.
func sessionID(r *http.Request) (string, error) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		return "", stderrors.NewValidationFailedError(SessionHeader + " header is required")
	}
	return id, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error("response encoding failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// writeError maps the error taxonomy onto HTTP statuses. Caller errors keep
// their details; everything else is logged and collapsed into a generic
// message so internals never leak.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr, ok := err.(*stderrors.StandardError)
	if ok && stderrors.IsCallerError(err) {
		status := http.StatusBadRequest
		if stdErr.Code == stderrors.ErrCodeRecordNotFound || stdErr.Code == stderrors.ErrCodeTemplateNotFound {
			status = http.StatusNotFound
		}
		s.writeJSON(w, status, map[string]interface{}{"error": errorBody{
			Code:    string(stdErr.Code),
			Message: stdErr.Message,
			Details: stdErr.Details,
		}})
		return
	}

	s.logger.Error("request failed", map[string]interface{}{
		"path":  r.URL.Path,
		"error": err.Error(),
	})
	s.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": errorBody{
		Code:    "INTERNAL_ERROR",
		Message: "An internal error occurred. Please try again later.",
	}})
}
