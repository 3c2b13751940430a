// internal/server/handlers.go
package server

import (
	"net/http"

	stderrors "evaldash/internal/common/errors"
	"evaldash/internal/models"
)

type generateRequest struct {
	Scores     map[string]float64 `json:"scores"`
	TemplateID string             `json:"template_id"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req generateRequest
	if err := decodeAndValidate(r, generateSchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	scores, err := models.NewScoreSet(req.Scores)
	if err != nil {
		s.writeError(w, r, stderrors.NewValidationFailedError(err.Error()))
		return
	}

	text, err := s.advisor.Generate(r.Context(), sid, scores, req.TemplateID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"suggestion": text})
}

type recordRequest struct {
	SubjectID *string `json:"subject_id"`
	Text      string  `json:"text"`
}

func (s *Server) handleRecordSuggestion(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeAndValidate(r, recordSchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.advisor.RecordSuggestion(r.Context(), req.SubjectID, req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]string{"record_id": id})
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	recordID := r.PathValue("id")

	var update models.StatusUpdate
	if err := decodeAndValidate(r, statusUpdateSchema, &update); err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := s.advisor.UpdateStatus(r.Context(), recordID, update)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListSuggestions(w http.ResponseWriter, r *http.Request) {
	var subjectID *string
	if v := r.URL.Query().Get("subject_id"); v != "" {
		subjectID = &v
	}

	records, err := s.advisor.History(r.Context(), subjectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []models.SuggestionRecord{}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": records})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, s.advisor.CacheStatistics(sid))
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.advisor.ClearCache(sid)
	s.writeJSON(w, http.StatusNoContent, nil)
}

type cacheTTLRequest struct {
	Hours int `json:"hours"`
}

func (s *Server) handleSetCacheTTL(w http.ResponseWriter, r *http.Request) {
	var req cacheTTLRequest
	if err := decodeAndValidate(r, cacheTTLSchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	applied := s.advisor.SetCacheTTL(req.Hours)
	s.writeJSON(w, http.StatusOK, map[string]int{"hours": applied})
}

func (s *Server) handleSubjectScores(w http.ResponseWriter, r *http.Request) {
	scores, err := s.scores.FetchScores(r.Context(), r.PathValue("subjectId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, scores)
}

func (s *Server) handleAggregateScores(w http.ResponseWriter, r *http.Request) {
	scores, err := s.scores.FetchAggregateScores(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, scores)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.templates.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if templates == nil {
		templates = []models.PromptTemplate{}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"templates": templates})
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var tmpl models.PromptTemplate
	if err := decodeAndValidate(r, templateSchema, &tmpl); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.templates.Insert(r.Context(), tmpl)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]string{"template_id": id})
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var tmpl models.PromptTemplate
	if err := decodeAndValidate(r, templateSchema, &tmpl); err != nil {
		s.writeError(w, r, err)
		return
	}
	tmpl.ID = r.PathValue("id")

	if err := s.templates.Update(r.Context(), tmpl); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, tmpl)
}

func (s *Server) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	defs, err := s.metrics.ListActive(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if defs == nil {
		defs = []models.EvaluationMetric{}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"metrics": defs})
}

func (s *Server) handleAddMetric(w http.ResponseWriter, r *http.Request) {
	var metric models.EvaluationMetric
	if err := decodeAndValidate(r, metricSchema, &metric); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.metrics.Add(r.Context(), metric)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]string{"metric_id": id})
}
