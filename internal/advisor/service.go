// internal/advisor/service.go
// Package advisor implements the AI suggestion service: per-session quota
// and TTL caching in front of the text-generation provider, plus durable
// suggestion history.
package advisor

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	stderrors "evaldash/internal/common/errors"
	"evaldash/internal/common/logger"
	"evaldash/internal/common/metrics"
	"evaldash/internal/models"
)

const (
	// DefaultCallCeiling is the fixed per-session provider call limit.
	DefaultCallCeiling = 50

	minCacheTTLHours = 1
	maxCacheTTLHours = 72
)

// User-facing messages for expected conditions. Quota exhaustion and provider
// failures are surfaced as plain text, never as errors, in the interactive path.
const (
	QuotaExceededMessage    = "The AI suggestion limit for this session has been reached. Please try again later."
	GenerationFailedMessage = "An error occurred while generating the AI suggestion. Please try again later."
)

// Provider generates suggestion text from a prompt.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Enabled() bool
}

// TemplateResolver looks up administrable prompt templates.
type TemplateResolver interface {
	Get(ctx context.Context, templateID string) (*models.PromptTemplate, error)
}

// SuggestionPersister stores suggestion history rows.
type SuggestionPersister interface {
	Insert(ctx context.Context, subjectID *string, text string) (string, error)
	UpdateStatus(ctx context.Context, recordID string, update models.StatusUpdate) (*models.SuggestionRecord, error)
	ListBySubject(ctx context.Context, subjectID *string) ([]models.SuggestionRecord, error)
}

// Service coordinates suggestion generation per session. Generation and
// persistence are decoupled: Generate never writes history rows, and
// RecordSuggestion never touches the cache or quota.
type Service struct {
	provider    Provider
	templates   TemplateResolver
	suggestions SuggestionPersister
	sessions    *sessionRegistry
	debug       bool
	ceiling     int
	ttl         atomic.Int64 // nanoseconds, adjustable at runtime
	logger      logger.Logger
}

func NewService(provider Provider, templates TemplateResolver, suggestions SuggestionPersister, debug bool, cacheTTLHours, callCeiling int, log logger.Logger) *Service {
	if callCeiling <= 0 {
		callCeiling = DefaultCallCeiling
	}
	s := &Service{
		provider:    provider,
		templates:   templates,
		suggestions: suggestions,
		sessions:    newSessionRegistry(),
		debug:       debug,
		ceiling:     callCeiling,
		logger:      log.WithFields(map[string]interface{}{"component": "advisor"}),
	}
	s.SetCacheTTL(cacheTTLHours)
	return s
}

// SetCacheTTL adjusts the cache TTL at runtime, clamped to 1-72 hours, and
// returns the applied value. Existing entries keep their original expiry.
func (s *Service) SetCacheTTL(hours int) int {
	if hours < minCacheTTLHours {
		hours = minCacheTTLHours
	}
	if hours > maxCacheTTLHours {
		hours = maxCacheTTLHours
	}
	s.ttl.Store(int64(time.Duration(hours) * time.Hour))
	return hours
}

// CacheTTL returns the currently configured TTL.
func (s *Service) CacheTTL() time.Duration {
	return time.Duration(s.ttl.Load())
}

// Generate produces an improvement suggestion for the given scores. Expected
// conditions (quota exhaustion, provider failure) are returned as fixed
// user-facing text with a nil error; only invalid input produces an error.
func (s *Service) Generate(ctx context.Context, sessionID string, scores models.ScoreSet, templateID string) (string, error) {
	if scores.IsZero() {
		return "", stderrors.NewValidationFailedError("score set must contain at least one non-zero dimension")
	}

	sess := s.sessions.get(sessionID)
	now := time.Now()

	sess.mu.Lock()

	if sess.budget >= s.ceiling {
		sess.mu.Unlock()
		metrics.QuotaRejections.Inc()
		s.logger.Info("quota ceiling reached", map[string]interface{}{
			"sessionId": sessionID,
			"ceiling":   s.ceiling,
		})
		return QuotaExceededMessage, nil
	}

	if s.debug {
		sess.mu.Unlock()
		metrics.SuggestionsGenerated.WithLabelValues("debug").Inc()
		return debugResponse(scores), nil
	}

	sess.cache.sweep(now)

	key := scores.CacheKey(templateID)
	if text, ok := sess.cache.lookup(key, now); ok {
		sess.mu.Unlock()
		metrics.SuggestionCacheHits.Inc()
		metrics.SuggestionsGenerated.WithLabelValues("cache").Inc()
		return text, nil
	}

	if flight, ok := sess.inflight[key]; ok {
		sess.mu.Unlock()
		select {
		case <-flight.done:
		case <-ctx.Done():
			return GenerationFailedMessage, nil
		}
		if flight.err != nil {
			return GenerationFailedMessage, nil
		}
		metrics.SuggestionsGenerated.WithLabelValues("cache").Inc()
		return flight.text, nil
	}

	flight := &inflightCall{done: make(chan struct{})}
	sess.inflight[key] = flight
	sess.mu.Unlock()

	text, err := s.provider.Complete(ctx, s.buildPrompt(ctx, scores, templateID))

	sess.mu.Lock()
	delete(sess.inflight, key)
	if err == nil {
		sess.cache.put(key, text, s.CacheTTL(), time.Now())
		sess.budget++
	}
	sess.mu.Unlock()

	flight.text = text
	flight.err = err
	close(flight.done)

	if err != nil {
		s.logger.Error("suggestion generation failed", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		return GenerationFailedMessage, nil
	}

	metrics.SuggestionsGenerated.WithLabelValues("provider").Inc()
	return text, nil
}

// buildPrompt resolves the template and substitutes the scores. An
// unresolvable template identifier falls back to the built-in default.
func (s *Service) buildPrompt(ctx context.Context, scores models.ScoreSet, templateID string) string {
	tmpl := models.DefaultPromptTemplate()
	if templateID != "" && s.templates != nil {
		stored, err := s.templates.Get(ctx, templateID)
		if err != nil {
			s.logger.Warn("prompt template unresolved, using default", map[string]interface{}{
				"templateId": templateID,
				"error":      err.Error(),
			})
		} else {
			tmpl = *stored
		}
	}
	return tmpl.Render(scores)
}

// RecordSuggestion durably appends a history row for an accepted suggestion.
func (s *Service) RecordSuggestion(ctx context.Context, subjectID *string, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", stderrors.NewValidationFailedError("suggestion text must not be empty or all-whitespace")
	}
	return s.suggestions.Insert(ctx, subjectID, text)
}

// UpdateStatus applies a partial status update to a persisted suggestion.
func (s *Service) UpdateStatus(ctx context.Context, recordID string, update models.StatusUpdate) (*models.SuggestionRecord, error) {
	if update.Rating != nil && (*update.Rating < 1 || *update.Rating > 5) {
		return nil, stderrors.NewValidationFailedError("effectiveness rating must be between 1 and 5")
	}
	return s.suggestions.UpdateStatus(ctx, recordID, update)
}

// History returns the suggestion records for a subject, newest first.
func (s *Service) History(ctx context.Context, subjectID *string) ([]models.SuggestionRecord, error) {
	return s.suggestions.ListBySubject(ctx, subjectID)
}

// CacheStatistics counts the session's cache entries against the current
// time. It is a pure read: nothing is evicted.
func (s *Service) CacheStatistics(sessionID string) models.CacheStats {
	sess := s.sessions.get(sessionID)
	now := time.Now()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.cache.stats(now)
}

// ClearCache empties the session's cache. The call budget and persisted
// records are unaffected.
func (s *Service) ClearCache(sessionID string) {
	sess := s.sessions.get(sessionID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.cache.clear()
}

// PruneSessions drops sessions idle for longer than maxIdle.
func (s *Service) PruneSessions(maxIdle time.Duration) int {
	removed := s.sessions.prune(maxIdle)
	if removed > 0 {
		s.logger.Debug("idle sessions pruned", map[string]interface{}{
			"removed":   removed,
			"remaining": s.sessions.len(),
		})
	}
	return removed
}

// debugResponse synthesizes a deterministic offline response naming the
// lowest-scoring dimension(s).
func debugResponse(scores models.ScoreSet) string {
	lowest, value := scores.Lowest()
	names := make([]string, len(lowest))
	for i, d := range lowest {
		names[i] = string(d)
	}

	return fmt.Sprintf(`Debug mode: improvement suggestions
Focus areas: %s
Score: %.1f/5

1. Hold regular one-on-one meetings
2. Provide specific, actionable feedback
3. Tighten goal setting and progress tracking
4. Energize communication within the team

This is a debug-mode response. No provider call was made.`,
		strings.Join(names, ", "), value)
}
