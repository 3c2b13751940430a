// internal/store/suggestions.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	stderrors "evaldash/internal/common/errors"
	"evaldash/internal/common/logger"
	"evaldash/internal/models"
)

// SuggestionStore persists suggestion history rows. Each call is a single
// atomic insert or update; generation and persistence are decoupled upstream.
type SuggestionStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewSuggestionStore(db *sql.DB, log logger.Logger) *SuggestionStore {
	return &SuggestionStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "suggestion-store"}),
	}
}

// Insert appends a new suggestion record and returns its identifier.
func (s *SuggestionStore) Insert(ctx context.Context, subjectID *string, text string) (string, error) {
	id := uuid.NewString()
	query := `INSERT INTO ai_suggestions
			(id, subject_id, suggestion_text, created_at, is_implemented, feedback_log)
		VALUES ($1, $2, $3, $4, false, '')`

	_, err := s.db.ExecContext(ctx, query, id, subjectID, text, time.Now().UTC())
	if err != nil {
		return "", stderrors.NewPersistenceFailedError(err)
	}

	s.logger.Info("suggestion recorded", map[string]interface{}{
		"recordId": id,
	})
	return id, nil
}

// Get returns a single suggestion record by identifier.
func (s *SuggestionStore) Get(ctx context.Context, recordID string) (*models.SuggestionRecord, error) {
	query := `SELECT id, subject_id, suggestion_text, created_at, is_implemented,
			implemented_at, effectiveness_rating, feedback_log
		FROM ai_suggestions WHERE id = $1`

	var rec models.SuggestionRecord
	err := s.db.QueryRowContext(ctx, query, recordID).Scan(
		&rec.ID, &rec.SubjectID, &rec.SuggestionText, &rec.CreatedAt,
		&rec.IsImplemented, &rec.ImplementedAt, &rec.EffectivenessRating, &rec.FeedbackLog,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, stderrors.NewRecordNotFoundError(recordID)
		}
		return nil, stderrors.NewDatabaseQueryError("get_suggestion", err)
	}
	return &rec, nil
}

// UpdateStatus applies a partial status update to one record. Unset fields
// stay unchanged. The implementation timestamp is set when the flag turns
// true and cleared when it is explicitly turned false. New feedback is
// prepended to the log, newest first, preserving prior entries.
func (s *SuggestionStore) UpdateStatus(ctx context.Context, recordID string, update models.StatusUpdate) (*models.SuggestionRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, stderrors.NewPersistenceFailedError(err)
	}
	defer tx.Rollback()

	var rec models.SuggestionRecord
	selectQuery := `SELECT id, subject_id, suggestion_text, created_at, is_implemented,
			implemented_at, effectiveness_rating, feedback_log
		FROM ai_suggestions WHERE id = $1 FOR UPDATE`
	err = tx.QueryRowContext(ctx, selectQuery, recordID).Scan(
		&rec.ID, &rec.SubjectID, &rec.SuggestionText, &rec.CreatedAt,
		&rec.IsImplemented, &rec.ImplementedAt, &rec.EffectivenessRating, &rec.FeedbackLog,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, stderrors.NewRecordNotFoundError(recordID)
		}
		return nil, stderrors.NewDatabaseQueryError("update_status_select", err)
	}

	if update.Implemented != nil {
		rec.IsImplemented = *update.Implemented
		if *update.Implemented {
			if rec.ImplementedAt == nil {
				now := time.Now().UTC()
				rec.ImplementedAt = &now
			}
		} else {
			rec.ImplementedAt = nil
		}
	}
	if update.Rating != nil {
		rec.EffectivenessRating = update.Rating
	}
	if update.Feedback != nil {
		if rec.FeedbackLog == "" {
			rec.FeedbackLog = *update.Feedback
		} else {
			rec.FeedbackLog = *update.Feedback + models.FeedbackDelimiter + rec.FeedbackLog
		}
	}

	updateQuery := `UPDATE ai_suggestions
		SET is_implemented = $2, implemented_at = $3, effectiveness_rating = $4, feedback_log = $5
		WHERE id = $1`
	_, err = tx.ExecContext(ctx, updateQuery, rec.ID,
		rec.IsImplemented, rec.ImplementedAt, rec.EffectivenessRating, rec.FeedbackLog)
	if err != nil {
		return nil, stderrors.NewPersistenceFailedError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, stderrors.NewPersistenceFailedError(err)
	}

	s.logger.Info("suggestion status updated", map[string]interface{}{
		"recordId":    rec.ID,
		"implemented": rec.IsImplemented,
	})
	return &rec, nil
}

// ListBySubject returns the suggestion history for one subject, newest first.
// A nil subjectID selects company-wide suggestions.
func (s *SuggestionStore) ListBySubject(ctx context.Context, subjectID *string) ([]models.SuggestionRecord, error) {
	query := `SELECT id, subject_id, suggestion_text, created_at, is_implemented,
			implemented_at, effectiveness_rating, feedback_log
		FROM ai_suggestions WHERE subject_id IS NOT DISTINCT FROM $1
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, stderrors.NewDatabaseQueryError("list_suggestions", err)
	}
	defer rows.Close()

	var records []models.SuggestionRecord
	for rows.Next() {
		var rec models.SuggestionRecord
		if err := rows.Scan(
			&rec.ID, &rec.SubjectID, &rec.SuggestionText, &rec.CreatedAt,
			&rec.IsImplemented, &rec.ImplementedAt, &rec.EffectivenessRating, &rec.FeedbackLog,
		); err != nil {
			return nil, stderrors.NewDatabaseQueryError("list_suggestions_scan", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabaseQueryError("list_suggestions_rows", err)
	}
	return records, nil
}
