// internal/store/templates.go
package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	stderrors "evaldash/internal/common/errors"
	"evaldash/internal/common/logger"
	"evaldash/internal/models"
)

// TemplateStore persists administrable prompt templates.
type TemplateStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewTemplateStore(db *sql.DB, log logger.Logger) *TemplateStore {
	return &TemplateStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "template-store"}),
	}
}

// Get returns the template with the given identifier.
func (s *TemplateStore) Get(ctx context.Context, templateID string) (*models.PromptTemplate, error) {
	query := `SELECT id, name, description, body FROM prompt_templates WHERE id = $1`

	var tmpl models.PromptTemplate
	err := s.db.QueryRowContext(ctx, query, templateID).Scan(
		&tmpl.ID, &tmpl.Name, &tmpl.Description, &tmpl.Body,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, stderrors.NewTemplateNotFoundError(templateID)
		}
		return nil, stderrors.NewDatabaseQueryError("get_template", err)
	}
	return &tmpl, nil
}

// List returns all stored templates ordered by name.
func (s *TemplateStore) List(ctx context.Context) ([]models.PromptTemplate, error) {
	query := `SELECT id, name, description, body FROM prompt_templates ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, stderrors.NewDatabaseQueryError("list_templates", err)
	}
	defer rows.Close()

	var templates []models.PromptTemplate
	for rows.Next() {
		var tmpl models.PromptTemplate
		if err := rows.Scan(&tmpl.ID, &tmpl.Name, &tmpl.Description, &tmpl.Body); err != nil {
			return nil, stderrors.NewDatabaseQueryError("list_templates_scan", err)
		}
		templates = append(templates, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabaseQueryError("list_templates_rows", err)
	}
	return templates, nil
}

// Insert stores a new template and returns its identifier.
func (s *TemplateStore) Insert(ctx context.Context, tmpl models.PromptTemplate) (string, error) {
	if tmpl.ID == "" {
		tmpl.ID = uuid.NewString()
	}
	query := `INSERT INTO prompt_templates (id, name, description, body) VALUES ($1, $2, $3, $4)`

	_, err := s.db.ExecContext(ctx, query, tmpl.ID, tmpl.Name, tmpl.Description, tmpl.Body)
	if err != nil {
		return "", stderrors.NewPersistenceFailedError(err)
	}

	s.logger.Info("prompt template created", map[string]interface{}{
		"templateId": tmpl.ID,
		"name":       tmpl.Name,
	})
	return tmpl.ID, nil
}

// Update rewrites an existing template. Missing identifiers are an error.
func (s *TemplateStore) Update(ctx context.Context, tmpl models.PromptTemplate) error {
	query := `UPDATE prompt_templates SET name = $2, description = $3, body = $4 WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, tmpl.ID, tmpl.Name, tmpl.Description, tmpl.Body)
	if err != nil {
		return stderrors.NewPersistenceFailedError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return stderrors.NewPersistenceFailedError(err)
	}
	if affected == 0 {
		return stderrors.NewTemplateNotFoundError(tmpl.ID)
	}

	s.logger.Info("prompt template updated", map[string]interface{}{
		"templateId": tmpl.ID,
	})
	return nil
}
