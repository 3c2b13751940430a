// internal/store/templates_test.go
package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "evaldash/internal/common/errors"
	"evaldash/internal/common/logger"
	"evaldash/internal/models"
)

func setupTemplateStore(t *testing.T) (*TemplateStore, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	store := NewTemplateStore(db, logger.NewTestLogger(t))
	return store, mock, func() { db.Close() }
}

func templateColumns() []string {
	return []string{"id", "name", "description", "body"}
}

func TestTemplateStore_Get(t *testing.T) {
	store, mock, cleanup := setupTemplateStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT id, name, description, body FROM prompt_templates WHERE id = \$1`).
		WithArgs("tpl-1").
		WillReturnRows(sqlmock.NewRows(templateColumns()).
			AddRow("tpl-1", "Growth focus", "", "Scores: {{communication}}"))

	tmpl, err := store.Get(context.Background(), "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "Growth focus", tmpl.Name)
	assert.Contains(t, tmpl.Body, "{{communication}}")
}

func TestTemplateStore_Get_NotFound(t *testing.T) {
	store, mock, cleanup := setupTemplateStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT id, name, description, body FROM prompt_templates WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeTemplateNotFound))
}

func TestTemplateStore_Insert(t *testing.T) {
	store, mock, cleanup := setupTemplateStore(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO prompt_templates`).
		WithArgs(sqlmock.AnyArg(), "New template", "desc", "body").
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := store.Insert(context.Background(), models.PromptTemplate{
		Name:        "New template",
		Description: "desc",
		Body:        "body",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateStore_Update_NotFound(t *testing.T) {
	store, mock, cleanup := setupTemplateStore(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE prompt_templates`).
		WithArgs("missing", "n", "d", "b").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Update(context.Background(), models.PromptTemplate{
		ID: "missing", Name: "n", Description: "d", Body: "b",
	})
	require.Error(t, err)
	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeTemplateNotFound))
}

func TestTemplateStore_List(t *testing.T) {
	store, mock, cleanup := setupTemplateStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT id, name, description, body FROM prompt_templates ORDER BY name`).
		WillReturnRows(sqlmock.NewRows(templateColumns()).
			AddRow("tpl-1", "Alpha", "", "body-a").
			AddRow("tpl-2", "Beta", "", "body-b"))

	templates, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, "Alpha", templates[0].Name)
}
