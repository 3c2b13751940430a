// internal/store/metrics_test.go
package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "evaldash/internal/common/errors"
	"evaldash/internal/common/logger"
	"evaldash/internal/models"
)

func setupMetricStore(t *testing.T) (*MetricStore, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	store := NewMetricStore(db, logger.NewTestLogger(t))
	return store, mock, func() { db.Close() }
}

func validMetric() models.EvaluationMetric {
	return models.EvaluationMetric{
		Name:        "Mentoring",
		Description: "Quality of mentoring junior staff",
		Category:    "custom",
		Weight:      1.0,
	}
}

func TestMetricStore_ListActive(t *testing.T) {
	store, mock, cleanup := setupMetricStore(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "name", "description", "category", "weight", "is_active"}).
		AddRow("1", "Communication", "Core communication skills", "core", 1.0, true).
		AddRow("7", "Mentoring", "Mentoring quality", "custom", 0.8, true)
	mock.ExpectQuery(`SELECT(.|\n)*FROM evaluation_metrics WHERE is_active = true(.|\n)*ORDER BY category, id`).
		WillReturnRows(rows)

	defs, err := store.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "core", defs[0].Category)
	assert.Equal(t, "custom", defs[1].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricStore_Add(t *testing.T) {
	store, mock, cleanup := setupMetricStore(t)
	defer cleanup()

	metric := validMetric()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM evaluation_metrics WHERE name = \$1`).
		WithArgs(metric.Name).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO evaluation_metrics(.|\n)*RETURNING id`).
		WithArgs(metric.Name, metric.Description, metric.Category, metric.Weight).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("42"))

	id, err := store.Add(context.Background(), metric)
	require.NoError(t, err)
	assert.Equal(t, "42", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricStore_Add_DuplicateName(t *testing.T) {
	store, mock, cleanup := setupMetricStore(t)
	defer cleanup()

	metric := validMetric()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM evaluation_metrics WHERE name = \$1`).
		WithArgs(metric.Name).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := store.Add(context.Background(), metric)
	require.Error(t, err)
	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeValidationFailed))
}

func TestMetricStore_Add_ValidationRules(t *testing.T) {
	store, _, cleanup := setupMetricStore(t)
	defer cleanup()

	tests := []struct {
		name   string
		mutate func(*models.EvaluationMetric)
	}{
		{name: "empty name", mutate: func(m *models.EvaluationMetric) { m.Name = "" }},
		{name: "name too long", mutate: func(m *models.EvaluationMetric) {
			for len(m.Name) <= 100 {
				m.Name += "x"
			}
		}},
		{name: "empty description", mutate: func(m *models.EvaluationMetric) { m.Description = "  " }},
		{name: "invalid category", mutate: func(m *models.EvaluationMetric) { m.Category = "other" }},
		{name: "weight too low", mutate: func(m *models.EvaluationMetric) { m.Weight = 0.05 }},
		{name: "weight too high", mutate: func(m *models.EvaluationMetric) { m.Weight = 2.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metric := validMetric()
			tt.mutate(&metric)

			_, err := store.Add(context.Background(), metric)
			require.Error(t, err)
			assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeValidationFailed))
		})
	}
}
