// internal/store/metrics.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	stderrors "evaldash/internal/common/errors"
	"evaldash/internal/common/logger"
	"evaldash/internal/models"
)

// MetricStore persists admin-managed evaluation metric definitions.
type MetricStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewMetricStore(db *sql.DB, log logger.Logger) *MetricStore {
	return &MetricStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "metric-store"}),
	}
}

// ListActive returns the active metric definitions ordered by category then id.
func (s *MetricStore) ListActive(ctx context.Context) ([]models.EvaluationMetric, error) {
	query := `SELECT id, name, description, category, weight, is_active
		FROM evaluation_metrics WHERE is_active = true
		ORDER BY category, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, stderrors.NewDatabaseQueryError("list_metrics", err)
	}
	defer rows.Close()

	var defs []models.EvaluationMetric
	for rows.Next() {
		var m models.EvaluationMetric
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Category, &m.Weight, &m.IsActive); err != nil {
			return nil, stderrors.NewDatabaseQueryError("list_metrics_scan", err)
		}
		defs = append(defs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabaseQueryError("list_metrics_rows", err)
	}
	return defs, nil
}

// Add validates and inserts a new metric definition, rejecting duplicate
// names, and returns the generated identifier.
func (s *MetricStore) Add(ctx context.Context, metric models.EvaluationMetric) (string, error) {
	if details := metric.Validate(); details != "" {
		return "", stderrors.NewValidationFailedError(details)
	}

	var count int
	dupQuery := `SELECT COUNT(*) FROM evaluation_metrics WHERE name = $1`
	if err := s.db.QueryRowContext(ctx, dupQuery, metric.Name).Scan(&count); err != nil {
		return "", stderrors.NewDatabaseQueryError("metric_duplicate_check", err)
	}
	if count > 0 {
		return "", stderrors.NewValidationFailedError(fmt.Sprintf("metric name %q already exists", metric.Name))
	}

	var id string
	insertQuery := `INSERT INTO evaluation_metrics (name, description, category, weight, is_active)
		VALUES ($1, $2, $3, $4, true) RETURNING id`
	err := s.db.QueryRowContext(ctx, insertQuery,
		metric.Name, metric.Description, metric.Category, metric.Weight).Scan(&id)
	if err != nil {
		return "", stderrors.NewPersistenceFailedError(err)
	}

	s.logger.Info("evaluation metric added", map[string]interface{}{
		"metricId": id,
		"name":     metric.Name,
	})
	return id, nil
}
