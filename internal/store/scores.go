// internal/store/scores.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	stderrors "evaldash/internal/common/errors"
	"evaldash/internal/common/logger"
	"evaldash/internal/models"
)

const (
	scoreCacheKeyPrefix = "scores:subject:"
	aggregateCacheKey   = "scores:aggregate"
)

// ScoreStore reads evaluation scores from Postgres with a Redis read-through
// cache in front. The cache is sessionless and short-lived; it only smooths
// repeated dashboard reads.
type ScoreStore struct {
	db     *sql.DB
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewScoreStore(db *sql.DB, redisClient *redis.Client, cacheTTL time.Duration, log logger.Logger) *ScoreStore {
	return &ScoreStore{
		db:     db,
		redis:  redisClient,
		ttl:    cacheTTL,
		logger: log.WithFields(map[string]interface{}{"component": "score-store"}),
	}
}

// FetchScores returns the averaged dimension scores for one subject.
func (s *ScoreStore) FetchScores(ctx context.Context, subjectID string) (models.ScoreSet, error) {
	cacheKey := scoreCacheKeyPrefix + subjectID
	if scores, ok := s.fromCache(ctx, cacheKey); ok {
		return scores, nil
	}

	var scores models.ScoreSet
	query := `SELECT
			COALESCE(AVG(communication_score), 0),
			COALESCE(AVG(support_score), 0),
			COALESCE(AVG(goal_management_score), 0),
			COALESCE(AVG(leadership_score), 0),
			COALESCE(AVG(problem_solving_score), 0),
			COALESCE(AVG(strategy_score), 0),
			COUNT(*)
		FROM evaluations WHERE manager_id = $1`

	var count int
	err := s.db.QueryRowContext(ctx, query, subjectID).Scan(
		&scores.Communication, &scores.Support, &scores.GoalManagement,
		&scores.Leadership, &scores.ProblemSolving, &scores.Strategy,
		&count,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ScoreSet{}, stderrors.NewRecordNotFoundError(subjectID)
		}
		return models.ScoreSet{}, stderrors.NewDatabaseQueryError("fetch_scores", err)
	}
	if count == 0 {
		return models.ScoreSet{}, stderrors.NewRecordNotFoundError(subjectID)
	}

	s.toCache(ctx, cacheKey, scores)
	return scores, nil
}

// FetchAggregateScores returns the company-wide averages across all subjects.
func (s *ScoreStore) FetchAggregateScores(ctx context.Context) (models.ScoreSet, error) {
	if scores, ok := s.fromCache(ctx, aggregateCacheKey); ok {
		return scores, nil
	}

	var scores models.ScoreSet
	query := `SELECT
			COALESCE(AVG(communication_score), 0),
			COALESCE(AVG(support_score), 0),
			COALESCE(AVG(goal_management_score), 0),
			COALESCE(AVG(leadership_score), 0),
			COALESCE(AVG(problem_solving_score), 0),
			COALESCE(AVG(strategy_score), 0)
		FROM evaluations`

	err := s.db.QueryRowContext(ctx, query).Scan(
		&scores.Communication, &scores.Support, &scores.GoalManagement,
		&scores.Leadership, &scores.ProblemSolving, &scores.Strategy,
	)
	if err != nil {
		return models.ScoreSet{}, stderrors.NewDatabaseQueryError("fetch_aggregate_scores", err)
	}

	s.toCache(ctx, aggregateCacheKey, scores)
	return scores, nil
}

// InvalidateSubject drops the cached entry for one subject and the aggregate.
// Called after new evaluation rows land.
func (s *ScoreStore) InvalidateSubject(ctx context.Context, subjectID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, scoreCacheKeyPrefix+subjectID, aggregateCacheKey).Err(); err != nil {
		s.logger.Warn("score cache invalidation failed", map[string]interface{}{
			"subjectId": subjectID,
			"error":     err.Error(),
		})
	}
}

func (s *ScoreStore) fromCache(ctx context.Context, key string) (models.ScoreSet, bool) {
	if s.redis == nil {
		return models.ScoreSet{}, false
	}
	val, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return models.ScoreSet{}, false
	}
	var scores models.ScoreSet
	if err := json.Unmarshal([]byte(val), &scores); err != nil {
		return models.ScoreSet{}, false
	}
	return scores, true
}

func (s *ScoreStore) toCache(ctx context.Context, key string, scores models.ScoreSet) {
	if s.redis == nil {
		return
	}
	data, _ := json.Marshal(scores)
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("score cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
