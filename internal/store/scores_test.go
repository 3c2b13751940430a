// internal/store/scores_test.go
package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "evaldash/internal/common/errors"
	"evaldash/internal/common/logger"
	"evaldash/internal/models"
)

const testScoreTTL = 5 * time.Minute

func testScores() models.ScoreSet {
	return models.ScoreSet{
		Communication:  2.0,
		Support:        4.0,
		GoalManagement: 3.0,
		Leadership:     3.5,
		ProblemSolving: 3.0,
		Strategy:       4.5,
	}
}

func TestScoreStore_FetchScores_CacheMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()

	scores := testScores()
	cacheKey := "scores:subject:mgr-1"
	redisMock.ExpectGet(cacheKey).RedisNil()

	rows := sqlmock.NewRows([]string{"c", "s", "g", "l", "p", "st", "count"}).
		AddRow(scores.Communication, scores.Support, scores.GoalManagement,
			scores.Leadership, scores.ProblemSolving, scores.Strategy, 3)
	mock.ExpectQuery(`SELECT(.|\n)*FROM evaluations WHERE manager_id = \$1`).
		WithArgs("mgr-1").
		WillReturnRows(rows)

	cachedData, _ := json.Marshal(scores)
	redisMock.ExpectSet(cacheKey, cachedData, testScoreTTL).SetVal("OK")

	store := NewScoreStore(db, redisClient, testScoreTTL, logger.NewTestLogger(t))

	got, err := store.FetchScores(context.Background(), "mgr-1")
	require.NoError(t, err)
	assert.Equal(t, scores, got)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestScoreStore_FetchScores_CacheHit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()

	scores := testScores()
	cachedData, _ := json.Marshal(scores)
	redisMock.ExpectGet("scores:subject:mgr-1").SetVal(string(cachedData))

	store := NewScoreStore(db, redisClient, testScoreTTL, logger.NewTestLogger(t))

	got, err := store.FetchScores(context.Background(), "mgr-1")
	require.NoError(t, err)
	assert.Equal(t, scores, got)

	// Database must not be touched on a cache hit
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestScoreStore_FetchScores_NoEvaluations(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()
	redisMock.ExpectGet("scores:subject:unknown").RedisNil()

	rows := sqlmock.NewRows([]string{"c", "s", "g", "l", "p", "st", "count"}).
		AddRow(0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0)
	mock.ExpectQuery(`SELECT(.|\n)*FROM evaluations WHERE manager_id = \$1`).
		WithArgs("unknown").
		WillReturnRows(rows)

	store := NewScoreStore(db, redisClient, testScoreTTL, logger.NewTestLogger(t))

	_, err = store.FetchScores(context.Background(), "unknown")
	require.Error(t, err)
	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeRecordNotFound))
}

func TestScoreStore_FetchAggregateScores(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()

	scores := testScores()
	redisMock.ExpectGet("scores:aggregate").RedisNil()

	rows := sqlmock.NewRows([]string{"c", "s", "g", "l", "p", "st"}).
		AddRow(scores.Communication, scores.Support, scores.GoalManagement,
			scores.Leadership, scores.ProblemSolving, scores.Strategy)
	mock.ExpectQuery(`SELECT(.|\n)*FROM evaluations`).WillReturnRows(rows)

	cachedData, _ := json.Marshal(scores)
	redisMock.ExpectSet("scores:aggregate", cachedData, testScoreTTL).SetVal("OK")

	store := NewScoreStore(db, redisClient, testScoreTTL, logger.NewTestLogger(t))

	got, err := store.FetchAggregateScores(context.Background())
	require.NoError(t, err)
	assert.Equal(t, scores, got)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestScoreStore_ReadThroughExpiry(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	scores := testScores()
	rows := sqlmock.NewRows([]string{"c", "s", "g", "l", "p", "st", "count"}).
		AddRow(scores.Communication, scores.Support, scores.GoalManagement,
			scores.Leadership, scores.ProblemSolving, scores.Strategy, 2)
	mock.ExpectQuery(`SELECT(.|\n)*FROM evaluations WHERE manager_id = \$1`).
		WithArgs("mgr-1").
		WillReturnRows(rows)

	store := NewScoreStore(db, redisClient, testScoreTTL, logger.NewTestLogger(t))

	// First read populates the cache from Postgres
	got, err := store.FetchScores(context.Background(), "mgr-1")
	require.NoError(t, err)
	assert.Equal(t, scores, got)

	// Second read is served entirely from Redis
	got, err = store.FetchScores(context.Background(), "mgr-1")
	require.NoError(t, err)
	assert.Equal(t, scores, got)
	assert.NoError(t, mock.ExpectationsWereMet())

	// After the TTL passes, the next read goes back to Postgres
	mr.FastForward(testScoreTTL + time.Second)
	rows = sqlmock.NewRows([]string{"c", "s", "g", "l", "p", "st", "count"}).
		AddRow(scores.Communication, scores.Support, scores.GoalManagement,
			scores.Leadership, scores.ProblemSolving, scores.Strategy, 2)
	mock.ExpectQuery(`SELECT(.|\n)*FROM evaluations WHERE manager_id = \$1`).
		WithArgs("mgr-1").
		WillReturnRows(rows)

	_, err = store.FetchScores(context.Background(), "mgr-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreStore_InvalidateSubject(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	data, _ := json.Marshal(testScores())
	require.NoError(t, mr.Set("scores:subject:mgr-1", string(data)))
	require.NoError(t, mr.Set("scores:aggregate", string(data)))

	store := NewScoreStore(db, redisClient, testScoreTTL, logger.NewTestLogger(t))
	store.InvalidateSubject(context.Background(), "mgr-1")

	assert.False(t, mr.Exists("scores:subject:mgr-1"))
	assert.False(t, mr.Exists("scores:aggregate"))
}

func TestScoreStore_NoRedis(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	scores := testScores()
	rows := sqlmock.NewRows([]string{"c", "s", "g", "l", "p", "st", "count"}).
		AddRow(scores.Communication, scores.Support, scores.GoalManagement,
			scores.Leadership, scores.ProblemSolving, scores.Strategy, 1)
	mock.ExpectQuery(`SELECT(.|\n)*FROM evaluations WHERE manager_id = \$1`).
		WithArgs("mgr-1").
		WillReturnRows(rows)

	// nil Redis client means every read goes to Postgres
	store := NewScoreStore(db, nil, testScoreTTL, logger.NewTestLogger(t))

	got, err := store.FetchScores(context.Background(), "mgr-1")
	require.NoError(t, err)
	assert.Equal(t, scores, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
