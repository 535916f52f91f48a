package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"course-progression/internal/domain"
	"course-progression/internal/domain/model"
	"course-progression/internal/domain/ports/repository"
)

var _ repository.QuizAttemptRepository = (*quizRepo)(nil)

type quizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *quizRepo {
	return &quizRepo{pool: pool}
}

// Create numbers the attempt from the existing ones in the same statement.
// Two concurrent attempts can compute the same number; the loser hits the
// unique constraint and gets domain.ErrAlreadyExists.
func (r *quizRepo) Create(ctx context.Context, tx repository.Tx, a *model.QuizAttempt) error {
	if !isUUID(a.UserID) {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO quiz_attempts (id, user_id, episode_id, score, max_score, passed, attempt_number, created_at)
SELECT $1::text, $2::uuid, $3::text, $4::int, $5::int, $6::boolean,
       COALESCE(MAX(attempt_number), 0) + 1, $7::timestamptz
  FROM quiz_attempts
 WHERE user_id = $2::uuid AND episode_id = $3::text
RETURNING attempt_number;
`
	row, err := pickRow(ctx, r.pool, tx, q, a.ID, a.UserID, a.EpisodeID, a.Score, a.MaxScore, a.Passed, a.CreatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&a.AttemptNumber); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *quizRepo) HasPassed(ctx context.Context, tx repository.Tx, userID, episodeID string) (bool, error) {
	if !isUUID(userID) {
		return false, nil
	}
	const q = `SELECT EXISTS (SELECT 1 FROM quiz_attempts WHERE user_id = $1 AND episode_id = $2 AND passed);`
	row, err := pickRow(ctx, r.pool, tx, q, userID, episodeID)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, mapPgError(err)
	}
	return ok, nil
}

func (r *quizRepo) PassedEpisodes(ctx context.Context, tx repository.Tx, userID, courseID string) (map[string]bool, error) {
	out := make(map[string]bool)
	if !isUUID(userID) {
		return out, nil
	}
	const q = `
SELECT DISTINCT q.episode_id
  FROM quiz_attempts q
  JOIN episodes e ON e.id = q.episode_id
 WHERE q.user_id = $1 AND e.course_id = $2 AND q.passed;
`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[id] = true
	}
	return out, rows.Err()
}
