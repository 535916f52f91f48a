package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-progression/internal/domain"
	"course-progression/internal/domain/model"
	"course-progression/internal/domain/ports/repository"
)

var _ repository.EpisodeProgressRepository = (*progressRepo)(nil)

type progressRepo struct {
	pool *pgxpool.Pool
}

func NewProgressRepo(pool *pgxpool.Pool) *progressRepo {
	return &progressRepo{pool: pool}
}

const progressColumns = `user_id, episode_id, watched_seconds, is_completed, completed_at, updated_at`

func scanProgress(row pgx.Row) (*model.EpisodeProgress, error) {
	var p model.EpisodeProgress
	if err := row.Scan(&p.UserID, &p.EpisodeID, &p.WatchedSeconds, &p.IsCompleted, &p.CompletedAt, &p.UpdatedAt); err != nil {
		return nil, mapPgError(err)
	}
	return &p, nil
}

// Record is a single conditional upsert, so concurrent reports for the same
// episode merge instead of overwriting each other.
func (r *progressRepo) Record(ctx context.Context, tx repository.Tx, userID, episodeID string, watchedSeconds int, complete bool, at time.Time) (*model.EpisodeProgress, error) {
	if !isUUID(userID) {
		return nil, domain.ErrInvalidArgument
	}
	q := `
INSERT INTO episode_progress AS p (user_id, episode_id, watched_seconds, is_completed, completed_at, updated_at)
VALUES ($1, $2, $3, $4::boolean, CASE WHEN $4::boolean THEN $5::timestamptz END, $5::timestamptz)
ON CONFLICT (user_id, episode_id) DO UPDATE SET
  watched_seconds = GREATEST(p.watched_seconds, EXCLUDED.watched_seconds),
  is_completed    = p.is_completed OR EXCLUDED.is_completed,
  completed_at    = COALESCE(p.completed_at, EXCLUDED.completed_at),
  updated_at      = EXCLUDED.updated_at
RETURNING ` + progressColumns + `;
`
	row, err := pickRow(ctx, r.pool, tx, q, userID, episodeID, watchedSeconds, complete, at)
	if err != nil {
		return nil, err
	}
	return scanProgress(row)
}

func (r *progressRepo) Find(ctx context.Context, tx repository.Tx, userID, episodeID string) (*model.EpisodeProgress, error) {
	if !isUUID(userID) {
		return nil, domain.ErrNotFound
	}
	q := `SELECT ` + progressColumns + ` FROM episode_progress WHERE user_id = $1 AND episode_id = $2;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, episodeID)
	if err != nil {
		return nil, err
	}
	return scanProgress(row)
}

func (r *progressRepo) ListByUserAndCourse(ctx context.Context, tx repository.Tx, userID, courseID string) ([]*model.EpisodeProgress, error) {
	if !isUUID(userID) {
		return nil, nil
	}
	const q = `
SELECT p.user_id, p.episode_id, p.watched_seconds, p.is_completed, p.completed_at, p.updated_at
  FROM episode_progress p
  JOIN episodes e ON e.id = p.episode_id
 WHERE p.user_id = $1 AND e.course_id = $2;
`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.EpisodeProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
