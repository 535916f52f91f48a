package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-progression/internal/domain/model"
	"course-progression/internal/domain/ports/repository"
)

var (
	_ repository.CourseRepository  = (*courseRepo)(nil)
	_ repository.EpisodeRepository = (*episodeRepo)(nil)
)

type courseRepo struct {
	pool *pgxpool.Pool
}

func NewCourseRepo(pool *pgxpool.Pool) *courseRepo {
	return &courseRepo{pool: pool}
}

func (r *courseRepo) Save(ctx context.Context, tx repository.Tx, c *model.Course) error {
	const q = `
INSERT INTO courses (id, title, is_free, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, is_free = EXCLUDED.is_free;
`
	_, err := execSQL(ctx, r.pool, tx, q, c.ID, c.Title, c.IsFree, c.CreatedAt)
	return err
}

func (r *courseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT id, title, is_free, created_at FROM courses WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	var c model.Course
	if err := row.Scan(&c.ID, &c.Title, &c.IsFree, &c.CreatedAt); err != nil {
		return nil, mapPgError(err)
	}
	return &c, nil
}

type episodeRepo struct {
	pool *pgxpool.Pool
}

func NewEpisodeRepo(pool *pgxpool.Pool) *episodeRepo {
	return &episodeRepo{pool: pool}
}

const episodeColumns = `id, course_id, position, title, duration_minutes, is_free, quiz_required, quiz_pass_percent, created_at`

func scanEpisode(row pgx.Row) (*model.Episode, error) {
	var e model.Episode
	err := row.Scan(&e.ID, &e.CourseID, &e.Order, &e.Title, &e.DurationMinutes, &e.IsFree, &e.QuizRequired, &e.QuizPassPercent, &e.CreatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &e, nil
}

// Save upserts by id. Moving an episode onto a taken position fails with
// domain.ErrAlreadyExists.
func (r *episodeRepo) Save(ctx context.Context, tx repository.Tx, e *model.Episode) error {
	const q = `
INSERT INTO episodes (id, course_id, position, title, duration_minutes, is_free, quiz_required, quiz_pass_percent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
  position = EXCLUDED.position,
  title = EXCLUDED.title,
  duration_minutes = EXCLUDED.duration_minutes,
  is_free = EXCLUDED.is_free,
  quiz_required = EXCLUDED.quiz_required,
  quiz_pass_percent = EXCLUDED.quiz_pass_percent;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		e.ID, e.CourseID, e.Order, e.Title, e.DurationMinutes, e.IsFree, e.QuizRequired, e.QuizPassPercent, e.CreatedAt,
	)
	return err
}

func (r *episodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Episode, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+episodeColumns+` FROM episodes WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	return scanEpisode(row)
}

func (r *episodeRepo) ListByCourse(ctx context.Context, tx repository.Tx, courseID string) ([]*model.Episode, error) {
	q := `SELECT ` + episodeColumns + ` FROM episodes WHERE course_id = $1 ORDER BY position ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Episode
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
