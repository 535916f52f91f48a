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

var _ repository.EnrollmentRepository = (*enrollmentRepo)(nil)

type enrollmentRepo struct {
	pool *pgxpool.Pool
}

func NewEnrollmentRepo(pool *pgxpool.Pool) *enrollmentRepo {
	return &enrollmentRepo{pool: pool}
}

const enrollmentColumns = `user_id, course_id, progress_percentage, completed_episodes, enrolled_at, completed_at, updated_at`

func scanEnrollment(row pgx.Row) (*model.Enrollment, error) {
	var e model.Enrollment
	err := row.Scan(&e.UserID, &e.CourseID, &e.ProgressPercentage, &e.CompletedEpisodes, &e.EnrolledAt, &e.CompletedAt, &e.UpdatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &e, nil
}

func (r *enrollmentRepo) EnsureExists(ctx context.Context, tx repository.Tx, userID, courseID string, at time.Time) (bool, error) {
	const q = `
INSERT INTO enrollments (user_id, course_id, enrolled_at, updated_at)
VALUES ($1, $2, $3, $3)
ON CONFLICT (user_id, course_id) DO NOTHING;
`
	tag, err := execSQL(ctx, r.pool, tx, q, userID, courseID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *enrollmentRepo) FindByUserAndCourse(ctx context.Context, tx repository.Tx, userID, courseID string) (*model.Enrollment, error) {
	if !isUUID(userID) {
		return nil, domain.ErrNotFound
	}
	q := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id = $1 AND course_id = $2;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, courseID)
	if err != nil {
		return nil, err
	}
	return scanEnrollment(row)
}

func (r *enrollmentRepo) UpdateProgress(ctx context.Context, tx repository.Tx, userID, courseID string, completedEpisodes, pct int, completedAt *time.Time) (*model.Enrollment, error) {
	if !isUUID(userID) {
		return nil, domain.ErrNotFound
	}
	q := `
UPDATE enrollments
   SET completed_episodes = $3,
       progress_percentage = $4,
       completed_at = COALESCE(completed_at, $5),
       updated_at = now()
 WHERE user_id = $1 AND course_id = $2
RETURNING ` + enrollmentColumns + `;
`
	row, err := pickRow(ctx, r.pool, tx, q, userID, courseID, completedEpisodes, pct, completedAt)
	if err != nil {
		return nil, err
	}
	return scanEnrollment(row)
}

func (r *enrollmentRepo) ExistsForEmail(ctx context.Context, tx repository.Tx, email, courseID string) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM enrollments e
    JOIN users u ON u.id = e.user_id
   WHERE u.email = lower($1) AND e.course_id = $2
);
`
	row, err := pickRow(ctx, r.pool, tx, q, email, courseID)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, mapPgError(err)
	}
	return ok, nil
}

func (r *enrollmentRepo) CountCompleted(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM enrollments WHERE completed_at IS NOT NULL;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, mapPgError(err)
	}
	return n, nil
}
