//go:build !integration

package postgres

import (
	"context"
	"time"

	"course-progression/internal/domain/model"
	"course-progression/internal/domain/ports/repository"
	red "course-progression/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerCourseRepo mocks the database repository that the course decorator wraps.
type mockInnerCourseRepo struct {
	SaveFunc     func(ctx context.Context, tx repository.Tx, c *model.Course) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Course, error)
}

func (m *mockInnerCourseRepo) Save(ctx context.Context, tx repository.Tx, c *model.Course) error {
	return m.SaveFunc(ctx, tx, c)
}
func (m *mockInnerCourseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	return m.FindByIDFunc(ctx, tx, id)
}

type mockInnerEpisodeRepo struct {
	SaveFunc         func(ctx context.Context, tx repository.Tx, e *model.Episode) error
	FindByIDFunc     func(ctx context.Context, tx repository.Tx, id string) (*model.Episode, error)
	ListByCourseFunc func(ctx context.Context, tx repository.Tx, courseID string) ([]*model.Episode, error)
}

func (m *mockInnerEpisodeRepo) Save(ctx context.Context, tx repository.Tx, e *model.Episode) error {
	return m.SaveFunc(ctx, tx, e)
}
func (m *mockInnerEpisodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Episode, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerEpisodeRepo) ListByCourse(ctx context.Context, tx repository.Tx, courseID string) ([]*model.Episode, error) {
	return m.ListByCourseFunc(ctx, tx, courseID)
}

// mockRedisClient mocks our Redis client wrapper. Unset hooks behave like an
// empty cache.
type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc == nil {
		return "", red.Nil
	}
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error    { return nil }
func (m *mockRedisClient) FlushDB(ctx context.Context) error { return nil }
func (m *mockRedisClient) Close() error                      { return nil }
