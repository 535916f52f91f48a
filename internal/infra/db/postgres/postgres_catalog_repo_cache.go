package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"course-progression/internal/domain/model"
	"course-progression/internal/domain/ports/repository"
	"course-progression/internal/infra/metrics"
	red "course-progression/internal/infra/redis"
)

var (
	_ repository.CourseRepository  = (*courseRepoCacheDecorator)(nil)
	_ repository.EpisodeRepository = (*episodeRepoCacheDecorator)(nil)
)

const defaultCatalogTTL = 1 * time.Hour

func courseKey(id string) string         { return fmt.Sprintf("course:%s", id) }
func episodeKey(id string) string        { return fmt.Sprintf("episode:%s", id) }
func courseEpisodesKey(id string) string { return fmt.Sprintf("episodes:course:%s", id) }

// cacheLoad fills dst from the cache and reports a hit. Redis errors and
// undecodable payloads count as misses.
func cacheLoad(ctx context.Context, cache red.RedisClient, name, key string, dst interface{}) bool {
	val, err := cache.Get(ctx, key)
	if err == nil && json.Unmarshal([]byte(val), dst) == nil {
		metrics.IncCacheRequest(name, "hit")
		return true
	}
	if err != nil && !errors.Is(err, red.Nil) {
		metrics.IncCacheRequest(name, "error")
		return false
	}
	metrics.IncCacheRequest(name, "miss")
	return false
}

func cacheStore(ctx context.Context, cache red.RedisClient, key string, v interface{}, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = cache.Set(ctx, key, b, ttl)
}

type courseRepoCacheDecorator struct {
	inner repository.CourseRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewCourseRepoCacheDecorator(inner repository.CourseRepository, cache red.RedisClient, ttl time.Duration) repository.CourseRepository {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &courseRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *courseRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	key := courseKey(id)
	var c model.Course
	if cacheLoad(ctx, d.cache, "course", key, &c) {
		return &c, nil
	}
	course, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	cacheStore(ctx, d.cache, key, course, d.ttl)
	return course, nil
}

func (d *courseRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, c *model.Course) error {
	if err := d.inner.Save(ctx, tx, c); err != nil {
		return err
	}
	key := courseKey(c.ID)
	afterCommit(ctx, tx, func(ctx context.Context) { _ = d.cache.Del(ctx, key) })
	return nil
}

type episodeRepoCacheDecorator struct {
	inner repository.EpisodeRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewEpisodeRepoCacheDecorator(inner repository.EpisodeRepository, cache red.RedisClient, ttl time.Duration) repository.EpisodeRepository {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &episodeRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *episodeRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Episode, error) {
	key := episodeKey(id)
	var e model.Episode
	if cacheLoad(ctx, d.cache, "episode", key, &e) {
		return &e, nil
	}
	ep, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	cacheStore(ctx, d.cache, key, ep, d.ttl)
	return ep, nil
}

// ListByCourse caches non-empty lists only, so a course that gains its first
// episode is not hidden behind a cached empty result.
func (d *episodeRepoCacheDecorator) ListByCourse(ctx context.Context, tx repository.Tx, courseID string) ([]*model.Episode, error) {
	key := courseEpisodesKey(courseID)
	var eps []*model.Episode
	if cacheLoad(ctx, d.cache, "episode_list", key, &eps) {
		return eps, nil
	}
	eps, err := d.inner.ListByCourse(ctx, tx, courseID)
	if err != nil {
		return nil, err
	}
	if len(eps) > 0 {
		cacheStore(ctx, d.cache, key, eps, d.ttl)
	}
	return eps, nil
}

func (d *episodeRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, e *model.Episode) error {
	if err := d.inner.Save(ctx, tx, e); err != nil {
		return err
	}
	keys := []string{episodeKey(e.ID), courseEpisodesKey(e.CourseID)}
	afterCommit(ctx, tx, func(ctx context.Context) { _ = d.cache.Del(ctx, keys...) })
	return nil
}
