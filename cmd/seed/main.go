package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"course-progression/internal/config"
	"course-progression/internal/domain/model"
	"course-progression/internal/domain/ports/repository"
	pg "course-progression/internal/infra/db/postgres"
	red "course-progression/internal/infra/redis"

	"github.com/jackc/pgx/v4"
)

type seedEpisode struct {
	ID       string
	Title    string
	Minutes  int
	Free     bool
	QuizGate bool
}

type seedCourse struct {
	ID       string
	Title    string
	Free     bool
	Episodes []seedEpisode
}

var catalog = []seedCourse{
	{
		ID:    "go-101",
		Title: "Go from Zero",
		Episodes: []seedEpisode{
			{ID: "go-101-e1", Title: "Tooling and modules", Minutes: 12, Free: true},
			{ID: "go-101-e2", Title: "Types and interfaces", Minutes: 25, QuizGate: true},
			{ID: "go-101-e3", Title: "Errors", Minutes: 18},
			{ID: "go-101-e4", Title: "Goroutines and channels", Minutes: 30},
		},
	},
	{
		ID:    "sql-basics",
		Title: "SQL Basics",
		Free:  true,
		Episodes: []seedEpisode{
			{ID: "sql-basics-e1", Title: "SELECT", Minutes: 10},
			{ID: "sql-basics-e2", Title: "Joins", Minutes: 15},
		},
	},
}

func main() {
	wipe := flag.Bool("wipe", false, "truncate all tables and flush the cache before seeding")

	// ---- Config ----
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Connect Postgres
	pool, err := pg.NewPgxPool(ctx, config.DatabaseConfig{URL: cfg.Database.URL, MaxConns: 4})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	cache := red.NewNoopClient()
	if cfg.Redis.URL != "" {
		c, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		cache = c
	}
	defer cache.Close()

	if *wipe {
		if err := pg.Truncate(ctx, pool); err != nil {
			log.Fatalf("truncate: %v", err)
		}
		if err := cache.FlushDB(ctx); err != nil {
			log.Fatalf("flush cache: %v", err)
		}
		fmt.Println("wiped database and cache")
	}

	// Writes go through the cache decorators so stale catalog entries are dropped.
	courses := pg.NewCourseRepoCacheDecorator(pg.NewCourseRepo(pool), cache, cfg.Redis.TTL)
	episodes := pg.NewEpisodeRepoCacheDecorator(pg.NewEpisodeRepo(pool), cache, cfg.Redis.TTL)
	tm := pg.NewTxManager(pool)

	for _, sc := range catalog {
		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			return seedOne(ctx, tx, courses, episodes, sc)
		})
		if err != nil {
			log.Fatalf("seed course %q: %v", sc.ID, err)
		}
		fmt.Printf("seeded: %s (%q, free=%t, episodes=%d)\n", sc.ID, sc.Title, sc.Free, len(sc.Episodes))
	}

	fmt.Println("Seeding complete.")
}

// seedOne upserts a course and its episodes; running it twice is a no-op.
func seedOne(ctx context.Context, tx repository.Tx, courses repository.CourseRepository, episodes repository.EpisodeRepository, sc seedCourse) error {
	c, err := model.NewCourse(sc.ID, sc.Title, sc.Free)
	if err != nil {
		return err
	}
	if err := courses.Save(ctx, tx, c); err != nil {
		return err
	}
	for i, se := range sc.Episodes {
		ep, err := model.NewEpisode(se.ID, sc.ID, i+1, se.Title, se.Minutes)
		if err != nil {
			return err
		}
		ep.IsFree = se.Free
		ep.QuizRequired = se.QuizGate
		if err := episodes.Save(ctx, tx, ep); err != nil {
			return err
		}
	}
	return nil
}
