package sched

import (
	"context"
	"fmt"
	"time"

	"course-progression/internal/infra/metrics"
	"course-progression/internal/usecase"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const statsJobName = "stats_snapshot"

// PoolStatsFunc reports total, idle and in-use connections of the DB pool.
type PoolStatsFunc func() (total, idle, inUse int32)

// StatsJob refreshes the key and enrollment gauges on a cron schedule.
type StatsJob struct {
	spec      string
	timeout   time.Duration
	stats     usecase.StatsUseCase
	poolStats PoolStatsFunc
	log       *zerolog.Logger
}

func NewStatsJob(spec string, stats usecase.StatsUseCase, poolStats PoolStatsFunc, logger *zerolog.Logger) *StatsJob {
	jobLog := logger.With().Str("component", "StatsJob").Logger()
	return &StatsJob{
		spec:      spec,
		timeout:   30 * time.Second,
		stats:     stats,
		poolStats: poolStats,
		log:       &jobLog,
	}
}

// Run blocks until ctx is cancelled. A run still in flight is waited for
// before returning.
func (j *StatsJob) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(j.spec, func() {
		rctx, cancel := context.WithTimeout(ctx, j.timeout)
		defer cancel()
		_ = j.RunOnce(rctx)
	}); err != nil {
		return fmt.Errorf("schedule %s %q: %w", statsJobName, j.spec, err)
	}

	j.log.Info().Str("schedule", j.spec).Msg("Starting stats job")
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	j.log.Info().Msg("Stopping stats job")
	return ctx.Err()
}

// RunOnce takes one snapshot and publishes it.
func (j *StatsJob) RunOnce(ctx context.Context) error {
	if j.poolStats != nil {
		metrics.SetDBPoolStats(j.poolStats())
	}

	snap, err := j.stats.Snapshot(ctx)
	if err != nil {
		metrics.IncJobRun(statsJobName, "failed")
		j.log.Error().Err(err).Msg("stats snapshot failed")
		return err
	}
	metrics.SetKeysTotal(snap.KeysByState)
	metrics.SetEnrollmentsCompleted(snap.CompletedEnrollments)
	metrics.IncJobRun(statsJobName, "ok")
	j.log.Debug().Interface("keys", snap.KeysByState).Int("completed_enrollments", snap.CompletedEnrollments).Msg("stats snapshot published")
	return nil
}
