package usecase

import (
	"context"
	"errors"
	"time"

	"course-progression/internal/domain"
	"course-progression/internal/domain/model"
	"course-progression/internal/domain/ports/repository"
	"course-progression/internal/domain/progression"
	"course-progression/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Compile-time check
var _ ProgressUseCase = (*progressUC)(nil)

// ProgressResult describes the effect of one progress report.
type ProgressResult struct {
	Progress *model.EpisodeProgress
	// CompletedNow is true when this report moved the episode to completed.
	CompletedNow bool
	// HintRejected is true when the client asked for completion but the
	// completion gate did not allow it.
	HintRejected bool
	// Enrollment is the recomputed ledger row, nil if the learner has none.
	Enrollment *model.Enrollment
}

type ProgressUseCase interface {
	ListEpisodes(ctx context.Context, userID, courseID string) ([]*model.EpisodeView, error)
	ReportProgress(ctx context.Context, userID, courseID, episodeID string, watchedSeconds int, completeHint bool) (*ProgressResult, error)
	MarkComplete(ctx context.Context, userID, courseID, episodeID string) (*ProgressResult, error)
	GetEnrollment(ctx context.Context, userID, courseID string) (*model.Enrollment, error)
	RecomputeEnrollment(ctx context.Context, userID, courseID string) (*model.Enrollment, error)
}

type progressUC struct {
	episodeGuard
	enrollments repository.EnrollmentRepository
	tm          repository.TransactionManager
	log         *zerolog.Logger
}

func NewProgressUseCase(
	episodes repository.EpisodeRepository,
	progress repository.EpisodeProgressRepository,
	quizzes repository.QuizAttemptRepository,
	enrollments repository.EnrollmentRepository,
	access AccessUseCase,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *progressUC {
	l := logger.With().Str("component", "progress_uc").Logger()
	return &progressUC{
		episodeGuard: episodeGuard{
			episodes: episodes,
			progress: progress,
			quizzes:  quizzes,
			access:   access,
		},
		enrollments: enrollments,
		tm:          tm,
		log:         &l,
	}
}

func (p *progressUC) ListEpisodes(ctx context.Context, userID, courseID string) ([]*model.EpisodeView, error) {
	defer logging.TraceDuration(p.log, "ProgressUC.ListEpisodes")()

	if userID == "" || courseID == "" {
		return nil, domain.ErrInvalidArgument
	}

	var (
		st     *courseState
		passed map[string]bool
	)
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		st, err = p.loadCourse(gctx, userID, courseID)
		return err
	})
	eg.Go(func() error {
		var err error
		passed, err = p.quizzes.PassedEpisodes(gctx, repository.NoTX, userID, courseID)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	views := make([]*model.EpisodeView, 0, len(st.episodes))
	for _, ep := range st.episodes {
		v := &model.EpisodeView{
			Episode:              *ep,
			IsUnlocked:           st.unlocked(ep),
			RequiredWatchSeconds: progression.RequiredWatchSeconds(ep),
			QuizPassed:           passed[ep.ID],
		}
		if pr, ok := st.progress[ep.ID]; ok {
			v.IsCompleted = pr.IsCompleted
			v.WatchedSeconds = pr.WatchedSeconds
		}
		views = append(views, v)
	}
	return views, nil
}

// ReportProgress records a playback ping. The completion hint is re-checked
// against the completion gate using the larger of stored and reported watch
// time; a hint that fails the gate is dropped and the watch time still
// recorded.
func (p *progressUC) ReportProgress(ctx context.Context, userID, courseID, episodeID string, watchedSeconds int, completeHint bool) (*ProgressResult, error) {
	defer logging.TraceDuration(p.log, "ProgressUC.ReportProgress")()

	if watchedSeconds < 0 || watchedSeconds > model.MaxWatchedSeconds {
		return nil, domain.ErrInvalidArgument
	}
	ep, st, err := p.authorize(ctx, userID, courseID, episodeID)
	if err != nil {
		return nil, err
	}

	res := &ProgressResult{}
	err = p.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		prior, err := p.progress.Find(ctx, tx, userID, ep.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if prior == nil {
			prior = &model.EpisodeProgress{UserID: userID, EpisodeID: ep.ID}
		}

		complete := false
		if completeHint && !prior.IsCompleted {
			merged := *prior
			merged.Merge(watchedSeconds, false, time.Now().UTC())
			quiz, err := p.quizState(ctx, tx, userID, ep)
			if err != nil {
				return err
			}
			complete = progression.CanComplete(ep, &merged, quiz)
			res.HintRejected = !complete
		}

		row, err := p.progress.Record(ctx, tx, userID, ep.ID, watchedSeconds, complete, time.Now().UTC())
		if err != nil {
			return err
		}
		res.Progress = row
		res.CompletedNow = !prior.IsCompleted && row.IsCompleted

		res.Enrollment, err = p.refreshEnrollment(ctx, tx, userID, courseID, st.decision)
		return err
	})
	if err != nil {
		return nil, err
	}

	if res.HintRejected {
		p.log.Debug().Str("user_id", userID).Str("episode_id", ep.ID).Int("watched_seconds", watchedSeconds).Msg("completion hint rejected by gate")
	}
	if res.CompletedNow {
		p.log.Info().Str("user_id", userID).Str("episode_id", ep.ID).Msg("episode completed")
	}
	return res, nil
}

// MarkComplete completes an episode from stored progress only. It fails with
// ErrCompletionNotEligible when the gate is not met and is a no-op for an
// already completed episode.
func (p *progressUC) MarkComplete(ctx context.Context, userID, courseID, episodeID string) (*ProgressResult, error) {
	defer logging.TraceDuration(p.log, "ProgressUC.MarkComplete")()

	ep, st, err := p.authorize(ctx, userID, courseID, episodeID)
	if err != nil {
		return nil, err
	}

	res := &ProgressResult{}
	err = p.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		stored, err := p.progress.Find(ctx, tx, userID, ep.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if stored != nil && stored.IsCompleted {
			res.Progress = stored
			return nil
		}

		quiz, err := p.quizState(ctx, tx, userID, ep)
		if err != nil {
			return err
		}
		if !progression.CanComplete(ep, stored, quiz) {
			return domain.ErrCompletionNotEligible
		}

		row, err := p.progress.Record(ctx, tx, userID, ep.ID, stored.WatchedSeconds, true, time.Now().UTC())
		if err != nil {
			return err
		}
		res.Progress = row
		res.CompletedNow = true

		res.Enrollment, err = p.refreshEnrollment(ctx, tx, userID, courseID, st.decision)
		return err
	})
	if err != nil {
		return nil, err
	}
	if res.CompletedNow {
		p.log.Info().Str("user_id", userID).Str("episode_id", ep.ID).Msg("episode marked complete")
	}
	return res, nil
}

func (p *progressUC) GetEnrollment(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	defer logging.TraceDuration(p.log, "ProgressUC.GetEnrollment")()
	if userID == "" || courseID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return p.enrollments.FindByUserAndCourse(ctx, repository.NoTX, userID, courseID)
}

func (p *progressUC) RecomputeEnrollment(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	defer logging.TraceDuration(p.log, "ProgressUC.RecomputeEnrollment")()
	return p.recompute(ctx, repository.NoTX, userID, courseID)
}

// refreshEnrollment makes sure free-course learners have a ledger row and
// recomputes it. Learners without an enrollment (free episodes of a paid
// course) are left alone.
func (p *progressUC) refreshEnrollment(ctx context.Context, tx repository.Tx, userID, courseID string, d model.AccessDecision) (*model.Enrollment, error) {
	if d.Source == model.AccessSourceFreeCourse {
		if _, err := p.enrollments.EnsureExists(ctx, tx, userID, courseID, time.Now().UTC()); err != nil {
			return nil, err
		}
	}
	e, err := p.recompute(ctx, tx, userID, courseID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return e, err
}

func (p *progressUC) recompute(ctx context.Context, tx repository.Tx, userID, courseID string) (*model.Enrollment, error) {
	eps, err := p.episodes.ListByCourse(ctx, tx, courseID)
	if err != nil {
		return nil, err
	}
	rows, err := p.progress.ListByUserAndCourse(ctx, tx, userID, courseID)
	if err != nil {
		return nil, err
	}
	s := progression.Aggregate(eps, progression.IndexProgress(rows))
	return p.enrollments.UpdateProgress(ctx, tx, userID, courseID, s.CompletedEpisodes, s.ProgressPercentage, s.CompletedAt(time.Now().UTC()))
}
