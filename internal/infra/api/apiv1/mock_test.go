//go:build !integration

package apiv1_test

import (
	"context"

	"course-progression/internal/domain/model"
	"course-progression/internal/usecase"
)

// ---------------- use case mocks ----------------

type mockKeyUC struct {
	IssueManyFunc  func(ctx context.Context, product model.ProductRef, quantity int, notes *string, price *int64) ([]*model.RegistrationKey, error)
	DeactivateFunc func(ctx context.Context, code string) error
	RedeemFunc     func(ctx context.Context, code, email string) (*usecase.RedeemResult, error)
	ListFunc       func(ctx context.Context, product *model.ProductRef, offset, limit int) ([]*model.RegistrationKey, error)
	StatsFunc      func(ctx context.Context) (map[model.KeyState]int, error)
}

var _ usecase.KeyUseCase = (*mockKeyUC)(nil)

func (m *mockKeyUC) Issue(ctx context.Context, product model.ProductRef, notes *string, price *int64) (*model.RegistrationKey, error) {
	keys, err := m.IssueMany(ctx, product, 1, notes, price)
	if err != nil {
		return nil, err
	}
	return keys[0], nil
}
func (m *mockKeyUC) IssueMany(ctx context.Context, product model.ProductRef, quantity int, notes *string, price *int64) ([]*model.RegistrationKey, error) {
	return m.IssueManyFunc(ctx, product, quantity, notes, price)
}
func (m *mockKeyUC) Deactivate(ctx context.Context, code string) error {
	return m.DeactivateFunc(ctx, code)
}
func (m *mockKeyUC) Redeem(ctx context.Context, code, email string) (*usecase.RedeemResult, error) {
	return m.RedeemFunc(ctx, code, email)
}
func (m *mockKeyUC) List(ctx context.Context, product *model.ProductRef, offset, limit int) ([]*model.RegistrationKey, error) {
	return m.ListFunc(ctx, product, offset, limit)
}
func (m *mockKeyUC) Stats(ctx context.Context) (map[model.KeyState]int, error) {
	return m.StatsFunc(ctx)
}

type mockAccessUC struct {
	CheckAccessFunc func(ctx context.Context, email, courseID string) (bool, error)
}

var _ usecase.AccessUseCase = (*mockAccessUC)(nil)

func (m *mockAccessUC) CheckAccess(ctx context.Context, email, courseID string) (bool, error) {
	return m.CheckAccessFunc(ctx, email, courseID)
}
func (m *mockAccessUC) ResolveAccess(ctx context.Context, userID, courseID string) (model.AccessDecision, error) {
	return model.AccessDecision{}, nil
}

type mockProgressUC struct {
	ListEpisodesFunc   func(ctx context.Context, userID, courseID string) ([]*model.EpisodeView, error)
	ReportProgressFunc func(ctx context.Context, userID, courseID, episodeID string, watched int, hint bool) (*usecase.ProgressResult, error)
	MarkCompleteFunc   func(ctx context.Context, userID, courseID, episodeID string) (*usecase.ProgressResult, error)
	GetEnrollmentFunc  func(ctx context.Context, userID, courseID string) (*model.Enrollment, error)
}

var _ usecase.ProgressUseCase = (*mockProgressUC)(nil)

func (m *mockProgressUC) ListEpisodes(ctx context.Context, userID, courseID string) ([]*model.EpisodeView, error) {
	return m.ListEpisodesFunc(ctx, userID, courseID)
}
func (m *mockProgressUC) ReportProgress(ctx context.Context, userID, courseID, episodeID string, watched int, hint bool) (*usecase.ProgressResult, error) {
	return m.ReportProgressFunc(ctx, userID, courseID, episodeID, watched, hint)
}
func (m *mockProgressUC) MarkComplete(ctx context.Context, userID, courseID, episodeID string) (*usecase.ProgressResult, error) {
	return m.MarkCompleteFunc(ctx, userID, courseID, episodeID)
}
func (m *mockProgressUC) GetEnrollment(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	return m.GetEnrollmentFunc(ctx, userID, courseID)
}
func (m *mockProgressUC) RecomputeEnrollment(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	return nil, nil
}

type mockQuizUC struct {
	SubmitAttemptFunc func(ctx context.Context, userID, courseID, episodeID string, score, maxScore int) (*model.QuizAttempt, error)
}

var _ usecase.QuizUseCase = (*mockQuizUC)(nil)

func (m *mockQuizUC) SubmitAttempt(ctx context.Context, userID, courseID, episodeID string, score, maxScore int) (*model.QuizAttempt, error) {
	return m.SubmitAttemptFunc(ctx, userID, courseID, episodeID, score, maxScore)
}
