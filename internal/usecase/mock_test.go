//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"course-progression/internal/domain"
	"course-progression/internal/domain/model"
	"course-progression/internal/domain/ports/repository"
)

// =============================
// Repositories
// =============================

// ---- RegistrationKeyRepository ----

type MockKeyRepo struct {
	mu     sync.Mutex
	byCode map[string]*model.RegistrationKey

	CreateFunc       func(ctx context.Context, tx repository.Tx, k *model.RegistrationKey) error
	ActivateFunc     func(ctx context.Context, tx repository.Tx, code, email string, at time.Time) (bool, error)
	CountByStateFunc func(ctx context.Context, tx repository.Tx) (map[model.KeyState]int, error)

	ActivateCalls int
}

var _ repository.RegistrationKeyRepository = (*MockKeyRepo)(nil)

func NewMockKeyRepo() *MockKeyRepo {
	return &MockKeyRepo{byCode: map[string]*model.RegistrationKey{}}
}

func (r *MockKeyRepo) put(k *model.RegistrationKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *k
	r.byCode[k.Code] = &cp
}

func (r *MockKeyRepo) Create(ctx context.Context, tx repository.Tx, k *model.RegistrationKey) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, tx, k)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byCode[k.Code]; dup {
		return domain.ErrAlreadyExists
	}
	cp := *k
	r.byCode[k.Code] = &cp
	return nil
}

func (r *MockKeyRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.RegistrationKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.byCode[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *k
	return &cp, nil
}

// Activate is the in-memory equivalent of the conditional UPDATE.
func (r *MockKeyRepo) Activate(ctx context.Context, tx repository.Tx, code, email string, at time.Time) (bool, error) {
	if r.ActivateFunc != nil {
		return r.ActivateFunc(ctx, tx, code, email, at)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ActivateCalls++
	k, ok := r.byCode[code]
	if !ok || k.State != model.KeyStateIssued {
		return false, nil
	}
	e := email
	k.State = model.KeyStateActivated
	k.BoundEmail = &e
	k.ActivatedAt = &at
	return true, nil
}

func (r *MockKeyRepo) Deactivate(ctx context.Context, tx repository.Tx, code string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.byCode[code]
	if !ok {
		return domain.ErrNotFound
	}
	if k.State != model.KeyStateDeactivated {
		k.State = model.KeyStateDeactivated
		k.DeactivatedAt = &at
	}
	return nil
}

func (r *MockKeyRepo) CountByState(ctx context.Context, tx repository.Tx) (map[model.KeyState]int, error) {
	if r.CountByStateFunc != nil {
		return r.CountByStateFunc(ctx, tx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[model.KeyState]int{}
	for _, k := range r.byCode {
		out[k.State]++
	}
	return out, nil
}

func (r *MockKeyRepo) ListByProduct(ctx context.Context, tx repository.Tx, product *model.ProductRef, offset, limit int) ([]*model.RegistrationKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*model.RegistrationKey
	for _, k := range r.byCode {
		if product != nil && k.Product != *product {
			continue
		}
		cp := *k
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *MockKeyRepo) HasActivatedFor(ctx context.Context, tx repository.Tx, email, courseID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.byCode {
		if k.State == model.KeyStateActivated && k.Product.IsCourse() && k.Product.ID == courseID && k.BoundTo(email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MockKeyRepo) get(code string) *model.RegistrationKey {
	k, _ := r.FindByCode(context.Background(), repository.NoTX, code)
	return k
}

// ---- UserRepository ----

type MockUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	byEmail map[string]*model.User

	FindOrCreateByEmailFunc func(ctx context.Context, tx repository.Tx, email string) (*model.User, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{byID: map[string]*model.User{}, byEmail: map[string]*model.User{}}
}

func (r *MockUserRepo) FindOrCreateByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	if r.FindOrCreateByEmailFunc != nil {
		return r.FindOrCreateByEmailFunc(ctx, tx, email)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	u := &model.User{ID: uuid.NewString(), Email: email, CreatedAt: time.Now()}
	r.byID[u.ID] = u
	r.byEmail[email] = u
	cp := *u
	return &cp, nil
}

func (r *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MockUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// ---- EnrollmentRepository ----

type enrollmentKey struct{ userID, courseID string }

type MockEnrollmentRepo struct {
	mu    sync.Mutex
	rows  map[enrollmentKey]*model.Enrollment
	users *MockUserRepo

	UpdateCalls int
}

var _ repository.EnrollmentRepository = (*MockEnrollmentRepo)(nil)

func NewMockEnrollmentRepo(users *MockUserRepo) *MockEnrollmentRepo {
	return &MockEnrollmentRepo{rows: map[enrollmentKey]*model.Enrollment{}, users: users}
}

func (r *MockEnrollmentRepo) EnsureExists(ctx context.Context, tx repository.Tx, userID, courseID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := enrollmentKey{userID, courseID}
	if _, ok := r.rows[k]; ok {
		return false, nil
	}
	r.rows[k] = &model.Enrollment{UserID: userID, CourseID: courseID, EnrolledAt: at, UpdatedAt: at}
	return true, nil
}

func (r *MockEnrollmentRepo) FindByUserAndCourse(ctx context.Context, tx repository.Tx, userID, courseID string) (*model.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[enrollmentKey{userID, courseID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *MockEnrollmentRepo) UpdateProgress(ctx context.Context, tx repository.Tx, userID, courseID string, completed, pct int, completedAt *time.Time) (*model.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UpdateCalls++
	e, ok := r.rows[enrollmentKey{userID, courseID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.CompletedEpisodes = completed
	e.ProgressPercentage = pct
	if e.CompletedAt == nil && completedAt != nil {
		t := *completedAt
		e.CompletedAt = &t
	}
	e.UpdatedAt = time.Now()
	cp := *e
	return &cp, nil
}

func (r *MockEnrollmentRepo) ExistsForEmail(ctx context.Context, tx repository.Tx, email, courseID string) (bool, error) {
	u, err := r.users.FindByEmail(ctx, tx, email)
	if err != nil {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[enrollmentKey{u.ID, courseID}]
	return ok, nil
}

func (r *MockEnrollmentRepo) CountCompleted(ctx context.Context, tx repository.Tx) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.rows {
		if e.CompletedAt != nil {
			n++
		}
	}
	return n, nil
}

func (r *MockEnrollmentRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// ---- Course / Episode repositories ----

type MockCourseRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Course
}

var _ repository.CourseRepository = (*MockCourseRepo)(nil)

func NewMockCourseRepo() *MockCourseRepo {
	return &MockCourseRepo{byID: map[string]*model.Course{}}
}

func (r *MockCourseRepo) Save(ctx context.Context, tx repository.Tx, c *model.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.byID[c.ID] = &cp
	return nil
}

func (r *MockCourseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

type MockEpisodeRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Episode
}

var _ repository.EpisodeRepository = (*MockEpisodeRepo)(nil)

func NewMockEpisodeRepo() *MockEpisodeRepo {
	return &MockEpisodeRepo{byID: map[string]*model.Episode{}}
}

func (r *MockEpisodeRepo) Save(ctx context.Context, tx repository.Tx, e *model.Episode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.byID[e.ID] = &cp
	return nil
}

func (r *MockEpisodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Episode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *MockEpisodeRepo) ListByCourse(ctx context.Context, tx repository.Tx, courseID string) ([]*model.Episode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Episode
	for _, e := range r.byID {
		if e.CourseID == courseID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *MockEpisodeRepo) courseOf(episodeID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.byID[episodeID]; ok {
		return e.CourseID
	}
	return ""
}

// ---- EpisodeProgressRepository ----

type progressKey struct{ userID, episodeID string }

type MockProgressRepo struct {
	mu       sync.Mutex
	rows     map[progressKey]*model.EpisodeProgress
	episodes *MockEpisodeRepo

	RecordFunc func(ctx context.Context, tx repository.Tx, userID, episodeID string, watched int, complete bool, at time.Time) (*model.EpisodeProgress, error)
}

var _ repository.EpisodeProgressRepository = (*MockProgressRepo)(nil)

func NewMockProgressRepo(episodes *MockEpisodeRepo) *MockProgressRepo {
	return &MockProgressRepo{rows: map[progressKey]*model.EpisodeProgress{}, episodes: episodes}
}

// Record merges with the same monotonic rules the SQL upsert uses.
func (r *MockProgressRepo) Record(ctx context.Context, tx repository.Tx, userID, episodeID string, watched int, complete bool, at time.Time) (*model.EpisodeProgress, error) {
	if r.RecordFunc != nil {
		return r.RecordFunc(ctx, tx, userID, episodeID, watched, complete, at)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	k := progressKey{userID, episodeID}
	p, ok := r.rows[k]
	if !ok {
		p = &model.EpisodeProgress{UserID: userID, EpisodeID: episodeID}
		r.rows[k] = p
	}
	p.Merge(watched, complete, at)
	cp := *p
	return &cp, nil
}

func (r *MockProgressRepo) Find(ctx context.Context, tx repository.Tx, userID, episodeID string) (*model.EpisodeProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[progressKey{userID, episodeID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MockProgressRepo) ListByUserAndCourse(ctx context.Context, tx repository.Tx, userID, courseID string) ([]*model.EpisodeProgress, error) {
	r.mu.Lock()
	var out []*model.EpisodeProgress
	for k, p := range r.rows {
		if k.userID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	r.mu.Unlock()

	filtered := out[:0]
	for _, p := range out {
		if r.episodes.courseOf(p.EpisodeID) == courseID {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// ---- QuizAttemptRepository ----

type MockQuizRepo struct {
	mu       sync.Mutex
	attempts []*model.QuizAttempt
	episodes *MockEpisodeRepo
}

var _ repository.QuizAttemptRepository = (*MockQuizRepo)(nil)

func NewMockQuizRepo(episodes *MockEpisodeRepo) *MockQuizRepo {
	return &MockQuizRepo{episodes: episodes}
}

func (r *MockQuizRepo) Create(ctx context.Context, tx repository.Tx, a *model.QuizAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, x := range r.attempts {
		if x.UserID == a.UserID && x.EpisodeID == a.EpisodeID {
			n++
		}
	}
	a.AttemptNumber = n + 1
	cp := *a
	r.attempts = append(r.attempts, &cp)
	return nil
}

func (r *MockQuizRepo) HasPassed(ctx context.Context, tx repository.Tx, userID, episodeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.attempts {
		if x.UserID == userID && x.EpisodeID == episodeID && x.Passed {
			return true, nil
		}
	}
	return false, nil
}

func (r *MockQuizRepo) PassedEpisodes(ctx context.Context, tx repository.Tx, userID, courseID string) (map[string]bool, error) {
	r.mu.Lock()
	var passed []string
	for _, x := range r.attempts {
		if x.UserID == userID && x.Passed {
			passed = append(passed, x.EpisodeID)
		}
	}
	r.mu.Unlock()

	out := map[string]bool{}
	for _, id := range passed {
		if r.episodes.courseOf(id) == courseID {
			out[id] = true
		}
	}
	return out, nil
}

// =============================
// Infra
// =============================

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// =============================
// Fixture
// =============================

// world wires every mock together the way cmd/app wires the real repos.
type world struct {
	keys        *MockKeyRepo
	users       *MockUserRepo
	enrollments *MockEnrollmentRepo
	courses     *MockCourseRepo
	episodes    *MockEpisodeRepo
	progress    *MockProgressRepo
	quizzes     *MockQuizRepo
	tm          *MockTxManager
}

func newWorld() *world {
	users := NewMockUserRepo()
	episodes := NewMockEpisodeRepo()
	return &world{
		keys:        NewMockKeyRepo(),
		users:       users,
		enrollments: NewMockEnrollmentRepo(users),
		courses:     NewMockCourseRepo(),
		episodes:    episodes,
		progress:    NewMockProgressRepo(episodes),
		quizzes:     NewMockQuizRepo(episodes),
		tm:          NewMockTxManager(),
	}
}

// addCourse stores a course with n ten-minute episodes ep-1..ep-n.
// Episode 2 carries a gating quiz when quizOnSecond is set.
func (w *world) addCourse(id string, n int, free, quizOnSecond bool) {
	ctx := context.Background()
	_ = w.courses.Save(ctx, repository.NoTX, &model.Course{ID: id, Title: id, IsFree: free})
	for i := 1; i <= n; i++ {
		ep := &model.Episode{
			ID:              episodeID(id, i),
			CourseID:        id,
			Order:           i,
			DurationMinutes: 10,
			QuizPassPercent: model.DefaultQuizPassPercent,
			QuizRequired:    quizOnSecond && i == 2,
		}
		_ = w.episodes.Save(ctx, repository.NoTX, ep)
	}
}

func (w *world) enroll(userID, courseID string) {
	_, _ = w.enrollments.EnsureExists(context.Background(), repository.NoTX, userID, courseID, time.Now())
}

func episodeID(courseID string, order int) string {
	return courseID + "-ep-" + string(rune('0'+order))
}
