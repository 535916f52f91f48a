package apiv1

import (
	"errors"
	"net/http"
	"time"

	"course-progression/internal/domain"
	"course-progression/internal/domain/model"
	"course-progression/internal/infra/metrics"
	"course-progression/internal/usecase"

	"github.com/go-chi/chi/v5"
)

type episodeDTO struct {
	ID                   string `json:"id"`
	Order                int    `json:"order"`
	Title                string `json:"title"`
	DurationMinutes      int    `json:"duration_minutes"`
	IsFree               bool   `json:"is_free"`
	QuizRequired         bool   `json:"quiz_required"`
	IsUnlocked           bool   `json:"is_unlocked"`
	IsCompleted          bool   `json:"is_completed"`
	WatchedSeconds       int    `json:"watched_seconds"`
	RequiredWatchSeconds int    `json:"required_watch_seconds"`
	QuizPassed           bool   `json:"quiz_passed"`
}

type progressDTO struct {
	EpisodeID      string     `json:"episode_id"`
	WatchedSeconds int        `json:"watched_seconds"`
	IsCompleted    bool       `json:"is_completed"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

type enrollmentDTO struct {
	CourseID           string     `json:"course_id"`
	ProgressPercentage int        `json:"progress_percentage"`
	CompletedEpisodes  int        `json:"completed_episodes"`
	EnrolledAt         time.Time  `json:"enrolled_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

type progressResponse struct {
	Progress     progressDTO    `json:"progress"`
	CompletedNow bool           `json:"completed_now"`
	HintRejected bool           `json:"hint_rejected"`
	Enrollment   *enrollmentDTO `json:"enrollment"`
}

func toEnrollmentDTO(e *model.Enrollment) *enrollmentDTO {
	if e == nil {
		return nil
	}
	return &enrollmentDTO{
		CourseID:           e.CourseID,
		ProgressPercentage: e.ProgressPercentage,
		CompletedEpisodes:  e.CompletedEpisodes,
		EnrolledAt:         e.EnrolledAt,
		CompletedAt:        e.CompletedAt,
	}
}

func toProgressResponse(res *usecase.ProgressResult) progressResponse {
	p := res.Progress
	return progressResponse{
		Progress: progressDTO{
			EpisodeID:      p.EpisodeID,
			WatchedSeconds: p.WatchedSeconds,
			IsCompleted:    p.IsCompleted,
			CompletedAt:    p.CompletedAt,
		},
		CompletedNow: res.CompletedNow,
		HintRejected: res.HintRejected,
		Enrollment:   toEnrollmentDTO(res.Enrollment),
	}
}

func (s *Server) listEpisodes(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r.Context()).Subject
	views, err := s.progress.ListEpisodes(r.Context(), userID, chi.URLParam(r, "courseID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]episodeDTO, 0, len(views))
	for _, v := range views {
		out = append(out, episodeDTO{
			ID:                   v.ID,
			Order:                v.Order,
			Title:                v.Title,
			DurationMinutes:      v.DurationMinutes,
			IsFree:               v.IsFree,
			QuizRequired:         v.QuizRequired,
			IsUnlocked:           v.IsUnlocked,
			IsCompleted:          v.IsCompleted,
			WatchedSeconds:       v.WatchedSeconds,
			RequiredWatchSeconds: v.RequiredWatchSeconds,
			QuizPassed:           v.QuizPassed,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

type progressRequest struct {
	WatchedSeconds int  `json:"watched_seconds" validate:"gte=0,lte=2147483647"`
	Completed      bool `json:"completed"`
}

func (s *Server) reportProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if !s.decode(w, r, &req) {
		return
	}
	userID := claimsFrom(r.Context()).Subject
	res, err := s.progress.ReportProgress(r.Context(), userID,
		chi.URLParam(r, "courseID"), chi.URLParam(r, "episodeID"), req.WatchedSeconds, req.Completed)
	if err != nil {
		if errors.Is(err, domain.ErrAccessDenied) {
			metrics.IncProgressReport("denied")
		}
		s.writeError(w, r, err)
		return
	}

	if res.HintRejected {
		metrics.IncProgressReport("hint_rejected")
	} else {
		metrics.IncProgressReport("accepted")
	}
	if res.CompletedNow {
		metrics.IncEpisodeCompletion("report")
	}
	writeJSON(w, http.StatusOK, toProgressResponse(res))
}

func (s *Server) markComplete(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r.Context()).Subject
	res, err := s.progress.MarkComplete(r.Context(), userID, chi.URLParam(r, "courseID"), chi.URLParam(r, "episodeID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.CompletedNow {
		metrics.IncEpisodeCompletion("mark")
	}
	writeJSON(w, http.StatusOK, toProgressResponse(res))
}

type quizAttemptRequest struct {
	Score    int `json:"score" validate:"gte=0,ltefield=MaxScore"`
	MaxScore int `json:"max_score" validate:"gt=0,lte=2147483647"`
}

type quizAttemptResponse struct {
	ID            string    `json:"id"`
	AttemptNumber int       `json:"attempt_number"`
	Score         int       `json:"score"`
	MaxScore      int       `json:"max_score"`
	Passed        bool      `json:"passed"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s *Server) submitQuizAttempt(w http.ResponseWriter, r *http.Request) {
	var req quizAttemptRequest
	if !s.decode(w, r, &req) {
		return
	}
	userID := claimsFrom(r.Context()).Subject
	a, err := s.quizzes.SubmitAttempt(r.Context(), userID,
		chi.URLParam(r, "courseID"), chi.URLParam(r, "episodeID"), req.Score, req.MaxScore)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	metrics.IncQuizAttempt(a.Passed)
	writeJSON(w, http.StatusCreated, quizAttemptResponse{
		ID:            a.ID,
		AttemptNumber: a.AttemptNumber,
		Score:         a.Score,
		MaxScore:      a.MaxScore,
		Passed:        a.Passed,
		CreatedAt:     a.CreatedAt,
	})
}

func (s *Server) getEnrollment(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r.Context()).Subject
	e, err := s.progress.GetEnrollment(r.Context(), userID, chi.URLParam(r, "courseID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEnrollmentDTO(e))
}
