package apiv1

import (
	"context"
	"net/http"
	"time"

	"course-progression/internal/infra/api"
	"course-progression/internal/infra/logging"
	"course-progression/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type ctxKey struct{}

// Server holds the use cases behind the v1 API.
type Server struct {
	keys     usecase.KeyUseCase
	access   usecase.AccessUseCase
	progress usecase.ProgressUseCase
	quizzes  usecase.QuizUseCase

	auth     *AuthManager
	adminKey string
	validate *validator.Validate
	log      *zerolog.Logger
}

func NewServer(
	keys usecase.KeyUseCase,
	access usecase.AccessUseCase,
	progress usecase.ProgressUseCase,
	quizzes usecase.QuizUseCase,
	auth *AuthManager,
	adminKey string,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "apiv1").Logger()
	return &Server{
		keys:     keys,
		access:   access,
		progress: progress,
		quizzes:  quizzes,
		auth:     auth,
		adminKey: adminKey,
		validate: newValidator(),
		log:      &l,
	}
}

// NewRouter builds the full HTTP handler: middleware stack, health, metrics
// and the v1 routes.
func NewRouter(s *Server, logger *zerolog.Logger, requestTimeout time.Duration) *chi.Mux {
	r := chi.NewRouter()
	r.Use(api.Stack(logger, requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	RegisterAPIV1(r, s)
	return r
}

// RegisterAPIV1 mounts every /api/v1 route on r.
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/keys/redeem", s.redeemKey)
		r.Get("/access", s.checkAccess)

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(RoleUser, RoleAdmin))
			r.Route("/courses/{courseID}", func(r chi.Router) {
				r.Get("/episodes", s.listEpisodes)
				r.Get("/enrollment", s.getEnrollment)
				r.Post("/episodes/{episodeID}/progress", s.reportProgress)
				r.Post("/episodes/{episodeID}/complete", s.markComplete)
				r.Post("/episodes/{episodeID}/quiz-attempts", s.submitQuizAttempt)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/auth/login", s.adminLogin)
			r.Post("/auth/logout", s.adminLogout)

			r.Group(func(r chi.Router) {
				r.Use(s.requireRole(RoleAdmin))
				r.Post("/keys", s.issueKeys)
				r.Get("/keys", s.listKeys)
				r.Get("/keys/stats", s.keyStats)
				r.Post("/keys/{code}/deactivate", s.deactivateKey)
			})
		})
	})
}

// requireRole rejects requests without a valid token carrying one of roles.
func (s *Server) requireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := s.auth.ParseFromRequest(r)
			if err != nil {
				writeCode(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			allowed := false
			for _, role := range roles {
				if claims.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				writeCode(w, http.StatusForbidden, "forbidden")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, claims)
			ctx = logging.WithUserID(ctx, claims.Subject)
			ctx = logging.WithRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func claimsFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(ctxKey{}).(*Claims)
	return c
}

func (s *Server) reqLog(r *http.Request) *zerolog.Logger {
	return logging.With(r.Context(), s.log)
}
