package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"course-progression/internal/config"

	"github.com/rs/zerolog"
)

// Server owns the HTTP listener for the API router.
type Server struct {
	server *http.Server
	log    *zerolog.Logger
}

func NewServer(cfg config.HTTPConfig, handler http.Handler, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "http_server").Logger()
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		log: &l,
	}
}

func (s *Server) Addr() string { return s.server.Addr }

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
