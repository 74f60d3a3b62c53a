// Package server exposes the audit engine over HTTP: a synchronous stats
// endpoint plus one SSE stream per audit kind.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ghaudit/internal/config"
	gh "ghaudit/internal/github"
	"ghaudit/internal/logging"
)

// Server wires configuration, routing, and per-request GitHub clients.
type Server struct {
	cfg *config.Config
	log zerolog.Logger

	// apiBaseURL rebases GitHub calls onto an alternate API root; used by
	// tests and GitHub Enterprise deployments. Empty means api.github.com.
	apiBaseURL string
}

type Option func(*Server)

// WithGitHubBaseURL points all outbound GitHub calls at an alternate root.
func WithGitHubBaseURL(u string) Option {
	return func(s *Server) {
		s.apiBaseURL = u
	}
}

func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg: cfg,
		log: logging.Component("server"),
	}
	for _, apply := range opts {
		if apply != nil {
			apply(s)
		}
	}
	return s, nil
}

// newClient builds a GitHub client for one request, authenticated with the
// caller's token. Clients are per-request because the token is.
func (s *Server) newClient(token string) (*gh.Client, error) {
	var opts []gh.Option
	if s.apiBaseURL != "" {
		opts = append(opts, gh.WithBaseURL(s.apiBaseURL))
	}
	return gh.NewClient(token, opts...)
}

// Handler assembles the route table behind the logging and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/stats/basic", s.handleBasicStats)
	mux.HandleFunc("GET /api/audit/repos/stream", s.handleRepoStream)
	mux.HandleFunc("GET /api/audit/branches/stream", s.handleBranchStream)
	mux.HandleFunc("GET /api/audit/access/stream", s.handleAccessStream)
	mux.HandleFunc("GET /api/audit/members/stream", s.handleMemberStream)
	mux.HandleFunc("GET /api/audit/teams/stream", s.handleTeamStream)

	return s.logRequests(s.cors(mux))
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Server.Addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info().Str("addr", s.cfg.Server.Addr).Msg("listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
