package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ghaudit/internal/audit"
	"ghaudit/internal/engine"
	gh "ghaudit/internal/github"
	"ghaudit/internal/stream"
)

var auditRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ghaudit_audit_runs_total",
	Help: "Audit runs by kind and outcome",
}, []string{"kind", "outcome"})

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// handleBasicStats returns the repository inventory counts synchronously.
// Credentials arrive as headers on this endpoint.
func (s *Server) handleBasicStats(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("gh-token")
	org := r.Header.Get("gh-org")
	if token == "" || org == "" {
		writeDetail(w, http.StatusBadRequest, "gh-token and gh-org headers are required")
		return
	}

	client, err := s.newClient(token)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	repos, err := audit.ListRepos(r.Context(), client, org)
	if err != nil {
		status, ok := gh.HTTPStatus(err)
		if !ok {
			status = http.StatusBadGateway
		}
		writeDetail(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, audit.Stats(repos))
}

// streamSpec binds one audit kind to its entity collection, unit
// construction, and wire vocabulary.
type streamSpec struct {
	kind       string
	subjectKey string
	totalKey   string
	dataKey    string

	// collect retrieves the full entity list and maps it to work units.
	// It must finish before the start event: the total is not known
	// incrementally.
	collect func(ctx context.Context, c *gh.Client, org string) ([]engine.Unit, error)

	// hasData reports whether a unit's payload warrants a data event.
	// Nil means every non-nil payload does.
	hasData func(payload any) bool
}

// streamAudit runs the collect/fan-out/emit pipeline shared by every audit
// stream. The request context cancels in-flight units when the consumer
// disconnects; emitter write errors cancel the same way.
func (s *Server) streamAudit(w http.ResponseWriter, r *http.Request, spec streamSpec) {
	token := r.URL.Query().Get("gh_token")
	org := r.URL.Query().Get("gh_org")
	if token == "" || org == "" {
		writeDetail(w, http.StatusBadRequest, "gh_token and gh_org query parameters are required")
		return
	}

	sw, err := stream.NewWriter(w)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	em := stream.NewEmitter(sw, spec.subjectKey, spec.totalKey, spec.dataKey)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client, err := s.newClient(token)
	if err != nil {
		_ = em.Error(err.Error())
		auditRunsTotal.WithLabelValues(spec.kind, "failed").Inc()
		return
	}

	units, err := spec.collect(ctx, client, org)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			auditRunsTotal.WithLabelValues(spec.kind, "canceled").Inc()
			return
		}
		_ = em.Error(err.Error())
		auditRunsTotal.WithLabelValues(spec.kind, "failed").Inc()
		return
	}

	if err := em.Start(len(units)); err != nil {
		auditRunsTotal.WithLabelValues(spec.kind, "canceled").Inc()
		return
	}

	scheduler, err := engine.NewScheduler(s.cfg.Runtime.Concurrency)
	if err != nil {
		_ = em.Error(err.Error())
		auditRunsTotal.WithLabelValues(spec.kind, "failed").Inc()
		return
	}

	for res := range scheduler.Execute(ctx, units) {
		if err := em.Progress(res.Key); err != nil {
			cancel()
			auditRunsTotal.WithLabelValues(spec.kind, "canceled").Inc()
			return
		}
		if res.Payload == nil || (spec.hasData != nil && !spec.hasData(res.Payload)) {
			continue
		}
		if err := em.Data(res.Payload); err != nil {
			cancel()
			auditRunsTotal.WithLabelValues(spec.kind, "canceled").Inc()
			return
		}
	}
	if ctx.Err() != nil {
		auditRunsTotal.WithLabelValues(spec.kind, "canceled").Inc()
		return
	}

	_ = em.Done()
	auditRunsTotal.WithLabelValues(spec.kind, "completed").Inc()
}

func (s *Server) handleRepoStream(w http.ResponseWriter, r *http.Request) {
	s.streamAudit(w, r, streamSpec{
		kind:       "repos",
		subjectKey: "repo",
		totalKey:   "total_repos",
		dataKey:    "repo_data",
		collect: func(ctx context.Context, c *gh.Client, org string) ([]engine.Unit, error) {
			repos, err := audit.ListRepos(ctx, c, org)
			if err != nil {
				return nil, err
			}
			return audit.RepoUnits(c, org, repos), nil
		},
	})
}

func (s *Server) handleBranchStream(w http.ResponseWriter, r *http.Request) {
	s.streamAudit(w, r, streamSpec{
		kind:       "branches",
		subjectKey: "repo",
		totalKey:   "total_repos",
		dataKey:    "branches",
		collect: func(ctx context.Context, c *gh.Client, org string) ([]engine.Unit, error) {
			repos, err := audit.ListRepos(ctx, c, org)
			if err != nil {
				return nil, err
			}
			return audit.BranchUnits(c, org, repos), nil
		},
		hasData: func(payload any) bool {
			branches, ok := payload.([]audit.BranchDetail)
			return ok && len(branches) > 0
		},
	})
}

func (s *Server) handleAccessStream(w http.ResponseWriter, r *http.Request) {
	s.streamAudit(w, r, streamSpec{
		kind:       "access",
		subjectKey: "repo",
		totalKey:   "total_repos",
		dataKey:    "access_data",
		collect: func(ctx context.Context, c *gh.Client, org string) ([]engine.Unit, error) {
			repos, err := audit.ListRepos(ctx, c, org)
			if err != nil {
				return nil, err
			}
			return audit.AccessUnits(c, org, repos), nil
		},
		hasData: func(payload any) bool {
			records, ok := payload.([]audit.AccessRecord)
			return ok && len(records) > 0
		},
	})
}

func (s *Server) handleMemberStream(w http.ResponseWriter, r *http.Request) {
	s.streamAudit(w, r, streamSpec{
		kind:       "members",
		subjectKey: "member",
		totalKey:   "total_members",
		dataKey:    "member_data",
		collect: func(ctx context.Context, c *gh.Client, org string) ([]engine.Unit, error) {
			members, err := audit.ListMembers(ctx, c, org)
			if err != nil {
				return nil, err
			}
			return audit.MemberUnits(c, org, members), nil
		},
	})
}

func (s *Server) handleTeamStream(w http.ResponseWriter, r *http.Request) {
	s.streamAudit(w, r, streamSpec{
		kind:       "teams",
		subjectKey: "team",
		totalKey:   "total_teams",
		dataKey:    "team_data",
		collect: func(ctx context.Context, c *gh.Client, org string) ([]engine.Unit, error) {
			teams, err := audit.ListTeams(ctx, c, org)
			if err != nil {
				return nil, err
			}
			return audit.TeamUnits(c, org, teams), nil
		},
	})
}
