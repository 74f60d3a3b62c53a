package audit

import (
	"context"

	"github.com/google/go-github/v81/github"

	"ghaudit/internal/engine"
	gh "ghaudit/internal/github"
)

// AccessRecord describes one collaborator's effective permission on a repo.
type AccessRecord struct {
	Repository string `json:"repository"`
	Username   string `json:"username"`
	Permission string `json:"permission"`
}

// AccessUnits builds one work unit per non-archived repository. Each unit's
// payload is the repo's []AccessRecord.
func AccessUnits(c *gh.Client, org string, repos []*github.Repository) []engine.Unit {
	names := activeRepoNames(repos)
	units := make([]engine.Unit, 0, len(names))
	for _, name := range names {
		units = append(units, engine.Unit{
			Key: name,
			Run: func(ctx context.Context) (any, error) {
				return repoAccess(ctx, c, org, name)
			},
		})
	}
	return units
}

func repoAccess(ctx context.Context, c *gh.Client, org, repo string) ([]AccessRecord, error) {
	collaborators, err := gh.All(ctx, func(ctx context.Context, page int) ([]*github.User, *github.Response, error) {
		opts := &github.ListCollaboratorsOptions{
			ListOptions: github.ListOptions{PerPage: gh.PageSize, Page: page},
		}
		return c.Client.Repositories.ListCollaborators(ctx, org, repo, opts)
	})
	if err != nil && len(collaborators) == 0 {
		// Degraded: no access data for this repo, siblings keep going.
		return []AccessRecord{}, nil
	}

	records := make([]AccessRecord, 0, len(collaborators))
	for _, collab := range collaborators {
		records = append(records, AccessRecord{
			Repository: repo,
			Username:   collab.GetLogin(),
			Permission: permissionLevel(collab.GetPermissions()),
		})
	}
	return records, nil
}

// permissionLevel collapses GitHub's permission flags to the highest granted
// level.
func permissionLevel(perms map[string]bool) string {
	switch {
	case perms["admin"]:
		return "admin"
	case perms["maintain"]:
		return "maintain"
	case perms["push"]:
		return "write"
	default:
		return "read"
	}
}
