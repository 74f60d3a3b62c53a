package audit

import (
	"context"

	"github.com/google/go-github/v81/github"

	"ghaudit/internal/engine"
	gh "ghaudit/internal/github"
)

// TeamDetail is the per-team audit record.
type TeamDetail struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Privacy      string `json:"privacy"`
	MembersCount int    `json:"members_count"`
	ReposCount   int    `json:"repos_count"`
}

// TeamUnits builds one work unit per organization team.
func TeamUnits(c *gh.Client, org string, teams []*github.Team) []engine.Unit {
	units := make([]engine.Unit, 0, len(teams))
	for _, team := range teams {
		units = append(units, engine.Unit{
			Key: team.GetName(),
			Run: func(ctx context.Context) (any, error) {
				return teamDetail(ctx, c, org, team)
			},
		})
	}
	return units
}

// teamDetail enriches a team with member and repo counts. The list payload
// usually carries them; when both are zero the team detail endpoint is
// consulted once, and a failure there keeps the zeros.
func teamDetail(ctx context.Context, c *gh.Client, org string, team *github.Team) (TeamDetail, error) {
	membersCount := team.GetMembersCount()
	reposCount := team.GetReposCount()

	if membersCount == 0 && reposCount == 0 {
		if full, _, err := c.Client.Teams.GetTeamBySlug(ctx, org, team.GetSlug()); err == nil {
			membersCount = full.GetMembersCount()
			reposCount = full.GetReposCount()
		}
	}

	description := team.GetDescription()
	if description == "" {
		description = "No description"
	}
	privacy := team.GetPrivacy()
	if privacy == "" {
		privacy = "closed"
	}

	return TeamDetail{
		Name:         team.GetName(),
		Description:  description,
		Privacy:      privacy,
		MembersCount: membersCount,
		ReposCount:   reposCount,
	}, nil
}
