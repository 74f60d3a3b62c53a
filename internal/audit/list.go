// Package audit maps organization entities (repositories, members, teams) to
// the GitHub sub-requests each audit needs and the output records it emits.
package audit

import (
	"context"

	"github.com/google/go-github/v81/github"

	gh "ghaudit/internal/github"
)

// ListRepos collects every repository of an organization. Failures here are
// fatal for the whole run and come back as the typed errors in
// internal/github.
func ListRepos(ctx context.Context, c *gh.Client, org string) ([]*github.Repository, error) {
	return gh.All(ctx, func(ctx context.Context, page int) ([]*github.Repository, *github.Response, error) {
		opts := &github.RepositoryListByOrgOptions{
			ListOptions: github.ListOptions{PerPage: gh.PageSize, Page: page},
		}
		repos, resp, err := c.Client.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, resp, gh.ClassifyListError(org, gh.Resp(resp), err)
		}
		return repos, resp, nil
	})
}

// ListMembers collects every member of an organization.
func ListMembers(ctx context.Context, c *gh.Client, org string) ([]*github.User, error) {
	return gh.All(ctx, func(ctx context.Context, page int) ([]*github.User, *github.Response, error) {
		opts := &github.ListMembersOptions{
			ListOptions: github.ListOptions{PerPage: gh.PageSize, Page: page},
		}
		members, resp, err := c.Client.Organizations.ListMembers(ctx, org, opts)
		if err != nil {
			return nil, resp, gh.ClassifyListError(org, gh.Resp(resp), err)
		}
		return members, resp, nil
	})
}

// ListTeams collects every team of an organization.
func ListTeams(ctx context.Context, c *gh.Client, org string) ([]*github.Team, error) {
	return gh.All(ctx, func(ctx context.Context, page int) ([]*github.Team, *github.Response, error) {
		opts := &github.ListOptions{PerPage: gh.PageSize, Page: page}
		teams, resp, err := c.Client.Teams.ListTeams(ctx, org, opts)
		if err != nil {
			return nil, resp, gh.ClassifyListError(org, gh.Resp(resp), err)
		}
		return teams, resp, nil
	})
}

// activeRepoNames filters out archived repositories; the branch and access
// audits skip them.
func activeRepoNames(repos []*github.Repository) []string {
	names := make([]string, 0, len(repos))
	for _, r := range repos {
		if r.GetArchived() {
			continue
		}
		names = append(names, r.GetName())
	}
	return names
}
