package audit

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v81/github"
	"golang.org/x/sync/errgroup"

	"ghaudit/internal/engine"
	gh "ghaudit/internal/github"
)

// codeownersPaths are the locations GitHub recognizes for a CODEOWNERS file.
var codeownersPaths = []string{"CODEOWNERS", "docs/CODEOWNERS", ".github/CODEOWNERS"}

// RepoAudit is the per-repository security audit record.
type RepoAudit struct {
	Repository           string  `json:"repository"`
	Owner                string  `json:"owner"`
	Description          *string `json:"description"`
	Topics               string  `json:"topics"`
	Private              bool    `json:"private"`
	Archived             bool    `json:"archived"`
	DefaultBranch        string  `json:"default_branch"`
	Language             *string `json:"language"`
	Stars                int     `json:"stars"`
	Forks                int     `json:"forks"`
	AdminCount           int     `json:"admin_count"`
	AdminNames           string  `json:"admin_names"`
	HasCodeowners        bool    `json:"has_codeowners"`
	HasRequiredReviewers bool    `json:"has_required_reviewers"`
	AllowsDirectPush     bool    `json:"allows_direct_push"`
	URL                  string  `json:"url"`
	BranchCount          int     `json:"branch_count"`
}

// RepoUnits builds one work unit per repository, archived ones included.
func RepoUnits(c *gh.Client, org string, repos []*github.Repository) []engine.Unit {
	units := make([]engine.Unit, 0, len(repos))
	for _, repo := range repos {
		units = append(units, engine.Unit{
			Key: repo.GetName(),
			Run: func(ctx context.Context) (any, error) {
				return auditRepo(ctx, c, org, repo)
			},
		})
	}
	return units
}

// auditRepo runs the four security sub-fetches for one repository in
// parallel and merges them into the audit record. Sub-fetch failures degrade
// their fields to defaults; they never fail the unit.
func auditRepo(ctx context.Context, c *gh.Client, org string, repo *github.Repository) (RepoAudit, error) {
	name := repo.GetName()
	branch := repo.GetDefaultBranch()
	if branch == "" {
		branch = "main"
	}

	var (
		hasCodeowners        bool
		allowsDirectPush     bool
		hasRequiredReviewers bool
		adminCount           int
		adminNames           string
		branchCount          int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hasCodeowners = hasCodeownersFile(gctx, c, org, name)
		return nil
	})
	g.Go(func() error {
		allowsDirectPush, hasRequiredReviewers = branchRules(gctx, c, org, name, branch)
		return nil
	})
	g.Go(func() error {
		adminCount, adminNames = adminCollaborators(gctx, c, org, name)
		return nil
	})
	g.Go(func() error {
		branchCount = countBranches(gctx, c, org, name)
		return nil
	})
	if err := g.Wait(); err != nil {
		return RepoAudit{}, err
	}

	return RepoAudit{
		Repository:           name,
		Owner:                org,
		Description:          repo.Description,
		Topics:               strings.Join(repo.Topics, ", "),
		Private:              repo.GetPrivate(),
		Archived:             repo.GetArchived(),
		DefaultBranch:        branch,
		Language:             repo.Language,
		Stars:                repo.GetStargazersCount(),
		Forks:                repo.GetForksCount(),
		AdminCount:           adminCount,
		AdminNames:           adminNames,
		HasCodeowners:        hasCodeowners,
		HasRequiredReviewers: hasRequiredReviewers,
		AllowsDirectPush:     allowsDirectPush,
		URL:                  repo.GetHTMLURL(),
		BranchCount:          branchCount,
	}, nil
}

// hasCodeownersFile probes the recognized CODEOWNERS locations in parallel.
func hasCodeownersFile(ctx context.Context, c *gh.Client, org, repo string) bool {
	found := make([]bool, len(codeownersPaths))

	var g errgroup.Group
	for i, path := range codeownersPaths {
		g.Go(func() error {
			_, _, _, err := c.Client.Repositories.GetContents(ctx, org, repo, path, nil)
			found[i] = err == nil
			return nil
		})
	}
	_ = g.Wait()

	for _, ok := range found {
		if ok {
			return true
		}
	}
	return false
}

// branchRule is the slice element of the branch rules endpoint. The typed
// go-github accessor regroups rules by category; the audit only needs the
// flat type/parameters view the API actually returns.
type branchRule struct {
	Type       string `json:"type"`
	Parameters struct {
		RequiredApprovingReviewCount int `json:"required_approving_review_count"`
	} `json:"parameters"`
}

// branchRules reads the effective rules for a branch. A pull_request rule
// blocks direct pushes; a positive required approving review count means
// reviews are mandatory. Failure degrades to the permissive defaults.
func branchRules(ctx context.Context, c *gh.Client, org, repo, branch string) (allowsDirectPush, hasRequiredReviewers bool) {
	allowsDirectPush = true

	u := fmt.Sprintf("repos/%s/%s/rules/branches/%s",
		url.PathEscape(org), url.PathEscape(repo), url.PathEscape(branch))
	req, err := c.Client.NewRequest("GET", u, nil)
	if err != nil {
		return allowsDirectPush, hasRequiredReviewers
	}

	var rules []branchRule
	if _, err := c.Client.Do(ctx, req, &rules); err != nil {
		return allowsDirectPush, hasRequiredReviewers
	}

	for _, rule := range rules {
		if rule.Type != "pull_request" {
			continue
		}
		allowsDirectPush = false
		if rule.Parameters.RequiredApprovingReviewCount > 0 {
			hasRequiredReviewers = true
		}
	}
	return allowsDirectPush, hasRequiredReviewers
}

// adminCollaborators returns the admin count and a comma-separated name list,
// or zero values when the listing fails.
func adminCollaborators(ctx context.Context, c *gh.Client, org, repo string) (int, string) {
	users, err := gh.All(ctx, func(ctx context.Context, page int) ([]*github.User, *github.Response, error) {
		opts := &github.ListCollaboratorsOptions{
			Permission:  "admin",
			ListOptions: github.ListOptions{PerPage: gh.PageSize, Page: page},
		}
		return c.Client.Repositories.ListCollaborators(ctx, org, repo, opts)
	})
	if err != nil {
		return 0, ""
	}

	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.GetLogin())
	}
	return len(names), strings.Join(names, ", ")
}

// countBranches counts branches, keeping whatever pages arrived before a
// failure.
func countBranches(ctx context.Context, c *gh.Client, org, repo string) int {
	branches, _ := gh.All(ctx, func(ctx context.Context, page int) ([]*github.Branch, *github.Response, error) {
		opts := &github.BranchListOptions{
			ListOptions: github.ListOptions{PerPage: gh.PageSize, Page: page},
		}
		return c.Client.Repositories.ListBranches(ctx, org, repo, opts)
	})
	return len(branches)
}
