package audit

import (
	"context"
	"time"

	"github.com/google/go-github/v81/github"

	"ghaudit/internal/engine"
	gh "ghaudit/internal/github"
)

// BranchDetail is one branch row of the branch audit. Commit date fields are
// null when the commit lookup fails.
type BranchDetail struct {
	Repository     string  `json:"repository"`
	BranchName     string  `json:"branch_name"`
	LastCommitDate *string `json:"last_commit_date"`
	AgeDays        *int    `json:"age_days"`
	Protected      bool    `json:"protected"`
}

// BranchUnits builds one work unit per non-archived repository. Each unit's
// payload is the repo's []BranchDetail; repos without branches yield an empty
// slice, which the handler drops from the data stream.
func BranchUnits(c *gh.Client, org string, repos []*github.Repository) []engine.Unit {
	names := activeRepoNames(repos)
	units := make([]engine.Unit, 0, len(names))
	for _, name := range names {
		units = append(units, engine.Unit{
			Key: name,
			Run: func(ctx context.Context) (any, error) {
				return branchDetails(ctx, c, org, name)
			},
		})
	}
	return units
}

// branchDetails lists all branches of a repo and resolves each tip commit's
// date. Listing failures keep the pages already fetched; commit lookup
// failures leave that branch's date fields null.
func branchDetails(ctx context.Context, c *gh.Client, org, repo string) ([]BranchDetail, error) {
	branches, _ := gh.All(ctx, func(ctx context.Context, page int) ([]*github.Branch, *github.Response, error) {
		opts := &github.BranchListOptions{
			ListOptions: github.ListOptions{PerPage: gh.PageSize, Page: page},
		}
		return c.Client.Repositories.ListBranches(ctx, org, repo, opts)
	})

	now := time.Now().UTC()
	out := make([]BranchDetail, 0, len(branches))
	for _, b := range branches {
		detail := BranchDetail{
			Repository: repo,
			BranchName: b.GetName(),
			Protected:  b.GetProtected(),
		}

		if sha := b.GetCommit().GetSHA(); sha != "" {
			if date, ok := commitDate(ctx, c, org, repo, sha); ok {
				formatted := date.Format("2006-01-02")
				age := int(now.Sub(date).Hours() / 24)
				detail.LastCommitDate = &formatted
				detail.AgeDays = &age
			}
		}

		out = append(out, detail)
	}
	return out, nil
}

func commitDate(ctx context.Context, c *gh.Client, org, repo, sha string) (time.Time, bool) {
	commit, _, err := c.Client.Repositories.GetCommit(ctx, org, repo, sha, nil)
	if err != nil {
		return time.Time{}, false
	}
	date := commit.GetCommit().GetCommitter().GetDate()
	if date.Time.IsZero() {
		return time.Time{}, false
	}
	return date.Time, true
}
