package audit

import "github.com/google/go-github/v81/github"

// BasicStats summarizes an organization's repository inventory.
type BasicStats struct {
	TotalRepositories    int `json:"total_repositories"`
	ActiveRepositories   int `json:"active_repositories"`
	ArchivedRepositories int `json:"archived_repositories"`
	PrivateRepositories  int `json:"private_repositories"`
	PublicRepositories   int `json:"public_repositories"`
}

// Stats computes the basic counts from an already collected repository list.
func Stats(repos []*github.Repository) BasicStats {
	var archived, private int
	for _, r := range repos {
		if r.GetArchived() {
			archived++
		}
		if r.GetPrivate() {
			private++
		}
	}
	total := len(repos)
	return BasicStats{
		TotalRepositories:    total,
		ActiveRepositories:   total - archived,
		ArchivedRepositories: archived,
		PrivateRepositories:  private,
		PublicRepositories:   total - private,
	}
}
