package audit

import (
	"context"
	"time"

	"github.com/google/go-github/v81/github"
	"golang.org/x/sync/errgroup"

	"ghaudit/internal/engine"
	gh "ghaudit/internal/github"
)

// defaultDaysInactive is reported when a member has no visible activity; it
// sits just past the common 90-day review window so such members sort as
// stale.
const defaultDaysInactive = 91

// MemberDetail is the per-member audit record.
type MemberDetail struct {
	Username     string `json:"username"`
	Role         string `json:"role"`
	Email        string `json:"email"`
	LastActivity string `json:"last_activity"`
	DaysInactive int    `json:"days_inactive"`
}

// MemberUnits builds one work unit per organization member.
func MemberUnits(c *gh.Client, org string, members []*github.User) []engine.Unit {
	units := make([]engine.Unit, 0, len(members))
	for _, member := range members {
		username := member.GetLogin()
		units = append(units, engine.Unit{
			Key: username,
			Run: func(ctx context.Context) (any, error) {
				return memberDetail(ctx, c, org, username)
			},
		})
	}
	return units
}

// memberDetail resolves a member's role, email and last activity with three
// parallel sub-requests. Each failed sub-request degrades to its default.
func memberDetail(ctx context.Context, c *gh.Client, org, username string) (MemberDetail, error) {
	detail := MemberDetail{
		Username:     username,
		Role:         "member",
		Email:        "N/A",
		LastActivity: "No recent activity",
		DaysInactive: defaultDaysInactive,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		membership, _, err := c.Client.Organizations.GetOrgMembership(gctx, username, org)
		if err == nil && membership.GetRole() != "" {
			detail.Role = membership.GetRole()
		}
		return nil
	})
	g.Go(func() error {
		user, _, err := c.Client.Users.Get(gctx, username)
		if err == nil && user.GetEmail() != "" {
			detail.Email = user.GetEmail()
		}
		return nil
	})
	g.Go(func() error {
		events, _, err := c.Client.Activity.ListEventsPerformedByUser(gctx, username, false,
			&github.ListOptions{PerPage: 1})
		if err != nil || len(events) == 0 {
			return nil
		}
		created := events[0].GetCreatedAt()
		if created.Time.IsZero() {
			return nil
		}
		detail.LastActivity = created.Time.Format("2006-01-02")
		detail.DaysInactive = int(time.Now().UTC().Sub(created.Time).Hours() / 24)
		return nil
	})
	if err := g.Wait(); err != nil {
		return MemberDetail{}, err
	}

	return detail, nil
}
