package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "ghaudit",
	Short: "Audit a GitHub organization and stream results over SSE",
	Long: `ghaudit serves security audits for a GitHub organization.

It reads repository, branch, collaborator, member, and team data via the
GitHub API and streams each audit incrementally over Server-Sent Events, so
consumers see results as they complete instead of waiting for the slowest
repository.

ghaudit is read-only: it never mutates GitHub state. Callers supply their own
access token per request; the server holds no credentials.

Examples:
	# Start the API server on the default address
	ghaudit serve

	# Custom address and fan-out ceiling
	ghaudit serve --addr :9000 --concurrency 8

	# Print build info
	ghaudit version`,
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
