// Package repos implements the repos subcommand, which lists the
// repositories of an organization.
package repos

import (
	"context"
	"fmt"

	"github.com/alan/pr-sync/internal/config"
	gh "github.com/alan/pr-sync/internal/github"
	"github.com/spf13/cobra"
)

// ReposCommand encapsulates the repos command
type ReposCommand struct {
	ConfigFile *string
	LoadConfig func(string) (*config.Config, error)
	Owner      string
}

// NewReposCmd creates and returns the repos command
func NewReposCmd(globalConfigFile *string, loadConfig func(string) (*config.Config, error)) *cobra.Command {
	reposCmd := &ReposCommand{}

	command := &cobra.Command{
		Use:   "repos",
		Short: "List repositories in the configured organization",
		Long: `List all repositories of the organization the sync would scan.

Requires GITHUB_TOKEN environment variable to be set.`,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			reposCmd.ConfigFile = globalConfigFile
			reposCmd.LoadConfig = loadConfig
			return reposCmd.Run()
		},
	}

	command.Flags().StringVarP(&reposCmd.Owner, "owner", "o", "", "GitHub organization name")

	return command
}

// Run executes the repos command
func (rc *ReposCommand) Run() error {
	cfg, err := rc.LoadConfig(*rc.ConfigFile)
	if err != nil {
		return err
	}

	owner := rc.Owner
	if owner == "" {
		owner = cfg.Owner
	}
	if owner == "" {
		return fmt.Errorf("--owner is required (or set owner in the config file)")
	}

	token, err := config.GitHubToken()
	if err != nil {
		return err
	}

	ctx := context.Background()
	client := gh.NewClient(ctx, token)

	names, err := client.ListOrgRepos(ctx, owner)
	if err != nil {
		return fmt.Errorf("failed to list repositories for %s: %w", owner, err)
	}

	for _, name := range names {
		fmt.Printf("%s/%s\n", owner, name)
	}
	fmt.Printf("✅ %d repositories\n", len(names))

	return nil
}
