// Package sync implements the sync subcommand, which fetches pull request
// metadata from GitHub and reconciles it into the CSV dataset.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/alan/pr-sync/internal/config"
	"github.com/alan/pr-sync/internal/dataset"
	gh "github.com/alan/pr-sync/internal/github"
	enginesync "github.com/alan/pr-sync/internal/sync"
	"github.com/spf13/cobra"
)

// SyncCommand encapsulates the sync command flags and dependencies
type SyncCommand struct {
	ConfigFile *string
	LoadConfig func(string) (*config.Config, error)

	Owner     string
	Repo      string
	AllRepos  bool
	StartDate string
	EndDate   string
	Output    string
	Merge     bool
	Snapshot  bool
}

// NewSyncCmd creates and returns the sync command
func NewSyncCmd(globalConfigFile *string, loadConfig func(string) (*config.Config, error)) *cobra.Command {
	syncCmd := &SyncCommand{}

	command := &cobra.Command{
		Use:   "sync",
		Short: "Fetch merged and closed PRs from GitHub and merge them into the dataset",
		Long: `Fetch terminal-state pull requests for a repository or a whole organization
within an optional date window, compute review metrics, and reconcile them
into the CSV dataset by (pr_number, repository) key. Existing rows with
re-fetched keys are replaced; rows not re-fetched are kept unchanged.

Requires GITHUB_TOKEN environment variable to be set.`,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			syncCmd.ConfigFile = globalConfigFile
			syncCmd.LoadConfig = loadConfig
			return syncCmd.Run()
		},
	}

	command.Flags().StringVarP(&syncCmd.Owner, "owner", "o", "", "GitHub organization or user name")
	command.Flags().StringVarP(&syncCmd.Repo, "repo", "r", "", "Repository name (omit to scan all repos in the org)")
	command.Flags().BoolVar(&syncCmd.AllRepos, "all-repos", false, "Scan all repositories in the organization even if a repo is configured")
	command.Flags().StringVar(&syncCmd.StartDate, "start-date", "", "Fetch PRs created on or after this date (YYYY-MM-DD)")
	command.Flags().StringVar(&syncCmd.EndDate, "end-date", "", "Fetch PRs created before this date (YYYY-MM-DD), defaults to now")
	command.Flags().StringVar(&syncCmd.Output, "output", "", "Dataset CSV path (default data/pull_requests.csv)")
	command.Flags().BoolVar(&syncCmd.Merge, "merge", true, "Merge into the existing dataset instead of replacing it")
	command.Flags().BoolVar(&syncCmd.Snapshot, "snapshot", false, "Write a dated snapshot of the dataset before mutating it")

	return command
}

// Run executes the sync command
func (sc *SyncCommand) Run() error {
	cfg, err := sc.LoadConfig(*sc.ConfigFile)
	if err != nil {
		return err
	}

	opts, output, err := sc.resolveOptions(cfg)
	if err != nil {
		return err
	}

	token, err := config.GitHubToken()
	if err != nil {
		return err
	}

	ctx := context.Background()
	client := gh.NewClient(ctx, token)
	store := dataset.NewStore(output)
	normalizer := enginesync.NewNormalizer(cfg.BotSubstring)
	runner := enginesync.NewRunner(client, store, normalizer)

	summary, err := runner.Run(ctx, opts)
	if err != nil {
		return err
	}

	printSummary(summary, output)
	return nil
}

// resolveOptions merges config file defaults with flag values
func (sc *SyncCommand) resolveOptions(cfg *config.Config) (enginesync.Options, string, error) {
	owner := sc.Owner
	if owner == "" {
		owner = cfg.Owner
	}
	if owner == "" {
		return enginesync.Options{}, "", fmt.Errorf("--owner is required (or set owner in the config file)")
	}

	repo := sc.Repo
	if repo == "" {
		repo = cfg.Repo
	}
	if sc.AllRepos {
		repo = ""
	}

	output := sc.Output
	if output == "" {
		output = cfg.Output
	}
	if output == "" {
		output = config.DefaultOutput
	}

	window, err := parseWindow(sc.StartDate, sc.EndDate)
	if err != nil {
		return enginesync.Options{}, "", err
	}

	return enginesync.Options{
		Owner:    owner,
		Repo:     repo,
		Window:   window,
		Merge:    sc.Merge,
		Snapshot: sc.Snapshot,
	}, output, nil
}

// parseWindow parses the optional date flags into a fetch window
func parseWindow(startDate, endDate string) (enginesync.Window, error) {
	var window enginesync.Window

	if startDate != "" {
		start, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return enginesync.Window{}, fmt.Errorf("invalid start date format, use YYYY-MM-DD: %w", err)
		}
		window.Start = &start
	}
	if endDate != "" {
		end, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return enginesync.Window{}, fmt.Errorf("invalid end date format, use YYYY-MM-DD: %w", err)
		}
		window.End = &end
	}
	if window.Start != nil && window.End != nil && !window.Start.Before(*window.End) {
		return enginesync.Window{}, fmt.Errorf("start date %s is not before end date %s", startDate, endDate)
	}

	return window, nil
}

// printSummary reports the run outcome to the operator
func printSummary(summary *enginesync.Summary, output string) {
	fmt.Printf("✅ Synced %d record(s) into %s (%d added, %d replaced, %d chunk(s))\n",
		summary.Fetched, output, summary.Added, summary.Replaced, summary.Chunks)
	if summary.SnapshotPath != "" {
		fmt.Printf("   Snapshot written to %s\n", summary.SnapshotPath)
	}
	for _, warning := range summary.Warnings {
		fmt.Printf("⚠️  %s\n", warning)
	}
}
