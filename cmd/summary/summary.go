// Package summary implements the summary subcommand, which prints
// aggregate statistics about the synchronized dataset.
package summary

import (
	"fmt"
	"time"

	"github.com/alan/pr-sync/internal/config"
	"github.com/alan/pr-sync/internal/dataset"
	"github.com/spf13/cobra"
)

// SummaryCommand encapsulates the summary command
type SummaryCommand struct {
	ConfigFile *string
	LoadConfig func(string) (*config.Config, error)
	Output     string
}

// NewSummaryCmd creates and returns the summary command
func NewSummaryCmd(globalConfigFile *string, loadConfig func(string) (*config.Config, error)) *cobra.Command {
	summaryCmd := &SummaryCommand{}

	command := &cobra.Command{
		Use:          "summary",
		Short:        "Show summary statistics for the synchronized dataset",
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			summaryCmd.ConfigFile = globalConfigFile
			summaryCmd.LoadConfig = loadConfig
			return summaryCmd.Run()
		},
	}

	command.Flags().StringVar(&summaryCmd.Output, "output", "", "Dataset CSV path (default data/pull_requests.csv)")

	return command
}

// Run executes the summary command
func (sc *SummaryCommand) Run() error {
	cfg, err := sc.LoadConfig(*sc.ConfigFile)
	if err != nil {
		return err
	}

	output := sc.Output
	if output == "" {
		output = cfg.Output
	}
	if output == "" {
		output = config.DefaultOutput
	}

	records, err := dataset.NewStore(output).Load()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("Dataset is empty")
		return nil
	}

	printStatistics(records)
	return nil
}

// Statistics aggregates the dataset for display
type Statistics struct {
	Total          int
	WithCCR        int
	AvgDaysWith    float64
	AvgDaysWithout float64
	MinCreated     time.Time
	MaxCreated     time.Time
}

// ComputeStatistics derives the summary numbers from the dataset
func ComputeStatistics(records []dataset.Record) Statistics {
	stats := Statistics{Total: len(records)}

	var daysWith, daysWithout float64
	for _, record := range records {
		if record.HasCopilotReview {
			stats.WithCCR++
			daysWith += record.DaysOpen
		} else {
			daysWithout += record.DaysOpen
		}

		if stats.MinCreated.IsZero() || record.CreatedAt.Before(stats.MinCreated) {
			stats.MinCreated = record.CreatedAt
		}
		if record.CreatedAt.After(stats.MaxCreated) {
			stats.MaxCreated = record.CreatedAt
		}
	}

	if stats.WithCCR > 0 {
		stats.AvgDaysWith = daysWith / float64(stats.WithCCR)
	}
	if without := stats.Total - stats.WithCCR; without > 0 {
		stats.AvgDaysWithout = daysWithout / float64(without)
	}

	return stats
}

func printStatistics(records []dataset.Record) {
	stats := ComputeStatistics(records)
	without := stats.Total - stats.WithCCR

	fmt.Println("SUMMARY STATISTICS")
	fmt.Printf("Total PRs:              %d\n", stats.Total)
	fmt.Printf("  With Copilot Review:  %d (%.1f%%)\n", stats.WithCCR, percent(stats.WithCCR, stats.Total))
	fmt.Printf("  Without CCR:          %d (%.1f%%)\n", without, percent(without, stats.Total))
	fmt.Println("Average Days Open:")
	fmt.Printf("  With Copilot Review:  %.2f days\n", stats.AvgDaysWith)
	fmt.Printf("  Without CCR:          %.2f days\n", stats.AvgDaysWithout)
	if stats.WithCCR > 0 && without > 0 {
		diff := stats.AvgDaysWithout - stats.AvgDaysWith
		direction := "faster"
		if diff < 0 {
			direction = "slower"
		}
		fmt.Printf("  Difference:           %.2f days (%s with CCR)\n", diff, direction)
	}
	fmt.Printf("Date Range:             %s to %s\n",
		stats.MinCreated.UTC().Format("2006-01-02"),
		stats.MaxCreated.UTC().Format("2006-01-02"))
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
