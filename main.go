// package main is the entry point for the pr-sync tool
package main

import (
	"log/slog"
	"os"

	reposcmd "github.com/alan/pr-sync/cmd/repos"
	"github.com/alan/pr-sync/cmd/summary"
	synccmd "github.com/alan/pr-sync/cmd/sync"
	"github.com/alan/pr-sync/cmd/upload"
	"github.com/alan/pr-sync/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	var configFile string
	var logLevel string
	var logFormat string

	rootCmd := &cobra.Command{
		Use:   "pr-sync",
		Short: "A CLI tool for synchronizing GitHub pull request metadata into a CSV dataset",
		Long: `pr-sync fetches merged and closed pull requests from the GitHub search API,
computes review metrics (including Copilot Code Review usage), and reconciles
them into a durable CSV dataset without duplicating or dropping history.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// Token and defaults may live in a .env file, same operator
			// setup the previous tooling used.
			_ = godotenv.Load()
			setupLogger(logLevel, logFormat)
		},
	}

	// Add global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "pr-sync.yaml", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&logFormat, "log-format", "f", "text", "Log format (text, json)")

	rootCmd.AddCommand(synccmd.NewSyncCmd(&configFile, config.LoadConfig))
	rootCmd.AddCommand(reposcmd.NewReposCmd(&configFile, config.LoadConfig))
	rootCmd.AddCommand(upload.NewUploadCmd(&configFile, config.LoadConfig))
	rootCmd.AddCommand(upload.NewDownloadCmd(&configFile, config.LoadConfig))
	rootCmd.AddCommand(summary.NewSummaryCmd(&configFile, config.LoadConfig))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger(level, format string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}

	slog.SetDefault(slog.New(handler))
}
