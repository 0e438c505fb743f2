// Package upload implements the upload and download subcommands, which
// round-trip the dataset file through the configured blob store. The sync
// engine never calls the blob store itself; these commands exist so a
// scheduler can download the shared dataset, run sync against it, and
// upload the result.
package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alan/pr-sync/internal/blob"
	"github.com/alan/pr-sync/internal/config"
	"github.com/spf13/cobra"
)

// TransferCommand encapsulates the shared flags of upload and download
type TransferCommand struct {
	ConfigFile *string
	LoadConfig func(string) (*config.Config, error)

	File string
	Name string
	Blob string
}

// NewUploadCmd creates and returns the upload command
func NewUploadCmd(globalConfigFile *string, loadConfig func(string) (*config.Config, error)) *cobra.Command {
	transferCmd := &TransferCommand{}

	command := &cobra.Command{
		Use:          "upload",
		Short:        "Upload the dataset file to the configured blob store",
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			transferCmd.ConfigFile = globalConfigFile
			transferCmd.LoadConfig = loadConfig
			return transferCmd.Run(true)
		},
	}

	addTransferFlags(command, transferCmd)
	return command
}

// NewDownloadCmd creates and returns the download command
func NewDownloadCmd(globalConfigFile *string, loadConfig func(string) (*config.Config, error)) *cobra.Command {
	transferCmd := &TransferCommand{}

	command := &cobra.Command{
		Use:          "download",
		Short:        "Download the dataset file from the configured blob store",
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			transferCmd.ConfigFile = globalConfigFile
			transferCmd.LoadConfig = loadConfig
			return transferCmd.Run(false)
		},
	}

	addTransferFlags(command, transferCmd)
	return command
}

func addTransferFlags(command *cobra.Command, transferCmd *TransferCommand) {
	command.Flags().StringVar(&transferCmd.File, "file", "", "Local dataset path (default data/pull_requests.csv)")
	command.Flags().StringVar(&transferCmd.Name, "name", "", "Remote blob name (defaults to the local file name)")
	command.Flags().StringVar(&transferCmd.Blob, "blob", "", "Blob store location: directory or base URL")
}

// Run executes the transfer in the given direction
func (tc *TransferCommand) Run(up bool) error {
	cfg, err := tc.LoadConfig(*tc.ConfigFile)
	if err != nil {
		return err
	}

	file := tc.File
	if file == "" {
		file = cfg.Output
	}
	if file == "" {
		file = config.DefaultOutput
	}

	name := tc.Name
	if name == "" {
		name = filepath.Base(file)
	}

	location := tc.Blob
	if location == "" {
		location = cfg.Blob
	}
	store, err := blob.NewStore(location)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if up {
		return uploadFile(ctx, store, file, name)
	}
	return downloadFile(ctx, store, file, name)
}

func uploadFile(ctx context.Context, store blob.Store, file, name string) error {
	data, err := os.ReadFile(file) //nolint:gosec // Dataset path is from command-line flag or config
	if err != nil {
		return fmt.Errorf("failed to read dataset file: %w", err)
	}

	if err := store.Put(ctx, name, data); err != nil {
		return err
	}

	fmt.Printf("✅ Uploaded %s (%d bytes) as %s\n", file, len(data), name)
	return nil
}

func downloadFile(ctx context.Context, store blob.Store, file, name string) error {
	data, err := store.Get(ctx, name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(file), 0750); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}
	if err := os.WriteFile(file, data, 0600); err != nil {
		return fmt.Errorf("failed to write dataset file: %w", err)
	}

	fmt.Printf("✅ Downloaded %s (%d bytes) to %s\n", name, len(data), file)
	return nil
}
