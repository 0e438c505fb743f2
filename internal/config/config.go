// Package config provides functions for loading pr-sync configuration files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultOutput is the dataset path used when neither the config file nor
// the --output flag specifies one.
const DefaultOutput = "data/pull_requests.csv"

// Config represents the structure of pr-sync.yaml
type Config struct {
	Owner        string `yaml:"owner"`
	Repo         string `yaml:"repo,omitempty"`
	Output       string `yaml:"output,omitempty"`
	Blob         string `yaml:"blob,omitempty"`          // directory or base URL for the blob store
	BotSubstring string `yaml:"bot_substring,omitempty"` // override for the reviewer-bot identity match
}

// LoadConfig loads the configuration from the specified file.
// A missing file is not an error: all settings have flag or env fallbacks.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename) //nolint:gosec // Config filename is from command-line flag
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveConfig saves the configuration to the specified file
func SaveConfig(filename string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GitHubToken retrieves and validates the GitHub token from the environment
func GitHubToken() (string, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return "", fmt.Errorf("GITHUB_TOKEN environment variable is required")
	}
	return token, nil
}
