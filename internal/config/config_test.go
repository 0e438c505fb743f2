package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name          string
		fileContent   string
		wantErr       bool
		wantErrMsg    string
		expectedOwner string
		expectedRepo  string
	}{
		{
			name: "valid config",
			fileContent: `owner: testorg
repo: testrepo
output: data/pull_requests.csv
blob: https://example.blob.core.windows.net/pr-dashboard`,
			wantErr:       false,
			expectedOwner: "testorg",
			expectedRepo:  "testrepo",
		},
		{
			name:          "minimal config",
			fileContent:   `owner: minimalorg`,
			wantErr:       false,
			expectedOwner: "minimalorg",
			expectedRepo:  "",
		},
		{
			name:        "invalid yaml",
			fileContent: "owner: [unclosed",
			wantErr:     true,
			wantErrMsg:  "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pr-sync.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.fileContent), 0600))

			config, err := LoadConfig(path)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedOwner, config.Owner)
			assert.Equal(t, tt.expectedRepo, config.Repo)
		})
	}
}

func TestLoadConfig_MissingFileYieldsDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err, "all settings have flag or env fallbacks, so a missing file is fine")
	assert.Equal(t, &Config{}, config)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pr-sync.yaml")
	original := &Config{
		Owner:        "acme",
		Repo:         "widgets",
		Output:       "data/pull_requests.csv",
		BotSubstring: "copilot",
	}

	require.NoError(t, SaveConfig(path, original))
	loaded, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestGitHubToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "test-token")
	token, err := GitHubToken()
	require.NoError(t, err)
	assert.Equal(t, "test-token", token)

	t.Setenv("GITHUB_TOKEN", "")
	_, err = GitHubToken()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GITHUB_TOKEN")
}
