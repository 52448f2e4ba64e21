package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pin-extract-go/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
download:
  base_dir: /tmp/pins
  pacing_interval: 1s
harvest:
  download_limit: 25
  auto_folder_naming: false
  matchers:
    - "img.pin"
store:
  database_path: /tmp/pins/jobs.db
`)

	config, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, "/tmp/pins", config.Download.BaseDir)
	assert.Equal(t, time.Second, config.Download.PacingInterval)
	assert.Equal(t, 25, config.Harvest.DownloadLimit)
	assert.False(t, config.Harvest.AutoFolderNaming)
	assert.True(t, config.Harvest.ShowIndicators)
	assert.Equal(t, []string{"img.pin"}, config.Harvest.Matchers)
	assert.Equal(t, "/tmp/pins/jobs.db", config.Store.DatabasePath)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("PINEXTRACT_SERVER_PORT", "9191")
	t.Setenv("PINEXTRACT_HARVEST_DOWNLOAD_LIMIT", "7")

	config, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 9191, config.Server.Port)
	assert.Equal(t, 7, config.Harvest.DownloadLimit)
}

func TestLoadConfig_DefaultMatchers(t *testing.T) {
	path := writeConfig(t, "harvest:\n  download_limit: 5\n")

	config, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMatchers, config.Harvest.Matchers)
}

func TestLoadConfig_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := writeConfig(t, "download:\n  base_dir: ~/pins\n")

	config, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "pins"), config.Download.BaseDir)
	assert.Equal(t, filepath.Join(home, ".pin-extract", "jobs.db"), config.Store.DatabasePath)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"port", "server:\n  port: 70000\n"},
		{"negative limit", "harvest:\n  download_limit: -1\n"},
		{"bad matcher", "harvest:\n  matchers: [\"[data-test-id=\"]\n"},
		{"watch without page", "harvest:\n  watch_file: /tmp/page.html\n"},
		{"notification", "notification:\n  method: pager\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig_Defaults(t *testing.T) {
	assert.NoError(t, validateConfig(domain.DefaultConfig()))
}
