package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/yourusername/pin-extract-go/internal/domain"
	"github.com/yourusername/pin-extract-go/internal/harvest"
)

// EnvPrefix prefixes every environment override, e.g. PINEXTRACT_SERVER_PORT
const EnvPrefix = "PINEXTRACT"

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.pin-extract")
		v.AddConfigPath("/etc/pin-extract")
	}

	// Env vars only bind to keys viper knows about
	setDefaults(v, config)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Slices decode element-wise into existing values; let the configured list
	// (or the registered default) replace the matchers outright
	config.Harvest.Matchers = nil
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func setDefaults(v *viper.Viper, config *domain.Config) {
	v.SetDefault("server.host", config.Server.Host)
	v.SetDefault("server.port", config.Server.Port)

	v.SetDefault("download.base_dir", config.Download.BaseDir)
	v.SetDefault("download.logs_dir", config.Download.LogsDir)
	v.SetDefault("download.pacing_interval", config.Download.PacingInterval)
	v.SetDefault("download.http_timeout", config.Download.HTTPTimeout)
	v.SetDefault("download.user_agent", config.Download.UserAgent)

	v.SetDefault("harvest.show_indicators", config.Harvest.ShowIndicators)
	v.SetDefault("harvest.auto_folder_naming", config.Harvest.AutoFolderNaming)
	v.SetDefault("harvest.download_limit", config.Harvest.DownloadLimit)
	v.SetDefault("harvest.base_folder", config.Harvest.BaseFolder)
	v.SetDefault("harvest.matchers", config.Harvest.Matchers)
	v.SetDefault("harvest.watch_file", config.Harvest.WatchFile)
	v.SetDefault("harvest.watch_page_url", config.Harvest.WatchPageURL)

	v.SetDefault("store.database_path", config.Store.DatabasePath)

	v.SetDefault("notification.enabled", config.Notification.Enabled)
	v.SetDefault("notification.method", config.Notification.Method)

	v.SetDefault("logging.level", config.Logging.Level)
	v.SetDefault("logging.format", config.Logging.Format)
	v.SetDefault("logging.output_path", config.Logging.OutputPath)
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.BaseDir = expandPath(config.Download.BaseDir)
	config.Download.LogsDir = expandPath(config.Download.LogsDir)
	config.Store.DatabasePath = expandPath(config.Store.DatabasePath)
	config.Harvest.WatchFile = expandPath(config.Harvest.WatchFile)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	// $HOME first so it resolves even when the variable is unset
	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.BaseDir == "" {
		return fmt.Errorf("download base directory not configured")
	}

	if config.Download.PacingInterval < 0 {
		return fmt.Errorf("pacing interval cannot be negative")
	}

	if config.Harvest.DownloadLimit < 0 {
		return fmt.Errorf("download limit cannot be negative")
	}

	if err := harvest.ValidateMatchers(config.Harvest.Matchers); err != nil {
		return err
	}

	if config.Harvest.WatchFile != "" && config.Harvest.WatchPageURL == "" {
		return fmt.Errorf("harvest.watch_page_url is required with harvest.watch_file")
	}

	if config.Store.DatabasePath == "" {
		return fmt.Errorf("store database path not configured")
	}

	switch config.Notification.Method {
	case "", "osascript", "notify-send":
	default:
		return fmt.Errorf("unknown notification method: %s", config.Notification.Method)
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}
