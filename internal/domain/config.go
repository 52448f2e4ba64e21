package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Harvest      HarvestConfig      `mapstructure:"harvest"`
	Store        StoreConfig        `mapstructure:"store"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	BaseDir        string        `mapstructure:"base_dir"`
	LogsDir        string        `mapstructure:"logs_dir"`
	PacingInterval time.Duration `mapstructure:"pacing_interval"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// HarvestConfig holds the read-only display and collection settings
type HarvestConfig struct {
	ShowIndicators   bool     `mapstructure:"show_indicators"`
	AutoFolderNaming bool     `mapstructure:"auto_folder_naming"`
	DownloadLimit    int      `mapstructure:"download_limit"` // 0 means unlimited
	BaseFolder       string   `mapstructure:"base_folder"`
	Matchers         []string `mapstructure:"matchers"`
	WatchFile        string   `mapstructure:"watch_file"`
	WatchPageURL     string   `mapstructure:"watch_page_url"`
}

// StoreConfig contains job history persistence configuration
type StoreConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultMatchers are the structural selectors for candidate media elements, in priority order
var DefaultMatchers = []string{
	".GrowthUnauthPinImage",
	"[data-test-id='pinrep-image']",
	"[data-test-id='pin-closeup-image']",
	"video",
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8087,
		},
		Download: DownloadConfig{
			BaseDir:        "$HOME/Downloads",
			LogsDir:        "$HOME/.pin-extract/logs",
			PacingInterval: 300 * time.Millisecond,
			HTTPTimeout:    2 * time.Minute,
			UserAgent:      "pin-extract/1.0",
		},
		Harvest: HarvestConfig{
			ShowIndicators:   true,
			AutoFolderNaming: true,
			DownloadLimit:    100,
			BaseFolder:       "Pinterest",
			Matchers:         append([]string(nil), DefaultMatchers...),
		},
		Store: StoreConfig{
			DatabasePath: "$HOME/.pin-extract/jobs.db",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
