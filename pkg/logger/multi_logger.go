package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory names one of the per-category log files
type LogCategory string

const (
	CategoryScheduler LogCategory = "scheduler" // batch and job lifecycle events
	CategoryScan      LogCategory = "scan"      // scan passes and harvests
	CategoryError     LogCategory = "error"     // application errors
)

// Categories lists every category in display order
var Categories = []LogCategory{CategoryScheduler, CategoryScan, CategoryError}

// Valid reports whether c is a known category
func (c LogCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// MultiLogger writes JSON lines into one dated file per category
type MultiLogger struct {
	loggers map[LogCategory]*zap.Logger
	files   []*os.File
	config  MultiLoggerConfig
	mu      sync.RWMutex
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string // debug, info, warn, error
	LogsDir string
}

// NewMultiLogger creates the category loggers under config.LogsDir
func NewMultiLogger(config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}

	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	ml := &MultiLogger{
		loggers: make(map[LogCategory]*zap.Logger),
		config:  config,
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	for _, category := range Categories {
		categoryLevel := level
		if category == CategoryError {
			categoryLevel = zapcore.ErrorLevel
		}
		l, err := ml.createStructuredLogger(category, categoryLevel)
		if err != nil {
			ml.Close()
			return nil, fmt.Errorf("failed to create %s logger: %w", category, err)
		}
		ml.loggers[category] = l
	}

	return ml, nil
}

func (ml *MultiLogger) createStructuredLogger(category LogCategory, level zapcore.Level) (*zap.Logger, error) {
	encoder := zapcore.NewJSONEncoder(entryEncoderConfig())

	file, err := os.OpenFile(LogPath(ml.config.LogsDir, category, time.Now()), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	ml.files = append(ml.files, file)

	core := zapcore.NewCore(encoder, zapcore.AddSync(file), level)
	return zap.New(core).With(zap.String("category", string(category))), nil
}

// LogPath returns the file a category logs into on date
func LogPath(logsDir string, category LogCategory, date time.Time) string {
	filename := fmt.Sprintf("%s-%s.log", category, date.Format("20060102"))
	return filepath.Join(logsDir, filename)
}

// LogsDir returns the logs directory path
func (ml *MultiLogger) LogsDir() string {
	return ml.config.LogsDir
}

// GetLogger returns the logger for a category, falling back to the error logger
func (ml *MultiLogger) GetLogger(category LogCategory) *zap.Logger {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	if l, ok := ml.loggers[category]; ok {
		return l
	}
	return ml.loggers[CategoryError]
}

// LogSchedulerEvent records a batch or job lifecycle event
func (ml *MultiLogger) LogSchedulerEvent(event string, fields ...zap.Field) {
	if ml == nil {
		return
	}
	ml.GetLogger(CategoryScheduler).Info(event, fields...)
}

// LogScanEvent records a scan or harvest event
func (ml *MultiLogger) LogScanEvent(event string, fields ...zap.Field) {
	if ml == nil {
		return
	}
	ml.GetLogger(CategoryScan).Info(event, fields...)
}

// LogAppError records an application error
func (ml *MultiLogger) LogAppError(msg string, fields ...zap.Field) {
	if ml == nil {
		return
	}
	ml.GetLogger(CategoryError).Error(msg, fields...)
}

// Sync flushes all loggers
func (ml *MultiLogger) Sync() error {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	var lastErr error
	for _, l := range ml.loggers {
		if err := l.Sync(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close flushes the loggers and closes their files
func (ml *MultiLogger) Close() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	var lastErr error
	for _, l := range ml.loggers {
		if err := l.Sync(); err != nil {
			lastErr = err
		}
	}
	for _, f := range ml.files {
		if err := f.Close(); err != nil {
			lastErr = err
		}
	}
	ml.files = nil
	return lastErr
}
