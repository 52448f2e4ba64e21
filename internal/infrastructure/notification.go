package infrastructure

import (
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/pin-extract-go/internal/domain"
)

// NotificationService sends desktop notifications through a platform command
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	run    func(name string, args ...string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		config: config,
		logger: logger,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Send shows a notification when notifications are enabled
func (n *NotificationService) Send(title, message string) error {
	if n.config == nil || !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	var err error
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification %s with title %s`, appleScriptQuote(message), appleScriptQuote(title))
		err = n.run("osascript", "-e", script)
	case "notify-send":
		err = n.run("notify-send", title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))
	return nil
}

// NotifyExtractFailed reports a page or element that yielded no media
func (n *NotificationService) NotifyExtractFailed(pageURL string) {
	n.Send("Pin Extract", fmt.Sprintf("Could not extract media: %s", truncateString(pageURL, 40)))
}

// NotifyBatchStarted reports a harvest handed to the scheduler
func (n *NotificationService) NotifyBatchStarted(count int, folder string) {
	n.Send("Pin Extract", fmt.Sprintf("Downloading %d items to %s", count, folder))
}

// NotifyNoPins reports a harvest that found nothing
func (n *NotificationService) NotifyNoPins(pageURL string) {
	n.Send("Pin Extract", fmt.Sprintf("No pins found to download: %s", truncateString(pageURL, 40)))
}

// NotifyBatchFinished reports the outcome of a drained batch
func (n *NotificationService) NotifyBatchFinished(stats domain.Stats) {
	n.Send("Downloads Complete", fmt.Sprintf("Completed: %d, Failed: %d", stats.Completed, stats.Failed))
}

func appleScriptQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
