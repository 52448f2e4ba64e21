package infrastructure

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pin-extract-go/internal/domain"
)

type recordedCommand struct {
	name string
	args []string
}

func newRecordingNotifier(config *domain.NotificationConfig, err error) (*NotificationService, *[]recordedCommand) {
	var calls []recordedCommand
	n := NewNotificationService(config, nil)
	n.run = func(name string, args ...string) error {
		calls = append(calls, recordedCommand{name: name, args: args})
		return err
	}
	return n, &calls
}

func TestSend_Disabled(t *testing.T) {
	n, calls := newRecordingNotifier(&domain.NotificationConfig{Enabled: false, Method: "notify-send"}, nil)

	require.NoError(t, n.Send("title", "message"))
	assert.Empty(t, *calls)
}

func TestSend_NotifySend(t *testing.T) {
	n, calls := newRecordingNotifier(&domain.NotificationConfig{Enabled: true, Method: "notify-send"}, nil)

	n.NotifyBatchStarted(3, "Pinterest/Cats")

	require.Len(t, *calls, 1)
	assert.Equal(t, "notify-send", (*calls)[0].name)
	assert.Equal(t, []string{"Pin Extract", "Downloading 3 items to Pinterest/Cats"}, (*calls)[0].args)
}

func TestSend_OSAScriptQuotes(t *testing.T) {
	n, calls := newRecordingNotifier(&domain.NotificationConfig{Enabled: true, Method: "osascript"}, nil)

	require.NoError(t, n.Send(`Say "hi"`, `a\b`))

	require.Len(t, *calls, 1)
	assert.Equal(t, []string{"-e", `display notification "a\\b" with title "Say \"hi\""`}, (*calls)[0].args)
}

func TestSend_CommandError(t *testing.T) {
	n, _ := newRecordingNotifier(&domain.NotificationConfig{Enabled: true, Method: "notify-send"}, errors.New("not installed"))

	assert.Error(t, n.Send("t", "m"))
}

func TestSend_UnknownMethod(t *testing.T) {
	n, calls := newRecordingNotifier(&domain.NotificationConfig{Enabled: true, Method: "pager"}, nil)

	assert.NoError(t, n.Send("t", "m"))
	assert.Empty(t, *calls)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abc...", truncateString("abcdef", 3))
}
