package harvest

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/pin-extract-go/internal/domain"
)

func waitForScan(t *testing.T, ch <-chan ScanResult) ScanResult {
	t.Helper()
	select {
	case result := <-ch:
		return result
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for scan")
		return ScanResult{}
	}
}

func TestWatcher_ScansOnStartAndChange(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "board.html")
	require.NoError(t, os.WriteFile(snapshot, []byte(`<img data-pin-id="1" class="GrowthUnauthPinImage" src="https://x/a.jpg">`), 0644))

	pageURL, err := url.Parse("https://www.pinterest.com/jane/cats/")
	require.NoError(t, err)

	results := make(chan ScanResult, 8)
	w := NewWatcher(snapshot, pageURL, Settings{}, func(r ScanResult) { results <- r }, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	first := waitForScan(t, results)
	require.Len(t, first.References, 1)
	assert.Equal(t, "1", first.References[0].IdentityKey)
	assert.True(t, first.BulkEligible)
	assert.Equal(t, domain.PageBoard, first.Page.Type)

	require.NoError(t, os.WriteFile(snapshot, []byte(`
<img data-pin-id="1" class="GrowthUnauthPinImage" src="https://x/a.jpg">
<img data-pin-id="2" class="GrowthUnauthPinImage" src="https://x/b.jpg">`), 0644))

	second := waitForScan(t, results)
	require.Len(t, second.References, 1)
	assert.Equal(t, "2", second.References[0].IdentityKey)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing", "page.html"), nil, Settings{}, nil, nil)

	err := w.Run(context.Background())

	assert.Error(t, err)
}

func TestWatcher_UpdateSettingsKeepsNewest(t *testing.T) {
	w := NewWatcher("page.html", nil, Settings{}, nil, nil)

	w.UpdateSettings(Settings{ShowIndicators: false})
	w.UpdateSettings(Settings{ShowIndicators: true})

	require.Len(t, w.settingsCh, 1)
	assert.True(t, (<-w.settingsCh).ShowIndicators)
}
