package harvest

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher rescans an HTML snapshot every time it changes on disk.
// The scanner is owned by the Run goroutine; each pass is synchronous.
type Watcher struct {
	path     string
	pageURL  *url.URL
	settings Settings
	opts     []Option
	onScan   func(ScanResult)
	logger   *zap.Logger

	scanner    *Scanner
	settingsCh chan Settings
}

// NewWatcher creates a watcher for the snapshot at path. onScan receives every
// pass that produced new references.
func NewWatcher(path string, pageURL *url.URL, settings Settings, onScan func(ScanResult), log *zap.Logger, opts ...Option) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		path:       filepath.Clean(path),
		pageURL:    pageURL,
		settings:   settings,
		opts:       opts,
		onScan:     onScan,
		logger:     log,
		settingsCh: make(chan Settings, 1),
	}
}

// UpdateSettings hands new display settings to the running watcher
func (w *Watcher) UpdateSettings(settings Settings) {
	for {
		select {
		case w.settingsCh <- settings:
			return
		default:
			// drop the pending update, the newest one wins
			select {
			case <-w.settingsCh:
			default:
			}
		}
	}
}

// Run scans once and then on every change until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	// Watch the directory: editors often replace the file instead of writing it
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	w.logger.Info("Watching snapshot", zap.String("path", w.path))
	w.rescan()

	for {
		select {
		case <-ctx.Done():
			return nil
		case settings := <-w.settingsCh:
			w.settings = settings
			if w.scanner != nil && w.scanner.ApplySettings(settings) {
				w.rescan()
			}
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.rescan()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) rescan() {
	doc, err := LoadFile(w.path, w.pageURL)
	if err != nil {
		w.logger.Warn("Failed to load snapshot", zap.String("path", w.path), zap.Error(err))
		return
	}

	if w.scanner == nil {
		pageURL := ""
		if w.pageURL != nil {
			pageURL = w.pageURL.String()
		}
		w.scanner = NewScanner(DetectPageContext(pageURL, doc), w.settings, w.opts...)
	}

	result := w.scanner.Scan(doc)
	w.logger.Debug("Snapshot scanned",
		zap.Int("new", len(result.References)),
		zap.Int("seen", w.scanner.Seen()))

	if len(result.References) > 0 && w.onScan != nil {
		w.onScan(result)
	}
}
