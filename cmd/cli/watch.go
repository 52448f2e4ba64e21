package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/pin-extract-go/internal/app"
	"github.com/yourusername/pin-extract-go/internal/domain"
	"github.com/yourusername/pin-extract-go/internal/harvest"
	"github.com/yourusername/pin-extract-go/pkg/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch [snapshot.html]",
	Short: "Watch a saved page and report new pins as they appear",
	Long: `Watch an HTML snapshot of a page (for example one saved repeatedly while
scrolling) and print every newly found pin. With --submit the new pins of a
board or search page are queued on the server as a batch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		pageURL, _ := cmd.Flags().GetString("page-url")
		submit, _ := cmd.Flags().GetBool("submit")

		config, err := app.LoadConfig(configPath)
		if err != nil {
			return err
		}
		u, err := url.Parse(pageURL)
		if err != nil {
			return fmt.Errorf("invalid --page-url: %w", err)
		}

		log, err := logger.New(logger.Config{Level: "warn", Format: "console", OutputPath: "stderr"})
		if err != nil {
			return err
		}
		defer log.Sync()

		if submit {
			ensureServer(cmd, args)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue := &snapshotQueue{cfg: config.Harvest}
		if submit {
			go queue.run(ctx, snapshotPollInterval)
		}

		encoder := json.NewEncoder(os.Stdout)
		onScan := func(result harvest.ScanResult) {
			for _, ref := range result.References {
				if jsonOutput {
					encoder.Encode(ref)
				} else {
					fmt.Printf("%s\t%s\t%s\n", ref.Kind, ref.IdentityKey, ref.SourceURL)
				}
			}
			if submit && result.BulkEligible {
				queue.add(result.Page, result.References)
			}
		}

		watcher := harvest.NewWatcher(args[0], u, harvest.SettingsFromConfig(config.Harvest), onScan, log)
		return watcher.Run(ctx)
	},
}

const snapshotPollInterval = 2 * time.Second

// snapshotQueue holds pins found while the server is busy with a batch, since
// a new batch would replace the queued remainder of the running one
type snapshotQueue struct {
	cfg domain.HarvestConfig

	mu      sync.Mutex
	page    domain.PageContext
	pending []domain.MediaReference
}

func (q *snapshotQueue) add(page domain.PageContext, refs []domain.MediaReference) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.page = page
	q.pending = append(q.pending, refs...)
	q.flushLocked()
}

// run retries held pins until ctx is done
func (q *snapshotQueue) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.mu.Lock()
			q.flushLocked()
			q.mu.Unlock()
		}
	}
}

func (q *snapshotQueue) flushLocked() {
	if len(q.pending) == 0 {
		return
	}

	var stats statsResponse
	if err := call(http.MethodGet, "/api/v1/stats", nil, &stats); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to check server state: %v\n", err)
		return
	}
	if stats.State == string(app.StateRunning) {
		return
	}

	refs := q.pending
	if q.cfg.DownloadLimit > 0 && len(refs) > q.cfg.DownloadLimit {
		refs = refs[:q.cfg.DownloadLimit]
	}
	batch := app.Batch{
		Items:  refs,
		Folder: domain.FolderPath(q.page, q.cfg.BaseFolder, q.cfg.AutoFolderNaming),
	}

	var submitted app.SubmitResult
	if err := call(http.MethodPost, "/api/v1/batches", batch, &submitted); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to queue pins: %v\n", err)
		return
	}
	q.pending = nil
	fmt.Fprintf(os.Stderr, "Queued %d items to %s (batch %s)\n", submitted.QueueSize, batch.Folder, submitted.BatchID)
}

func init() {
	watchCmd.Flags().StringP("config", "c", "", "Path to config file")
	watchCmd.Flags().String("page-url", "", "URL the snapshot was saved from")
	watchCmd.Flags().Bool("submit", false, "Queue new pins of board and search pages on the server")
}
