package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/pin-extract-go/internal/domain"
)

// SnapshotFeed turns incremental scans of one page into batches. Submitting a
// batch replaces the queue, so pins found while a batch is running are held
// and submitted together once the scheduler is idle again.
type SnapshotFeed struct {
	harvestMgr *HarvestManager
	scheduler  *Scheduler
	pageURL    string
	logger     *zap.Logger

	events      <-chan Event
	unsubscribe func()

	mu      sync.Mutex
	page    domain.PageContext
	pending []domain.MediaReference
}

// NewSnapshotFeed creates a feed for pins scanned from pageURL. It listens to
// the scheduler right away; call Run to act on batch completions.
func NewSnapshotFeed(harvestMgr *HarvestManager, scheduler *Scheduler, pageURL string, log *zap.Logger) *SnapshotFeed {
	if log == nil {
		log = zap.NewNop()
	}
	events, unsubscribe := scheduler.Subscribe()
	return &SnapshotFeed{
		harvestMgr:  harvestMgr,
		scheduler:   scheduler,
		pageURL:     pageURL,
		logger:      log,
		events:      events,
		unsubscribe: unsubscribe,
	}
}

// Add queues newly scanned references and submits them when no batch is running
func (f *SnapshotFeed) Add(page domain.PageContext, refs []domain.MediaReference) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.page = page
	f.pending = append(f.pending, refs...)
	if f.scheduler.IsRunning() {
		f.logger.Debug("Batch running, holding snapshot pins", zap.Int("pending", len(f.pending)))
		return
	}
	f.flushLocked()
}

// Pending returns the number of references waiting for the running batch to finish
func (f *SnapshotFeed) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Run submits held references after each completed batch until ctx is done.
// A cancelled batch discards them.
func (f *SnapshotFeed) Run(ctx context.Context) {
	defer f.unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-f.events:
			if !ok {
				return
			}
			switch ev.Type {
			case EventBatchCompleted:
				f.mu.Lock()
				if !f.scheduler.IsRunning() {
					f.flushLocked()
				}
				f.mu.Unlock()
			case EventBatchCancelled:
				f.mu.Lock()
				if n := len(f.pending); n > 0 {
					f.logger.Info("Batch cancelled, discarding held snapshot pins", zap.Int("discarded", n))
					f.pending = nil
				}
				f.mu.Unlock()
			}
		}
	}
}

func (f *SnapshotFeed) flushLocked() {
	if len(f.pending) == 0 {
		return
	}
	refs := f.pending
	f.pending = nil
	if _, err := f.harvestMgr.SubmitReferences(f.pageURL, f.page, refs); err != nil {
		f.logger.Warn("Failed to submit snapshot pins", zap.Int("count", len(refs)), zap.Error(err))
	}
}
