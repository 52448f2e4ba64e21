package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/pin-extract-go/internal/domain"
	"github.com/yourusername/pin-extract-go/internal/harvest"
	"github.com/yourusername/pin-extract-go/pkg/logger"
)

// maxConcurrentScans bounds page fetches during a multi-page scan
const maxConcurrentScans = 4

// PageFetcher retrieves and parses a page
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// Notifier shows user-facing notices about harvests
type Notifier interface {
	NotifyExtractFailed(pageURL string)
	NotifyBatchStarted(count int, folder string)
	NotifyNoPins(pageURL string)
	NotifyBatchFinished(stats domain.Stats)
}

// PageScan is the outcome of scanning one page
type PageScan struct {
	URL          string                  `json:"url"`
	Page         domain.PageContext      `json:"page"`
	BulkEligible bool                    `json:"bulkEligible"`
	References   []domain.MediaReference `json:"references"`
}

// HarvestResult describes a batch started from a page
type HarvestResult struct {
	Page      domain.PageContext `json:"page"`
	Folder    string             `json:"folderName"`
	Found     int                `json:"found"`
	BatchID   string             `json:"batchId"`
	QueueSize int                `json:"queueSize"`
}

// HarvestManager turns pages into scheduled downloads
type HarvestManager struct {
	fetcher     PageFetcher
	scheduler   *Scheduler
	notifier    Notifier
	config      *domain.HarvestConfig
	multiLogger *logger.MultiLogger
	logger      *zap.Logger
}

// NewHarvestManager creates a new harvest manager. notifier and multiLogger may be nil.
func NewHarvestManager(
	fetcher PageFetcher,
	scheduler *Scheduler,
	notifier Notifier,
	config *domain.HarvestConfig,
	multiLogger *logger.MultiLogger,
	log *zap.Logger,
) *HarvestManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &HarvestManager{
		fetcher:     fetcher,
		scheduler:   scheduler,
		notifier:    notifier,
		config:      config,
		multiLogger: multiLogger,
		logger:      log,
	}
}

func (hm *HarvestManager) load(ctx context.Context, pageURL string) (*goquery.Document, domain.PageContext, error) {
	if err := validateURL(pageURL); err != nil {
		return nil, domain.PageContext{}, err
	}
	doc, err := hm.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		hm.multiLogger.LogAppError("Failed to fetch page", zap.String("url", pageURL), zap.Error(err))
		return nil, domain.PageContext{}, fmt.Errorf("failed to fetch page: %w", err)
	}
	return doc, harvest.DetectPageContext(pageURL, doc), nil
}

// ScanPage fetches a page and returns every media reference on it
func (hm *HarvestManager) ScanPage(ctx context.Context, pageURL string) (*PageScan, error) {
	doc, page, err := hm.load(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	scanner := harvest.NewScanner(page, harvest.SettingsFromConfig(*hm.config))
	result := scanner.Scan(doc)

	hm.multiLogger.LogScanEvent("page_scanned",
		zap.String("url", pageURL),
		zap.String("page_type", string(page.Type)),
		zap.Int("references", len(result.References)))

	return &PageScan{
		URL:          pageURL,
		Page:         page,
		BulkEligible: result.BulkEligible,
		References:   result.References,
	}, nil
}

// ScanPages scans several pages concurrently. Results keep the input order;
// the first failure cancels the remaining fetches.
func (hm *HarvestManager) ScanPages(ctx context.Context, pageURLs []string) ([]*PageScan, error) {
	results := make([]*PageScan, len(pageURLs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentScans)
	for i, pageURL := range pageURLs {
		i, pageURL := i, pageURL
		g.Go(func() error {
			scan, err := hm.ScanPage(ctx, pageURL)
			if err != nil {
				return fmt.Errorf("%s: %w", pageURL, err)
			}
			results[i] = scan
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// HarvestPage collects every pin on a page, applies the folder policy and the
// download limit, and submits the result as a batch.
func (hm *HarvestManager) HarvestPage(ctx context.Context, pageURL string) (*HarvestResult, error) {
	doc, page, err := hm.load(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	scanner := harvest.NewScanner(page, harvest.SettingsFromConfig(*hm.config))
	refs := scanner.Collect(doc)
	if len(refs) == 0 {
		hm.multiLogger.LogScanEvent("harvest_empty", zap.String("url", pageURL))
		if hm.notifier != nil {
			hm.notifier.NotifyNoPins(pageURL)
		}
		return nil, domain.ErrNoPins
	}

	return hm.SubmitReferences(pageURL, page, refs)
}

// SubmitReferences applies the download limit and folder policy to refs
// collected from page and submits them as a batch
func (hm *HarvestManager) SubmitReferences(pageURL string, page domain.PageContext, refs []domain.MediaReference) (*HarvestResult, error) {
	found := len(refs)
	if limit := hm.config.DownloadLimit; limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}
	folder := domain.FolderPath(page, hm.config.BaseFolder, hm.config.AutoFolderNaming)

	submitted, err := hm.scheduler.SubmitBatch(Batch{Items: refs, Folder: folder})
	if err != nil {
		return nil, err
	}

	hm.logger.Info("Page harvested",
		zap.String("url", pageURL),
		zap.String("folder", folder),
		zap.Int("found", found),
		zap.Int("queued", submitted.QueueSize))
	hm.multiLogger.LogScanEvent("page_harvested",
		zap.String("url", pageURL),
		zap.String("batch_id", submitted.BatchID),
		zap.Int("found", found),
		zap.Int("queued", submitted.QueueSize))
	if hm.notifier != nil {
		hm.notifier.NotifyBatchStarted(submitted.QueueSize, folder)
	}

	return &HarvestResult{
		Page:      page,
		Folder:    folder,
		Found:     found,
		BatchID:   submitted.BatchID,
		QueueSize: submitted.QueueSize,
	}, nil
}

// DownloadSingle schedules one reference outside of any batch
func (hm *HarvestManager) DownloadSingle(ref domain.MediaReference) error {
	if ref.SourceURL == "" {
		if hm.notifier != nil {
			hm.notifier.NotifyExtractFailed(ref.SuggestedFilename)
		}
		return domain.ErrNoMedia
	}
	if err := validateURL(ref.SourceURL); err != nil {
		return err
	}
	if ref.SuggestedFilename == "" {
		ref.SuggestedFilename = filenameFromURL(ref.SourceURL)
	}
	return hm.scheduler.SubmitSingle(ref)
}

// DownloadFromPage resolves the first element matching selector on a page and
// schedules it as a single download
func (hm *HarvestManager) DownloadFromPage(ctx context.Context, pageURL, selector string) (domain.MediaReference, error) {
	if err := harvest.ValidateMatchers([]string{selector}); err != nil {
		return domain.MediaReference{}, fmt.Errorf("%w: %v", domain.ErrInvalidSelector, err)
	}
	doc, _, err := hm.load(ctx, pageURL)
	if err != nil {
		return domain.MediaReference{}, err
	}

	ref, ok := harvest.NewResolver(doc.Url).Resolve(doc.Find(selector).First())
	if !ok {
		hm.multiLogger.LogScanEvent("extract_failed", zap.String("url", pageURL), zap.String("selector", selector))
		if hm.notifier != nil {
			hm.notifier.NotifyExtractFailed(pageURL)
		}
		return domain.MediaReference{}, domain.ErrNoMedia
	}

	if err := hm.scheduler.SubmitSingle(ref); err != nil {
		return domain.MediaReference{}, err
	}
	return ref, nil
}

// NotifyOnCompletion forwards finished batches to the notifier until ctx is done
func NotifyOnCompletion(ctx context.Context, scheduler *Scheduler, notifier Notifier) {
	events, unsubscribe := scheduler.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type == EventBatchCompleted {
				notifier.NotifyBatchFinished(ev.Stats)
			}
		}
	}
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s", domain.ErrInvalidURL, raw)
	}
	return nil
}

func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err == nil {
		if base := path.Base(u.Path); base != "/" && base != "." && !strings.HasPrefix(base, "..") {
			return base
		}
	}
	return "download"
}

// IsClientError reports whether err was caused by the request rather than the server
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrInvalidURL) ||
		errors.Is(err, domain.ErrEmptyBatch) ||
		errors.Is(err, domain.ErrNoMedia) ||
		errors.Is(err, domain.ErrNoPins) ||
		errors.Is(err, domain.ErrInvalidSelector)
}
