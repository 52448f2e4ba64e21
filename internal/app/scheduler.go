package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/pin-extract-go/internal/domain"
	"github.com/yourusername/pin-extract-go/pkg/logger"
)

// DefaultPacingInterval is the pause between one job settling and the next dispatch
const DefaultPacingInterval = 300 * time.Millisecond

// State is the scheduler lifecycle state
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// EventType identifies a scheduler broadcast
type EventType string

const (
	EventStatsUpdate    EventType = "stats_update"
	EventBatchCompleted EventType = "batch_completed"
	EventBatchCancelled EventType = "batch_cancelled"
	EventSingleUpdate   EventType = "single_update"
)

// Event is broadcast to subscribers after every observable change
type Event struct {
	Type    EventType    `json:"type"`
	BatchID string       `json:"batchId,omitempty"`
	Stats   domain.Stats `json:"stats"`
}

// Batch is a list of media references bound for one destination folder
type Batch struct {
	Items  []domain.MediaReference `json:"items"`
	Folder string                  `json:"folderName"`
}

// SubmitResult acknowledges a started batch
type SubmitResult struct {
	BatchID   string `json:"batchId"`
	QueueSize int    `json:"queueSize"`
}

// SchedulerConfig holds the scheduler's tunables
type SchedulerConfig struct {
	PacingInterval time.Duration
}

// Scheduler drains a FIFO queue of download jobs one at a time, pacing the
// dispatches and keeping running statistics for the current batch.
type Scheduler struct {
	downloader  domain.DownloadService
	repo        domain.JobRepository
	config      SchedulerConfig
	logger      *zap.Logger
	multiLogger *logger.MultiLogger

	mu          sync.Mutex
	state       State
	queue       []domain.DownloadJob
	stats       domain.Stats
	single      domain.Stats
	batchID     string
	loopActive  bool
	lastSettled time.Time
	closed      bool
	subscribers map[int]chan Event
	nextSubID   int

	ctx    context.Context
	cancel context.CancelFunc
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewScheduler creates an idle scheduler. repo and multiLogger may be nil.
func NewScheduler(
	downloader domain.DownloadService,
	repo domain.JobRepository,
	config SchedulerConfig,
	multiLogger *logger.MultiLogger,
	log *zap.Logger,
) *Scheduler {
	if config.PacingInterval <= 0 {
		config.PacingInterval = DefaultPacingInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		downloader:  downloader,
		repo:        repo,
		config:      config,
		logger:      log,
		multiLogger: multiLogger,
		state:       StateIdle,
		subscribers: make(map[int]chan Event),
		ctx:         ctx,
		cancel:      cancel,
		stopCh:      make(chan struct{}),
	}
}

// SubmitBatch replaces whatever is queued with the batch and starts draining.
// Stats are reset to the batch size; results of a replaced batch still in
// flight are not counted.
func (s *Scheduler) SubmitBatch(batch Batch) (SubmitResult, error) {
	if len(batch.Items) == 0 {
		return SubmitResult{}, domain.ErrEmptyBatch
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return SubmitResult{}, fmt.Errorf("scheduler is closed")
	}

	batchID := uuid.New().String()
	queue := make([]domain.DownloadJob, 0, len(batch.Items))
	for _, ref := range batch.Items {
		queue = append(queue, domain.NewDownloadJob(ref, batch.Folder, batchID))
	}

	replaced := len(s.queue)
	s.batchID = batchID
	s.queue = queue
	s.stats = domain.Stats{Total: len(queue)}
	s.state = StateRunning
	stats := s.stats

	if !s.loopActive {
		s.loopActive = true
		s.wg.Add(1)
		go s.drain()
	}
	s.mu.Unlock()

	s.logger.Info("Batch submitted",
		zap.String("batch_id", batchID),
		zap.Int("queue_size", len(queue)),
		zap.String("folder", batch.Folder))
	s.multiLogger.LogSchedulerEvent("batch_submitted",
		zap.String("batch_id", batchID),
		zap.Int("queue_size", len(queue)),
		zap.Int("replaced", replaced))

	s.broadcast(Event{Type: EventStatsUpdate, BatchID: batchID, Stats: stats})

	return SubmitResult{BatchID: batchID, QueueSize: len(queue)}, nil
}

// Cancel drops every queued job and returns how many were dropped. A job
// already handed to the download service is not aborted and still counts.
// Cancelling an idle scheduler with nothing queued is a no-op.
func (s *Scheduler) Cancel() int {
	s.mu.Lock()
	dropped := len(s.queue)
	wasRunning := s.state == StateRunning
	s.queue = nil
	s.state = StateIdle
	batchID := s.batchID
	stats := s.stats
	s.mu.Unlock()

	if !wasRunning && dropped == 0 {
		return 0
	}

	s.logger.Info("Batch cancelled", zap.String("batch_id", batchID), zap.Int("dropped", dropped))
	s.multiLogger.LogSchedulerEvent("batch_cancelled",
		zap.String("batch_id", batchID),
		zap.Int("dropped", dropped))

	s.broadcast(Event{Type: EventBatchCancelled, BatchID: batchID, Stats: stats})
	return dropped
}

// SubmitSingle downloads one reference outside of any batch. The outcome is
// counted in SingleStats only.
func (s *Scheduler) SubmitSingle(ref domain.MediaReference) error {
	if ref.SourceURL == "" {
		return domain.ErrNoMedia
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is closed")
	}
	s.single.Total++
	s.wg.Add(1)
	s.mu.Unlock()

	job := domain.NewDownloadJob(ref, "", "")
	go func() {
		defer s.wg.Done()
		record := domain.NewJobRecord(job, time.Now())
		id, err := s.request(job)

		s.mu.Lock()
		if err != nil {
			s.single.Failed++
		} else {
			s.single.Completed++
		}
		single := s.single
		s.mu.Unlock()

		if err != nil {
			record.MarkFailed(err)
			s.logger.Warn("Single download failed", zap.String("url", job.URL), zap.Error(err))
			s.multiLogger.LogAppError("Single download failed", zap.String("url", job.URL), zap.Error(err))
		} else {
			record.MarkCompleted(id)
			s.logger.Info("Single download started", zap.String("url", job.URL), zap.String("download_id", id))
		}
		s.persist(record)
		s.broadcast(Event{Type: EventSingleUpdate, Stats: single})
	}()
	return nil
}

// Stats returns the current batch statistics
func (s *Scheduler) Stats() domain.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// SingleStats returns the counters of downloads submitted one at a time
func (s *Scheduler) SingleStats() domain.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.single
}

// State returns the lifecycle state
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsRunning reports whether a batch is being drained
func (s *Scheduler) IsRunning() bool {
	return s.State() == StateRunning
}

// QueueLength returns the number of jobs not yet dispatched
func (s *Scheduler) QueueLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// BatchID returns the ID of the most recent batch
func (s *Scheduler) BatchID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batchID
}

// Closed reports whether Close has been called
func (s *Scheduler) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Subscribe registers for events. Slow subscribers miss events rather than
// blocking the scheduler. Call the returned func to unsubscribe.
func (s *Scheduler) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 32)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(sub)
			}
		})
	}
}

// Close stops the drain loop and waits for in-flight work to return
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.queue = nil
	s.state = StateIdle
	s.mu.Unlock()

	close(s.stopCh)
	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
	s.mu.Unlock()

	s.multiLogger.LogSchedulerEvent("scheduler_stopped")
}

// drain is the single loop that dispatches queued jobs
func (s *Scheduler) drain() {
	defer s.wg.Done()

	for {
		job, wait, ok := s.next()
		if !ok {
			return
		}
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-s.stopCh:
				timer.Stop()
				s.exitLoop()
				return
			}
			continue
		}
		if !s.dispatch(job) {
			s.exitLoop()
			return
		}
	}
}

// next pops the head job when pacing allows. It returns a positive wait when
// the pacing interval has not elapsed yet, and ok=false when the loop should exit.
func (s *Scheduler) next() (domain.DownloadJob, time.Duration, bool) {
	s.mu.Lock()
	if s.closed {
		s.loopActive = false
		s.mu.Unlock()
		return domain.DownloadJob{}, 0, false
	}

	if len(s.queue) == 0 {
		s.loopActive = false
		completed := s.state == StateRunning
		s.state = StateIdle
		batchID := s.batchID
		stats := s.stats
		s.mu.Unlock()

		if completed {
			s.logger.Info("Batch completed",
				zap.String("batch_id", batchID),
				zap.Int("completed", stats.Completed),
				zap.Int("failed", stats.Failed))
			s.multiLogger.LogSchedulerEvent("batch_completed",
				zap.String("batch_id", batchID),
				zap.Int("total", stats.Total),
				zap.Int("completed", stats.Completed),
				zap.Int("failed", stats.Failed))
			s.broadcast(Event{Type: EventBatchCompleted, BatchID: batchID, Stats: stats})
		}
		return domain.DownloadJob{}, 0, false
	}

	if !s.lastSettled.IsZero() {
		if wait := s.config.PacingInterval - time.Since(s.lastSettled); wait > 0 {
			s.mu.Unlock()
			return domain.DownloadJob{}, wait, true
		}
	}

	job := s.queue[0]
	s.queue = s.queue[1:]
	s.mu.Unlock()
	return job, 0, true
}

func (s *Scheduler) exitLoop() {
	s.mu.Lock()
	s.loopActive = false
	s.mu.Unlock()
}

type dispatchResult struct {
	id  string
	err error
}

// dispatch hands one job to the download service and waits for its outcome.
// It returns false when the scheduler was closed while waiting.
func (s *Scheduler) dispatch(job domain.DownloadJob) bool {
	record := domain.NewJobRecord(job, time.Now())
	s.multiLogger.LogSchedulerEvent("job_dispatched",
		zap.String("batch_id", job.BatchID),
		zap.String("url", job.URL),
		zap.String("destination", job.DestinationPath))

	done := make(chan dispatchResult, 1)
	go func() {
		id, err := s.request(job)
		done <- dispatchResult{id: id, err: err}
	}()

	select {
	case res := <-done:
		s.settle(job, record, res)
		return true
	case <-s.stopCh:
		return false
	}
}

func (s *Scheduler) request(job domain.DownloadJob) (string, error) {
	return s.downloader.RequestDownload(s.ctx, domain.DownloadRequest{
		URL:             job.URL,
		DestinationPath: job.DestinationPath,
		ConflictPolicy:  domain.ConflictUniquify,
	})
}

// settle records a job outcome. Outcomes of a replaced batch are persisted as
// stale and leave the current stats alone.
func (s *Scheduler) settle(job domain.DownloadJob, record *domain.JobRecord, res dispatchResult) {
	s.mu.Lock()
	s.lastSettled = time.Now()
	current := job.BatchID == s.batchID
	if current {
		if res.err != nil {
			s.stats.Failed++
		} else {
			s.stats.Completed++
		}
	}
	stats := s.stats
	s.mu.Unlock()

	switch {
	case !current:
		record.MarkStale()
		s.logger.Debug("Dropping result of replaced batch", zap.String("batch_id", job.BatchID), zap.String("url", job.URL))
	case res.err != nil:
		record.MarkFailed(res.err)
		s.logger.Warn("Download failed", zap.String("url", job.URL), zap.Error(res.err))
		s.multiLogger.LogAppError("Download failed",
			zap.String("batch_id", job.BatchID),
			zap.String("url", job.URL),
			zap.Error(res.err))
	default:
		record.MarkCompleted(res.id)
		s.logger.Debug("Download started", zap.String("url", job.URL), zap.String("download_id", res.id))
	}
	s.multiLogger.LogSchedulerEvent("job_settled",
		zap.String("batch_id", job.BatchID),
		zap.String("url", job.URL),
		zap.String("status", string(record.Status)))
	s.persist(record)

	if current {
		s.broadcast(Event{Type: EventStatsUpdate, BatchID: job.BatchID, Stats: stats})
	}
}

func (s *Scheduler) persist(record *domain.JobRecord) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Create(record); err != nil {
		s.logger.Error("Failed to persist job record", zap.String("url", record.URL), zap.Error(err))
	}
}

func (s *Scheduler) broadcast(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
