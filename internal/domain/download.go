package domain

import (
	"path"
	"time"

	"github.com/google/uuid"
)

// ConflictPolicy tells the download service what to do when the destination exists
type ConflictPolicy string

const (
	// ConflictUniquify picks a new name like "photo (1).jpg" on collision
	ConflictUniquify  ConflictPolicy = "uniquify"
	ConflictOverwrite ConflictPolicy = "overwrite"
)

// JobStatus represents the recorded outcome of a dispatched job
type JobStatus string

const (
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	// JobStale marks a result that settled after its batch was replaced
	JobStale JobStatus = "stale"
)

// DownloadJob is one scheduled unit of download work
type DownloadJob struct {
	URL             string `json:"url"`
	DestinationPath string `json:"destination_path"`
	BatchID         string `json:"batch_id"`
}

// NewDownloadJob builds a job from a media reference placed under folder
func NewDownloadJob(ref MediaReference, folder, batchID string) DownloadJob {
	dest := ref.SuggestedFilename
	if folder != "" {
		dest = path.Join(folder, ref.SuggestedFilename)
	}
	return DownloadJob{
		URL:             ref.SourceURL,
		DestinationPath: dest,
		BatchID:         batchID,
	}
}

// DownloadRequest is what the scheduler hands to the download service
type DownloadRequest struct {
	URL             string
	DestinationPath string
	ConflictPolicy  ConflictPolicy
}

// Stats is the running tally of one batch
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Settled returns the number of jobs that reached an outcome
func (s Stats) Settled() int {
	return s.Completed + s.Failed
}

// Done reports whether every job of the batch has settled
func (s Stats) Done() bool {
	return s.Settled() >= s.Total
}

// JobRecord is the persisted outcome of one dispatched job
type JobRecord struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	BatchID         string    `json:"batch_id" gorm:"index"`
	URL             string    `json:"url" gorm:"not null"`
	DestinationPath string    `json:"destination_path"`
	Status          JobStatus `json:"status" gorm:"not null;index"`
	DownloadID      string    `json:"download_id,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
}

// NewJobRecord creates a record for a job that was just dispatched
func NewJobRecord(job DownloadJob, startedAt time.Time) *JobRecord {
	return &JobRecord{
		ID:              uuid.New().String(),
		BatchID:         job.BatchID,
		URL:             job.URL,
		DestinationPath: job.DestinationPath,
		StartedAt:       startedAt,
	}
}

// MarkCompleted marks the job as completed
func (r *JobRecord) MarkCompleted(downloadID string) {
	r.Status = JobCompleted
	r.DownloadID = downloadID
	r.FinishedAt = time.Now()
}

// MarkFailed marks the job as failed
func (r *JobRecord) MarkFailed(err error) {
	r.Status = JobFailed
	r.ErrorMessage = err.Error()
	r.FinishedAt = time.Now()
}

// MarkStale marks a job whose batch was replaced before it settled
func (r *JobRecord) MarkStale() {
	r.Status = JobStale
	r.FinishedAt = time.Now()
}
