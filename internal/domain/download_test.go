package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDownloadJob(t *testing.T) {
	ref := MediaReference{
		SourceURL:         "https://i.pinimg.com/originals/ab/cd.jpg",
		SuggestedFilename: "pinterest_image_1.jpg",
		Kind:              KindImage,
	}

	job := NewDownloadJob(ref, "Pinterest/Cats", "batch-1")

	assert.Equal(t, ref.SourceURL, job.URL)
	assert.Equal(t, "Pinterest/Cats/pinterest_image_1.jpg", job.DestinationPath)
	assert.Equal(t, "batch-1", job.BatchID)
}

func TestNewDownloadJob_NoFolder(t *testing.T) {
	ref := MediaReference{SourceURL: "https://x/a.jpg", SuggestedFilename: "a.jpg"}

	job := NewDownloadJob(ref, "", "")

	assert.Equal(t, "a.jpg", job.DestinationPath)
}

func TestStats_Done(t *testing.T) {
	stats := Stats{Total: 3, Completed: 2}
	assert.Equal(t, 2, stats.Settled())
	assert.False(t, stats.Done())

	stats.Failed++
	assert.True(t, stats.Done())
}

func TestJobRecord_Lifecycle(t *testing.T) {
	job := DownloadJob{URL: "https://x/a.jpg", DestinationPath: "a.jpg", BatchID: "b"}
	started := time.Now()

	record := NewJobRecord(job, started)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "b", record.BatchID)
	assert.Equal(t, started, record.StartedAt)

	record.MarkCompleted("dl-1")
	assert.Equal(t, JobCompleted, record.Status)
	assert.Equal(t, "dl-1", record.DownloadID)
	assert.False(t, record.FinishedAt.IsZero())

	record.MarkFailed(errors.New("boom"))
	assert.Equal(t, JobFailed, record.Status)
	assert.Equal(t, "boom", record.ErrorMessage)

	record.MarkStale()
	assert.Equal(t, JobStale, record.Status)
}

func TestValidateKind(t *testing.T) {
	assert.True(t, ValidateKind(KindImage))
	assert.True(t, ValidateKind(KindVideo))
	assert.False(t, ValidateKind("gif"))
}
