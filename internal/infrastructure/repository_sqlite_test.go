package infrastructure

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pin-extract-go/internal/domain"
)

func setupTestRepo(t *testing.T) *SQLiteJobRepository {
	t.Helper()
	repo, err := NewSQLiteJobRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func settledRecord(url, batchID string, startedAt time.Time, status domain.JobStatus) *domain.JobRecord {
	record := domain.NewJobRecord(domain.DownloadJob{
		URL:             url,
		DestinationPath: "Pinterest/" + filepath.Base(url),
		BatchID:         batchID,
	}, startedAt)
	switch status {
	case domain.JobCompleted:
		record.MarkCompleted("dl-" + filepath.Base(url))
	case domain.JobFailed:
		record.MarkFailed(errors.New("network error"))
	case domain.JobStale:
		record.MarkStale()
	}
	record.FinishedAt = startedAt.Add(time.Second)
	return record
}

func TestFindByBatch_DispatchOrder(t *testing.T) {
	repo := setupTestRepo(t)
	base := time.Now()

	require.NoError(t, repo.Create(settledRecord("https://x/b.jpg", "batch-1", base.Add(2*time.Second), domain.JobFailed)))
	require.NoError(t, repo.Create(settledRecord("https://x/a.jpg", "batch-1", base, domain.JobCompleted)))
	require.NoError(t, repo.Create(settledRecord("https://x/c.jpg", "batch-2", base, domain.JobCompleted)))

	records, err := repo.FindByBatch("batch-1")

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "https://x/a.jpg", records[0].URL)
	assert.Equal(t, "dl-a.jpg", records[0].DownloadID)
	assert.Equal(t, "https://x/b.jpg", records[1].URL)
	assert.Equal(t, domain.JobFailed, records[1].Status)
	assert.Equal(t, "network error", records[1].ErrorMessage)
}

func TestFindByBatch_Unknown(t *testing.T) {
	repo := setupTestRepo(t)

	records, err := repo.FindByBatch("nope")

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFindRecent_NewestFirstWithLimit(t *testing.T) {
	repo := setupTestRepo(t)
	base := time.Now()
	for i, url := range []string{"https://x/1.jpg", "https://x/2.jpg", "https://x/3.jpg"} {
		require.NoError(t, repo.Create(settledRecord(url, "batch", base.Add(time.Duration(i)*time.Minute), domain.JobCompleted)))
	}

	records, err := repo.FindRecent(2)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "https://x/3.jpg", records[0].URL)
	assert.Equal(t, "https://x/2.jpg", records[1].URL)
}

func TestCountsAndSummary(t *testing.T) {
	repo := setupTestRepo(t)
	base := time.Now()
	require.NoError(t, repo.Create(settledRecord("https://x/1.jpg", "b", base, domain.JobCompleted)))
	require.NoError(t, repo.Create(settledRecord("https://x/2.jpg", "b", base, domain.JobCompleted)))
	require.NoError(t, repo.Create(settledRecord("https://x/3.jpg", "b", base, domain.JobFailed)))
	require.NoError(t, repo.Create(settledRecord("https://x/4.jpg", "a", base, domain.JobStale)))

	completed, err := repo.CountByStatus(domain.JobCompleted)
	require.NoError(t, err)
	assert.Equal(t, int64(2), completed)

	summary, err := repo.Summary()
	require.NoError(t, err)
	assert.Equal(t, &domain.JobSummary{Total: 4, Completed: 2, Failed: 1, Stale: 1}, summary)
}
