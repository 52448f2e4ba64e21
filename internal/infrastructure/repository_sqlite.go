package infrastructure

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/pin-extract-go/internal/domain"
)

// SQLiteJobRepository implements domain.JobRepository using SQLite
type SQLiteJobRepository struct {
	db *gorm.DB
}

// NewSQLiteJobRepository opens (or creates) the job history database
func NewSQLiteJobRepository(dbPath string) (*SQLiteJobRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.JobRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteJobRepository{db: db}, nil
}

// Create stores a settled job record
func (r *SQLiteJobRepository) Create(record *domain.JobRecord) error {
	return r.db.Create(record).Error
}

// FindByBatch finds all records of a batch in dispatch order
func (r *SQLiteJobRepository) FindByBatch(batchID string) ([]*domain.JobRecord, error) {
	var records []*domain.JobRecord
	err := r.db.Where("batch_id = ?", batchID).
		Order("started_at ASC").
		Find(&records).Error
	return records, err
}

// FindRecent finds the most recently settled records, newest first
func (r *SQLiteJobRepository) FindRecent(limit int) ([]*domain.JobRecord, error) {
	var records []*domain.JobRecord
	query := r.db.Order("finished_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&records).Error
	return records, err
}

// CountByStatus returns the number of records with the given status
func (r *SQLiteJobRepository) CountByStatus(status domain.JobStatus) (int64, error) {
	var count int64
	err := r.db.Model(&domain.JobRecord{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// Summary returns record counts grouped by status
func (r *SQLiteJobRepository) Summary() (*domain.JobSummary, error) {
	summary := &domain.JobSummary{}

	statusCounts := []struct {
		Status domain.JobStatus
		Count  int64
	}{}
	if err := r.db.Model(&domain.JobRecord{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		summary.Total += sc.Count
		switch sc.Status {
		case domain.JobCompleted:
			summary.Completed = sc.Count
		case domain.JobFailed:
			summary.Failed = sc.Count
		case domain.JobStale:
			summary.Stale = sc.Count
		}
	}

	return summary, nil
}

// Close closes the database connection
func (r *SQLiteJobRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
