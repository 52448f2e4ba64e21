package domain

// JobRepository defines the interface for job outcome persistence
type JobRepository interface {
	// Create stores a settled job record
	Create(record *JobRecord) error

	// FindByBatch finds all records of a batch in dispatch order
	FindByBatch(batchID string) ([]*JobRecord, error)

	// FindRecent finds the most recent records, newest first
	FindRecent(limit int) ([]*JobRecord, error)

	// CountByStatus returns the number of records with the given status
	CountByStatus(status JobStatus) (int64, error)

	// Summary returns record counts grouped by status
	Summary() (*JobSummary, error)
}

// JobSummary counts persisted job outcomes
type JobSummary struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Stale     int64 `json:"stale"`
}
