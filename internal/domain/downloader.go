package domain

import "context"

// DownloadService is the external capability that actually retrieves media.
// RequestDownload blocks until the service accepts or rejects the job.
type DownloadService interface {
	// RequestDownload submits one download and returns the service's job identifier
	RequestDownload(ctx context.Context, req DownloadRequest) (string, error)
}
