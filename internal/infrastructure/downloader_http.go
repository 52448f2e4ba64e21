package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/yourusername/pin-extract-go/internal/domain"
)

// maxUniquifyAttempts bounds the "name (n).ext" search
const maxUniquifyAttempts = 1000

// HTTPDownloadService implements domain.DownloadService with plain HTTP GETs
// written into a filesystem rooted at the download directory.
type HTTPDownloadService struct {
	fs        afero.Fs
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// NewHTTPDownloadService creates a download service writing into fsys
func NewHTTPDownloadService(fsys afero.Fs, client *http.Client, userAgent string, logger *zap.Logger) *HTTPDownloadService {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPDownloadService{
		fs:        fsys,
		client:    client,
		userAgent: userAgent,
		logger:    logger,
	}
}

// NewDiskDownloadService creates a download service confined to baseDir
func NewDiskDownloadService(baseDir string, timeout time.Duration, userAgent string, logger *zap.Logger) (*HTTPDownloadService, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}
	fsys := afero.NewBasePathFs(afero.NewOsFs(), baseDir)
	return NewHTTPDownloadService(fsys, &http.Client{Timeout: timeout}, userAgent, logger), nil
}

// RequestDownload fetches req.URL and stores it at req.DestinationPath. It
// returns once the file is written.
func (s *HTTPDownloadService) RequestDownload(ctx context.Context, req domain.DownloadRequest) (string, error) {
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidURL, req.URL)
	}

	dest, err := cleanDestination(req.DestinationPath)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	if s.userAgent != "" {
		httpReq.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to fetch %s: unexpected status %s", req.URL, resp.Status)
	}

	if err := s.fs.MkdirAll(path.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, finalPath, err := s.create(dest, req.ConflictPolicy)
	if err != nil {
		return "", err
	}

	written, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if copyErr != nil || closeErr != nil {
		s.fs.Remove(finalPath)
		if copyErr != nil {
			return "", fmt.Errorf("failed to write %s: %w", finalPath, copyErr)
		}
		return "", fmt.Errorf("failed to write %s: %w", finalPath, closeErr)
	}

	id := uuid.New().String()
	s.logger.Info("Download finished",
		zap.String("id", id),
		zap.String("url", req.URL),
		zap.String("file", finalPath),
		zap.Int64("bytes", written))

	return id, nil
}

// create opens the destination for writing. Under ConflictUniquify an existing
// file is never touched; the first free "name (n).ext" is used instead.
func (s *HTTPDownloadService) create(dest string, policy domain.ConflictPolicy) (afero.File, string, error) {
	if policy == domain.ConflictOverwrite {
		file, err := s.fs.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create %s: %w", dest, err)
		}
		return file, dest, nil
	}

	for n := 0; n < maxUniquifyAttempts; n++ {
		candidate := uniqueName(dest, n)
		file, err := s.fs.OpenFile(candidate, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			return file, candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("failed to create %s: %w", candidate, err)
		}
	}
	return nil, "", fmt.Errorf("no free file name for %s", dest)
}

// uniqueName returns dest for n == 0 and "name (n).ext" otherwise
func uniqueName(dest string, n int) string {
	if n == 0 {
		return dest
	}
	ext := path.Ext(dest)
	return fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(dest, ext), n, ext)
}

// cleanDestination normalizes a relative slash path and refuses to leave the root
func cleanDestination(dest string) (string, error) {
	dest = strings.ReplaceAll(dest, "\\", "/")
	cleaned := path.Clean("/" + dest)
	if dest == "" || cleaned == "/" || strings.HasSuffix(dest, "/") {
		return "", fmt.Errorf("invalid destination path: %q", dest)
	}
	for _, segment := range strings.Split(dest, "/") {
		if segment == ".." {
			return "", fmt.Errorf("destination escapes download directory: %q", dest)
		}
	}
	return cleaned, nil
}
