package domain

import (
	"errors"
)

// MediaKind distinguishes images from videos
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

var (
	// ErrNoMedia is returned when an element carries no usable media URL
	ErrNoMedia = errors.New("could not extract media")
	// ErrInvalidURL is returned for URLs that cannot be downloaded
	ErrInvalidURL = errors.New("invalid media url")
	// ErrEmptyBatch is returned when a batch has no items
	ErrEmptyBatch = errors.New("batch has no items")
	// ErrNoPins is returned when a page yields nothing to harvest
	ErrNoPins = errors.New("no pins found")
	// ErrInvalidSelector is returned for element selectors that do not compile
	ErrInvalidSelector = errors.New("invalid selector")
)

// MediaReference is a single resolved media item found on a page.
// IdentityKey is only meaningful for scan-time deduplication.
type MediaReference struct {
	SourceURL         string    `json:"mediaUrl"`
	SuggestedFilename string    `json:"filename"`
	Kind              MediaKind `json:"kind"`
	IdentityKey       string    `json:"identityKey,omitempty"`
}

// IsVideo reports whether the reference points to a video
func (m MediaReference) IsVideo() bool {
	return m.Kind == KindVideo
}

// ValidateKind checks if a media kind is valid
func ValidateKind(kind MediaKind) bool {
	return kind == KindImage || kind == KindVideo
}
