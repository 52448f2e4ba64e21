package harvest

import (
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
)

// SrcsetCandidate is one entry of a responsive image source set
type SrcsetCandidate struct {
	URL   string
	Width int
}

// ParseSrcset splits a srcset attribute into candidates sorted by ascending width.
// Entries without a usable width descriptor get width 0. The sort is stable, so
// equal widths keep their listed order and the last listed one sorts last.
func ParseSrcset(srcset string) []SrcsetCandidate {
	var candidates []SrcsetCandidate
	for _, part := range strings.Split(srcset, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		candidate := SrcsetCandidate{URL: fields[0]}
		if len(fields) > 1 {
			candidate.Width = leadingInt(fields[1])
		}
		candidates = append(candidates, candidate)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Width < candidates[j].Width
	})
	return candidates
}

// leadingInt parses the leading decimal digits of s ("300w" -> 300), 0 if none
func leadingInt(s string) int {
	n := 0
	for _, r := range strings.TrimSpace(s) {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

var (
	sizeSegment     = regexp.MustCompile(`/[0-9]+x/`)
	thumbnailTokens = []string{"236x", "474x"}
)

// UpgradeResolution rewrites known thumbnail size segments ("/236x/") to "/originals/"
func UpgradeResolution(mediaURL string) string {
	for _, token := range thumbnailTokens {
		if strings.Contains(mediaURL, token) {
			return sizeSegment.ReplaceAllString(mediaURL, "/originals/")
		}
	}
	return mediaURL
}

// extensionOf returns the lower-cased path extension of a URL without the dot,
// or fallback when the URL does not parse or has none.
func extensionOf(rawURL, fallback string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallback
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
	if ext == "" {
		return fallback
	}
	return ext
}
