package domain

import (
	"path"
	"strings"
)

// PageType classifies the page a scan ran on
type PageType string

const (
	PageUnknown PageType = "unknown"
	PageBoard   PageType = "board"
	PagePin     PageType = "pin"
	PageSearch  PageType = "search"
)

// PageContext is derived once per page and feeds the folder naming policy
type PageContext struct {
	Type        PageType `json:"type"`
	BoardName   string   `json:"board_name,omitempty"`
	SearchQuery string   `json:"search_query,omitempty"`
}

// BulkEligible reports whether the page supports downloading everything at once
func (p PageContext) BulkEligible() bool {
	return p.Type == PageBoard || p.Type == PageSearch
}

// FolderPath applies the folder naming policy to a page context.
// With autoNaming off every download lands directly in baseFolder.
func FolderPath(page PageContext, baseFolder string, autoNaming bool) string {
	if !autoNaming {
		return baseFolder
	}
	switch {
	case page.Type == PageBoard && page.BoardName != "":
		return path.Join(baseFolder, sanitizeSegment(page.BoardName))
	case page.Type == PageSearch && page.SearchQuery != "":
		return path.Join(baseFolder, "Search", sanitizeSegment(page.SearchQuery))
	default:
		return baseFolder
	}
}

// sanitizeSegment keeps a user-provided name inside a single path segment
func sanitizeSegment(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer("/", "-", "\\", "-", "..", "_").Replace(name)
	if name == "" || name == "." {
		return "_"
	}
	return name
}
