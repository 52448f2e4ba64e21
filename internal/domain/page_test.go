package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFolderPath(t *testing.T) {
	tests := []struct {
		name       string
		page       PageContext
		autoNaming bool
		expected   string
	}{
		{"board", PageContext{Type: PageBoard, BoardName: "Cute Cats"}, true, "Pinterest/Cute Cats"},
		{"search", PageContext{Type: PageSearch, SearchQuery: "red cars"}, true, "Pinterest/Search/red cars"},
		{"pin", PageContext{Type: PagePin}, true, "Pinterest"},
		{"board without name", PageContext{Type: PageBoard}, true, "Pinterest"},
		{"auto naming off", PageContext{Type: PageBoard, BoardName: "Cats"}, false, "Pinterest"},
		{"slash in name", PageContext{Type: PageBoard, BoardName: "a/b"}, true, "Pinterest/a-b"},
		{"dot dot", PageContext{Type: PageSearch, SearchQuery: ".."}, true, "Pinterest/Search/_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FolderPath(tt.page, "Pinterest", tt.autoNaming))
		})
	}
}

func TestPageContext_BulkEligible(t *testing.T) {
	assert.True(t, PageContext{Type: PageBoard}.BulkEligible())
	assert.True(t, PageContext{Type: PageSearch}.BulkEligible())
	assert.False(t, PageContext{Type: PagePin}.BulkEligible())
	assert.False(t, PageContext{Type: PageUnknown}.BulkEligible())
}
