package harvest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/pin-extract-go/internal/domain"
)

func TestDetectPageContext(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		html     string
		expected domain.PageContext
	}{
		{
			name:     "pin",
			url:      "https://www.pinterest.com/pin/123456/",
			expected: domain.PageContext{Type: domain.PagePin},
		},
		{
			name:     "board from heading",
			url:      "https://www.pinterest.com/jane/cute-cats/",
			html:     `<h1>  Cute Cats </h1>`,
			expected: domain.PageContext{Type: domain.PageBoard, BoardName: "Cute Cats"},
		},
		{
			name:     "board from slug",
			url:      "https://www.pinterest.com/jane/cute-cats",
			expected: domain.PageContext{Type: domain.PageBoard, BoardName: "cute cats"},
		},
		{
			name:     "search",
			url:      "https://www.pinterest.com/search/pins/?q=red%20cars&rs=typed",
			expected: domain.PageContext{Type: domain.PageSearch, SearchQuery: "red cars"},
		},
		{
			name:     "home",
			url:      "https://www.pinterest.com/",
			expected: domain.PageContext{Type: domain.PageUnknown},
		},
		{
			name:     "deep path",
			url:      "https://www.pinterest.com/a/b/c/",
			expected: domain.PageContext{Type: domain.PageUnknown},
		},
		{
			name:     "unparseable",
			url:      "http://[::1%zz/",
			expected: domain.PageContext{Type: domain.PageUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseHTML(t, tt.html, "")
			assert.Equal(t, tt.expected, DetectPageContext(tt.url, doc))
		})
	}
}

func TestDetectPageContext_NilDocument(t *testing.T) {
	page := DetectPageContext("https://www.pinterest.com/jane/travel-ideas/", nil)

	assert.Equal(t, domain.PageBoard, page.Type)
	assert.Equal(t, "travel ideas", page.BoardName)
}
