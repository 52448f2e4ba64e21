package harvest

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/yourusername/pin-extract-go/internal/domain"
)

var boardPath = regexp.MustCompile(`^/[^/]+/[^/]+/?$`)

// DetectPageContext classifies a page from its location. The board name comes
// from the first heading of doc when present, else from the board slug.
// doc may be nil.
func DetectPageContext(pageURL string, doc *goquery.Document) domain.PageContext {
	page := domain.PageContext{Type: domain.PageUnknown}

	u, err := url.Parse(pageURL)
	if err != nil {
		return page
	}

	switch {
	case strings.Contains(u.Path, "/pin/"):
		page.Type = domain.PagePin
	case strings.Contains(u.Path, "/search/"):
		page.Type = domain.PageSearch
		page.SearchQuery = u.Query().Get("q")
	case boardPath.MatchString(u.Path):
		page.Type = domain.PageBoard
		page.BoardName = boardName(u, doc)
	}

	return page
}

func boardName(u *url.URL, doc *goquery.Document) string {
	if doc != nil {
		if name := strings.TrimSpace(doc.Find("h1").First().Text()); name != "" {
			return name
		}
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	slug := segments[len(segments)-1]
	if unescaped, err := url.PathUnescape(slug); err == nil {
		slug = unescaped
	}
	return strings.ReplaceAll(slug, "-", " ")
}
