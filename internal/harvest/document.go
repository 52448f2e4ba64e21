package harvest

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/PuerkitoBio/goquery"
)

// ParseDocument parses HTML and records pageURL as the document location
func ParseDocument(r io.Reader, pageURL *url.URL) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	doc.Url = pageURL
	return doc, nil
}

// LoadFile parses an HTML snapshot from disk
func LoadFile(path string, pageURL *url.URL) (*goquery.Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	return ParseDocument(file, pageURL)
}
