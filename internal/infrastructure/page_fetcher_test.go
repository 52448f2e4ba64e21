package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_ParsesAndResolvesAgainstFinalURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/jane/cats/", http.StatusFound)
	})
	mux.HandleFunc("/jane/cats/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pin-extract-test", r.UserAgent())
		w.Write([]byte(`<html><body><h1>Cats</h1><img class="GrowthUnauthPinImage" src="a.jpg"></body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := NewHTTPPageFetcher(5*time.Second, "pin-extract-test")
	doc, err := fetcher.Fetch(context.Background(), server.URL+"/old/")

	require.NoError(t, err)
	assert.Equal(t, "Cats", doc.Find("h1").Text())
	require.NotNil(t, doc.Url)
	assert.Equal(t, "/jane/cats/", doc.Url.Path)
}

func TestFetch_NonOK(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := NewHTTPPageFetcher(time.Second, "").Fetch(context.Background(), server.URL)

	assert.ErrorContains(t, err, "404")
}
