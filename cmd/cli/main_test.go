package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withServerURL(t *testing.T, u string) {
	t.Helper()
	old := serverURL
	serverURL = u
	t.Cleanup(func() { serverURL = old })
}

func TestReadBatch(t *testing.T) {
	dir := t.TempDir()

	object := filepath.Join(dir, "object.json")
	require.NoError(t, os.WriteFile(object, []byte(`{"folderName":"Pinterest/Cats","items":[{"mediaUrl":"https://i.pinimg.com/originals/a.jpg","filename":"a.jpg"}]}`), 0644))
	batch, err := readBatch(object)
	require.NoError(t, err)
	assert.Equal(t, "Pinterest/Cats", batch.Folder)
	require.Len(t, batch.Items, 1)
	assert.Equal(t, "a.jpg", batch.Items[0].SuggestedFilename)

	list := filepath.Join(dir, "list.json")
	require.NoError(t, os.WriteFile(list, []byte(`[{"mediaUrl":"https://i.pinimg.com/originals/b.jpg"},{"mediaUrl":"https://i.pinimg.com/originals/c.jpg"}]`), 0644))
	batch, err = readBatch(list)
	require.NoError(t, err)
	assert.Empty(t, batch.Folder)
	assert.Len(t, batch.Items, 2)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`not json`), 0644))
	_, err = readBatch(broken)
	assert.Error(t, err)

	_, err = readBatch(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestEventsURL(t *testing.T) {
	withServerURL(t, "http://localhost:8087")
	u, err := eventsURL()
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8087/api/v1/events", u)

	withServerURL(t, "https://pins.example.com/base/")
	u, err = eventsURL()
	require.NoError(t, err)
	assert.Equal(t, "wss://pins.example.com/base/api/v1/events", u)
}

func TestServerEnv(t *testing.T) {
	withServerURL(t, "http://127.0.0.1:9999")

	env := serverEnv()

	assert.Contains(t, env, "PINEXTRACT_SERVER_HOST=127.0.0.1")
	assert.Contains(t, env, "PINEXTRACT_SERVER_PORT=9999")
}

func TestCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			w.Write([]byte(`{"dropped":3}`))
		case "/bad":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"batch has no items"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream down"))
		}
	}))
	defer server.Close()
	withServerURL(t, server.URL)

	var result struct {
		Dropped int `json:"dropped"`
	}
	require.NoError(t, call(http.MethodPost, "/ok", map[string]string{}, &result))
	assert.Equal(t, 3, result.Dropped)

	err := call(http.MethodPost, "/bad", map[string]string{}, nil)
	assert.EqualError(t, err, "batch has no items (HTTP 400)")

	err = call(http.MethodGet, "/other", nil, nil)
	assert.EqualError(t, err, "HTTP 502: upstream down")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
