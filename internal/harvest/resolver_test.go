package harvest

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pin-extract-go/internal/domain"
)

func parseHTML(t *testing.T, body string, pageURL string) *goquery.Document {
	t.Helper()
	var u *url.URL
	if pageURL != "" {
		var err error
		u, err = url.Parse(pageURL)
		require.NoError(t, err)
	}
	doc, err := ParseDocument(strings.NewReader(body), u)
	require.NoError(t, err)
	return doc
}

func newTestResolver(base *url.URL) *Resolver {
	r := NewResolver(base)
	r.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return r
}

func TestResolve_SrcsetPicksWidest(t *testing.T) {
	doc := parseHTML(t, `<img srcset="https://i.pinimg.com/a.jpg 100w, https://i.pinimg.com/b.jpg 300w, https://i.pinimg.com/c.jpg 50w" src="https://i.pinimg.com/d.jpg">`, "")

	ref, ok := newTestResolver(nil).Resolve(doc.Find("img"))

	require.True(t, ok)
	assert.Equal(t, "https://i.pinimg.com/b.jpg", ref.SourceURL)
	assert.Equal(t, domain.KindImage, ref.Kind)
	assert.Equal(t, "pinterest_image_1700000000000.jpg", ref.SuggestedFilename)
	assert.Empty(t, ref.IdentityKey)
}

func TestResolve_SrcsetTieTakesLastListed(t *testing.T) {
	doc := parseHTML(t, `<img srcset="https://x/first.png 300w, https://x/second.png 300w">`, "")

	ref, ok := newTestResolver(nil).Resolve(doc.Find("img"))

	require.True(t, ok)
	assert.Equal(t, "https://x/second.png", ref.SourceURL)
	assert.Equal(t, "pinterest_image_1700000000000.png", ref.SuggestedFilename)
}

func TestResolve_EmptySrcsetFallsBackToSrc(t *testing.T) {
	doc := parseHTML(t, `<img srcset=" , " src="https://x/plain.webp">`, "")

	ref, ok := newTestResolver(nil).Resolve(doc.Find("img"))

	require.True(t, ok)
	assert.Equal(t, "https://x/plain.webp", ref.SourceURL)
}

func TestResolve_UpgradesThumbnail(t *testing.T) {
	doc := parseHTML(t, `<img src="https://i.pinimg.com/236x/ab/cd/foo.jpg">`, "")

	ref, ok := newTestResolver(nil).Resolve(doc.Find("img"))

	require.True(t, ok)
	assert.Equal(t, "https://i.pinimg.com/originals/ab/cd/foo.jpg", ref.SourceURL)
}

func TestResolve_ImageInsideContainer(t *testing.T) {
	doc := parseHTML(t, `<div class="GrowthUnauthPinImage"><img src="/474x/a.gif"></div>`, "https://www.pinterest.com/user/board/")

	ref, ok := newTestResolver(doc.Url).Resolve(doc.Find(".GrowthUnauthPinImage"))

	require.True(t, ok)
	assert.Equal(t, "https://www.pinterest.com/originals/a.gif", ref.SourceURL)
	assert.Equal(t, "pinterest_image_1700000000000.gif", ref.SuggestedFilename)
}

func TestResolve_VideoSourceOrder(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{"src wins", `<video src="https://v/a.webm" poster="https://v/p.jpg"><source src="https://v/b.mp4"></video>`, "https://v/a.webm"},
		{"source element", `<video poster="https://v/p.jpg"><source><source src="https://v/b.m3u8"></video>`, "https://v/b.m3u8"},
		{"poster fallback", `<video poster="https://v/p.jpg"></video>`, "https://v/p.jpg"},
		{"stringified src ignored", `<video src="undefined" poster="https://v/p.jpg"></video>`, "https://v/p.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseHTML(t, tt.html, "")

			ref, ok := newTestResolver(nil).Resolve(doc.Find("video"))

			require.True(t, ok)
			assert.Equal(t, tt.expected, ref.SourceURL)
			assert.Equal(t, domain.KindVideo, ref.Kind)
			assert.True(t, strings.HasPrefix(ref.SuggestedFilename, "pinterest_video_1700000000000."))
		})
	}
}

func TestResolve_ContainerWithVideoIsVideo(t *testing.T) {
	doc := parseHTML(t, `<div id="pin"><img src="https://x/thumb.jpg"><video src="https://v/clip"></video></div>`, "")

	ref, ok := newTestResolver(nil).Resolve(doc.Find("#pin"))

	require.True(t, ok)
	assert.Equal(t, domain.KindVideo, ref.Kind)
	assert.Equal(t, "https://v/clip", ref.SourceURL)
	assert.Equal(t, "pinterest_video_1700000000000.mp4", ref.SuggestedFilename)
}

func TestResolve_NoUsableMedia(t *testing.T) {
	tests := []string{
		`<img>`,
		`<img src="undefined">`,
		`<img src="null">`,
		`<video></video>`,
		`<div class="empty"></div>`,
	}

	for _, body := range tests {
		t.Run(body, func(t *testing.T) {
			doc := parseHTML(t, body, "")

			_, ok := newTestResolver(nil).Resolve(doc.Find("body").Children().First())

			assert.False(t, ok)
		})
	}
}

func TestResolve_EmptySelection(t *testing.T) {
	doc := parseHTML(t, `<p></p>`, "")

	_, ok := newTestResolver(nil).Resolve(doc.Find("img"))

	assert.False(t, ok)
}
