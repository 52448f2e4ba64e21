package harvest

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/yourusername/pin-extract-go/internal/domain"
)

const (
	defaultVideoExt = "mp4"
	defaultImageExt = "jpg"
)

// Resolver picks the single best source URL for a candidate element
type Resolver struct {
	base *url.URL
	now  func() time.Time
}

// NewResolver creates a resolver. Relative URLs are resolved against base when it is set.
func NewResolver(base *url.URL) *Resolver {
	return &Resolver{
		base: base,
		now:  time.Now,
	}
}

// Resolve extracts a media reference from an element. It returns false when the
// element carries no usable media URL; callers skip such elements silently.
// IdentityKey is left empty, it belongs to the scanner.
func (r *Resolver) Resolve(sel *goquery.Selection) (domain.MediaReference, bool) {
	if sel == nil || sel.Length() == 0 {
		return domain.MediaReference{}, false
	}
	sel = sel.First()

	if video := videoElement(sel); video != nil {
		return r.resolveVideo(video)
	}
	return r.resolveImage(sel)
}

func (r *Resolver) resolveVideo(video *goquery.Selection) (domain.MediaReference, bool) {
	mediaURL := r.attrURL(video, "src")
	if mediaURL == "" {
		video.Find("source").EachWithBreak(func(_ int, source *goquery.Selection) bool {
			mediaURL = r.attrURL(source, "src")
			return mediaURL == ""
		})
	}
	if mediaURL == "" {
		mediaURL = r.attrURL(video, "poster")
	}

	return r.reference(mediaURL, domain.KindVideo, defaultVideoExt)
}

func (r *Resolver) resolveImage(sel *goquery.Selection) (domain.MediaReference, bool) {
	img := sel
	if goquery.NodeName(sel) != "img" {
		if inner := sel.Find("img").First(); inner.Length() > 0 {
			img = inner
		}
	}

	var mediaURL string
	if srcset, ok := img.Attr("srcset"); ok {
		if candidates := ParseSrcset(srcset); len(candidates) > 0 {
			mediaURL = r.absolute(candidates[len(candidates)-1].URL)
		}
	}
	if mediaURL == "" {
		mediaURL = r.attrURL(img, "src")
	}
	mediaURL = UpgradeResolution(mediaURL)

	return r.reference(mediaURL, domain.KindImage, defaultImageExt)
}

func (r *Resolver) reference(mediaURL string, kind domain.MediaKind, defaultExt string) (domain.MediaReference, bool) {
	if isAbsent(mediaURL) {
		return domain.MediaReference{}, false
	}
	ext := extensionOf(mediaURL, defaultExt)
	return domain.MediaReference{
		SourceURL:         mediaURL,
		SuggestedFilename: fmt.Sprintf("pinterest_%s_%d.%s", kind, r.now().UnixMilli(), ext),
		Kind:              kind,
	}, true
}

// attrURL reads a URL attribute, treating stringified absent values as missing
func (r *Resolver) attrURL(sel *goquery.Selection, name string) string {
	raw := strings.TrimSpace(sel.AttrOr(name, ""))
	if isAbsent(raw) {
		return ""
	}
	return r.absolute(raw)
}

func (r *Resolver) absolute(raw string) string {
	if isAbsent(raw) || r.base == nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return r.base.ResolveReference(ref).String()
}

func isAbsent(s string) bool {
	return s == "" || s == "undefined" || s == "null"
}

// videoElement returns the element itself when it is a video, else its first video descendant
func videoElement(sel *goquery.Selection) *goquery.Selection {
	if goquery.NodeName(sel) == "video" {
		return sel
	}
	if video := sel.Find("video").First(); video.Length() > 0 {
		return video
	}
	return nil
}
