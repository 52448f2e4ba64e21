package harvest

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/yourusername/pin-extract-go/internal/domain"
)

// stableIDAttrs are the content identifier attributes, in lookup order
var stableIDAttrs = []string{"data-pin-id", "data-test-pin-id"}

// IndicatorHook is called for every new candidate while indicators are enabled
type IndicatorHook func(sel *goquery.Selection, ref domain.MediaReference)

// Settings are the read-only display settings a scanner runs with
type Settings struct {
	ShowIndicators bool
	Matchers       []string
}

// SettingsFromConfig builds scanner settings from the harvest configuration
func SettingsFromConfig(cfg domain.HarvestConfig) Settings {
	matchers := cfg.Matchers
	if len(matchers) == 0 {
		matchers = domain.DefaultMatchers
	}
	return Settings{
		ShowIndicators: cfg.ShowIndicators,
		Matchers:       append([]string(nil), matchers...),
	}
}

// ValidateMatchers checks that every matcher is a valid CSS selector
func ValidateMatchers(matchers []string) error {
	for _, m := range matchers {
		if _, err := cascadia.Compile(m); err != nil {
			return fmt.Errorf("invalid matcher %q: %w", m, err)
		}
	}
	return nil
}

// ScanResult is the outcome of one scan pass
type ScanResult struct {
	Page         domain.PageContext
	References   []domain.MediaReference
	BulkEligible bool
}

// Option configures a Scanner
type Option func(*Scanner)

// WithIndicatorHook sets the hook that attaches indicators to new candidates
func WithIndicatorHook(hook IndicatorHook) Option {
	return func(s *Scanner) {
		s.hook = hook
	}
}

// Scanner finds media candidates in a document and remembers which ones it
// has already seen for the lifetime of a page. It is not safe for concurrent use.
type Scanner struct {
	page       domain.PageContext
	settings   Settings
	hook       IndicatorHook
	candidates map[string]struct{}
	newResolve func(doc *goquery.Document) *Resolver
}

// NewScanner creates a scanner for one page
func NewScanner(page domain.PageContext, settings Settings, opts ...Option) *Scanner {
	if len(settings.Matchers) == 0 {
		settings.Matchers = domain.DefaultMatchers
	}
	s := &Scanner{
		page:       page,
		settings:   settings,
		candidates: make(map[string]struct{}),
		newResolve: func(doc *goquery.Document) *Resolver { return NewResolver(doc.Url) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Page returns the page context the scanner was created for
func (s *Scanner) Page() domain.PageContext {
	return s.page
}

// Scan processes candidates not seen before and returns their references.
// Calling it again without document changes yields no references.
func (s *Scanner) Scan(doc *goquery.Document) ScanResult {
	result := ScanResult{Page: s.page, BulkEligible: s.page.BulkEligible()}
	resolver := s.newResolve(doc)

	for _, sel := range s.candidateElements(doc) {
		key, ref, ok := identify(sel, resolver)
		if _, seen := s.candidates[key]; seen {
			continue
		}
		s.candidates[key] = struct{}{}

		if !ok {
			if ref, ok = resolver.Resolve(sel); !ok {
				continue
			}
		}
		ref.IdentityKey = key

		if s.settings.ShowIndicators && s.hook != nil {
			s.hook(sel, ref)
		}
		result.References = append(result.References, ref)
	}

	return result
}

// Collect resolves every candidate currently in the document, deduplicated
// within this pass only. The scanner's seen set is left untouched.
func (s *Scanner) Collect(doc *goquery.Document) []domain.MediaReference {
	resolver := s.newResolve(doc)
	seen := make(map[string]struct{})

	var refs []domain.MediaReference
	for _, sel := range s.candidateElements(doc) {
		key, ref, ok := identify(sel, resolver)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if !ok {
			if ref, ok = resolver.Resolve(sel); !ok {
				continue
			}
		}
		ref.IdentityKey = key
		refs = append(refs, ref)
	}
	return refs
}

// Reset forgets every candidate so the next scan reprocesses the whole document
func (s *Scanner) Reset() {
	s.candidates = make(map[string]struct{})
}

// Seen returns the number of identity keys remembered so far
func (s *Scanner) Seen() int {
	return len(s.candidates)
}

// ApplySettings swaps the display settings. When indicators are switched on the
// seen set is cleared and true is returned: the caller should rescan.
func (s *Scanner) ApplySettings(settings Settings) bool {
	if len(settings.Matchers) == 0 {
		settings.Matchers = s.settings.Matchers
	}
	s.settings = settings
	if settings.ShowIndicators {
		s.Reset()
		return true
	}
	return false
}

// candidateElements applies every matcher and unions the results by node,
// keeping first-match order.
func (s *Scanner) candidateElements(doc *goquery.Document) []*goquery.Selection {
	seen := make(map[*html.Node]struct{})
	var out []*goquery.Selection

	for _, matcher := range s.settings.Matchers {
		doc.Find(matcher).Each(func(_ int, sel *goquery.Selection) {
			node := sel.Get(0)
			if _, dup := seen[node]; dup {
				return
			}
			seen[node] = struct{}{}
			out = append(out, sel)
		})
	}
	return out
}

// identify computes the identity key of an element. When no stable identifier
// exists the element has to be resolved for the composite key; that reference
// is returned with ok set so it is not resolved twice.
func identify(sel *goquery.Selection, resolver *Resolver) (string, domain.MediaReference, bool) {
	if id := stableID(sel); id != "" {
		return id, domain.MediaReference{}, false
	}
	if anc := sel.ParentsFiltered("[data-test-id]").First(); anc.Length() > 0 {
		if id := stableID(anc); id != "" {
			return id, domain.MediaReference{}, false
		}
	}

	ref, ok := resolver.Resolve(sel)
	src := ref.SourceURL
	if !ok {
		src = resolver.attrURL(sel, "src")
		if src == "" {
			src = resolver.attrURL(sel, "poster")
		}
	}
	width := leadingInt(sel.AttrOr("width", ""))
	height := leadingInt(sel.AttrOr("height", ""))
	return fmt.Sprintf("%s-%dx%d", src, width, height), ref, ok
}

func stableID(sel *goquery.Selection) string {
	for _, attr := range stableIDAttrs {
		if id := strings.TrimSpace(sel.AttrOr(attr, "")); id != "" {
			return id
		}
	}
	return ""
}
