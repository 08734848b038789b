package browser

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Page is a single browser tab driven one action at a time.
// Implementations are not required to be safe for concurrent use.
type Page interface {
	// Navigate loads url and waits until its document is ready.
	Navigate(ctx context.Context, url string) error

	// URL returns the address of the current document.
	URL() string

	// WaitVisible blocks until an element matching selector is visible.
	WaitVisible(ctx context.Context, selector string) error

	// Query returns the elements matching selector in document order.
	// No match is an empty result, not an error.
	Query(ctx context.Context, selector string) ([]Element, error)

	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error

	// TypeInto types text into the first element matching selector.
	TypeInto(ctx context.Context, selector, text string) error

	// Evaluate runs a script expression and decodes its result into res.
	// res may be nil when the result is not needed.
	Evaluate(ctx context.Context, expression string, res any) error

	// Close releases the page.
	Close() error
}

// Document is a parsed snapshot of a rendered page.
type Document struct {
	doc  *goquery.Document
	base *url.URL
}

// ParseDocument parses HTML read from r. Relative links in the document are
// resolved against pageURL.
func ParseDocument(r io.Reader, pageURL string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}
	return &Document{
		doc:  goquery.NewDocumentFromNode(root),
		base: base,
	}, nil
}

// Query returns the elements matching selector in document order.
func (d *Document) Query(selector string) []Element {
	sel := d.doc.Find(selector)
	elements := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, Element{sel: s, base: d.base})
	})
	return elements
}

// Element is one node of a Document.
type Element struct {
	sel  *goquery.Selection
	base *url.URL
}

// Text returns the element's text content with surrounding whitespace
// removed and inner runs of whitespace collapsed.
func (e Element) Text() string {
	if e.sel == nil {
		return ""
	}
	return strings.Join(strings.Fields(e.sel.Text()), " ")
}

// Attr returns the value of the named attribute.
func (e Element) Attr(name string) (string, bool) {
	if e.sel == nil {
		return "", false
	}
	return e.sel.Attr(name)
}

// Href returns the element's href attribute as an absolute URL.
// It returns "" when the element has no usable href.
func (e Element) Href() string {
	raw, ok := e.Attr("href")
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if e.base == nil {
		return ref.String()
	}
	return e.base.ResolveReference(ref).String()
}

// Find returns the first descendant matching selector.
func (e Element) Find(selector string) (Element, bool) {
	if e.sel == nil {
		return Element{}, false
	}
	child := e.sel.Find(selector).First()
	if child.Length() == 0 {
		return Element{}, false
	}
	return Element{sel: child, base: e.base}, true
}

// Disabled reports whether the element carries the disabled attribute.
func (e Element) Disabled() bool {
	_, ok := e.Attr("disabled")
	return ok
}

// Exists reports whether at least one element matches selector on page.
func Exists(ctx context.Context, page Page, selector string) (bool, error) {
	elements, err := page.Query(ctx, selector)
	if err != nil {
		return false, err
	}
	return len(elements) > 0, nil
}
