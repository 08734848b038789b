// Package browsertest provides a scripted in-memory browser.Page for tests.
//
// A Page serves HTML fixtures keyed by URL. Clicking a selector registered
// with OnClick moves the page to another fixture, which is how tests model
// pagination and expandable sections. Every action is recorded so tests can
// assert on what the crawler did.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nao1215/netspider/internal/browser"
)

// Action is one recorded page action.
type Action struct {
	// Kind is "navigate", "wait", "query", "click", "type" or "evaluate".
	Kind string

	// Target is the URL, selector or script the action was applied to.
	Target string
}

// Page is a browser.Page backed by HTML fixtures.
type Page struct {
	mu sync.Mutex

	pages   map[string]string
	clicks  map[string]string
	heights map[string]int
	fail    map[string]error

	current  string
	scrolled int
	closed   bool

	actions []Action
	typed   map[string]string
}

var _ browser.Page = (*Page)(nil)

// New returns an empty scripted page.
func New() *Page {
	return &Page{
		pages:   make(map[string]string),
		clicks:  make(map[string]string),
		heights: make(map[string]int),
		fail:    make(map[string]error),
		typed:   make(map[string]string),
	}
}

// AddPage registers the HTML served at url.
func (p *Page) AddPage(url, html string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages[url] = html
	return p
}

// OnClick makes a click on selector while at url load the fixture at next.
func (p *Page) OnClick(url, selector, next string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks[url+"\x00"+selector] = next
	return p
}

// SetScrollHeight sets the document height reported while at url.
// Pages without a height report 0, which makes scrolling a no-op.
func (p *Page) SetScrollHeight(url string, height int) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.heights[url] = height
	return p
}

// FailOn makes the given action kind on target fail with err.
// Use "navigate" with a URL or "click" with a selector.
func (p *Page) FailOn(kind, target string, err error) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail[kind+"\x00"+target] = err
	return p
}

// ClearFailures removes every failure registered with FailOn.
func (p *Page) ClearFailures() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = make(map[string]error)
}

// Actions returns the recorded actions in order.
func (p *Page) Actions() []Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Action, len(p.actions))
	copy(out, p.actions)
	return out
}

// Navigations returns the URLs passed to Navigate in order.
func (p *Page) Navigations() []string {
	return p.targets("navigate")
}

// Clicks returns the selectors clicked in order.
func (p *Page) Clicks() []string {
	return p.targets("click")
}

// Typed returns the text last typed into selector.
func (p *Page) Typed(selector string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.typed[selector]
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) targets(kind string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, a := range p.actions {
		if a.Kind == kind {
			out = append(out, a.Target)
		}
	}
	return out
}

// begin records an action and returns the failure registered for it.
// The caller must hold p.mu.
func (p *Page) begin(ctx context.Context, kind, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.closed {
		return browser.ErrClosed
	}
	p.actions = append(p.actions, Action{Kind: kind, Target: target})
	return p.fail[kind+"\x00"+target]
}

// document parses the current fixture. The caller must hold p.mu.
func (p *Page) document() (*browser.Document, error) {
	return browser.ParseDocument(strings.NewReader(p.pages[p.current]), p.current)
}

// Navigate loads the fixture registered for url.
func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(ctx, "navigate", url); err != nil {
		return browser.NewActionError("navigate", url, browser.ErrNavigation, err)
	}
	if _, ok := p.pages[url]; !ok {
		return browser.NewActionError("navigate", url, browser.ErrNavigation,
			fmt.Errorf("no fixture for %s", url))
	}
	p.current = url
	p.scrolled = 0
	return nil
}

// URL returns the URL of the current fixture.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// WaitVisible succeeds when selector matches the current fixture.
func (p *Page) WaitVisible(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(ctx, "wait", selector); err != nil {
		return browser.NewActionError("wait", selector, browser.ErrElementNotFound, err)
	}
	return p.requireLocked("wait", selector)
}

// Query matches selector against the current fixture.
func (p *Page) Query(ctx context.Context, selector string) ([]browser.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(ctx, "query", selector); err != nil {
		return nil, browser.NewActionError("query", selector, browser.ErrScript, err)
	}
	doc, err := p.document()
	if err != nil {
		return nil, err
	}
	return doc.Query(selector), nil
}

// Click follows the transition registered with OnClick, if any.
func (p *Page) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(ctx, "click", selector); err != nil {
		return browser.NewActionError("click", selector, browser.ErrElementNotFound, err)
	}
	if err := p.requireLocked("click", selector); err != nil {
		return err
	}
	if next, ok := p.clicks[p.current+"\x00"+selector]; ok {
		p.current = next
		p.scrolled = 0
	}
	return nil
}

// TypeInto records text as typed into selector.
func (p *Page) TypeInto(ctx context.Context, selector, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(ctx, "type", selector); err != nil {
		return browser.NewActionError("type", selector, browser.ErrElementNotFound, err)
	}
	if err := p.requireLocked("type", selector); err != nil {
		return err
	}
	p.typed[selector] += text
	return nil
}

// Evaluate understands the scroll scripts used by browser.Scroller.
// Any other script evaluates to nothing.
func (p *Page) Evaluate(ctx context.Context, expression string, res any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(ctx, "evaluate", expression); err != nil {
		return browser.NewActionError("evaluate", expression, browser.ErrScript, err)
	}

	switch {
	case expression == browser.ScrollHeightScript:
		h, ok := res.(*int)
		if !ok {
			return browser.NewActionError("evaluate", expression, browser.ErrScript,
				errors.New("scroll height requires *int result"))
		}
		*h = p.heights[p.current]
	case strings.HasPrefix(expression, "window.scrollBy(0, "):
		var px int
		if _, err := fmt.Sscanf(expression, "window.scrollBy(0, %d)", &px); err != nil {
			return browser.NewActionError("evaluate", expression, browser.ErrScript, err)
		}
		p.scrolled += px
	}
	return nil
}

// Scrolled returns the distance scrolled on the current fixture.
func (p *Page) Scrolled() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scrolled
}

// Close marks the page closed. Later actions fail with browser.ErrClosed.
func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// requireLocked fails when selector matches nothing. The caller must hold p.mu.
func (p *Page) requireLocked(action, selector string) error {
	doc, err := p.document()
	if err != nil {
		return err
	}
	if len(doc.Query(selector)) == 0 {
		return browser.NewActionError(action, selector, browser.ErrElementNotFound, nil)
	}
	return nil
}
