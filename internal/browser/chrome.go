package browser

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultActionTimeout bounds every single browser action.
const DefaultActionTimeout = 30 * time.Second

// ChromeOptions configures the Chrome-backed page.
type ChromeOptions struct {
	// Headless runs Chrome without a window.
	Headless bool

	// ExecPath is the Chrome binary. Empty means auto-detect.
	ExecPath string

	// ActionTimeout bounds each action. Zero means DefaultActionTimeout.
	ActionTimeout time.Duration

	// Logf receives chromedp log output. Nil discards it.
	Logf func(format string, args ...any)
}

// ChromePage drives a single Chrome tab through the DevTools protocol.
type ChromePage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration

	mu     sync.Mutex
	url    string
	closed bool
}

// NewChromePage starts a browser and opens a blank tab.
// The browser lives until Close is called; ctx only bounds the launch.
func NewChromePage(ctx context.Context, opts ChromeOptions) (*ChromePage, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	var ctxOpts []chromedp.ContextOption
	if opts.Logf != nil {
		ctxOpts = append(ctxOpts, chromedp.WithLogf(opts.Logf))
	}
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	timeout := opts.ActionTimeout
	if timeout <= 0 {
		timeout = DefaultActionTimeout
	}

	p := &ChromePage{
		ctx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		timeout: timeout,
	}

	// The first Run launches the browser process.
	if err := p.run(ctx, chromedp.Navigate("about:blank")); err != nil {
		p.cancel()
		return nil, NewActionError("launch", opts.ExecPath, ErrNavigation, err)
	}
	return p, nil
}

// run executes actions on the tab, bounded by the action timeout and
// aborted when ctx is cancelled.
func (p *ChromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Navigate loads url and waits for its body.
func (p *ChromePage) Navigate(ctx context.Context, url string) error {
	var location string
	err := p.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&location),
	)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return NewActionError("navigate", url, ErrNavigation, err)
	}
	p.setURL(location)
	return nil
}

// URL returns the address of the current document.
func (p *ChromePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *ChromePage) setURL(u string) {
	p.mu.Lock()
	p.url = u
	p.mu.Unlock()
}

// WaitVisible blocks until selector is visible or the action times out.
func (p *ChromePage) WaitVisible(ctx context.Context, selector string) error {
	if err := p.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return NewActionError("wait", selector, ErrElementNotFound, err)
	}
	return nil
}

// Query snapshots the rendered document and matches selector against it.
func (p *ChromePage) Query(ctx context.Context, selector string) ([]Element, error) {
	var outer, location string
	err := p.run(ctx,
		chromedp.OuterHTML("html", &outer, chromedp.ByQuery),
		chromedp.Location(&location),
	)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, NewActionError("query", selector, ErrScript, err)
	}
	p.setURL(location)

	doc, err := ParseDocument(strings.NewReader(outer), location)
	if err != nil {
		return nil, NewActionError("query", selector, ErrScript, err)
	}
	return doc.Query(selector), nil
}

// Click clicks the first element matching selector. A selector that does
// not match is reported without waiting for the action timeout.
func (p *ChromePage) Click(ctx context.Context, selector string) error {
	if err := p.requireElement(ctx, "click", selector); err != nil {
		return err
	}
	if err := p.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return NewActionError("click", selector, ErrElementNotFound, err)
	}
	return nil
}

// TypeInto sends text as key events to the first element matching selector.
func (p *ChromePage) TypeInto(ctx context.Context, selector, text string) error {
	if err := p.requireElement(ctx, "type", selector); err != nil {
		return err
	}
	if err := p.run(ctx, chromedp.SendKeys(selector, text, chromedp.ByQuery)); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		// Never include the typed text, it may be a password.
		return NewActionError("type", selector, ErrElementNotFound, err)
	}
	return nil
}

func (p *ChromePage) requireElement(ctx context.Context, action, selector string) error {
	ok, err := Exists(ctx, p, selector)
	if err != nil {
		return err
	}
	if !ok {
		return NewActionError(action, selector, ErrElementNotFound, nil)
	}
	return nil
}

// Evaluate runs expression in the page and decodes the result into res.
func (p *ChromePage) Evaluate(ctx context.Context, expression string, res any) error {
	if err := p.run(ctx, chromedp.Evaluate(expression, res)); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return NewActionError("evaluate", expression, ErrScript, err)
	}
	return nil
}

// Close shuts the browser down. It is safe to call more than once.
func (p *ChromePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.cancel()
	return nil
}
