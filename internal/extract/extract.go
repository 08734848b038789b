package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nao1215/netspider/internal/browser"
	"github.com/nao1215/netspider/internal/frontier"
	"github.com/nao1215/netspider/internal/model"
	"github.com/nao1215/netspider/internal/pacing"
)

// Extractor discovers targets on the site.
//
// Extract may navigate the page. The returned batch holds only identifiers
// absent from visited, in discovery order.
type Extractor interface {
	// Name identifies the extractor in logs and errors.
	Name() string

	// Extract runs the extractor on page.
	Extract(ctx context.Context, page browser.Page, visited *frontier.Visited) (*model.Batch, error)
}

// Env holds what every extractor needs besides the page.
type Env struct {
	// Routes builds and recognizes site URLs.
	Routes model.Routes

	// Pacer spaces out browser actions.
	Pacer pacing.Controller

	// Scroller loads lazily rendered content.
	Scroller *browser.Scroller

	// Logger receives warnings about skipped entries.
	Logger *slog.Logger
}

// withDefaults fills unset fields so extractors can be built from a
// partial Env in tests.
func (e Env) withDefaults() Env {
	if e.Pacer == nil {
		e.Pacer = pacing.NewRandom()
	}
	if e.Scroller == nil {
		e.Scroller = browser.NewScroller()
	}
	if e.Logger == nil {
		e.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

// wrap annotates err with the extractor that produced it.
func wrap(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s extractor: %w", name, err)
}

// profiles converts link elements into profile entries. The label is the
// text of the first descendant matching labelSelector, or the link's own
// text when labelSelector is empty. Links that are not profile links or
// have no label element are skipped with a warning.
func (e Env) profiles(source string, links []browser.Element, labelSelector string) *model.Batch {
	out := model.NewBatch()
	for _, link := range links {
		href := link.Href()
		id, ok := e.Routes.ProfileID(href)
		if !ok {
			e.Logger.Warn("skipping link outside the profile route",
				slog.String("extractor", source),
				slog.String("href", href))
			continue
		}

		label := link.Text()
		if labelSelector != "" {
			node, ok := link.Find(labelSelector)
			if !ok {
				e.Logger.Warn("skipping entry without a name",
					slog.String("extractor", source),
					slog.String("id", id))
				continue
			}
			label = node.Text()
		}
		out.Add(id, label)
	}
	return out
}

// settle waits for the pacing delay and then scrolls the page to the bottom.
func (e Env) settle(ctx context.Context, page browser.Page) error {
	if err := pacing.Sleep(ctx, e.Pacer); err != nil {
		return err
	}
	return e.Scroller.ScrollToBottom(ctx, page)
}
