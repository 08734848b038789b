package extract

import (
	"context"
	"log/slog"

	"github.com/nao1215/netspider/internal/browser"
	"github.com/nao1215/netspider/internal/frontier"
	"github.com/nao1215/netspider/internal/model"
	"github.com/nao1215/netspider/internal/pacing"
)

// DefaultMaxSearchPages bounds the pages a single search reads.
const DefaultMaxSearchPages = 100

// Search reads every page of a people search.
type Search struct {
	env       Env
	searchURL string

	// MaxPages bounds pagination in case the site never disables its Next
	// button.
	MaxPages int
}

// NewSearch returns the search extractor for searchURL.
func NewSearch(env Env, searchURL string) *Search {
	return &Search{env: env.withDefaults(), searchURL: searchURL, MaxPages: DefaultMaxSearchPages}
}

// Name implements Extractor.
func (s *Search) Name() string { return "search" }

// Extract walks the result pages with the Next button. When the button is
// missing or disabled the page returns to the site root and the walk ends.
// Results of all pages are accumulated first and filtered once, and the
// label seen first for an identifier is kept.
func (s *Search) Extract(ctx context.Context, page browser.Page, visited *frontier.Visited) (*model.Batch, error) {
	if err := page.Navigate(ctx, s.searchURL); err != nil {
		return nil, wrap(s.Name(), err)
	}
	if err := s.env.settle(ctx, page); err != nil {
		return nil, wrap(s.Name(), err)
	}

	maxPages := s.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxSearchPages
	}

	raw := model.NewBatch()
	for pages := 0; ; pages++ {
		more, err := s.hasResults(ctx, page)
		if err != nil {
			return nil, wrap(s.Name(), err)
		}
		if !more {
			break
		}
		if pages == maxPages {
			s.env.Logger.Warn("search page limit reached",
				slog.String("url", s.searchURL),
				slog.Int("pages", pages))
			break
		}

		if err := s.env.settle(ctx, page); err != nil {
			return nil, wrap(s.Name(), err)
		}
		results, err := page.Query(ctx, SelectorSearchResult)
		if err != nil {
			return nil, wrap(s.Name(), err)
		}
		raw.Union(s.env.profiles(s.Name(), results, SelectorSearchName))

		next, err := s.nextEnabled(ctx, page)
		if err != nil {
			return nil, wrap(s.Name(), err)
		}
		if next {
			if err := page.Click(ctx, SelectorSearchNext); err != nil {
				return nil, wrap(s.Name(), err)
			}
			continue
		}

		if err := page.Navigate(ctx, s.env.Routes.Base()); err != nil {
			return nil, wrap(s.Name(), err)
		}
		if err := pacing.Sleep(ctx, s.env.Pacer); err != nil {
			return nil, wrap(s.Name(), err)
		}
		break
	}

	return frontier.Filter(raw, visited), nil
}

// hasResults reports whether the current page shows search results.
func (s *Search) hasResults(ctx context.Context, page browser.Page) (bool, error) {
	empty, err := browser.Exists(ctx, page, SelectorSearchNoResults)
	if err != nil || empty {
		return false, err
	}
	return browser.Exists(ctx, page, SelectorSearchResult)
}

// nextEnabled reports whether an enabled Next button is present.
func (s *Search) nextEnabled(ctx context.Context, page browser.Page) (bool, error) {
	buttons, err := page.Query(ctx, SelectorSearchNext)
	if err != nil {
		return false, err
	}
	return len(buttons) > 0 && !buttons[0].Disabled(), nil
}
