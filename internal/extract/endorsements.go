package extract

import (
	"context"
	"log/slog"

	"github.com/nao1215/netspider/internal/browser"
	"github.com/nao1215/netspider/internal/frontier"
	"github.com/nao1215/netspider/internal/model"
	"github.com/nao1215/netspider/internal/pacing"
)

// DefaultMaxLists is how many endorsement lists are read per profile.
const DefaultMaxLists = 1

// Endorsements reads the people who endorsed the skills of the profile the
// page is currently on.
//
// A profile has one full endorsement list per skill. Only the first MaxLists
// of them are visited, which bounds the time spent on a single profile.
type Endorsements struct {
	env Env

	// MaxLists caps the endorsement lists visited per profile.
	MaxLists int
}

// NewEndorsements returns the endorsement extractor reading one list per
// profile.
func NewEndorsements(env Env) *Endorsements {
	return &Endorsements{env: env.withDefaults(), MaxLists: DefaultMaxLists}
}

// Name implements Extractor.
func (e *Endorsements) Name() string { return "endorsements" }

// Extract expands the skill section, collects the full-list links and reads
// the endorsers of the first MaxLists of them. The page is left on the last
// list visited.
func (e *Endorsements) Extract(ctx context.Context, page browser.Page, visited *frontier.Visited) (*model.Batch, error) {
	if err := e.env.Scroller.ScrollToBottom(ctx, page); err != nil {
		return nil, wrap(e.Name(), err)
	}

	expand, err := browser.Exists(ctx, page, SelectorSkillExpand)
	if err != nil {
		return nil, wrap(e.Name(), err)
	}
	if expand {
		if err := page.Click(ctx, SelectorSkillExpand); err != nil {
			return nil, wrap(e.Name(), err)
		}
	} else {
		e.env.Logger.Debug("no skill expansion control", slog.String("url", page.URL()))
	}

	links, err := page.Query(ctx, SelectorEndorsementList)
	if err != nil {
		return nil, wrap(e.Name(), err)
	}
	lists := make([]string, 0, len(links))
	seen := make(map[string]struct{}, len(links))
	for _, link := range links {
		href := link.Href()
		if href == "" {
			continue
		}
		if _, dup := seen[href]; dup {
			continue
		}
		seen[href] = struct{}{}
		lists = append(lists, href)
	}

	maxLists := e.MaxLists
	if maxLists <= 0 {
		maxLists = DefaultMaxLists
	}
	if len(lists) > maxLists {
		e.env.Logger.Debug("truncating endorsement lists",
			slog.Int("found", len(lists)),
			slog.Int("visiting", maxLists))
		lists = lists[:maxLists]
	}

	raw := model.NewBatch()
	if len(lists) == 0 {
		return raw, nil
	}
	if err := pacing.Sleep(ctx, e.env.Pacer); err != nil {
		return nil, wrap(e.Name(), err)
	}
	for _, list := range lists {
		if err := page.Navigate(ctx, list); err != nil {
			return nil, wrap(e.Name(), err)
		}
		entities, err := page.Query(ctx, SelectorEndorsementEntity)
		if err != nil {
			return nil, wrap(e.Name(), err)
		}
		raw.Union(e.env.profiles(e.Name(), entities, SelectorEndorsementName))
		if err := pacing.Sleep(ctx, e.env.Pacer); err != nil {
			return nil, wrap(e.Name(), err)
		}
	}
	return frontier.Filter(raw, visited), nil
}
