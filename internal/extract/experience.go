package extract

import (
	"context"

	"github.com/nao1215/netspider/internal/browser"
	"github.com/nao1215/netspider/internal/frontier"
	"github.com/nao1215/netspider/internal/model"
)

// Experience collects the organization links in the experience section of
// the profile the page is currently on. Identifiers and labels are the link
// URLs; visited is the organization visited set.
type Experience struct {
	env Env
}

// NewExperience returns the experience extractor.
func NewExperience(env Env) *Experience {
	return &Experience{env: env.withDefaults()}
}

// Name implements Extractor.
func (x *Experience) Name() string { return "experience" }

// Extract scrolls the profile and reads its organization links.
func (x *Experience) Extract(ctx context.Context, page browser.Page, visited *frontier.Visited) (*model.Batch, error) {
	if err := x.env.Scroller.ScrollToBottom(ctx, page); err != nil {
		return nil, wrap(x.Name(), err)
	}
	links, err := page.Query(ctx, SelectorExperienceCompany)
	if err != nil {
		return nil, wrap(x.Name(), err)
	}
	raw := model.NewBatch()
	for _, link := range links {
		if href := link.Href(); href != "" {
			raw.Add(href, href)
		}
	}
	return frontier.Filter(raw, visited), nil
}
