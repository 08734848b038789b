package extract

import (
	"context"

	"github.com/nao1215/netspider/internal/browser"
	"github.com/nao1215/netspider/internal/frontier"
	"github.com/nao1215/netspider/internal/model"
)

// OrgRoster reads the people listed on an organization's people page.
type OrgRoster struct {
	env        Env
	companyURL string
}

// NewOrgRoster returns the roster extractor for the organization page at
// companyURL.
func NewOrgRoster(env Env, companyURL string) *OrgRoster {
	return &OrgRoster{env: env.withDefaults(), companyURL: companyURL}
}

// Name implements Extractor.
func (o *OrgRoster) Name() string { return "roster" }

// Extract navigates to the roster, lets it load and reads every card.
func (o *OrgRoster) Extract(ctx context.Context, page browser.Page, visited *frontier.Visited) (*model.Batch, error) {
	if err := page.Navigate(ctx, o.env.Routes.CompanyPeople(o.companyURL)); err != nil {
		return nil, wrap(o.Name(), err)
	}
	if err := o.env.settle(ctx, page); err != nil {
		return nil, wrap(o.Name(), err)
	}
	links, err := page.Query(ctx, SelectorRosterLink)
	if err != nil {
		return nil, wrap(o.Name(), err)
	}
	raw := o.env.profiles(o.Name(), links, "")
	return frontier.Filter(raw, visited), nil
}
