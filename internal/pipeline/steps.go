package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/netspider/internal/browser"
	"github.com/nao1215/netspider/internal/extract"
	"github.com/nao1215/netspider/internal/frontier"
	"github.com/nao1215/netspider/internal/model"
)

// EndorsementStep collects the endorsers of the visited profile.
// It expects the page to be on the profile and leaves it on the last
// endorsement list read.
type EndorsementStep struct {
	page      browser.Page
	extractor extract.Extractor
	visited   *frontier.Visited
}

// NewEndorsementStep creates the endorsement step. visited is the profile
// visited set the findings are filtered against.
func NewEndorsementStep(page browser.Page, extractor extract.Extractor, visited *frontier.Visited) *EndorsementStep {
	return &EndorsementStep{
		page:      page,
		extractor: extractor,
		visited:   visited,
	}
}

// Name returns the step name.
func (s *EndorsementStep) Name() string {
	return "endorsements"
}

// Do runs the endorsement extractor and records its findings.
func (s *EndorsementStep) Do(ctx context.Context, visit *model.Visit) error {
	found, err := s.extractor.Extract(ctx, s.page, s.visited)
	if err != nil {
		return err
	}
	visit.Discovered.Union(found)
	return nil
}

// CompanyCascadeStep follows the organizations in the visited profile's
// experience section: each organization page yields its people roster and
// each search link yields its people results.
//
// Every organization link found is recorded in visit.Companies, including
// links that are neither organization nor search pages, so none of them is
// followed again in a later visit.
type CompanyCascadeStep struct {
	page             browser.Page
	env              extract.Env
	profilesVisited  *frontier.Visited
	companiesVisited *frontier.Visited
	logger           *slog.Logger
}

// NewCompanyCascadeStep creates the company cascade step.
func NewCompanyCascadeStep(page browser.Page, env extract.Env, profilesVisited, companiesVisited *frontier.Visited) *CompanyCascadeStep {
	logger := env.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CompanyCascadeStep{
		page:             page,
		env:              env,
		profilesVisited:  profilesVisited,
		companiesVisited: companiesVisited,
		logger:           logger,
	}
}

// Name returns the step name.
func (s *CompanyCascadeStep) Name() string {
	return "company-cascade"
}

// Do reads the experience section of the profile and follows every
// organization not visited yet.
func (s *CompanyCascadeStep) Do(ctx context.Context, visit *model.Visit) error {
	// Earlier steps may have navigated away from the profile.
	if s.page.URL() != visit.URL {
		if err := s.page.Navigate(ctx, visit.URL); err != nil {
			return fmt.Errorf("company cascade: return to profile: %w", err)
		}
	}

	companies, err := extract.NewExperience(s.env).Extract(ctx, s.page, s.companiesVisited)
	if err != nil {
		return err
	}

	for _, company := range companies.Entries() {
		var ex extract.Extractor
		switch {
		case s.env.Routes.IsCompany(company.ID):
			ex = extract.NewOrgRoster(s.env, company.ID)
		case s.env.Routes.IsSearch(company.ID):
			ex = extract.NewSearch(s.env, s.env.Routes.PeopleSearch(company.ID))
		default:
			s.logger.Debug("organization link is neither a company nor a search",
				"url", company.ID)
			continue
		}

		found, err := ex.Extract(ctx, s.page, s.profilesVisited)
		if err != nil {
			return err
		}
		visit.Discovered.Union(found)
	}

	visit.Companies.Union(companies)
	return nil
}
