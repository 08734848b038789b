package model

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidBaseURL is returned when the site base URL cannot be used to
// build routes.
var ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http(s) URL")

// Route path segments relative to the site base URL.
const (
	profilePath         = "in/"
	companyPath         = "company/"
	searchPath          = "search/"
	searchAllPath       = "search/results/all/"
	searchPeoplePath    = "search/results/people/"
	connectionsPath     = "mynetwork/invite-connect/connections/"
	companyPeopleSuffix = "people/"
)

// Routes builds and recognizes the URLs of the crawled site.
// Every route is derived from a single base URL which always ends in "/".
type Routes struct {
	base string
}

// NewRoutes validates baseURL and returns the routes rooted at it.
func NewRoutes(baseURL string) (Routes, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Routes{}, ErrInvalidBaseURL
	}
	u.RawQuery = ""
	u.Fragment = ""
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return Routes{base: u.String()}, nil
}

// Base returns the site root. It is also the safe route the search
// extractor returns to when pagination is exhausted.
func (r Routes) Base() string {
	return r.base
}

// Connections returns the listing route of the signed-in user's connections.
func (r Routes) Connections() string {
	return r.base + connectionsPath
}

// Profile returns the page URL of the profile with the given identifier.
func (r Routes) Profile(id string) string {
	return r.base + profilePath + id
}

// ProfileID derives a profile identifier from a link found on a page.
// The identifier is the path below the profile route without query,
// fragment or trailing slash. It reports false for links that do not point
// at a profile of this site.
func (r Routes) ProfileID(href string) (string, bool) {
	prefix := r.base + profilePath
	if !strings.HasPrefix(href, prefix) {
		return "", false
	}
	id := strings.TrimPrefix(href, prefix)
	if i := strings.IndexAny(id, "?#"); i >= 0 {
		id = id[:i]
	}
	id = strings.Trim(id, "/")
	if id == "" {
		return "", false
	}
	return id, true
}

// IsCompany reports whether link is an organization page of this site.
func (r Routes) IsCompany(link string) bool {
	return strings.HasPrefix(link, r.base+companyPath)
}

// IsSearch reports whether link is a search results page of this site.
func (r Routes) IsSearch(link string) bool {
	return strings.HasPrefix(link, r.base+searchPath)
}

// CompanyPeople returns the people-listing sub-route of an organization page.
func (r Routes) CompanyPeople(companyURL string) string {
	if i := strings.IndexAny(companyURL, "?#"); i >= 0 {
		companyURL = companyURL[:i]
	}
	if !strings.HasSuffix(companyURL, "/") {
		companyURL += "/"
	}
	return companyURL + companyPeopleSuffix
}

// PeopleSearch narrows an "all results" search URL to people results.
// Other search URLs are returned unchanged.
func (r Routes) PeopleSearch(searchURL string) string {
	return strings.Replace(searchURL, r.base+searchAllPath, r.base+searchPeoplePath, 1)
}
