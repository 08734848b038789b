package extract

// CSS selectors of the crawled site's markup.
const (
	// Connection list.
	SelectorConnectionLink = ".mn-connection-card__link"
	SelectorConnectionName = ".mn-connection-card__name"

	// Endorsements on a profile page.
	SelectorSkillExpand       = `button[aria-controls="skill-categories-expanded"]`
	SelectorEndorsementList   = `a[data-control-name="skills_endorsement_full_list"]`
	SelectorEndorsementEntity = ".pv-endorsement-entity__link"
	SelectorEndorsementName   = ".pv-endorsement-entity__name--has-hover"

	// Organization people roster.
	SelectorRosterLink = `a[data-control-name="people_profile_card_name_link"]`

	// People search.
	SelectorSearchNoResults = ".search-no-results__image-container"
	SelectorSearchResult    = "div.search-result__info > a.search-result__result-link"
	SelectorSearchName      = ".actor-name"
	SelectorSearchNext      = `button[aria-label="Next"]`

	// Experience section of a profile page.
	SelectorExperienceCompany = `a[data-control-name="background_details_company"]`
)
