// Package extract discovers crawl targets on pages of the crawled site.
//
// Each source of targets is an Extractor: the signed-in user's connection
// list, the endorsement lists of a profile, an organization's people
// roster, a paginated people search, and the experience section of a
// profile, which yields organizations rather than profiles. Every extractor
// returns its findings already filtered against the matching visited set
// and never touches the frontier or the visited sets itself.
//
// Entries the page renders in an unexpected shape, such as a card whose
// link leaves the profile route or has no name element, are skipped with a
// warning instead of failing the visit.
package extract
