// Package frontier holds the crawler's pending work and its memory of
// finished work.
//
// Frontier is the ordered queue of targets still to visit. Visited is the
// append-only set of targets already processed. Filter removes visited
// identifiers from a freshly discovered batch before it is merged into the
// frontier.
//
// Between two iterations of the crawl loop no identifier is both pending
// and visited. Merge enforces this by skipping visited identifiers, and
// PopAndMerge marks the popped target visited before merging anything.
package frontier
