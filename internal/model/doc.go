// Package model defines the core data structures used throughout netspider.
//
// This package contains the following main types:
//   - Entry: A crawl target (identifier plus display label)
//   - Batch: An insertion-ordered set of entries keyed by identifier
//   - Kind: The entity class of a target (profile or company)
//   - Visit: The working record of one unit of work
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The store, frontier, extract and crawl packages all exchange
// batches, so centralizing them prevents import cycles.
//
// Batches serialize to JSON as an ordered array of entries so the frontier
// order survives a round trip through any store backend.
package model
