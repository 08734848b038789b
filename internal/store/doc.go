// Package store provides durable key-value documents for crawl state.
//
// A document is a named, ordered batch of (identifier, label) entries.
// netspider keeps three of them:
//   - frontier: targets discovered but not yet visited
//   - visited-profiles: profiles already processed
//   - visited-companies: organizations already processed
//
// Three backends implement the Store interface:
//   - SQLiteStore: a single CGO-free SQLite file (modernc.org/sqlite), the default
//   - JSONStore: one JSON file per document, written atomically
//   - RedisStore: one Redis key per document (github.com/redis/go-redis/v9)
//
// Loading a document that does not exist is not an error: the backend
// initializes it and returns an empty batch. Only unreadable or corrupt
// storage fails, and those errors wrap ErrCorruptDocument.
//
// Design decision: Every Save is a full overwrite rather than an append
// log. Documents are small (thousands of entries at most) and a full
// overwrite makes "what is on disk" trivially equal to "the state after the
// last completed checkpoint".
package store
