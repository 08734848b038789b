// Package pipeline runs the extraction cascade of one crawl visit.
//
// When the crawler lands on a profile it runs an ordered list of steps:
// the endorsement step always, and the company cascade step when it is
// enabled. Each step receives the Visit and adds what it discovers to it.
// The orchestrator merges the Visit into the frontier only after every step
// has finished.
//
// Design decision: We use a pipeline of steps instead of hard-wiring the
// extractors into the crawl loop because:
// 1. Optional stages such as the company cascade are added or left out at
// construction time
// 2. It provides consistent error handling and logging across steps
// 3. Cancellation is checked between steps
package pipeline
