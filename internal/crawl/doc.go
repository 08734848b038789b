// Package crawl implements the resumable crawl loop.
//
// A Crawler is a state machine:
//
//	START → SIGNIN → SEEDING (only with an empty frontier) → PROCESS_NEXT
//	      → EXTRACT_CASCADE → CHECKPOINT → PROCESS_NEXT … → DONE
//
// START loads the frontier and both visited sets from the store. SIGNIN
// authenticates the browser. SEEDING fills an empty frontier from the
// signed-in user's connections. PROCESS_NEXT pops the next target, marks
// it visited and opens its page. EXTRACT_CASCADE runs the extraction
// pipeline on the page and merges the findings into the frontier.
// CHECKPOINT persists all three documents. DONE is reached when the
// frontier is empty or the visit limit is hit.
//
// PROCESS_NEXT, EXTRACT_CASCADE and CHECKPOINT form the unit of work. State
// changes of a unit become durable only at its checkpoint: if the unit
// fails, the in-memory state is rolled back to the last checkpoint, so a
// retry or a restarted process sees exactly what is on disk.
package crawl
