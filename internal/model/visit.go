package model

import "time"

// Visit is the working record of one unit of work: the target popped from
// the frontier and everything the extraction cascade discovered while the
// browser was on its page.
//
// A Visit only lives in memory. Its contents reach durable storage through
// the frontier and visited sets at the next checkpoint.
type Visit struct {
	// Target is the frontier entry being processed.
	Target Entry

	// URL is the page the browser navigated to for Target.
	URL string

	// Discovered accumulates profiles found by the cascade steps.
	Discovered *Batch

	// Companies accumulates organizations processed by the company cascade.
	Companies *Batch

	// StartedAt is when the visit began.
	StartedAt time.Time

	// Steps lists the names of the cascade steps that ran.
	Steps []string

	// Errors holds failures of steps that were skipped over because the
	// cascade was configured to continue on error.
	Errors []error
}

// NewVisit creates an empty visit for target.
func NewVisit(target Entry, pageURL string) *Visit {
	return &Visit{
		Target:     target,
		URL:        pageURL,
		Discovered: NewBatch(),
		Companies:  NewBatch(),
		StartedAt:  time.Now(),
		Steps:      make([]string, 0),
	}
}
