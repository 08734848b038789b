package frontier

import "github.com/nao1215/netspider/internal/model"

// Visited is an append-only set of processed identifiers.
type Visited struct {
	batch *model.Batch
}

// NewVisited wraps a loaded batch. A nil batch starts an empty set.
// The batch is copied so later changes to it do not leak in.
func NewVisited(b *model.Batch) *Visited {
	if b == nil {
		return &Visited{batch: model.NewBatch()}
	}
	return &Visited{batch: b.Clone()}
}

// Add records id as visited and reports whether it was new.
func (v *Visited) Add(id, label string) bool {
	return v.batch.Add(id, label)
}

// Has reports whether id was visited.
func (v *Visited) Has(id string) bool {
	if v == nil {
		return false
	}
	return v.batch.Has(id)
}

// Len returns the number of visited identifiers.
func (v *Visited) Len() int {
	if v == nil {
		return 0
	}
	return v.batch.Len()
}

// Snapshot returns a copy of the set for persistence.
func (v *Visited) Snapshot() *model.Batch {
	return v.batch.Clone()
}
