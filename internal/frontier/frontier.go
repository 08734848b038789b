package frontier

import (
	"github.com/nao1215/netspider/internal/model"
)

// Frontier is the ordered set of targets still to visit.
// Targets are popped in the order they were first added.
type Frontier struct {
	pending *model.Batch
	visited *Visited
}

// New creates a frontier from a loaded batch. Entries already in visited
// are dropped; the returned slice lists them so the caller can report the
// inconsistency.
func New(pending *model.Batch, visited *Visited) (*Frontier, []model.Entry) {
	f := &Frontier{
		pending: model.NewBatch(),
		visited: visited,
	}
	var dropped []model.Entry
	for _, e := range pending.Entries() {
		if visited.Has(e.ID) {
			dropped = append(dropped, e)
			continue
		}
		f.pending.Add(e.ID, e.Label)
	}
	return f, dropped
}

// IsEmpty reports whether no target is pending.
func (f *Frontier) IsEmpty() bool {
	return f.pending.Len() == 0
}

// Len returns the number of pending targets.
func (f *Frontier) Len() int {
	return f.pending.Len()
}

// Has reports whether id is pending.
func (f *Frontier) Has(id string) bool {
	return f.pending.Has(id)
}

// Seed fills an empty frontier with the first discovery batch and returns
// the number of targets added. It does nothing when targets are pending.
func (f *Frontier) Seed(b *model.Batch) int {
	if !f.IsEmpty() {
		return 0
	}
	return f.Merge(b)
}

// Peek returns the next target without removing it.
func (f *Frontier) Peek() (model.Entry, bool) {
	return f.pending.First()
}

// Pop removes and returns the next target.
func (f *Frontier) Pop() (model.Entry, bool) {
	e, ok := f.pending.First()
	if !ok {
		return model.Entry{}, false
	}
	f.pending.Delete(e.ID)
	return e, true
}

// Merge adds the entries of b that are neither pending nor visited and
// returns the number added. Pending labels are never overwritten.
func (f *Frontier) Merge(b *model.Batch) int {
	added := 0
	for _, e := range b.Entries() {
		if f.visited.Has(e.ID) {
			continue
		}
		if f.pending.Add(e.ID, e.Label) {
			added++
		}
	}
	return added
}

// PopAndMerge completes the visit of target: it removes target from the
// pending set, records it as visited and merges discovered. The visited
// mark comes first so target cannot re-enter through discovered.
func (f *Frontier) PopAndMerge(target model.Entry, discovered *model.Batch) int {
	f.pending.Delete(target.ID)
	f.visited.Add(target.ID, target.Label)
	return f.Merge(discovered)
}

// Snapshot returns a copy of the pending targets for persistence.
func (f *Frontier) Snapshot() *model.Batch {
	return f.pending.Clone()
}
