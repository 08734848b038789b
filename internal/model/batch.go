package model

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Batch is an insertion-ordered mapping from identifier to display label.
//
// The same type backs raw discovery batches, the frontier and both visited
// sets. Add never overwrites: the first label recorded for an identifier
// wins, which is the merge rule the frontier relies on.
//
// The zero value is an empty batch ready to use. A Batch is not safe for
// concurrent use.
type Batch struct {
	order  []string
	labels map[string]string
}

// NewBatch creates a batch holding the given entries in order.
// Duplicate identifiers keep their first label.
func NewBatch(entries ...Entry) *Batch {
	b := &Batch{
		order:  make([]string, 0, len(entries)),
		labels: make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		b.Add(e.ID, e.Label)
	}
	return b
}

// Add inserts id with label if id is not present yet.
// It reports whether the entry was inserted.
func (b *Batch) Add(id, label string) bool {
	if b.labels == nil {
		b.labels = make(map[string]string)
	}
	if _, ok := b.labels[id]; ok {
		return false
	}
	b.labels[id] = label
	b.order = append(b.order, id)
	return true
}

// Has reports whether id is present.
func (b *Batch) Has(id string) bool {
	if b == nil {
		return false
	}
	_, ok := b.labels[id]
	return ok
}

// Label returns the label stored for id.
func (b *Batch) Label(id string) (string, bool) {
	if b == nil {
		return "", false
	}
	label, ok := b.labels[id]
	return label, ok
}

// Delete removes id and reports whether it was present.
func (b *Batch) Delete(id string) bool {
	if !b.Has(id) {
		return false
	}
	delete(b.labels, id)
	for i, key := range b.order {
		if key == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return true
}

// First returns the oldest entry in the batch.
func (b *Batch) First() (Entry, bool) {
	if b.Len() == 0 {
		return Entry{}, false
	}
	id := b.order[0]
	return Entry{ID: id, Label: b.labels[id]}, true
}

// Len returns the number of entries.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.order)
}

// IDs returns the identifiers in insertion order.
func (b *Batch) IDs() []string {
	if b == nil {
		return []string{}
	}
	ids := make([]string, len(b.order))
	copy(ids, b.order)
	return ids
}

// Entries returns the entries in insertion order.
func (b *Batch) Entries() []Entry {
	if b == nil {
		return []Entry{}
	}
	entries := make([]Entry, len(b.order))
	for i, id := range b.order {
		entries[i] = Entry{ID: id, Label: b.labels[id]}
	}
	return entries
}

// Union adds every entry of other that is not already present, in other's
// order, and returns the number of entries inserted.
func (b *Batch) Union(other *Batch) int {
	added := 0
	for _, e := range other.Entries() {
		if b.Add(e.ID, e.Label) {
			added++
		}
	}
	return added
}

// Clone returns an independent copy of the batch.
func (b *Batch) Clone() *Batch {
	return NewBatch(b.Entries()...)
}

// MarshalJSON encodes the batch as an ordered array of entries.
func (b *Batch) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Entries())
}

// UnmarshalJSON decodes an ordered array of entries.
// For compatibility with hand-edited state files, a JSON object of
// identifier to label is also accepted; its keys are loaded in sorted order
// because JSON objects carry no order in Go.
func (b *Batch) UnmarshalJSON(data []byte) error {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err == nil {
		*b = *NewBatch(entries...)
		return nil
	}

	var object map[string]string
	if err := json.Unmarshal(data, &object); err != nil {
		return fmt.Errorf("batch must be an array of entries or an object of labels: %w", err)
	}
	keys := make([]string, 0, len(object))
	for k := range object {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	nb := NewBatch()
	for _, k := range keys {
		nb.Add(k, object[k])
	}
	*b = *nb
	return nil
}
