package frontier

import "github.com/nao1215/netspider/internal/model"

// Filter returns the entries of raw whose identifiers are not in visited,
// in the order of raw. Neither argument is modified.
//
// Filtering does not consult the frontier. An identifier already pending is
// left in the result and dropped later by Merge, which never overwrites.
func Filter(raw *model.Batch, visited *Visited) *model.Batch {
	out := model.NewBatch()
	for _, e := range raw.Entries() {
		if visited.Has(e.ID) {
			continue
		}
		out.Add(e.ID, e.Label)
	}
	return out
}
