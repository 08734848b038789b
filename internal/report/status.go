package report

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/netspider/internal/model"
	"github.com/nao1215/netspider/internal/store"
)

// DefaultSampleSize is the number of entries shown per document.
const DefaultSampleSize = 10

// Status is a point-in-time summary of the stored crawl state.
type Status struct {
	// GeneratedAt is when the status was collected.
	GeneratedAt time.Time `json:"generated_at"`

	// Backend is the store backend name.
	Backend string `json:"backend"`

	// Location is where the backend keeps its data.
	Location string `json:"location,omitempty"`

	// Pending is the number of frontier entries.
	Pending int `json:"pending"`

	// Visited is the number of visited profiles.
	Visited int `json:"visited"`

	// Companies is the number of visited organizations.
	Companies int `json:"companies"`

	// NextUp lists the first frontier entries in visiting order.
	NextUp []model.Entry `json:"next_up"`

	// RecentlyVisited lists the most recently visited profiles, newest last.
	RecentlyVisited []model.Entry `json:"recently_visited"`

	// Runs is the run history, newest first. It is empty for backends that
	// keep no history.
	Runs []store.Run `json:"runs,omitempty"`
}

// Options configures Collect.
type Options struct {
	// Backend and Location are copied into the status.
	Backend  string
	Location string

	// SampleSize bounds NextUp and RecentlyVisited.
	SampleSize int

	// History is the number of runs to include. Zero includes none.
	History int
}

// Collect reads the crawl documents from st and summarizes them.
func Collect(ctx context.Context, st store.Store, opts Options) (*Status, error) {
	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultSampleSize
	}

	pending, err := st.Load(ctx, store.DocFrontier)
	if err != nil {
		return nil, fmt.Errorf("failed to load frontier: %w", err)
	}
	visited, err := st.Load(ctx, store.DocVisitedProfiles)
	if err != nil {
		return nil, fmt.Errorf("failed to load visited profiles: %w", err)
	}
	companies, err := st.Load(ctx, store.DocVisitedCompanies)
	if err != nil {
		return nil, fmt.Errorf("failed to load visited companies: %w", err)
	}

	status := &Status{
		GeneratedAt:     time.Now(),
		Backend:         opts.Backend,
		Location:        opts.Location,
		Pending:         pending.Len(),
		Visited:         visited.Len(),
		Companies:       companies.Len(),
		NextUp:          head(pending.Entries(), opts.SampleSize),
		RecentlyVisited: tail(visited.Entries(), opts.SampleSize),
	}

	if recorder, ok := st.(store.RunRecorder); ok && opts.History > 0 {
		runs, err := recorder.ListRuns(ctx, opts.History)
		if err != nil {
			return nil, fmt.Errorf("failed to list runs: %w", err)
		}
		status.Runs = runs
	}
	return status, nil
}

// Done reports whether nothing is left to visit after at least one visit.
func (s *Status) Done() bool {
	return s.Pending == 0 && s.Visited > 0
}

// Progress returns the share of known targets already visited, in percent.
func (s *Status) Progress() float64 {
	total := s.Pending + s.Visited
	if total == 0 {
		return 0
	}
	return float64(s.Visited) * 100 / float64(total)
}

func head(entries []model.Entry, n int) []model.Entry {
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func tail(entries []model.Entry, n int) []model.Entry {
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries
}
