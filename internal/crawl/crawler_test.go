package crawl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/netspider/internal/browser"
	"github.com/nao1215/netspider/internal/browser/browsertest"
	"github.com/nao1215/netspider/internal/events"
	"github.com/nao1215/netspider/internal/model"
	"github.com/nao1215/netspider/internal/pacing"
	"github.com/nao1215/netspider/internal/signin"
	"github.com/nao1215/netspider/internal/store"
)

const base = "https://example.com/"

// harness bundles a store, a scripted site and the recorded transitions.
type harness struct {
	t      *testing.T
	st     store.Store
	page   *browsertest.Page
	routes model.Routes
	states []State
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	st, err := store.NewJSONStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return newHarnessWithStore(t, st)
}

func newHarnessWithStore(t *testing.T, st store.Store) *harness {
	t.Helper()

	routes, err := model.NewRoutes(base)
	if err != nil {
		t.Fatalf("failed to build routes: %v", err)
	}
	return &harness{t: t, st: st, page: browsertest.New(), routes: routes}
}

// save writes a document before the run.
func (h *harness) save(name string, entries ...model.Entry) {
	h.t.Helper()
	if err := h.st.Save(context.Background(), name, model.NewBatch(entries...)); err != nil {
		h.t.Fatalf("failed to save %s: %v", name, err)
	}
}

// load reads a document.
func (h *harness) load(name string) *model.Batch {
	h.t.Helper()
	b, err := h.st.Load(context.Background(), name)
	if err != nil {
		h.t.Fatalf("failed to load %s: %v", name, err)
	}
	return b
}

// connections serves the connection list.
func (h *harness) connections(ids ...string) {
	var sb strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&sb, `<a class="mn-connection-card__link" href="/in/%s"><span class="mn-connection-card__name">%s</span></a>`, id, strings.ToUpper(id))
	}
	h.page.AddPage(base+"mynetwork/invite-connect/connections/", sb.String())
}

// profile serves a profile page whose first endorsement list holds endorsers.
func (h *harness) profile(id string, endorsers ...string) {
	profileURL := base + "in/" + id
	if len(endorsers) == 0 {
		h.page.AddPage(profileURL, "<p>"+id+"</p>")
		return
	}
	listURL := profileURL + "/detail/skills/"
	h.page.AddPage(profileURL, fmt.Sprintf(
		`<button aria-controls="skill-categories-expanded">more</button>
		<a data-control-name="skills_endorsement_full_list" href="%s">skill</a>`, listURL))

	var sb strings.Builder
	for _, e := range endorsers {
		fmt.Fprintf(&sb, `<a class="pv-endorsement-entity__link" href="/in/%s"><span class="pv-endorsement-entity__name--has-hover">%s</span></a>`, e, strings.ToUpper(e))
	}
	h.page.AddPage(listURL, sb.String())
}

func noSignIn(context.Context, browser.Page, model.Routes, pacing.Controller, signin.Credentials) error {
	return nil
}

// crawler builds a crawler that never waits and records transitions.
func (h *harness) crawler(page browser.Page, opts ...Option) *Crawler {
	if page == nil {
		page = h.page
	}
	defaults := []Option{
		WithSignIn(noSignIn),
		WithScroller(&browser.Scroller{Step: 100}),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithObserver(func(_, to State) { h.states = append(h.states, to) }),
	}
	return New(h.st, page, h.routes, pacing.Zero(),
		signin.Credentials{Username: "user", Password: "secret"},
		append(defaults, opts...)...)
}

func entry(id string) model.Entry {
	return model.Entry{ID: id, Label: strings.ToUpper(id)}
}

// TestRunEmptyStart tests seeding from connections when nothing is stored.
func TestRunEmptyStart(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.connections("a", "b")
	h.profile("a", "c")
	h.profile("b")
	h.profile("c")

	c := h.crawler(nil)
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	unit := []State{StateProcessNext, StateExtractCascade, StateCheckpoint}
	want := []State{StateSignIn, StateSeeding}
	for i := 0; i < 3; i++ {
		want = append(want, unit...)
	}
	want = append(want, StateProcessNext, StateDone)
	if !slices.Equal(h.states, want) {
		t.Errorf("unexpected transitions:\n got  %v\n want %v", h.states, want)
	}

	if got := h.load(store.DocVisitedProfiles).IDs(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("unexpected visited set %v", got)
	}
	if got := h.load(store.DocFrontier); got.Len() != 0 {
		t.Errorf("expected empty frontier, got %v", got.IDs())
	}
	if c.State() != StateDone || c.Visits() != 3 {
		t.Errorf("unexpected final state %v after %d visits", c.State(), c.Visits())
	}
	if !h.page.Closed() {
		t.Error("page must be closed when the run ends")
	}
}

// TestRunCrashMidRun tests that a failed unit of work leaves the last
// checkpoint untouched.
func TestRunCrashMidRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(h *harness)
		kind  ErrorKind
	}{
		{
			name:  "navigation to target fails",
			setup: func(h *harness) { h.profile("b") },
			kind:  KindPage,
		},
		{
			name: "endorsement list fails to load",
			setup: func(h *harness) {
				h.page.AddPage(base+"in/a", `<a data-control-name="skills_endorsement_full_list" href="/in/a/missing/">x</a>`)
				h.profile("b")
			},
			kind: KindPage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			h.save(store.DocFrontier, model.Entry{ID: "a", Label: "Alice"}, model.Entry{ID: "b", Label: "Bob"})
			tt.setup(h)

			err := h.crawler(nil).Run(context.Background())
			if err == nil {
				t.Fatal("expected the run to fail")
			}
			if kind, ok := KindOf(err); !ok || kind != tt.kind {
				t.Errorf("expected %v error, got %v", tt.kind, err)
			}
			if slices.Contains(h.states, StateSeeding) {
				t.Error("a non-empty frontier must not be seeded")
			}

			wantFrontier := []model.Entry{{ID: "a", Label: "Alice"}, {ID: "b", Label: "Bob"}}
			if got := h.load(store.DocFrontier).Entries(); !slices.Equal(got, wantFrontier) {
				t.Errorf("frontier changed: %v", got)
			}
			if got := h.load(store.DocVisitedProfiles); got.Len() != 0 {
				t.Errorf("visited set changed: %v", got.IDs())
			}
		})
	}
}

// TestRunResume tests that a resumed run never revisits a visited target.
func TestRunResume(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.save(store.DocFrontier, entry("b"))
	h.save(store.DocVisitedProfiles, entry("a"))
	h.profile("b", "a", "c")
	h.profile("c", "a", "b")

	if err := h.crawler(nil).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if slices.Contains(h.page.Navigations(), base+"in/a") {
		t.Error("visited target was visited again")
	}
	if got := h.load(store.DocVisitedProfiles).IDs(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("unexpected visited set %v", got)
	}
}

// TestRunReconcilesFrontier tests that stored frontier entries that are
// already visited are dropped at load.
func TestRunReconcilesFrontier(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.save(store.DocFrontier, entry("a"), entry("b"))
	h.save(store.DocVisitedProfiles, entry("a"))
	h.profile("b")

	if err := h.crawler(nil).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slices.Contains(h.page.Navigations(), base+"in/a") {
		t.Error("visited target was visited again")
	}
}

// TestRunCheckpointInvariants checks the stored state after every
// checkpoint: frontier and visited set are disjoint and visited only grows.
func TestRunCheckpointInvariants(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.connections("a", "b")
	h.profile("a", "b", "c", "d")
	h.profile("b", "a", "d", "e")
	h.profile("c", "e")
	h.profile("d")
	h.profile("e", "a")

	var (
		checked  int
		previous []string
		failures []string
	)
	observer := func(from, to State) {
		if from != StateCheckpoint || to != StateProcessNext {
			return
		}
		checked++
		pending := h.load(store.DocFrontier)
		visited := h.load(store.DocVisitedProfiles)
		for _, id := range pending.IDs() {
			if visited.Has(id) {
				failures = append(failures, fmt.Sprintf("%s pending and visited", id))
			}
		}
		for _, id := range previous {
			if !visited.Has(id) {
				failures = append(failures, fmt.Sprintf("%s left the visited set", id))
			}
		}
		if visited.Len() != len(previous)+1 {
			failures = append(failures, fmt.Sprintf("visited grew from %d to %d", len(previous), visited.Len()))
		}
		previous = visited.IDs()
	}

	if err := h.crawler(nil, WithObserver(observer)).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if checked != 5 {
		t.Errorf("expected 5 checkpoints, got %d", checked)
	}
	for _, f := range failures {
		t.Error(f)
	}
}

// flakyPage fails the first n navigations to one URL.
type flakyPage struct {
	*browsertest.Page
	url   string
	fails int
}

func (f *flakyPage) Navigate(ctx context.Context, url string) error {
	if url == f.url && f.fails > 0 {
		f.fails--
		return browser.NewActionError("navigate", url, browser.ErrNavigation, errors.New("connection reset"))
	}
	return f.Page.Navigate(ctx, url)
}

// TestRunRetry tests retrying transient page failures.
func TestRunRetry(t *testing.T) {
	t.Parallel()

	t.Run("retry succeeds", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.save(store.DocFrontier, entry("a"))
		h.profile("a", "b")
		h.profile("b")

		page := &flakyPage{Page: h.page, url: base + "in/a", fails: 1}
		if err := h.crawler(page, WithMaxRetries(1)).Run(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := h.load(store.DocVisitedProfiles).IDs(); !slices.Equal(got, []string{"a", "b"}) {
			t.Errorf("unexpected visited set %v", got)
		}
	})

	t.Run("retries exhausted", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.save(store.DocFrontier, entry("a"))
		h.profile("a")

		page := &flakyPage{Page: h.page, url: base + "in/a", fails: 3}
		err := h.crawler(page, WithMaxRetries(2)).Run(context.Background())
		if !IsRetryable(err) {
			t.Fatalf("expected the retryable error to surface, got %v", err)
		}
		if h.load(store.DocVisitedProfiles).Len() != 0 {
			t.Error("failed unit of work must not be checkpointed")
		}
	})

	t.Run("non-retryable failure is not retried", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.save(store.DocFrontier, entry("a"))
		h.page.AddPage(base+"in/a", "<p>a</p>")

		failing := func(context.Context, browser.Page, model.Routes, pacing.Controller, signin.Credentials) error {
			return signin.ErrMissingCredentials
		}
		calls := 0
		counting := func(ctx context.Context, p browser.Page, r model.Routes, pc pacing.Controller, c signin.Credentials) error {
			calls++
			return failing(ctx, p, r, pc, c)
		}

		err := h.crawler(nil, WithSignIn(counting), WithMaxRetries(3)).Run(context.Background())
		if kind, _ := KindOf(err); kind != KindSignIn {
			t.Errorf("expected sign-in failure, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 sign-in attempt, got %d", calls)
		}
	})
}

// TestRunMaxVisits tests ending the run after a number of visits.
func TestRunMaxVisits(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.save(store.DocFrontier, entry("a"), entry("b"), entry("c"))
	h.profile("a")
	h.profile("b")

	c := h.crawler(nil, WithMaxVisits(2))
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.State() != StateDone {
		t.Errorf("expected DONE, got %v", c.State())
	}
	if got := h.load(store.DocFrontier).IDs(); !slices.Equal(got, []string{"c"}) {
		t.Errorf("expected c to remain pending, got %v", got)
	}
}

// TestRunContinueOnError tests completing a visit when a step fails.
func TestRunContinueOnError(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.save(store.DocFrontier, entry("a"))
	h.page.AddPage(base+"in/a", `<a data-control-name="skills_endorsement_full_list" href="/in/a/missing/">x</a>`)

	if err := h.crawler(nil, WithContinueOnError(true)).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !h.load(store.DocVisitedProfiles).Has("a") {
		t.Error("visit should complete despite the failed step")
	}
}

// TestRunCompanyCascade tests following organizations when enabled.
func TestRunCompanyCascade(t *testing.T) {
	t.Parallel()

	newCascadeHarness := func(t *testing.T) *harness {
		h := newHarness(t)
		h.save(store.DocFrontier, entry("a"))
		h.page.AddPage(base+"in/a", `<a data-control-name="background_details_company" href="/company/acme/">Acme</a>`)
		h.page.AddPage(base+"company/acme/people/", `<a data-control-name="people_profile_card_name_link" href="/in/d">D</a>`)
		h.profile("d")
		return h
	}

	t.Run("disabled by default", func(t *testing.T) {
		t.Parallel()

		h := newCascadeHarness(t)
		if err := h.crawler(nil).Run(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.load(store.DocVisitedCompanies).Len() != 0 {
			t.Error("no organization should be processed")
		}
		if h.load(store.DocVisitedProfiles).Has("d") {
			t.Error("roster must not be read")
		}
	})

	t.Run("enabled", func(t *testing.T) {
		t.Parallel()

		h := newCascadeHarness(t)
		if err := h.crawler(nil, WithCompanyCascade(true)).Run(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !h.load(store.DocVisitedCompanies).Has(base + "company/acme/") {
			t.Error("organization must be marked visited")
		}
		if got := h.load(store.DocVisitedProfiles).IDs(); !slices.Equal(got, []string{"a", "d"}) {
			t.Errorf("unexpected visited set %v", got)
		}
		if n := slices.Index(h.page.Navigations(), base+"company/acme/people/"); n < 0 {
			t.Error("roster was not visited")
		}
	})
}

// TestRunCancelled tests that cancellation keeps the last checkpoint.
func TestRunCancelled(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.save(store.DocFrontier, entry("a"), entry("b"))
	h.profile("a", "c")
	h.profile("b")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cascades := 0
	observer := func(_, to State) {
		if to == StateExtractCascade {
			cascades++
			if cascades == 2 {
				cancel()
			}
		}
	}

	err := h.crawler(nil, WithObserver(observer)).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := h.load(store.DocVisitedProfiles).IDs(); !slices.Equal(got, []string{"a"}) {
		t.Errorf("expected only the first visit to be durable, got %v", got)
	}
	if got := h.load(store.DocFrontier).IDs(); !slices.Equal(got, []string{"b", "c"}) {
		t.Errorf("unexpected frontier %v", got)
	}
}

// TestRunRecordsRuns tests run history with a store that keeps it.
func TestRunRecordsRuns(t *testing.T) {
	t.Parallel()

	st, err := store.OpenSQLite(t.TempDir(), store.DefaultSQLiteOptions())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	h := newHarnessWithStore(t, st)
	h.save(store.DocFrontier, entry("a"))
	h.profile("a")

	c := h.crawler(nil)
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runs, err := st.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].ID != c.RunID() || runs[0].Status != store.RunStatusDone || runs[0].Visited != 1 {
		t.Errorf("unexpected run record %+v", runs[0])
	}
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.VisitEvent
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, e events.VisitEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

// TestRunPublishesEvents tests visit events.
func TestRunPublishesEvents(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.save(store.DocFrontier, entry("a"))
	h.profile("a", "b")
	h.profile("b")

	pub := &recordingPublisher{err: errors.New("broker unavailable")}
	c := h.crawler(nil, WithPublisher(pub))
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("publish failures must not fail the run: %v", err)
	}

	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	first := pub.events[0]
	if first.TargetID != "a" || first.Discovered != 1 || first.Visited != 1 || first.Pending != 1 || first.RunID != c.RunID() || first.Kind != "profile" {
		t.Errorf("unexpected event %+v", first)
	}
}
