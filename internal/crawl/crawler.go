package crawl

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/netspider/internal/browser"
	"github.com/nao1215/netspider/internal/events"
	"github.com/nao1215/netspider/internal/extract"
	"github.com/nao1215/netspider/internal/frontier"
	"github.com/nao1215/netspider/internal/metrics"
	"github.com/nao1215/netspider/internal/model"
	"github.com/nao1215/netspider/internal/pacing"
	"github.com/nao1215/netspider/internal/pipeline"
	"github.com/nao1215/netspider/internal/signin"
	"github.com/nao1215/netspider/internal/store"
)

// SignInFunc authenticates page. signin.SignIn is the default.
type SignInFunc func(ctx context.Context, page browser.Page, routes model.Routes, pacer pacing.Controller, creds signin.Credentials) error

// Crawler owns the crawl state and drives one browser page through the
// crawl state machine. It is not safe for concurrent use.
type Crawler struct {
	store  store.Store
	page   browser.Page
	routes model.Routes
	pacer  pacing.Controller
	creds  signin.Credentials

	signIn    SignInFunc
	scroller  *browser.Scroller
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher events.Publisher
	observer  Observer
	now       func() time.Time

	companyCascade   bool
	continueOnError  bool
	maxRetries       int
	maxVisits        int
	endorsementLists int

	state     State
	frontier  *frontier.Frontier
	visited   *frontier.Visited
	companies *frontier.Visited
	saved     snapshot
	runID     string
	visits    int
}

// snapshot is the state as of the last checkpoint.
type snapshot struct {
	frontier  *model.Batch
	visited   *model.Batch
	companies *model.Batch
}

// Option is a function that configures a Crawler.
type Option func(*Crawler)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// WithMetrics records crawl progress in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Crawler) {
		c.metrics = m
	}
}

// WithPublisher publishes an event after every checkpointed visit.
func WithPublisher(p events.Publisher) Option {
	return func(c *Crawler) {
		c.publisher = p
	}
}

// WithObserver registers a state transition observer.
func WithObserver(o Observer) Option {
	return func(c *Crawler) {
		c.observer = o
	}
}

// WithSignIn replaces the sign-in flow.
func WithSignIn(fn SignInFunc) Option {
	return func(c *Crawler) {
		c.signIn = fn
	}
}

// WithScroller sets the scroller used by the extractors.
func WithScroller(s *browser.Scroller) Option {
	return func(c *Crawler) {
		c.scroller = s
	}
}

// WithCompanyCascade enables following the organizations of every visited
// profile. It is disabled by default.
func WithCompanyCascade(enabled bool) Option {
	return func(c *Crawler) {
		c.companyCascade = enabled
	}
}

// WithContinueOnError lets a visit complete when one of its cascade steps
// fails. By default a failing step fails the unit of work.
func WithContinueOnError(enabled bool) Option {
	return func(c *Crawler) {
		c.continueOnError = enabled
	}
}

// WithMaxRetries sets how often a unit of work that failed with a
// retryable error is attempted again. The default 0 makes every failure
// final.
func WithMaxRetries(n int) Option {
	return func(c *Crawler) {
		c.maxRetries = max(n, 0)
	}
}

// WithMaxVisits ends the run in DONE after n units of work. 0 means no
// limit.
func WithMaxVisits(n int) Option {
	return func(c *Crawler) {
		c.maxVisits = max(n, 0)
	}
}

// WithEndorsementLists sets how many endorsement lists are read per
// profile.
func WithEndorsementLists(n int) Option {
	return func(c *Crawler) {
		c.endorsementLists = n
	}
}

// New creates a crawler. The crawler takes ownership of page and closes it
// when Run returns; st stays open.
func New(st store.Store, page browser.Page, routes model.Routes, pacer pacing.Controller, creds signin.Credentials, opts ...Option) *Crawler {
	c := &Crawler{
		store:            st,
		page:             page,
		routes:           routes,
		pacer:            pacer,
		creds:            creds,
		signIn:           signin.SignIn,
		scroller:         browser.NewScroller(),
		publisher:        events.Nop{},
		now:              time.Now,
		endorsementLists: extract.DefaultMaxLists,
		state:            StateStart,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.pacer == nil {
		c.pacer = pacing.NewRandom()
	}
	return c
}

// State returns the current state.
func (c *Crawler) State() State {
	return c.state
}

// RunID returns the identifier of the current or last run.
func (c *Crawler) RunID() string {
	return c.runID
}

// Visits returns the number of units of work checkpointed by the last run.
func (c *Crawler) Visits() int {
	return c.visits
}

// Run crawls until the frontier is empty, the visit limit is reached, ctx
// is cancelled or a unit of work fails for good. It returns nil only when
// DONE is reached. Whatever the outcome, the store holds the last
// successful checkpoint.
func (c *Crawler) Run(ctx context.Context) (err error) {
	c.runID = uuid.NewString()
	c.visits = 0
	c.state = StateStart
	c.metrics.ObserveState(StateStart.String())
	logger := c.logger.With("run", c.runID)

	defer func() {
		if cerr := c.page.Close(); cerr != nil {
			logger.Warn("failed to close page", "error", cerr)
		}
	}()

	run := store.Run{ID: c.runID, StartedAt: c.now(), Status: store.RunStatusRunning}
	recorder, _ := c.store.(store.RunRecorder)
	if recorder != nil {
		if rerr := recorder.StartRun(ctx, run); rerr != nil {
			logger.Warn("failed to record run start", "error", rerr)
		}
	}
	defer func() {
		if recorder == nil {
			return
		}
		run.FinishedAt = c.now()
		run.Visited = c.visits
		run.Status = store.RunStatusDone
		if err != nil {
			run.Status = store.RunStatusFailed
			run.Error = err.Error()
		}
		if rerr := recorder.FinishRun(context.WithoutCancel(ctx), run); rerr != nil {
			logger.Warn("failed to record run finish", "error", rerr)
		}
	}()

	logger.Info("crawl started")
	if err := c.load(ctx); err != nil {
		return c.fail(err)
	}

	c.transition(StateSignIn)
	if err := c.attempt(ctx, c.doSignIn); err != nil {
		return c.fail(err)
	}

	if c.frontier.IsEmpty() {
		c.transition(StateSeeding)
		if err := c.attempt(ctx, c.seed); err != nil {
			return c.fail(err)
		}
	}

	for {
		c.transition(StateProcessNext)
		if c.frontier.IsEmpty() {
			break
		}
		if c.maxVisits > 0 && c.visits >= c.maxVisits {
			logger.Info("visit limit reached", "visits", c.visits, "pending", c.frontier.Len())
			break
		}
		if err := c.attempt(ctx, c.unitOfWork); err != nil {
			return c.fail(err)
		}
	}

	c.transition(StateDone)
	logger.Info("crawl finished",
		"visits", c.visits,
		"pending", c.frontier.Len(),
		"visited", c.visited.Len(),
	)
	return nil
}

// transition moves the machine to next and notifies observers.
func (c *Crawler) transition(next State) {
	prev := c.state
	c.state = next
	c.metrics.ObserveState(next.String())
	if c.observer != nil {
		c.observer(prev, next)
	}
}

// fail records err and returns it unchanged.
func (c *Crawler) fail(err error) error {
	if kind, ok := KindOf(err); ok {
		c.metrics.ObserveFailure(kind.String())
	}
	c.logger.Error("crawl failed", "run", c.runID, "state", c.state.String(), "error", err)
	return err
}

// attempt runs fn, restoring the last checkpoint after every failure and
// retrying retryable failures up to maxRetries times.
func (c *Crawler) attempt(ctx context.Context, fn func(context.Context) error) error {
	for try := 0; ; try++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		c.rollback()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if try >= c.maxRetries || !IsRetryable(err) {
			return err
		}
		c.metrics.ObserveRetry()
		c.logger.Warn("retrying after failure",
			"attempt", try+1,
			"max_retries", c.maxRetries,
			"error", err,
		)
		if err := pacing.Sleep(ctx, c.pacer); err != nil {
			return err
		}
	}
}

// load reads the three documents and builds the in-memory state.
func (c *Crawler) load(ctx context.Context) error {
	docs := make(map[string]*model.Batch, 3)
	for _, name := range []string{store.DocFrontier, store.DocVisitedProfiles, store.DocVisitedCompanies} {
		b, err := c.store.Load(ctx, name)
		if err != nil {
			return &Error{Kind: KindStorage, State: StateStart, Err: err}
		}
		docs[name] = b
	}

	c.saved = snapshot{
		frontier:  docs[store.DocFrontier],
		visited:   docs[store.DocVisitedProfiles],
		companies: docs[store.DocVisitedCompanies],
	}
	dropped := c.restore()
	for _, e := range dropped {
		c.logger.Warn("dropping frontier entry that is already visited",
			"id", e.ID,
			"label", e.Label,
		)
	}
	if len(dropped) > 0 {
		c.saved.frontier = c.frontier.Snapshot()
	}

	c.logger.Info("state loaded",
		"pending", c.frontier.Len(),
		"visited", c.visited.Len(),
		"companies", c.companies.Len(),
	)
	return nil
}

// restore rebuilds the in-memory state from the saved snapshot and returns
// the frontier entries dropped because they are already visited.
func (c *Crawler) restore() []model.Entry {
	c.visited = frontier.NewVisited(c.saved.visited)
	c.companies = frontier.NewVisited(c.saved.companies)
	f, dropped := frontier.New(c.saved.frontier, c.visited)
	c.frontier = f
	return dropped
}

// rollback discards in-memory changes made since the last checkpoint.
func (c *Crawler) rollback() {
	c.restore()
}

// checkpoint persists the in-memory state and makes it the rollback point.
// Visited sets are written before the frontier so that a backend without
// atomic multi-document writes never loses a pending target.
func (c *Crawler) checkpoint(ctx context.Context, withCompanies bool) error {
	next := snapshot{
		frontier:  c.frontier.Snapshot(),
		visited:   c.visited.Snapshot(),
		companies: c.companies.Snapshot(),
	}

	docs := []store.Document{{Name: store.DocVisitedProfiles, Batch: next.visited}}
	if withCompanies {
		docs = append(docs, store.Document{Name: store.DocVisitedCompanies, Batch: next.companies})
	}
	docs = append(docs, store.Document{Name: store.DocFrontier, Batch: next.frontier})

	if err := c.store.Checkpoint(ctx, docs...); err != nil {
		return &Error{Kind: KindStorage, State: StateCheckpoint, Err: err}
	}
	c.saved = next
	return nil
}

func (c *Crawler) doSignIn(ctx context.Context) error {
	if err := c.signIn(ctx, c.page, c.routes, c.pacer, c.creds); err != nil {
		kind := KindSignIn
		if browser.IsRetryable(err) {
			kind = KindPage
		}
		return &Error{Kind: kind, State: StateSignIn, Err: err}
	}
	c.logger.Info("signed in")
	return nil
}

// seed fills the empty frontier from the connection list and checkpoints
// it, so a crash during the first visit does not repeat the seeding.
func (c *Crawler) seed(ctx context.Context) error {
	found, err := extract.NewConnections(c.env()).Extract(ctx, c.page, c.visited)
	if err != nil {
		return &Error{Kind: classify(err), State: StateSeeding, Err: err}
	}
	n := c.frontier.Seed(found)
	c.logger.Info("frontier seeded", "targets", n)

	if err := c.checkpoint(ctx, false); err != nil {
		return err
	}
	c.metrics.ObserveCheckpoint(c.frontier.Len(), c.visited.Len())
	return nil
}

// env returns the environment shared by the extractors.
func (c *Crawler) env() extract.Env {
	return extract.Env{
		Routes:   c.routes,
		Pacer:    c.pacer,
		Scroller: c.scroller,
		Logger:   c.logger,
	}
}

// cascade builds the extraction pipeline for one visit.
func (c *Crawler) cascade() *pipeline.Pipeline {
	endorsements := extract.NewEndorsements(c.env())
	endorsements.MaxLists = c.endorsementLists

	p := pipeline.New(
		pipeline.WithLogger(c.logger),
		pipeline.WithContinueOnError(c.continueOnError),
	)
	p.AddStep(pipeline.NewEndorsementStep(c.page, endorsements, c.visited))
	if c.companyCascade {
		p.AddStep(pipeline.NewCompanyCascadeStep(c.page, c.env(), c.visited, c.companies))
	}
	return p
}

// unitOfWork processes the next target: PROCESS_NEXT, EXTRACT_CASCADE and
// CHECKPOINT.
func (c *Crawler) unitOfWork(ctx context.Context) error {
	if c.state != StateProcessNext {
		c.transition(StateProcessNext)
	}

	target, ok := c.frontier.Pop()
	if !ok {
		return nil
	}
	c.visited.Add(target.ID, target.Label)

	pageURL := c.routes.Profile(target.ID)
	c.logger.Info("visiting", "id", target.ID, "label", target.Label)
	if err := c.page.Navigate(ctx, pageURL); err != nil {
		return &Error{Kind: KindPage, State: StateProcessNext, Target: target.ID, Err: err}
	}
	if err := pacing.Sleep(ctx, c.pacer); err != nil {
		return err
	}

	c.transition(StateExtractCascade)
	visit := model.NewVisit(target, pageURL)
	if err := c.cascade().Execute(ctx, visit); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{Kind: classify(err), State: StateExtractCascade, Target: target.ID, Err: err}
	}
	for _, stepErr := range visit.Errors {
		c.logger.Warn("cascade step failed, continuing", "id", target.ID, "error", stepErr)
	}
	added := c.frontier.PopAndMerge(target, visit.Discovered)
	for _, company := range visit.Companies.Entries() {
		c.companies.Add(company.ID, company.Label)
	}

	c.transition(StateCheckpoint)
	if err := c.checkpoint(ctx, visit.Companies.Len() > 0); err != nil {
		return err
	}

	c.visits++
	c.metrics.ObserveVisit(added, visit.Companies.Len(), c.frontier.Len(), c.visited.Len())
	c.logger.Info("visit checkpointed",
		"id", target.ID,
		"discovered", added,
		"pending", c.frontier.Len(),
		"visited", c.visited.Len(),
		"elapsed", time.Since(visit.StartedAt).Round(time.Millisecond),
	)

	event := events.VisitEvent{
		RunID:       c.runID,
		TargetID:    target.ID,
		TargetLabel: target.Label,
		Kind:        model.KindProfile.String(),
		Discovered:  added,
		Companies:   visit.Companies.Len(),
		Pending:     c.frontier.Len(),
		Visited:     c.visited.Len(),
		At:          c.now(),
	}
	if err := c.publisher.Publish(ctx, event); err != nil {
		// The checkpoint is already durable; losing an event is not fatal.
		c.logger.Warn("failed to publish visit event", "id", target.ID, "error", err)
	}
	return nil
}

// Snapshot returns copies of the in-memory frontier and visited sets.
func (c *Crawler) Snapshot() (pending, visited, companies *model.Batch) {
	if c.frontier == nil {
		return model.NewBatch(), model.NewBatch(), model.NewBatch()
	}
	return c.frontier.Snapshot(), c.visited.Snapshot(), c.companies.Snapshot()
}
