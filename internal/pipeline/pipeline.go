package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/netspider/internal/model"
)

// Step is one stage of the extraction cascade run for a visit.
//
// Design decision: steps are values rather than plain functions so each can
// hold its own extractor and visited sets, and so the crawler can name the
// step that failed in its logs and errors.
type Step interface {
	// Do runs the step on the page the visit left open and records what it
	// found in visit.
	Do(ctx context.Context, visit *model.Visit) error

	// Name identifies the step in logs and in Visit.Steps.
	Name() string
}

// Pipeline runs cascade steps one after another against a single visit.
type Pipeline struct {
	steps           []Step
	logger          *slog.Logger
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps the cascade going after a failed step. The
// failure is recorded in Visit.Errors and the visit completes with what the
// remaining steps found.
//
// By default the first failure ends the cascade: the visit is then not
// checkpointed and its target stays pending.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New returns an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends steps; they run in the order added.
func (p *Pipeline) AddStep(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Steps returns the step names in run order.
func (p *Pipeline) Steps() []string {
	names := make([]string, 0, len(p.steps))
	for _, s := range p.steps {
		names = append(names, s.Name())
	}
	return names
}

// Execute runs every step against visit. Cancellation is checked between
// steps and is always returned, even with continue-on-error set.
func (p *Pipeline) Execute(ctx context.Context, visit *model.Visit) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("cascade cancelled", "step", step.Name(), "reason", err)
			return err
		}
		if err := p.run(ctx, step, visit); err != nil {
			if !p.continueOnError || ctx.Err() != nil {
				return err
			}
			visit.Errors = append(visit.Errors, err)
		}
		visit.Steps = append(visit.Steps, step.Name())
	}
	return nil
}

// run executes one step and logs its outcome.
func (p *Pipeline) run(ctx context.Context, step Step, visit *model.Visit) error {
	logger := p.logger.With("step", step.Name(), "target", visit.Target.ID)
	before := visit.Discovered.Len()

	logger.Debug("running cascade step")
	if err := step.Do(ctx, visit); err != nil {
		logger.Error("cascade step failed", "error", err)
		return err
	}
	logger.Debug("cascade step done", "discovered", visit.Discovered.Len()-before)
	return nil
}
