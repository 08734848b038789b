// Package metrics exposes crawl progress as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "netspider"

// Metrics holds the crawl counters. Each instance owns its registry so
// several crawlers, or tests, can run in one process.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	visits      prometheus.Counter
	discovered  prometheus.Counter
	companies   prometheus.Counter
	checkpoints prometheus.Counter
	retries     prometheus.Counter
	failures    *prometheus.CounterVec
	states      *prometheus.CounterVec
	pending     prometheus.Gauge
	visited     prometheus.Gauge
}

// New registers the crawl metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		visits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visits_total",
			Help:      "Number of targets processed and checkpointed.",
		}),
		discovered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovered_total",
			Help:      "Number of new targets merged into the frontier.",
		}),
		companies: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "companies_total",
			Help:      "Number of organizations processed by the company cascade.",
		}),
		checkpoints: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoints_total",
			Help:      "Number of successful checkpoints.",
		}),
		retries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Number of retried units of work.",
		}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Number of failures by kind.",
		}, []string{"kind"}),
		states: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Number of state machine transitions by target state.",
		}, []string{"state"}),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frontier_pending",
			Help:      "Number of targets waiting in the frontier.",
		}),
		visited: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "visited",
			Help:      "Number of targets in the visited set.",
		}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveVisit records a checkpointed visit.
func (m *Metrics) ObserveVisit(discovered, companies, pending, visited int) {
	if m == nil {
		return
	}
	m.visits.Inc()
	m.checkpoints.Inc()
	m.discovered.Add(float64(discovered))
	m.companies.Add(float64(companies))
	m.pending.Set(float64(pending))
	m.visited.Set(float64(visited))
}

// ObserveCheckpoint records a checkpoint that was not part of a visit,
// such as the one written after seeding.
func (m *Metrics) ObserveCheckpoint(pending, visited int) {
	if m == nil {
		return
	}
	m.checkpoints.Inc()
	m.pending.Set(float64(pending))
	m.visited.Set(float64(visited))
}

// ObserveState records a transition into state.
func (m *Metrics) ObserveState(state string) {
	if m == nil {
		return
	}
	m.states.WithLabelValues(state).Inc()
}

// ObserveFailure records a failure of the given kind.
func (m *Metrics) ObserveFailure(kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(kind).Inc()
}

// ObserveRetry records a retried unit of work.
func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// Handler returns the HTTP handler serving the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes the metrics on addr at /metrics until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
