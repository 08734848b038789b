package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/netspider/internal/browser"
	"github.com/nao1215/netspider/internal/config"
	"github.com/nao1215/netspider/internal/crawl"
	"github.com/nao1215/netspider/internal/events"
	"github.com/nao1215/netspider/internal/metrics"
	"github.com/nao1215/netspider/internal/model"
	"github.com/nao1215/netspider/internal/pacing"
	"github.com/nao1215/netspider/internal/signin"
	"github.com/nao1215/netspider/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the network, resuming from the last checkpoint",
		Long: `Crawl signs in, then visits pending profiles one at a time and collects
the people who endorsed their skills. When nothing is stored yet, the
frontier is seeded from the account's connections.

State is checkpointed after every visited profile. Interrupt the crawl with
Ctrl-C at any time; the next run resumes from the last checkpoint.

Examples:
  # Crawl with the settings of .netspider
  netspider crawl

  # Crawl 50 profiles with a hidden browser
  netspider crawl --headless --max-visits 50

  # Follow the organizations of every profile as well
  netspider crawl --company-cascade

  # Keep state in JSON files in a specific directory
  netspider crawl --backend json --state-dir ./state`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().String("url", "", "Base URL of the site (overrides url)")
	cmd.Flags().String("username", "", "Sign-in username (overrides username)")
	cmd.Flags().StringP("backend", "b", config.DefaultBackend, "Store backend: sqlite, json or redis")
	cmd.Flags().StringP("state-dir", "s", "", "State directory of the sqlite and json backends")
	cmd.Flags().Bool("headless", false, "Hide the browser window")
	cmd.Flags().IntP("max-visits", "n", 0, "Stop after this many visits (0 means no limit)")
	cmd.Flags().Int("max-retries", 0, "Retry a visit failing with a transient page error this many times")
	cmd.Flags().Bool("company-cascade", false, "Follow the organizations of every visited profile")
	cmd.Flags().Bool("continue-on-error", false, "Complete a visit when one of its extraction steps fails")
	cmd.Flags().Int("rate", 0, "Cap paced browser actions per minute (0 means no cap)")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildCrawlConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd, cfg, os.Stderr)
	slog.SetDefault(logger)

	return runCrawl(cmd.Context(), cfg, logger, crawlEnv{
		newPage: newChromePage,
		pacer:   pacing.NewRandom(),
		signals: notifySignals,
		out:     cmd.OutOrStdout(),
	})
}

// buildCrawlConfig applies the crawl flags that were set on top of the
// loaded configuration.
func buildCrawlConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	// Only flags given on the command line override the config file.
	flags := cmd.Flags()
	for _, err := range []error{
		overrideString(flags, "url", &cfg.URL),
		overrideString(flags, "username", &cfg.Username),
		overrideString(flags, "backend", &cfg.Store.Backend),
		overrideString(flags, "state-dir", &cfg.Store.Dir),
		overrideBool(flags, "headless", &cfg.Browser.Headless),
		overrideInt(flags, "max-visits", &cfg.Crawl.MaxVisits),
		overrideInt(flags, "max-retries", &cfg.Crawl.MaxRetries),
		overrideBool(flags, "company-cascade", &cfg.Crawl.CompanyCascade),
		overrideBool(flags, "continue-on-error", &cfg.Crawl.ContinueOnError),
		overrideInt(flags, "rate", &cfg.Pacing.MaxNavigationsPerMinute),
		overrideString(flags, "metrics-addr", &cfg.Metrics.Addr),
	} {
		if err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// crawlEnv holds what runCrawl takes from the outside world.
type crawlEnv struct {
	// newPage opens the browser tab the crawler drives.
	newPage func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (browser.Page, error)

	// pacer spaces browser actions.
	pacer pacing.Controller

	// signals returns a channel receiving shutdown signals and a function
	// releasing it.
	signals func() (<-chan os.Signal, func())

	// out receives the run summary.
	out io.Writer
}

// newChromePage launches Chrome as configured.
func newChromePage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (browser.Page, error) {
	return browser.NewChromePage(ctx, browser.ChromeOptions{
		Headless:      cfg.Browser.Headless,
		ExecPath:      cfg.Browser.ExecPath,
		ActionTimeout: cfg.Browser.ActionTimeout,
		Logf: func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...), "component", "chromedp")
		},
	})
}

// notifySignals relays SIGINT and SIGTERM.
func notifySignals() (<-chan os.Signal, func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	return sigCh, func() { signal.Stop(sigCh) }
}

// runCrawl wires the store, browser, metrics and events into a crawler and
// runs it. A shutdown signal cancels the crawl; the last checkpoint stays
// valid.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, env crawlEnv) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	routes, err := model.NewRoutes(cfg.URL)
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, cfg.Store.Backend, store.Options{
		Dir:         cfg.Store.Dir,
		RedisAddr:   cfg.Store.RedisAddr,
		RedisPrefix: cfg.Store.RedisPrefix,
	})
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("failed to close store", "error", err)
		}
	}()

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Events.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic)
		if err != nil {
			return fmt.Errorf("failed to create event publisher: %w", err)
		}
		publisher = kp
		logger.Info("publishing visit events", "topic", cfg.Events.KafkaTopic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close event publisher", "error", err)
		}
	}()

	page, err := env.newPage(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}

	m := metrics.New()
	crawler := crawl.New(st, page, routes,
		pacing.NewLimited(env.pacer, cfg.Pacing.MaxNavigationsPerMinute),
		signin.Credentials{Username: cfg.Username, Password: cfg.Password},
		crawl.WithLogger(logger),
		crawl.WithMetrics(m),
		crawl.WithPublisher(publisher),
		crawl.WithCompanyCascade(cfg.Crawl.CompanyCascade),
		crawl.WithContinueOnError(cfg.Crawl.ContinueOnError),
		crawl.WithMaxRetries(cfg.Crawl.MaxRetries),
		crawl.WithMaxVisits(cfg.Crawl.MaxVisits),
		crawl.WithEndorsementLists(cfg.Crawl.EndorsementLists),
	)

	g, gctx := errgroup.WithContext(ctx)

	// The crawl ends the group: when it returns, the watchers stop too.
	g.Go(func() error {
		defer cancel()
		return crawler.Run(gctx)
	})

	g.Go(func() error {
		sigCh, stop := env.signals()
		defer stop()
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal, stopping after the current action", "signal", sig.String())
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			logger.Info("serving metrics", "addr", cfg.Metrics.Addr)
			if err := m.Serve(gctx, cfg.Metrics.Addr); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		fmt.Fprintf(env.out, "crawl interrupted after %d visits; run again to resume\n", crawler.Visits())
		return err
	}
	if err != nil {
		return err
	}

	pending, visited, _ := crawler.Snapshot()
	fmt.Fprintf(env.out, "crawl finished: %d visits this run, %d visited, %d pending\n",
		crawler.Visits(), visited.Len(), pending.Len())
	return nil
}
