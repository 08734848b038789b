package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/netspider/internal/config"
	"github.com/nao1215/netspider/internal/report"
	"github.com/nao1215/netspider/internal/store"
	"github.com/spf13/cobra"
)

// defaultHistory is the number of runs shown by status.
const defaultHistory = 10

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored crawl state",
		Long: `Status reads the stored frontier and visited sets without starting a browser
and prints how many profiles are pending and visited, the next profiles to
be visited and, for the sqlite backend, the history of crawl runs.

Examples:
  # Summary of the default store
  netspider status

  # Include samples of the stored documents
  netspider status -v

  # Markdown report written to a file
  netspider status --markdown -o reports/status.md`,
		Args: cobra.NoArgs,
		RunE: runStatusCmd,
	}

	cmd.Flags().StringP("backend", "b", config.DefaultBackend, "Store backend: sqlite, json or redis")
	cmd.Flags().StringP("state-dir", "s", "", "State directory of the sqlite and json backends")
	cmd.Flags().IntP("history", "H", defaultHistory, "Number of past runs to show (sqlite backend)")
	cmd.Flags().Int("sample", report.DefaultSampleSize, "Number of entries shown per document")
	cmd.Flags().BoolP("json", "j", false, "Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "", "Write the report to this file (creates directories if needed)")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if err := overrideString(flags, "backend", &cfg.Store.Backend); err != nil {
		return err
	}
	if err := overrideString(flags, "state-dir", &cfg.Store.Dir); err != nil {
		return err
	}
	if err := cfg.ValidateStore(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	history, err := flags.GetInt("history")
	if err != nil {
		return err
	}
	sample, err := flags.GetInt("sample")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	st, err := store.Open(ctx, cfg.Store.Backend, store.Options{
		Dir:         cfg.Store.Dir,
		RedisAddr:   cfg.Store.RedisAddr,
		RedisPrefix: cfg.Store.RedisPrefix,
	})
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	defer st.Close() //nolint:errcheck // read-only use

	location := cfg.Store.Dir
	if cfg.Store.Backend == store.BackendRedis {
		location = cfg.Store.RedisAddr
	}
	status, err := report.Collect(ctx, st, report.Options{
		Backend:    cfg.Store.Backend,
		Location:   location,
		SampleSize: sample,
		History:    history,
	})
	if err != nil {
		return err
	}

	return outputStatus(cmd, cfg, status)
}

// outputStatus writes the status in the selected format to stdout or the
// --output file.
func outputStatus(cmd *cobra.Command, cfg *config.Config, status *report.Status) error {
	flags := cmd.Flags()
	outputPath, err := flags.GetString("output")
	if err != nil {
		return err
	}
	asJSON, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	asMarkdown, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}

	var output io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		dir := filepath.Dir(outputPath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		f, err := os.Create(outputPath) //nolint:gosec // User-provided output path is intentional
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close() //nolint:errcheck // write errors are reported by Write
		output = f
	}

	var writer report.Writer
	switch {
	case asJSON:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case asMarkdown:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewTextWriter(output, report.WithVerbose(cfg.Verbose))
	}
	if _, err := writer.Write(status); err != nil {
		return fmt.Errorf("failed to write status: %w", err)
	}
	return nil
}
