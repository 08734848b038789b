package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nao1215/netspider/internal/config"
	"github.com/nao1215/netspider/internal/log"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for netspider.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "netspider",
		Short: "Resumable crawler of a professional social network",
		Long: `netspider signs in to a professional social network with a real account
and walks it from profile to profile through skill endorsements.

Every visited profile is checkpointed, so the crawl can be stopped at any
time and resumed later without visiting a profile twice.

Settings are read from .netspider in the current or home directory
(create one with "netspider init") and can be overridden with flags.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	cmd.PersistentFlags().Bool("redact-labels", false, "Mask profile names in logs")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .netspider in current or home directory)")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig builds the configuration from defaults, the config file, the
// environment and the global flags, in increasing order of precedence.
// Command-specific flags are applied by the caller.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not found.
	// If no path was specified, silently use defaults when no file is found.
	if path := config.FindConfigFile(configPath); path != "" {
		if err := cfg.LoadConfigFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	} else if configPath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configPath)
	}
	cfg.ApplyEnv()

	if cfg.Verbose, err = cmd.Flags().GetBool("verbose"); err != nil {
		return nil, err
	}
	if cfg.LogJSON, err = cmd.Flags().GetBool("log-json"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger creates the secure logger selected by the global flags.
func newLogger(cmd *cobra.Command, cfg *config.Config, w io.Writer) *slog.Logger {
	redact, err := cmd.Flags().GetBool("redact-labels")
	if err != nil {
		redact = false
	}
	return log.NewLogger(w, log.Options{
		Verbose:      cfg.Verbose,
		JSON:         cfg.LogJSON,
		RedactLabels: redact,
	})
}
