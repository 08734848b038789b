package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/netspider/internal/config"
	"github.com/spf13/cobra"
)

const templatePath = "templates/netspider.yaml"

//go:embed templates/netspider.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a netspider configuration file",
		Long: `Init writes a commented .netspider configuration file listing every
setting with its default. The password is best kept out of the file, in the
NETSPIDER_PASSWORD environment variable.`,
		Example: `  netspider init
  netspider init -o ~/.netspider
  netspider init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile, "path of the configuration file to create")
	cmd.Flags().BoolP("force", "f", false, "overwrite an existing file")

	return cmd
}

// runInitCmd writes the configuration template.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if err := writeConfigTemplate(outputPath, force); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), `Created configuration file: %s

Set the site URL and sign-in username in it, choose where crawl state is
stored, and export %s before running "netspider crawl".
`, outputPath, config.PasswordEnv)
	return nil
}

// writeConfigTemplate copies the embedded template to path. An existing
// file is kept unless force is set. The file is private to the user
// because it may end up holding a password.
func writeConfigTemplate(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", path)
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return nil
}
