package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/stopwatch/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a stopwatch configuration file",
	Long: `Create .stopwatch.yaml in the current directory with default settings.

Fill in apiKey, accountKey and your email (or staffId), or leave the file
free of secrets and provide them as WFM_API_KEY, WFM_ACCOUNT_KEY and
WFM_EMAIL in the environment or a .env file.

Examples:
  stopwatch init
  stopwatch init --force`,
	Args: cobra.NoArgs,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing file")
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, config.ConfigFilenames[0])
	if !forceInit {
		if _, err := os.Stat(configFile); err == nil {
			return exitWith(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", configFile))
		}
	}

	cfg := config.DefaultConfig()
	cfg.Email = "you@example.com"
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	fmt.Fprintf(cmd.OutOrStdout(), `
Next steps:
  1. Set apiKey and accountKey in %s (or WFM_API_KEY / WFM_ACCOUNT_KEY)
  2. Set your WorkflowMax email
  3. Run: stopwatch sync
`, filepath.Base(configFile))

	return nil
}
