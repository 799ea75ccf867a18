package cmd

import "github.com/spf13/cobra"

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for stopwatch.

To load completions:

Bash:
  $ source <(stopwatch completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ stopwatch completion bash > /etc/bash_completion.d/stopwatch
  # macOS:
  $ stopwatch completion bash > $(brew --prefix)/etc/bash_completion.d/stopwatch

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ stopwatch completion zsh > "${fpath[1]}/_stopwatch"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ stopwatch completion fish | source

  # To load completions for each session, execute once:
  $ stopwatch completion fish > ~/.config/fish/completions/stopwatch.fish

PowerShell:
  PS> stopwatch completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> stopwatch completion powershell > stopwatch.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
