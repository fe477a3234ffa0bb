package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand prints a completion script for the named shell.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Print a shell completion script",
		Long: `Print a completion script for stackscan subcommands, flags and
shell names. The script goes to stdout; where it should live depends on
the shell.

Try it in the current shell:

  bash        source <(stackscan completion bash)
  zsh         source <(stackscan completion zsh)
  fish        stackscan completion fish | source
  powershell  stackscan completion powershell | Out-String | Invoke-Expression

Install it for new shells:

  bash        stackscan completion bash > ~/.local/share/bash-completion/completions/stackscan
  zsh         stackscan completion zsh > "${fpath[1]}/_stackscan"   (needs compinit in ~/.zshrc)
  fish        stackscan completion fish > ~/.config/fish/completions/stackscan.fish
  powershell  stackscan completion powershell >> $PROFILE
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}

	return cmd
}
