package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackscan/pkg/buildinfo"
)

// versionCommand prints build information. --version on the root command
// prints the same in a compact template.
func (c *CLI) versionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			info := buildinfo.Get()
			if short {
				fmt.Fprintln(w, info.Version)
				return nil
			}
			commit := info.Commit
			if info.Modified {
				commit += " (modified)"
			}
			fmt.Fprintln(w, keyValue("version", info.Version))
			fmt.Fprintln(w, keyValue("commit", commit))
			fmt.Fprintln(w, keyValue("built", info.Date))
			fmt.Fprintln(w, keyValue("go", info.GoVersion))
			return nil
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "print the version only")
	return cmd
}
