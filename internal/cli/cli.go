// Package cli implements the stackscan command-line interface.
//
// # Commands
//
//   - scan: extract the components of a directory into a JSON document
//   - cache: inspect or clear the probe and registry cache
//   - completion: generate shell completion scripts
//   - version: print build information
//
// # Logging
//
// All commands log through one charmbracelet logger, debug level with
// --verbose (-v). The logger travels in the command context; see
// loggerFromContext.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackscan/internal/config"
	"github.com/matzehuels/stackscan/pkg/buildinfo"
	"github.com/matzehuels/stackscan/pkg/cache"
)

// Log levels accepted by [New].
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// Process exit codes returned by [ExitCode].
const (
	ExitOK          = 0
	ExitError       = 1
	ExitFailures    = 2   // --strict scan with collected failures
	ExitInterrupted = 130 // SIGINT, as shells report it
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   buildinfo.Name,
		Short: "Stackscan extracts a software bill of materials from a source tree",
		Long: `Stackscan walks a source tree, reads import statements and package manifests,
and classifies every dependency as internal, standard library or external.
The result is a JSON component list ready for an SBOM builder.`,
		Version:       buildinfo.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./"+config.DefaultFile+")")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.scanCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	root.AddCommand(c.versionCommand())

	return root
}

// loadConfig reads the config file selected by --config.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	return cfg, nil
}

// openCache opens the configured backend, or a null cache when noCache is set.
func (c *CLI) openCache(ctx context.Context, cfg *config.Config, noCache bool) (*cache.Instrumented, error) {
	opts := cfg.CacheOptions()
	if noCache {
		opts.Backend = cache.BackendNone
	}
	return cache.Open(ctx, opts)
}

// ExitCode maps the error returned by the root command to a process exit
// code, printing it to w unless it was already reported.
func ExitCode(err error, w io.Writer) int {
	var strict *strictError
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.As(err, &strict):
		return ExitFailures
	}
	fmt.Fprintln(w, err)
	return ExitError
}
