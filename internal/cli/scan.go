package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/matzehuels/stackscan/internal/config"
	"github.com/matzehuels/stackscan/pkg/errors"
	"github.com/matzehuels/stackscan/pkg/io"
	"github.com/matzehuels/stackscan/pkg/scan"
	"github.com/matzehuels/stackscan/pkg/source"
)

// scanFlags holds flag values for the scan command. Zero values leave the
// configured setting unchanged.
type scanFlags struct {
	output       string
	project      string
	noCache      bool
	noEnrich     bool
	noStdlib     bool
	noContext    bool
	exclude      []string
	maxFileBytes string
	workers      int
	probeTimeout string
	strict       bool
}

// scanCommand creates the scan command.
func (c *CLI) scanCommand() *cobra.Command {
	var flags scanFlags

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Extract the components of a source tree",
		Long: `Scan a directory and write its components as JSON.

Import statements are classified as internal, standard library or external;
manifests (pom.xml, requirements.txt, package.json, go.mod, ...) contribute
their declared dependencies, enriched from the package registries.`,
		Example: `  # Scan the current directory and print the document
  stackscan scan

  # Write to a file, skipping registry lookups
  stackscan scan ./service -o sbom-input.json --no-enrich

  # Ignore fixtures and minified bundles
  stackscan scan --exclude '**/testdata/**' --exclude '*.min.js'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return c.runScan(cmd, dir, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "", "output file (default: stdout)")
	f.StringVar(&flags.project, "project", "", "project name (default: directory name)")
	f.BoolVar(&flags.noCache, "no-cache", false, "disable the probe and registry cache")
	f.BoolVar(&flags.noEnrich, "no-enrich", false, "skip registry lookups for manifest dependencies")
	f.BoolVar(&flags.noStdlib, "no-stdlib", false, "skip standard-library probes")
	f.BoolVar(&flags.noContext, "no-context", false, "skip dead-import and subprocess detection")
	f.StringSliceVar(&flags.exclude, "exclude", nil, "glob of paths to skip (repeatable)")
	f.StringVar(&flags.maxFileBytes, "max-file-bytes", "", "skip larger files, e.g. 4MiB")
	f.IntVar(&flags.workers, "workers", 0, "concurrent queries per batch")
	f.StringVar(&flags.probeTimeout, "probe-timeout", "", "connect timeout of every request, e.g. 2s")
	f.BoolVar(&flags.strict, "strict", false, "exit non-zero when any file or dependency failed")

	return cmd
}

// apply overlays explicitly set flags on cfg.
func (f scanFlags) apply(cfg *config.Config) error {
	if f.noEnrich {
		cfg.Scan.Enrich = false
	}
	if f.noStdlib {
		cfg.Scan.StdlibCheck = false
	}
	if f.noContext {
		cfg.Scan.ContextPasses = false
	}
	cfg.Scan.Exclude = append(cfg.Scan.Exclude, f.exclude...)
	if f.maxFileBytes != "" {
		if err := cfg.Scan.MaxFileBytes.UnmarshalText([]byte(f.maxFileBytes)); err != nil {
			return fmt.Errorf("--max-file-bytes: %w", err)
		}
	}
	if f.workers > 0 {
		cfg.Scan.Workers = f.workers
	}
	if f.probeTimeout != "" {
		if err := cfg.Scan.ProbeTimeout.UnmarshalText([]byte(f.probeTimeout)); err != nil {
			return fmt.Errorf("--probe-timeout: %w", err)
		}
	}
	return cfg.Validate()
}

func (c *CLI) runScan(cmd *cobra.Command, dir string, flags scanFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	ph := newPhases(logger)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if err := flags.apply(cfg); err != nil {
		return err
	}

	srcOpts := cfg.SourceOptions()
	srcOpts.Logger = logger
	files, loaded, err := source.Load(ctx, dir, srcOpts)
	if err != nil {
		return err
	}
	logger.Debug("loaded source", "dir", dir, "files", loaded.Files, "too_large", loaded.TooLarge, "binary", loaded.Binary)
	ph.mark("load")

	store, err := c.openCache(ctx, cfg, flags.noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := cfg.ScanOptions()
	opts.Cache = store
	opts.Logger = logger
	scanner := scan.NewDefault(opts)

	// The summary goes to stderr so the document can be piped from stdout.
	status := cmd.ErrOrStderr()
	spinner := newSpinnerWithContext(ctx, status, fmt.Sprintf("Scanning %d files...", len(files)))
	restore := trackScan(&scanProgress{spinner: spinner, total: len(files)})
	spinner.Start()
	res, err := scanner.Scan(ctx, files)
	restore()
	if err != nil {
		spinner.StopWithError("Scan failed")
		return err
	}
	spinner.Stop()
	ph.mark("scan")

	project := flags.project
	if project == "" {
		project = projectName(dir)
	}
	doc := io.NewDocument(project, res)
	if flags.output == "" || flags.output == "-" {
		if err := io.WriteJSON(doc, cmd.OutOrStdout()); err != nil {
			return err
		}
	} else {
		if err := io.ExportJSON(doc, flags.output); err != nil {
			return err
		}
	}
	ph.mark("write")
	ph.finish("done")

	printSuccess(status, "Found %d components in %s", res.Stats.Components, StyleTitle.Render(project))
	printStats(status, res.Stats)
	if flags.output != "" && flags.output != "-" {
		printFile(status, flags.output)
	}

	failures := multierr.Errors(res.Err)
	if len(failures) > 0 {
		printWarning(status, "%d files or dependencies could not be processed (%s)", len(failures), errors.Summary(res.Err))
		for _, e := range failures {
			printDetail(status, "%s", e)
		}
		if flags.strict {
			return &strictError{failures: len(failures)}
		}
	}
	return nil
}

// strictError reports a --strict scan that collected failures. The
// failures have already been printed.
type strictError struct{ failures int }

func (e *strictError) Error() string {
	return fmt.Sprintf("%d files or dependencies failed (--strict)", e.failures)
}

// projectName derives a project name from the scanned directory.
func projectName(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Base(dir)
	}
	if name := filepath.Base(abs); name != string(os.PathSeparator) && name != "." {
		return name
	}
	return "project"
}
