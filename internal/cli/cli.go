package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/pfrederiksen/tour-snoop/internal/config"
	"github.com/pfrederiksen/tour-snoop/internal/logger"
	"github.com/pfrederiksen/tour-snoop/internal/metrics"
	"github.com/pfrederiksen/tour-snoop/internal/scraper"
	"github.com/pfrederiksen/tour-snoop/internal/storage"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitChanges = 2
)

// Version is reported by --version.
var Version = "dev"

// options collects what the flags set. Values in cfg only override the
// config file when the matching flag was given explicitly.
type options struct {
	configPath string
	cfg        config.Config
	dryRun     bool
	verbose    bool

	stdout   io.Writer
	stderr   io.Writer
	exitCode int
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{stdout: os.Stdout, stderr: os.Stderr})
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tour-snoop [flags] artist...",
		Short: "Report tour dates added or removed since the last check",
		Long: `A CLI tool to watch artists' tour-date listings.
Fetches each artist's listing (following later year pages), compares it with
the snapshot saved by the previous run and prints the dates that were added
(+) or removed (-). The new listing then becomes the snapshot.`,
		Version:       Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, args)
		},
	}
	cmd.SetOut(opts.stdout)
	cmd.SetErr(opts.stderr)

	def := config.Default()
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML config file")
	pf.StringVarP(&opts.cfg.CacheDir, "cache-dir", "c", def.CacheDir, "Directory holding one snapshot per artist")
	pf.StringVar(&opts.cfg.LogLevel, "log-level", def.LogLevel, "Log level: debug, info, warn or error")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Shorthand for --log-level debug")
	pf.StringVar(&opts.cfg.Color, "color", def.Color, "Colorize output: auto, always or never")

	f := cmd.Flags()
	f.BoolVarP(&opts.dryRun, "dry-run", "n", false, "Report changes without saving snapshots")
	f.IntVarP(&opts.cfg.StartYear, "start-year", "s", def.StartYear, "First year to fetch")
	f.IntVar(&opts.cfg.ReferenceYear, "reference-year", def.ReferenceYear, "Year assumed for dates printed without one")
	f.StringVar(&opts.cfg.Strategy, "strategy", def.Strategy,
		"Extraction strategy: auto, microdata, span-a, span-b, or a comma-separated order")
	f.IntVar(&opts.cfg.Concurrency, "concurrency", def.Concurrency, "Artists fetched in parallel")
	f.StringVar(&opts.cfg.BaseURL, "base-url", scraper.DefaultBaseURL, "Listing site base URL")
	f.StringVar(&opts.cfg.UserAgent, "user-agent", scraper.UserAgent, "User-Agent header for requests")
	f.DurationVar(&opts.cfg.Timeout, "timeout", def.Timeout, "HTTP timeout per request")
	f.StringVar(&opts.cfg.Format, "format", def.Format, "Output format: text or json")
	f.StringVar(&opts.cfg.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")

	cmd.AddCommand(newShowCmd(opts))
	return cmd
}

// resolveConfig merges the config file, explicitly set flags and positional
// artists.
func resolveConfig(cmd *cobra.Command, opts *options, args []string) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			apply()
		}
	}
	set("cache-dir", func() { cfg.CacheDir = opts.cfg.CacheDir })
	set("log-level", func() { cfg.LogLevel = opts.cfg.LogLevel })
	set("color", func() { cfg.Color = opts.cfg.Color })
	set("start-year", func() { cfg.StartYear = opts.cfg.StartYear })
	set("reference-year", func() { cfg.ReferenceYear = opts.cfg.ReferenceYear })
	set("strategy", func() { cfg.Strategy = opts.cfg.Strategy })
	set("concurrency", func() { cfg.Concurrency = opts.cfg.Concurrency })
	set("base-url", func() { cfg.BaseURL = opts.cfg.BaseURL })
	set("user-agent", func() { cfg.UserAgent = opts.cfg.UserAgent })
	set("timeout", func() { cfg.Timeout = opts.cfg.Timeout })
	set("format", func() { cfg.Format = strings.ToLower(opts.cfg.Format) })
	set("metrics-file", func() { cfg.MetricsFile = opts.cfg.MetricsFile })
	if opts.verbose {
		cfg.LogLevel = string(logger.LevelDebug)
	}

	cfg.AddArtists(args...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogger installs the run-scoped default logger.
func setupLogger(opts *options, cfg *config.Config) error {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetDefault(logger.New(level, opts.stderr).WithFields(logger.Fields{
		"run_id": uuid.New().String(),
	}))
	return nil
}

// runCheck is the main command logic
func runCheck(cmd *cobra.Command, opts *options, args []string) error {
	cfg, err := resolveConfig(cmd, opts, args)
	if err != nil {
		return err
	}
	if len(cfg.Artists) == 0 {
		return errors.New("at least one artist is required")
	}
	if err := setupLogger(opts, cfg); err != nil {
		return err
	}

	extractor, err := scraper.ExtractorByName(cfg.Strategy)
	if err != nil {
		return err
	}

	store, err := storage.New(cfg.CacheDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	rec := metrics.New()
	sc, err := scraper.New(scraper.Options{
		BaseURL:       cfg.BaseURL,
		UserAgent:     cfg.UserAgent,
		Timeout:       cfg.Timeout,
		Extractor:     extractor,
		Concurrency:   cfg.Concurrency,
		ReferenceYear: cfg.ReferenceYear,
		Metrics:       rec,
	})
	if err != nil {
		return fmt.Errorf("initializing scraper: %w", err)
	}

	logger.Info("Checking artists", logger.Fields{
		"artists":    cfg.Artists,
		"start_year": cfg.StartYear,
		"strategy":   extractor.Name(),
		"cache_dir":  store.Dir(),
		"dry_run":    opts.dryRun,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	results := sc.FetchAll(ctx, cfg.Artists, cfg.StartYear)

	outcome := reconcile(results, store, rec)
	for _, subject := range outcome.Unknown {
		fmt.Fprintf(opts.stderr, "warning: unknown artist %s\n", subject)
	}

	if err := WriteOutput(opts.stdout, outcome.Result(), OutputFormat(cfg.Format), lineStyle(opts.stdout, cfg.Color)); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if opts.dryRun {
		logger.Info("Dry run, snapshots not saved", nil)
	} else if err := outcome.Save(store); err != nil {
		return fmt.Errorf("saving snapshots: %w", err)
	}

	if cfg.MetricsFile != "" {
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("Writing metrics failed", logger.Fields{"path": cfg.MetricsFile}, err)
		}
	}

	switch {
	case len(outcome.Failed) > 0:
		opts.exitCode = ExitError
		return fmt.Errorf("%d artist(s) could not be checked", len(outcome.Failed))
	case outcome.ChangeCount() > 0:
		opts.exitCode = ExitChanges
	default:
		opts.exitCode = ExitSuccess
	}
	return nil
}

// Execute runs the CLI and returns the process exit code: 0 when nothing
// changed, 2 when changes were reported and 1 on error.
func Execute() int {
	opts := &options{stdout: os.Stdout, stderr: os.Stderr}
	return execute(newRootCmd(opts), opts)
}

func execute(cmd *cobra.Command, opts *options) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(opts.stderr, "Error: %v\n", err)
		return ExitError
	}
	return opts.exitCode
}
