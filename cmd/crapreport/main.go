package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/unbound-force/crapreport/internal/config"
	"github.com/unbound-force/crapreport/internal/coverage"
	"github.com/unbound-force/crapreport/internal/crap"
	"github.com/unbound-force/crapreport/internal/lang"
	"github.com/unbound-force/crapreport/internal/loader"
	"github.com/unbound-force/crapreport/internal/progress"
	"github.com/unbound-force/crapreport/internal/report"
	"github.com/unbound-force/crapreport/internal/selector"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// Set by build flags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := &cobra.Command{
		Use:   "crapreport",
		Short: "crapreport: rank functions by change risk (CRAP score)",
		Long: `crapreport combines cyclomatic complexity with line coverage
into a CRAP score per function, then ranks functions, files and
folders by risk. Go and Python sources are supported.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newReportCmd())
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newInitCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		// A failing go test run keeps its own exit status.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

// reportParams holds the resolved settings for the report command.
type reportParams struct {
	ctx         context.Context
	cfg         *config.Config
	dir         string
	args        []string
	interactive bool
	progress    bool
	stdout      io.Writer
	stderr      io.Writer
}

// runReport is the extracted, testable body of the report command.
// Per-file scoring problems are logged and never fail the command;
// a failing go test run is returned after the report is written.
func runReport(p reportParams) error {
	if p.ctx == nil {
		p.ctx = context.Background()
	}
	if err := p.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	profile, testErr, err := loadProfile(p)
	if err != nil {
		return err
	}

	filter, err := buildFilter(p)
	if err != nil {
		return err
	}

	opts := crap.Options{
		Workers:         p.cfg.Workers,
		Filter:          filter,
		IgnoreGenerated: p.cfg.IgnoreGenerated,
	}
	if p.progress {
		total := 0
		for _, f := range profile.Files() {
			if filter(f) {
				total++
			}
		}
		tracker := progress.NewTracker(p.stderr, "Scoring", total)
		opts.OnProgress = tracker.Tick
		defer tracker.Finish()
	}

	logger.Info("computing CRAP scores", "files", len(profile))
	res, err := crap.Analyze(p.ctx, profile, opts)
	if err != nil {
		return err
	}
	for _, s := range res.Skipped {
		logger.Warn("skipped file", "file", s.File, "reason", s.Reason, "err", s.Err)
	}
	if n := len(res.Unmatched); n > 0 {
		logger.Warn("functions without complexity data scored as 0", "count", n)
	}
	logger.Info("analysis complete", "functions", len(res.Scores), "files", res.Files)

	rpt := report.New(res, p.cfg.AggregateOptions())
	rpt.Root = p.dir

	if p.interactive {
		if err := runInteractiveReport(rpt); err != nil {
			return err
		}
	} else if err := writeReport(p.stdout, p.cfg.Format, rpt); err != nil {
		return err
	}
	return testErr
}

// loadProfile reads the configured coverage file or, for Go modules,
// produces one with go test. testErr is non-nil when go test failed
// but still wrote a usable profile.
func loadProfile(p reportParams) (profile coverage.Profile, testErr error, err error) {
	format, err := coverage.ParseFormat(p.cfg.CoverFormat)
	if err != nil {
		return nil, nil, err
	}

	path := p.cfg.CoverProfile
	if path == "" {
		if !coverage.HasGoModule(p.dir) {
			return nil, nil, fmt.Errorf("no coverage file given (--coverprofile) and no go.mod in %s", p.dir)
		}
		path, testErr = generateProfile(p)
		if path == "" {
			return nil, nil, testErr
		}
		defer os.Remove(path)
		if testErr != nil {
			logger.Warn("go test failed; reporting coverage from the packages that ran")
		}
		format = coverage.FormatGo
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(p.dir, path)
	}

	profile, err = coverage.Load(path, coverage.Options{Format: format, Dir: p.dir})
	if err != nil {
		return nil, nil, err
	}
	return profile, testErr, nil
}

func generateProfile(p reportParams) (string, error) {
	patterns := goPatterns(p.args)
	logger.Info("running go test", "patterns", patterns)
	if p.progress {
		spinner := progress.NewSpinner(p.stderr, "Running go test")
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					spinner.Finish()
					return
				case <-ticker.C:
					spinner.Tick()
				}
			}
		}()
	}
	return coverage.GenerateGoProfile(p.ctx, p.dir, patterns)
}

// goPatterns keeps the arguments that name Go packages.
func goPatterns(args []string) []string {
	var patterns []string
	for _, a := range args {
		if strings.HasSuffix(a, ".py") {
			continue
		}
		patterns = append(patterns, a)
	}
	if len(patterns) == 0 {
		return []string{"./..."}
	}
	return patterns
}

// buildFilter combines the selection policy with the positional
// arguments: Go files must belong to the named packages, other files
// must lie under one of the named paths.
func buildFilter(p reportParams) (func(string) bool, error) {
	policy, err := selector.New(p.cfg.EnabledLanguages(), p.cfg.Include, p.cfg.Exclude, p.dir)
	if err != nil {
		return nil, err
	}
	if len(p.args) == 0 {
		return policy.Allow, nil
	}

	var goFiles map[string]bool
	if coverage.HasGoModule(p.dir) {
		files, err := loader.GoFiles(p.dir, goPatterns(p.args))
		if err != nil {
			return nil, err
		}
		goFiles = loader.Set(files)
	}

	prefixes := make([]string, 0, len(p.args))
	for _, a := range p.args {
		a = strings.TrimSuffix(a, "...")
		if !filepath.IsAbs(a) {
			a = filepath.Join(p.dir, a)
		}
		prefixes = append(prefixes, filepath.Clean(a))
	}

	return func(path string) bool {
		if !policy.Allow(path) {
			return false
		}
		if goFiles != nil && lang.Detect(path) == lang.Go {
			return goFiles[path]
		}
		abs := path
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(p.dir, abs)
		}
		for _, prefix := range prefixes {
			if abs == prefix || strings.HasPrefix(abs, prefix+string(filepath.Separator)) {
				return true
			}
		}
		return false
	}, nil
}

// writeReport outputs the report in the requested format.
func writeReport(w io.Writer, format string, rpt *report.Report) error {
	switch format {
	case config.FormatJSON:
		return report.WriteJSON(w, rpt)
	case config.FormatMarkdown:
		return report.WriteMarkdown(w, rpt)
	default:
		return report.WriteText(w, rpt)
	}
}

// reportFlags are the command-line overrides of config values.
type reportFlags struct {
	configPath   string
	coverProfile string
	coverFormat  string
	threshold    float64
	topN         int
	format       string
	workers      int
	interactive  bool
	progress     bool
}

// resolveConfig loads the config file and applies explicitly set flags.
func resolveConfig(cmd *cobra.Command, dir string, f reportFlags) (*config.Config, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if f.configPath != "" {
		path = f.configPath
		cfg, err = config.Load(path)
	} else {
		cfg, path, err = config.LoadOrDefault(dir)
	}
	if err != nil {
		return nil, err
	}
	if path != "" {
		logger.Debug("loaded config", "path", path)
	}

	flags := cmd.Flags()
	if flags.Changed("coverprofile") {
		cfg.CoverProfile = f.coverProfile
	}
	if flags.Changed("cover-format") {
		cfg.CoverFormat = f.coverFormat
	}
	if flags.Changed("threshold") {
		cfg.Threshold = f.threshold
	}
	if flags.Changed("top-n") {
		cfg.TopN = f.topN
	}
	if flags.Changed("format") {
		cfg.Format = f.format
	}
	if flags.Changed("workers") {
		cfg.Workers = f.workers
	}
	return cfg, nil
}

func newReportCmd() *cobra.Command {
	var f reportFlags

	cmd := &cobra.Command{
		Use:   "report [packages or paths...]",
		Short: "Compute and rank CRAP scores",
		Long: `Compute CRAP (Change Risk Anti-Patterns) scores by combining
cyclomatic complexity with line coverage, then rank functions,
files and folders.

Coverage is read from --coverprofile (Go cover profile, coverage.py
.coverage data file or JSON report, LCOV). Without it, a Go module runs 'go test -coverprofile'
automatically. Arguments restrict the report to Go packages or to
paths.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting working directory: %w", err)
			}
			cfg, err := resolveConfig(cmd, dir, f)
			if err != nil {
				return err
			}
			return runReport(reportParams{
				ctx:         cmd.Context(),
				cfg:         cfg,
				dir:         dir,
				args:        args,
				interactive: f.interactive,
				progress:    f.progress,
				stdout:      cmd.OutOrStdout(),
				stderr:      cmd.ErrOrStderr(),
			})
		},
	}

	def := config.DefaultConfig()
	cmd.Flags().StringVar(&f.configPath, "config", "",
		"config file (default: .crapreport.yaml and friends in the working directory)")
	cmd.Flags().StringVar(&f.coverProfile, "coverprofile", "",
		"coverage file (default: generate via go test in Go modules)")
	cmd.Flags().StringVar(&f.coverFormat, "cover-format", "",
		"coverage format: go, coveragepy, coveragedb or lcov (default: detect)")
	cmd.Flags().Float64Var(&f.threshold, "threshold", def.Threshold,
		"CRAP score counted as above threshold (inclusive)")
	cmd.Flags().IntVar(&f.topN, "top-n", def.TopN,
		"rows per ranking (0 = all)")
	cmd.Flags().StringVar(&f.format, "format", def.Format,
		"output format: text, json, or markdown")
	cmd.Flags().IntVar(&f.workers, "workers", def.Workers,
		"parallel file workers (0 = 2x CPUs)")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false,
		"launch interactive TUI for browsing the report")
	cmd.Flags().BoolVar(&f.progress, "progress", false,
		"show progress on stderr")

	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for crapreport JSON output",
		Long: `Print the JSON Schema (Draft 2020-12) that documents the
structure of crapreport report --format=json output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), report.Schema)
			return err
		},
	}
}

// initParams holds the parsed flags for the init command.
type initParams struct {
	dir    string
	force  bool
	stdout io.Writer
}

// runInit writes the default config file into dir.
func runInit(p initParams) error {
	path := filepath.Join(p.dir, config.FileNames[0])
	if _, err := os.Stat(path); err == nil && !p.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := config.Write(f, config.DefaultConfig()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(p.stdout, "wrote %s\n", path)
	return nil
}

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default .crapreport.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting working directory: %w", err)
			}
			return runInit(initParams{dir: dir, force: force, stdout: cmd.OutOrStdout()})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
