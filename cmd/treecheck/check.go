package main

import (
	"context"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/chris-regnier/treecheck/internal/cache"
	"github.com/chris-regnier/treecheck/internal/config"
	"github.com/chris-regnier/treecheck/internal/evaluator"
	"github.com/chris-regnier/treecheck/internal/input"
	"github.com/chris-regnier/treecheck/internal/metrics"
	"github.com/chris-regnier/treecheck/internal/output"
	"github.com/chris-regnier/treecheck/internal/runner"
	"github.com/chris-regnier/treecheck/internal/store"
	"github.com/chris-regnier/treecheck/internal/telemetry"
)

type checkOptions struct {
	config  string
	format  string
	output  string
	rego    string
	locale  string
	diff    string
	metrics string
	workers int
	noCache bool
}

func newCheckCmd() *cobra.Command {
	var opts checkOptions
	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Check files and directories",
		Long: `Check parses every supported file under the given paths, runs the
configured checks over its syntax tree and prints the findings.

The exit status is 1 when the gate policy decides "fail".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.config, "config", "c", "", "Project config file (default .treecheck/config.yaml)")
	f.StringVarP(&opts.format, "format", "f", "", "Output format: json, sarif, markdown, pretty, checkstyle (default pretty on a terminal, json otherwise)")
	f.StringVarP(&opts.output, "output", "o", "", "Directory to store the SARIF log and verdict in")
	f.StringVar(&opts.rego, "rego", ".treecheck/rego", "Rego policy file or directory for the gate")
	f.StringVar(&opts.locale, "locale", "", "Message locale (BCP 47 tag)")
	f.StringVar(&opts.diff, "diff", "", "Only check files changed in this unified diff (- for stdin)")
	f.StringVar(&opts.metrics, "metrics", "", "Write per-file metrics to this path (CSV for .csv, JSON otherwise)")
	f.IntVarP(&opts.workers, "workers", "j", 0, "Number of files checked in parallel (default GOMAXPROCS)")
	f.BoolVar(&opts.noCache, "no-cache", false, "Do not read or write the result cache")
	return cmd
}

func loadConfig(projectPath string) (*config.Config, error) {
	machine, project := config.DefaultPaths(".")
	if projectPath != "" {
		project = projectPath
	}
	cfg, err := config.LoadTiered(machine, project)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runCheck(cmd *cobra.Command, args []string, opts checkOptions) error {
	ctx := cmd.Context()
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}
	if opts.workers > 0 {
		cfg.Workers = opts.workers
	}

	eng, err := newEngine(cfg, ".", opts.locale, logger)
	if err != nil {
		return err
	}
	reportConfigErrors(stderr, eng.configErr)
	if len(eng.checks) == 0 {
		return errors.New("no checks to run")
	}

	artifacts, scope, err := readInputs(cmd.InOrStdin(), cfg, args, opts.diff)
	if err != nil {
		return err
	}
	logger.Info("checking", "files", len(artifacts), "checks", len(eng.checks))

	shutdown, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		logger.Warn("telemetry disabled", "err", err)
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("telemetry shutdown", "err", err)
			}
		}()
	}

	collector := metrics.NewCollector()
	sinks := []metrics.Sink{collector}
	if in, err := metrics.NewInstruments(); err == nil {
		sinks = append(sinks, in)
	} else {
		logger.Warn("metric instruments unavailable", "err", err)
	}

	runOpts := runner.Options{
		Workers:     cfg.Workers,
		Fingerprint: eng.fingerprint,
		Filters:     eng.filters,
		Recorder:    metrics.NewRecorder(sinks...),
		Logger:      output.WithComponent(logger, "runner"),
	}
	if cfg.CacheEnabled() && !opts.noCache {
		c := openCache(cfg.Cache.Path)
		defer c.Close()
		runOpts.Cache = c
	}

	report, err := runner.New(eng.walker, runOpts).Run(ctx, artifacts)
	if err != nil {
		return errors.Wrap(err, "checking files")
	}
	for _, fe := range report.Errors {
		logger.Warn("skipped file", "path", fe.Path, "err", fe.Err)
	}

	log := eng.assemble(report, scope)

	eval, err := evaluator.NewEvaluator(opts.rego)
	if err != nil {
		return errors.Wrap(err, "creating evaluator")
	}
	verdict, err := eval.Evaluate(ctx, log)
	if err != nil {
		return errors.Wrap(err, "evaluating")
	}

	if opts.output != "" {
		fs := store.NewFileStore(opts.output)
		id, err := fs.WriteSARIF(ctx, log)
		if err != nil {
			return errors.Wrap(err, "storing SARIF")
		}
		if err := fs.WriteVerdict(ctx, id, verdict); err != nil {
			return errors.Wrap(err, "storing verdict")
		}
		logger.Info("stored results", "id", id, "dir", opts.output)
	}
	exporter := metrics.NewExporter(collector)
	if opts.metrics != "" {
		if err := exporter.Export(opts.metrics); err != nil {
			return errors.Wrap(err, "exporting metrics")
		}
	}
	if flagVerbose && !flagQuiet {
		if err := exporter.WriteReport(stderr); err != nil {
			return err
		}
	}

	tty := isTerminal(stdout)
	format := output.ResolveFormat(opts.format, tty)
	formatter, err := output.NewFormatter(format)
	if err != nil {
		return err
	}
	if p, ok := formatter.(*output.PrettyFormatter); ok {
		p.Color = tty && os.Getenv("NO_COLOR") == ""
	}

	stats := collector.Stats()
	sources := make(map[string][]byte, len(artifacts))
	for _, a := range artifacts {
		sources[a.Path] = a.Content
	}
	out, err := formatter.Format(&output.AnalysisOutput{
		Verdict:  verdict,
		SARIFLog: log,
		Stats:    &stats,
		Sources:  sources,
	})
	if err != nil {
		return errors.Wrap(err, "formatting output")
	}
	if _, err := stdout.Write(out); err != nil {
		return err
	}

	if verdict.Decision == evaluator.Fail {
		return errGateFailed
	}
	return nil
}

// readInputs resolves the files to check and names the input scope.
func readInputs(stdin io.Reader, cfg *config.Config, args []string, diff string) ([]input.Artifact, string, error) {
	h := input.NewHandler(cfg.Include, cfg.Exclude, output.WithComponent(logger, "input"))

	if diff != "" {
		var (
			data []byte
			err  error
		)
		if diff == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(diff)
		}
		if err != nil {
			return nil, "", errors.Wrap(err, "reading diff")
		}
		var paths []string
		for _, p := range input.ChangedPaths(string(data)) {
			if _, err := os.Stat(p); err == nil {
				paths = append(paths, p)
			}
		}
		artifacts, err := h.Read(paths)
		return artifacts, "diff", errors.Wrap(err, "reading input")
	}

	if len(args) == 0 {
		args = []string{"."}
	}
	artifacts, err := h.Read(args)
	if err != nil {
		return nil, "", errors.Wrap(err, "reading input")
	}
	scope := "files"
	if len(args) == 1 {
		if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
			scope = "directory"
		}
	}
	return artifacts, scope, nil
}

// openCache layers an in-memory cache over the SQLite database, falling
// back to memory alone when the database cannot be opened.
func openCache(path string) cache.Cache {
	mem := cache.NewMemoryCache()
	if path == "" {
		return mem
	}
	db, err := cache.NewSQLiteCache(path)
	if err != nil {
		logger.Warn("persistent cache unavailable", "path", path, "err", err)
		return mem
	}
	return cache.NewTieredCache(mem, db, output.WithComponent(logger, "cache"))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
