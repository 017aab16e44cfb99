package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/chris-regnier/treecheck/internal/astcheck"
	"github.com/chris-regnier/treecheck/internal/cache"
	"github.com/chris-regnier/treecheck/internal/checks"
	"github.com/chris-regnier/treecheck/internal/config"
	"github.com/chris-regnier/treecheck/internal/filter"
	"github.com/chris-regnier/treecheck/internal/input"
	"github.com/chris-regnier/treecheck/internal/message"
	"github.com/chris-regnier/treecheck/internal/parse"
	"github.com/chris-regnier/treecheck/internal/rules"
	"github.com/chris-regnier/treecheck/internal/runner"
	"github.com/chris-regnier/treecheck/internal/sarif"
)

// engine is everything a command needs to check files: the bound checks,
// the shared walker, the filters and the message printer.
type engine struct {
	cfg         *config.Config
	registry    *astcheck.Registry
	specs       []astcheck.Spec
	checks      []*astcheck.Configured
	walker      *astcheck.Walker
	filters     filter.Chain
	catalog     *message.Catalog
	printer     *message.Printer
	fingerprint string

	// configErr holds the checks that failed to bind. The rest still run.
	configErr error
}

// newEngine builds the registry from the built-in checks and the pattern
// rules found under root, then binds the configured checks.
func newEngine(cfg *config.Config, root, locale string, logger *slog.Logger) (*engine, error) {
	reg, loaded, err := buildRegistry(cfg, root)
	if err != nil {
		return nil, err
	}
	specs := append(cfg.Specs(), ruleSpecs(cfg, loaded)...)
	sort.Slice(specs, func(i, j int) bool { return specs[i].ID < specs[j].ID })

	bound, configErr := astcheck.Configure(reg, specs)

	sup, err := filter.NewSuppressionFilter(cfg.Suppressions)
	if err != nil {
		return nil, errors.Wrap(err, "compiling suppressions")
	}

	catalog, err := message.Default()
	if err != nil {
		return nil, errors.Wrap(err, "loading messages")
	}
	if locale == "" {
		locale = cfg.Locale
	}

	return &engine{
		cfg:         cfg,
		registry:    reg,
		specs:       specs,
		checks:      bound,
		walker:      astcheck.NewWalker(bound, astcheck.WithLogger(logger)),
		filters:     filter.Chain{sup, filter.CommentFilter{}},
		catalog:     catalog,
		printer:     catalog.Printer(locale),
		fingerprint: cache.Fingerprint(version, specs),
		configErr:   configErr,
	}, nil
}

// buildRegistry returns the built-in checks plus, when enabled, the pattern
// rules of the embedded, user and project tiers.
func buildRegistry(cfg *config.Config, root string) (*astcheck.Registry, []rules.Rule, error) {
	reg := checks.DefaultRegistry()
	if !cfg.RulesEnabled() {
		return reg, nil, nil
	}
	userDir, projectDir := rules.DefaultDirs(root)
	loaded, err := rules.LoadRules(userDir, projectDir)
	if err != nil {
		return nil, nil, errors.Wrap(err, "loading rules")
	}
	rules.Register(reg, loaded)
	return reg, loaded, nil
}

// ruleSpecs enables every pattern rule that the configuration neither
// disables nor already configures under its own ID.
func ruleSpecs(cfg *config.Config, loaded []rules.Rule) []astcheck.Spec {
	var specs []astcheck.Spec
	for _, r := range loaded {
		if cfg.RuleDisabled(r.ID) {
			continue
		}
		if _, ok := cfg.Checks[r.ID]; ok {
			continue
		}
		specs = append(specs, astcheck.Spec{ID: r.ID, Severity: r.Level})
	}
	return specs
}

// reportConfigErrors prints one line per check that failed to bind.
func reportConfigErrors(w io.Writer, err error) {
	for _, e := range flatten(err) {
		fmt.Fprintf(w, "treecheck: config: %s\n", e)
		for _, h := range errors.GetAllHints(e) {
			fmt.Fprintf(w, "  hint: %s\n", h)
		}
	}
}

func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range j.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

// checkInfos describes the bound checks under their instance IDs.
func (e *engine) checkInfos() []checkInfo {
	infos := make([]checkInfo, 0, len(e.checks))
	for _, c := range e.checks {
		infos = append(infos, checkInfo{
			Name:      c.ID,
			Category:  c.Entry.Category,
			Languages: c.Entry.Languages,
			Summary:   summaryLine(c.Entry.Doc),
		})
	}
	return infos
}

// assemble turns a run report into a SARIF log.
func (e *engine) assemble(report *runner.Report, scope string) *sarif.Log {
	a := sarif.NewAssembler(version, e.printer).AddRules(e.checks).WithInputScope(scope)
	for _, f := range report.Files {
		a.AddFile(f.Result, f.ParseErrors)
	}
	return a.Build()
}

// checkSource checks one in-memory file without touching the cache.
func (e *engine) checkSource(ctx context.Context, path string, source []byte, logger *slog.Logger) (*sarif.Log, error) {
	lang, ok := parse.Detect(path)
	if !ok {
		return nil, errors.Wrapf(parse.ErrUnsupportedLanguage, "%s", path)
	}
	r := runner.New(e.walker, runner.Options{Workers: 1, Filters: e.filters, Logger: logger})
	fr, err := r.CheckFile(ctx, input.Artifact{Path: path, Language: lang, Content: source})
	if err != nil {
		return nil, err
	}
	return e.assemble(&runner.Report{Files: []runner.FileReport{fr}}, "source"), nil
}
