// Package runner checks a batch of files concurrently with one shared walker.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/chris-regnier/treecheck/internal/astcheck"
	"github.com/chris-regnier/treecheck/internal/cache"
	"github.com/chris-regnier/treecheck/internal/filter"
	"github.com/chris-regnier/treecheck/internal/input"
	"github.com/chris-regnier/treecheck/internal/metrics"
	"github.com/chris-regnier/treecheck/internal/parse"
	"github.com/chris-regnier/treecheck/internal/telemetry"
)

// FileReport is the outcome of checking one file.
type FileReport struct {
	Result      *astcheck.FileResult
	ParseErrors int
	CacheHit    bool
	Duration    time.Duration
}

// FileError records a file that could not be checked at all.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Report collects every file of a run, ordered by path.
type Report struct {
	Files  []FileReport
	Errors []FileError
}

// Violations returns the number of violations across all files.
func (r *Report) Violations() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Result.Violations)
	}
	return n
}

// Faults returns the number of check faults across all files.
func (r *Report) Faults() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Result.Faults)
	}
	return n
}

// Options configures a Runner. The zero value checks files with
// GOMAXPROCS workers and no cache.
type Options struct {
	Workers     int
	Cache       cache.Cache
	Fingerprint string
	Filters     filter.Chain
	Recorder    *metrics.Recorder
	Logger      *slog.Logger
}

// Runner drives parse, walk and filter for each file. The walker is shared
// read-only between workers; every walk builds its own visitors.
type Runner struct {
	walker *astcheck.Walker
	opts   Options
}

func New(walker *astcheck.Walker, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoOpRecorder()
	}
	return &Runner{walker: walker, opts: opts}
}

// Run checks artifacts concurrently. A file that cannot be parsed or walked
// is recorded in Report.Errors and does not stop the run; cancelling ctx
// does.
func (r *Runner) Run(ctx context.Context, artifacts []input.Artifact) (*Report, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "run")
	defer span.End()
	span.SetAttributes(
		attribute.Int("treecheck.files", len(artifacts)),
		attribute.Int("treecheck.workers", r.opts.Workers),
		attribute.Int("treecheck.checks", len(r.walker.Checks())),
	)

	var (
		mu     sync.Mutex
		report = &Report{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for _, a := range artifacts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fr, err := r.CheckFile(gctx, a)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Files = append(report.Files, fr)
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			default:
				r.opts.Logger.Warn("file not checked", "path", a.Path, "err", err)
				report.Errors = append(report.Errors, FileError{Path: a.Path, Err: err.Error()})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(report.Files, func(i, j int) bool { return report.Files[i].Result.Path < report.Files[j].Result.Path })
	sort.Slice(report.Errors, func(i, j int) bool { return report.Errors[i].Path < report.Errors[j].Path })
	span.SetAttributes(attribute.Int("treecheck.violations", report.Violations()))
	return report, nil
}

// CheckFile runs the cache lookup, parse, walk and filters for one file.
func (r *Runner) CheckFile(ctx context.Context, a input.Artifact) (FileReport, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "check file")
	defer span.End()
	span.SetAttributes(
		attribute.String("treecheck.file", a.Path),
		attribute.String("treecheck.language", a.Language),
	)

	start := time.Now()
	rec := r.opts.Recorder.StartFile(a.Path, a.Language, a.Content)
	fail := func(err error) (FileReport, error) {
		rec.CompleteWithError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return FileReport{}, err
	}

	lang := a.Language
	if lang == "" {
		var ok bool
		if lang, ok = parse.Detect(a.Path); !ok {
			return fail(fmt.Errorf("%s: %w", a.Path, parse.ErrUnsupportedLanguage))
		}
	}

	var key cache.Key
	if r.opts.Cache != nil {
		key = cache.NewKey(a.Path, lang, a.Content, r.opts.Fingerprint)
		entry, err := r.opts.Cache.Get(ctx, key)
		switch {
		case err == nil:
			rec.CacheResult(metrics.CacheHit)
			res := &astcheck.FileResult{
				Path:       a.Path,
				Language:   lang,
				Violations: append([]astcheck.Violation{}, entry.Violations...),
				Faults:     entry.Faults,
				Nodes:      entry.Nodes,
			}
			r.opts.Filters.Apply(res, a.Content)
			rec.Complete(res.Nodes, len(res.Violations), len(res.Faults))
			r.opts.Logger.Debug("cache hit", "path", a.Path, "violations", len(res.Violations))
			span.SetAttributes(attribute.Bool("treecheck.cache_hit", true))
			return FileReport{Result: res, ParseErrors: entry.ParseErrors, CacheHit: true, Duration: time.Since(start)}, nil
		case errors.Is(err, cache.ErrCacheMiss):
			rec.CacheResult(metrics.CacheMiss)
		default:
			rec.CacheResult(metrics.CacheMiss)
			r.opts.Logger.Warn("cache lookup failed", "path", a.Path, "err", err)
		}
	}

	tree, err := parse.ParseLanguage(ctx, lang, a.Path, a.Content, parse.Options{Trivia: r.walker.WantsTrivia()})
	if err != nil {
		return fail(err)
	}
	parseErrors := tree.ErrorCount()
	rec.Parsed(parseErrors)
	if parseErrors > 0 {
		r.opts.Logger.Warn("file has syntax errors", "path", a.Path, "errors", parseErrors)
	}

	res, err := r.walker.Walk(tree)
	if err != nil {
		return fail(err)
	}
	rec.Walked()

	if r.opts.Cache != nil {
		entry := &cache.Entry{
			Key:         key,
			Violations:  append([]astcheck.Violation(nil), res.Violations...),
			Faults:      res.Faults,
			Nodes:       res.Nodes,
			ParseErrors: parseErrors,
			Timestamp:   time.Now().Unix(),
		}
		if err := r.opts.Cache.Put(ctx, entry); err != nil {
			r.opts.Logger.Warn("cache store failed", "path", a.Path, "err", err)
		}
	}

	r.opts.Filters.Apply(res, a.Content)
	ev := rec.Complete(res.Nodes, len(res.Violations), len(res.Faults))
	r.opts.Logger.Debug("checked file",
		"path", a.Path,
		"nodes", res.Nodes,
		"violations", len(res.Violations),
		"parse", ev.ParseDuration,
		"walk", ev.WalkDuration,
	)
	span.SetAttributes(
		attribute.Int("treecheck.nodes", res.Nodes),
		attribute.Int("treecheck.violations", len(res.Violations)),
	)
	return FileReport{Result: res, ParseErrors: parseErrors, Duration: time.Since(start)}, nil
}
