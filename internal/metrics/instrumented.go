package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/chris-regnier/treecheck"

// Instruments mirrors lint events into OTel counters and histograms, so the
// exporter configured by telemetry.Init sees them.
type Instruments struct {
	files      metric.Int64Counter
	violations metric.Int64Counter
	faults     metric.Int64Counter
	nodes      metric.Int64Counter
	duration   metric.Float64Histogram
}

// NewInstruments creates the instruments on the global meter provider.
func NewInstruments() (*Instruments, error) {
	return NewInstrumentsFor(otel.GetMeterProvider())
}

// NewInstrumentsFor creates the instruments on mp.
func NewInstrumentsFor(mp metric.MeterProvider) (*Instruments, error) {
	m := mp.Meter(meterName)
	var (
		in  Instruments
		err error
	)
	if in.files, err = m.Int64Counter("treecheck.files",
		metric.WithDescription("Files processed")); err != nil {
		return nil, err
	}
	if in.violations, err = m.Int64Counter("treecheck.violations",
		metric.WithDescription("Violations reported")); err != nil {
		return nil, err
	}
	if in.faults, err = m.Int64Counter("treecheck.faults",
		metric.WithDescription("Checks that failed on a file")); err != nil {
		return nil, err
	}
	if in.nodes, err = m.Int64Counter("treecheck.nodes",
		metric.WithDescription("AST nodes visited")); err != nil {
		return nil, err
	}
	if in.duration, err = m.Float64Histogram("treecheck.file.duration",
		metric.WithDescription("Time spent on one file"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	return &in, nil
}

// Record implements Sink.
func (in *Instruments) Record(e LintEvent) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("language", e.Language),
		attribute.String("cache", string(e.CacheResult)),
	)
	in.files.Add(ctx, 1, attrs)
	in.violations.Add(ctx, int64(e.Violations), attrs)
	in.faults.Add(ctx, int64(e.Faults), attrs)
	in.nodes.Add(ctx, int64(e.Nodes), attrs)
	in.duration.Record(ctx, float64(e.Duration)/1e6, attrs)
}
