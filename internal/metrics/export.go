package metrics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Exporter handles exporting metrics to various formats
type Exporter struct {
	collector *Collector
}

// NewExporter creates a new metrics exporter
func NewExporter(collector *Collector) *Exporter {
	return &Exporter{collector: collector}
}

// ExportJSON writes stats and recent events to a JSON file
func (e *Exporter) ExportJSON(path string) error {
	report := struct {
		GeneratedAt time.Time      `json:"generated_at"`
		Stats       AggregateStats `json:"stats"`
		Events      []LintEvent    `json:"events"`
	}{
		GeneratedAt: time.Now(),
		Stats:       e.collector.Stats(),
		Events:      e.collector.RecentEvents(1000),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Export writes to path as CSV when it ends in .csv and as JSON otherwise.
func (e *Exporter) Export(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return e.ExportJSON(path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := e.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteReport writes a human-readable report to the given writer
func (e *Exporter) WriteReport(w io.Writer) error {
	stats := e.collector.Stats()

	fmt.Fprintf(w, "=== Summary ===\n")
	fmt.Fprintf(w, "Files:           %d\n", stats.TotalFiles)
	fmt.Fprintf(w, "Errors:          %d (%.1f%%)\n",
		stats.TotalErrors,
		safePercent(float64(stats.TotalErrors), float64(stats.TotalFiles)))
	fmt.Fprintf(w, "Violations:      %d\n", stats.TotalViolations)
	fmt.Fprintf(w, "Faults:          %d\n", stats.TotalFaults)
	fmt.Fprintf(w, "Nodes:           %d\n", stats.TotalNodes)
	fmt.Fprintf(w, "Violations/file: %.2f\n\n", stats.ViolationsPerFile)

	fmt.Fprintf(w, "=== Latency ===\n")
	fmt.Fprintf(w, "Average:  %.2fms (parse %.2fms, walk %.2fms)\n", stats.AvgDurationMs, stats.AvgParseMs, stats.AvgWalkMs)
	fmt.Fprintf(w, "P50:      %.2fms\n", stats.P50DurationMs)
	fmt.Fprintf(w, "P95:      %.2fms\n", stats.P95DurationMs)
	fmt.Fprintf(w, "Max:      %.2fms\n", stats.MaxDurationMs)
	fmt.Fprintf(w, "Nodes/s:  %.0f\n\n", stats.NodesPerSecond)

	fmt.Fprintf(w, "=== Cache ===\n")
	fmt.Fprintf(w, "Hits:     %d\n", stats.CacheHits)
	fmt.Fprintf(w, "Misses:   %d\n", stats.CacheMisses)
	fmt.Fprintf(w, "Hit Rate: %.1f%%\n", stats.CacheHitRate*100)

	if len(stats.ByLanguage) > 0 {
		fmt.Fprintf(w, "\n=== By Language ===\n")
		langs := make([]string, 0, len(stats.ByLanguage))
		for l := range stats.ByLanguage {
			langs = append(langs, l)
		}
		sort.Strings(langs)
		for _, l := range langs {
			ls := stats.ByLanguage[l]
			fmt.Fprintf(w, "%s: %d files, %d violations, %.2fms avg\n", l, ls.Files, ls.Violations, ls.AvgDurationMs)
		}
	}
	return nil
}

// WriteCSV writes retained events in CSV format.
func (e *Exporter) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"timestamp", "file", "language", "file_size", "line_count",
		"parse_ms", "walk_ms", "duration_ms",
		"nodes", "violations", "faults", "parse_errors", "cache_result", "error",
	}); err != nil {
		return err
	}
	for _, ev := range e.collector.RecentEvents(e.collector.maxEvents) {
		if err := cw.Write([]string{
			ev.Timestamp.Format(time.RFC3339),
			ev.File,
			ev.Language,
			strconv.Itoa(ev.FileSize),
			strconv.Itoa(ev.LineCount),
			ms(ev.ParseDuration),
			ms(ev.WalkDuration),
			ms(ev.Duration),
			strconv.Itoa(ev.Nodes),
			strconv.Itoa(ev.Violations),
			strconv.Itoa(ev.Faults),
			strconv.Itoa(ev.ParseErrors),
			string(ev.CacheResult),
			ev.Error,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ms(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 3, 64)
}

func safePercent(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return (numerator / denominator) * 100
}
