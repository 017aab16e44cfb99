// Package metrics records per-file check timings and counts.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// CacheResult indicates whether a cache lookup was a hit or miss
type CacheResult string

const (
	CacheHit      CacheResult = "hit"
	CacheMiss     CacheResult = "miss"
	CacheDisabled CacheResult = "disabled"
)

// LintEvent captures one file passing through the runner.
type LintEvent struct {
	Timestamp time.Time `json:"timestamp"`

	File      string `json:"file"`
	Language  string `json:"language"`
	FileSize  int    `json:"file_size"`
	LineCount int    `json:"line_count"`

	ParseDuration time.Duration `json:"parse_duration"`
	WalkDuration  time.Duration `json:"walk_duration"`
	Duration      time.Duration `json:"duration"`

	Nodes       int         `json:"nodes"`
	Violations  int         `json:"violations"`
	Faults      int         `json:"faults"`
	ParseErrors int         `json:"parse_errors"`
	CacheResult CacheResult `json:"cache_result"`

	Error string `json:"error,omitempty"`
}

// CacheHit reports whether the event was served from the cache.
func (e LintEvent) CacheHit() bool { return e.CacheResult == CacheHit }

// AggregateStats holds computed aggregate statistics
type AggregateStats struct {
	TotalFiles      int64 `json:"total_files"`
	TotalErrors     int64 `json:"total_errors"`
	TotalViolations int64 `json:"total_violations"`
	TotalFaults     int64 `json:"total_faults"`
	TotalNodes      int64 `json:"total_nodes"`

	// Latency stats (in milliseconds for JSON readability)
	AvgDurationMs float64 `json:"avg_duration_ms"`
	P50DurationMs float64 `json:"p50_duration_ms"`
	P95DurationMs float64 `json:"p95_duration_ms"`
	P99DurationMs float64 `json:"p99_duration_ms"`
	MaxDurationMs float64 `json:"max_duration_ms"`
	AvgParseMs    float64 `json:"avg_parse_ms"`
	AvgWalkMs     float64 `json:"avg_walk_ms"`

	CacheHits    int64   `json:"cache_hits"`
	CacheMisses  int64   `json:"cache_misses"`
	CacheHitRate float64 `json:"cache_hit_rate"`

	ViolationsPerFile float64 `json:"violations_per_file"`
	NodesPerSecond    float64 `json:"nodes_per_second"`

	ByLanguage map[string]*LanguageStats `json:"by_language"`

	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

// LanguageStats holds stats for one language.
type LanguageStats struct {
	Files         int64   `json:"files"`
	Violations    int64   `json:"violations"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

type atomicCounters struct {
	totalFiles      atomic.Int64
	totalErrors     atomic.Int64
	totalViolations atomic.Int64
	totalFaults     atomic.Int64
	totalNodes      atomic.Int64
	cacheHits       atomic.Int64
	cacheMisses     atomic.Int64
}

// Collector collects and stores lint events. It is safe for concurrent use.
type Collector struct {
	mu       sync.RWMutex
	events   []LintEvent
	counters atomicCounters

	maxEvents  int
	windowSize time.Duration
	now        func() time.Time

	startTime time.Time
}

// CollectorOption configures a Collector
type CollectorOption func(*Collector)

// WithMaxEvents sets the maximum number of events to retain
func WithMaxEvents(n int) CollectorOption {
	return func(c *Collector) {
		c.maxEvents = n
	}
}

// WithWindowSize sets the time window for aggregate stats
func WithWindowSize(d time.Duration) CollectorOption {
	return func(c *Collector) {
		c.windowSize = d
	}
}

// NewCollector creates a new metrics collector
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{
		events:     make([]LintEvent, 0, 256),
		maxEvents:  10000,
		windowSize: 1 * time.Hour,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.startTime = c.now()
	return c
}

// Record adds an event to the collector.
func (c *Collector) Record(event LintEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = c.now()
	}

	c.counters.totalFiles.Add(1)
	c.counters.totalViolations.Add(int64(event.Violations))
	c.counters.totalFaults.Add(int64(event.Faults))
	c.counters.totalNodes.Add(int64(event.Nodes))
	if event.Error != "" {
		c.counters.totalErrors.Add(1)
	}
	switch event.CacheResult {
	case CacheHit:
		c.counters.cacheHits.Add(1)
	case CacheMiss:
		c.counters.cacheMisses.Add(1)
	}

	if c.maxEvents <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, event)
	if len(c.events) > c.maxEvents {
		// Drop the oldest 10%.
		prune := c.maxEvents / 10
		if prune == 0 {
			prune = 1
		}
		c.events = c.events[prune:]
	}
}

// Stats computes aggregate statistics from collected events
func (c *Collector) Stats() AggregateStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	windowStart := now.Add(-c.windowSize)

	stats := AggregateStats{
		TotalFiles:      c.counters.totalFiles.Load(),
		TotalErrors:     c.counters.totalErrors.Load(),
		TotalViolations: c.counters.totalViolations.Load(),
		TotalFaults:     c.counters.totalFaults.Load(),
		TotalNodes:      c.counters.totalNodes.Load(),
		CacheHits:       c.counters.cacheHits.Load(),
		CacheMisses:     c.counters.cacheMisses.Load(),
		ByLanguage:      make(map[string]*LanguageStats),
		WindowStart:     windowStart,
		WindowEnd:       now,
	}

	if ops := stats.CacheHits + stats.CacheMisses; ops > 0 {
		stats.CacheHitRate = float64(stats.CacheHits) / float64(ops)
	}
	if stats.TotalFiles > 0 {
		stats.ViolationsPerFile = float64(stats.TotalViolations) / float64(stats.TotalFiles)
	}

	var window []LintEvent
	for _, e := range c.events {
		if e.Timestamp.After(windowStart) {
			window = append(window, e)
		}
	}
	if len(window) == 0 {
		return stats
	}

	durations := make([]float64, 0, len(window))
	var sum, sumParse, sumWalk float64
	var walked time.Duration
	var walkedNodes int64
	for _, e := range window {
		ms := float64(e.Duration) / float64(time.Millisecond)
		durations = append(durations, ms)
		sum += ms
		sumParse += float64(e.ParseDuration) / float64(time.Millisecond)
		sumWalk += float64(e.WalkDuration) / float64(time.Millisecond)
		if !e.CacheHit() {
			walked += e.ParseDuration + e.WalkDuration
			walkedNodes += int64(e.Nodes)
		}

		ls := stats.ByLanguage[e.Language]
		if ls == nil {
			ls = &LanguageStats{}
			stats.ByLanguage[e.Language] = ls
		}
		ls.Files++
		ls.Violations += int64(e.Violations)
		ls.AvgDurationMs += ms
	}
	for _, ls := range stats.ByLanguage {
		ls.AvgDurationMs /= float64(ls.Files)
	}

	n := float64(len(window))
	stats.AvgDurationMs = sum / n
	stats.AvgParseMs = sumParse / n
	stats.AvgWalkMs = sumWalk / n

	sort.Float64s(durations)
	stats.P50DurationMs = percentile(durations, 0.50)
	stats.P95DurationMs = percentile(durations, 0.95)
	stats.P99DurationMs = percentile(durations, 0.99)
	stats.MaxDurationMs = durations[len(durations)-1]

	if walked > 0 {
		stats.NodesPerSecond = float64(walkedNodes) / walked.Seconds()
	}
	return stats
}

// RecentEvents returns the most recent n events
func (c *Collector) RecentEvents(n int) []LintEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n > len(c.events) {
		n = len(c.events)
	}
	if n <= 0 {
		return nil
	}
	result := make([]LintEvent, n)
	copy(result, c.events[len(c.events)-n:])
	return result
}

// Reset clears all collected metrics
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = c.events[:0]
	c.counters = atomicCounters{}
	c.startTime = c.now()
}

// percentile returns the value at the given percentile (0.0-1.0)
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}
