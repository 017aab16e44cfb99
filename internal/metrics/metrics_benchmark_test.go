package metrics

import (
	"testing"
	"time"
)

func BenchmarkCollector_Record(b *testing.B) {
	c := NewCollector()
	event := LintEvent{
		Timestamp:   time.Now(),
		File:        "src/Main.java",
		Language:    "java",
		FileSize:    1000,
		LineCount:   50,
		Duration:    2 * time.Millisecond,
		Nodes:       800,
		Violations:  3,
		CacheResult: CacheMiss,
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Record(event)
	}
}

func BenchmarkCollector_RecordParallel(b *testing.B) {
	c := NewCollector()
	event := LintEvent{Timestamp: time.Now(), Violations: 3, CacheResult: CacheMiss}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.Record(event)
		}
	})
}

func BenchmarkCollector_Stats(b *testing.B) {
	c := NewCollector()
	for i := 0; i < 1000; i++ {
		c.Record(LintEvent{
			Timestamp:  time.Now(),
			Language:   "java",
			Duration:   time.Duration(i%100) * time.Millisecond,
			Violations: i % 10,
		})
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Stats()
	}
}
