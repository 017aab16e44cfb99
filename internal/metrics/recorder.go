package metrics

import (
	"bytes"
	"context"
	"time"
)

// Sink receives finished lint events.
type Sink interface {
	Record(event LintEvent)
}

// Recorder fans finished events out to a collector and, optionally, to OTel
// instruments.
type Recorder struct {
	sinks []Sink
}

// NewRecorder creates a recorder that forwards to every non-nil sink.
func NewRecorder(sinks ...Sink) *Recorder {
	r := &Recorder{}
	for _, s := range sinks {
		if s != nil {
			r.sinks = append(r.sinks, s)
		}
	}
	return r
}

// FileBuilder builds the LintEvent of one file incrementally. It is used by
// a single worker goroutine.
type FileBuilder struct {
	recorder *Recorder
	event    LintEvent
	started  time.Time
	mark     time.Time
}

// StartFile begins recording one file.
func (r *Recorder) StartFile(path, language string, content []byte) *FileBuilder {
	now := time.Now()
	return &FileBuilder{
		recorder: r,
		event: LintEvent{
			Timestamp:   now,
			File:        path,
			Language:    language,
			FileSize:    len(content),
			LineCount:   bytes.Count(content, []byte("\n")) + 1,
			CacheResult: CacheDisabled,
		},
		started: now,
		mark:    now,
	}
}

// CacheResult records the outcome of the cache lookup.
func (b *FileBuilder) CacheResult(result CacheResult) *FileBuilder {
	b.event.CacheResult = result
	return b
}

// Parsed marks the end of parsing.
func (b *FileBuilder) Parsed(parseErrors int) *FileBuilder {
	now := time.Now()
	b.event.ParseDuration = now.Sub(b.mark)
	b.event.ParseErrors = parseErrors
	b.mark = now
	return b
}

// Walked marks the end of the walk.
func (b *FileBuilder) Walked() *FileBuilder {
	now := time.Now()
	b.event.WalkDuration = now.Sub(b.mark)
	b.mark = now
	return b
}

// Complete finishes recording and submits the event.
func (b *FileBuilder) Complete(nodes, violations, faults int) LintEvent {
	b.event.Nodes = nodes
	b.event.Violations = violations
	b.event.Faults = faults
	return b.submit()
}

// CompleteWithError finishes recording a file that could not be checked.
func (b *FileBuilder) CompleteWithError(err error) LintEvent {
	b.event.Error = err.Error()
	return b.submit()
}

func (b *FileBuilder) submit() LintEvent {
	b.event.Duration = time.Since(b.started)
	for _, s := range b.recorder.sinks {
		s.Record(b.event)
	}
	return b.event
}

type contextKey string

const recorderContextKey contextKey = "metrics_recorder"

// WithRecorder adds a recorder to the context
func WithRecorder(ctx context.Context, recorder *Recorder) context.Context {
	return context.WithValue(ctx, recorderContextKey, recorder)
}

// RecorderFromContext retrieves a recorder from the context, or a recorder
// that discards everything.
func RecorderFromContext(ctx context.Context) *Recorder {
	if r, ok := ctx.Value(recorderContextKey).(*Recorder); ok {
		return r
	}
	return NoOpRecorder()
}

// NoOpRecorder returns a recorder that discards all metrics
func NoOpRecorder() *Recorder {
	return &Recorder{}
}
