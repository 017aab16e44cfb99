package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chris-regnier/treecheck/internal/sarif"
)

const (
	sarifFile   = "sarif.json"
	verdictFile = "verdict.json"
)

var tracer = otel.Tracer("github.com/chris-regnier/treecheck/internal/store")

// FileStore lays runs out as <dir>/<id>/sarif.json and verdict.json.
type FileStore struct {
	dir string
	now func() time.Time
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, now: time.Now}
}

// newID is a UTC timestamp with a random suffix so that IDs created in
// the same second stay distinct.
func (s *FileStore) newID() string {
	var b [3]byte
	_, _ = rand.Read(b[:])
	return s.now().UTC().Format("2006-01-02T15-04-05Z") + "-" + hex.EncodeToString(b[:])
}

func (s *FileStore) WriteSARIF(ctx context.Context, doc *sarif.Log) (id string, err error) {
	_, span := tracer.Start(ctx, "write sarif")
	defer func() { finish(span, err) }()

	id = s.newID()
	if err := os.MkdirAll(filepath.Join(s.dir, id), 0o755); err != nil {
		return "", errors.Wrap(err, "creating run directory")
	}
	if err := writeJSON(filepath.Join(s.dir, id, sarifFile), doc); err != nil {
		return "", err
	}
	n := 0
	for _, run := range doc.Runs {
		n += len(run.Results)
	}
	span.SetAttributes(
		attribute.String("treecheck.store.id", id),
		attribute.Int("treecheck.store.result_count", n),
	)
	return id, nil
}

func (s *FileStore) WriteVerdict(ctx context.Context, id string, verdict *Verdict) (err error) {
	_, span := tracer.Start(ctx, "write verdict", trace.WithAttributes(attribute.String("treecheck.store.id", id)))
	defer func() { finish(span, err) }()

	dir, err := s.runDir(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); err != nil {
		return errors.Mark(errors.Wrapf(err, "run %s", id), ErrNotFound)
	}
	span.SetAttributes(attribute.String("treecheck.decision", verdict.Decision))
	return writeJSON(filepath.Join(dir, verdictFile), verdict)
}

func (s *FileStore) ReadSARIF(_ context.Context, id string) (*sarif.Log, error) {
	var log sarif.Log
	if err := s.read(id, sarifFile, &log); err != nil {
		return nil, err
	}
	return &log, nil
}

func (s *FileStore) ReadVerdict(_ context.Context, id string) (*Verdict, error) {
	var v Verdict
	if err := s.read(id, verdictFile, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "listing runs")
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() && validID(e.Name()) == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

// Latest returns the newest run ID, or ErrNotFound when the store is empty.
func (s *FileStore) Latest(ctx context.Context) (string, error) {
	ids, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", errors.Mark(errors.Newf("no stored runs in %s", s.dir), ErrNotFound)
	}
	return ids[0], nil
}

func (s *FileStore) runDir(id string) (string, error) {
	if err := validID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, id), nil
}

func (s *FileStore) read(id, name string, v any) error {
	dir, err := s.runDir(id)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return errors.Mark(errors.Newf("run %s has no %s", id, name), ErrNotFound)
	}
	if err != nil {
		return err
	}
	return errors.Wrapf(json.Unmarshal(data, v), "decoding %s/%s", id, name)
}

// writeJSON writes through a temporary file so readers never observe a
// partial document.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding %s", filepath.Base(path))
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// validID rejects IDs that would escape the store directory.
func validID(id string) error {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return errors.Newf("invalid run id %q", id)
	}
	return nil
}
