// Package cache stores per-file walk results keyed by content and
// configuration, so unchanged files are not re-checked.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/chris-regnier/treecheck/internal/astcheck"
)

var ErrCacheMiss = errors.New("cache miss")

// Key identifies the result of checking one file's content under one
// configuration.
type Key struct {
	Path        string `json:"path"`
	Language    string `json:"language"`
	ContentHash string `json:"content_hash"`
	Fingerprint string `json:"fingerprint"`
}

// NewKey hashes content for path under a configuration fingerprint.
func NewKey(path, language string, content []byte, fingerprint string) Key {
	return Key{
		Path:        path,
		Language:    language,
		ContentHash: strconv.FormatUint(xxhash.Sum64(content), 16),
		Fingerprint: fingerprint,
	}
}

// Hash computes a deterministic cache key.
func (k Key) Hash() string {
	d := xxhash.New()
	for _, part := range []string{k.Path, k.Language, k.ContentHash, k.Fingerprint} {
		_, _ = d.WriteString(part)
		_, _ = d.Write([]byte{0})
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// Fingerprint hashes the bound check configuration together with a version
// string. Any change to either invalidates every cached entry.
func Fingerprint(version string, specs []astcheck.Spec) string {
	b, err := json.Marshal(specs)
	if err != nil {
		b = []byte(fmt.Sprintf("%#v", specs))
	}
	d := xxhash.New()
	_, _ = d.WriteString(version)
	_, _ = d.Write([]byte{0})
	_, _ = d.Write(b)
	return strconv.FormatUint(d.Sum64(), 16)
}

// Entry is a cached file result.
type Entry struct {
	Key         Key                  `json:"key"`
	Violations  []astcheck.Violation `json:"violations"`
	Faults      []astcheck.Fault     `json:"faults,omitempty"`
	Nodes       int                  `json:"nodes"`
	ParseErrors int                  `json:"parse_errors,omitempty"`
	Timestamp   int64                `json:"timestamp"`
}

// Cache provides cached walk results.
type Cache interface {
	Get(ctx context.Context, key Key) (*Entry, error)
	Put(ctx context.Context, entry *Entry) error
	Close() error
}
