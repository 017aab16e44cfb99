// Package input collects the source files to check.
package input

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/chris-regnier/treecheck/internal/parse"
)

type Artifact struct {
	Path     string
	Language string
	Content  []byte
}

// Handler reads files and directories, keeping those whose language is
// supported and whose slash-separated path passes the include and exclude
// patterns.
type Handler struct {
	include []string
	exclude []string
	logger  *slog.Logger
}

func NewHandler(include, exclude []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{include: include, exclude: exclude, logger: logger}
}

// normalize turns path into the slash-separated, unrooted form the
// patterns are matched against.
func normalize(path string) string {
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(path)), "/")
}

// Accept reports whether path is selected by the patterns.
func (h *Handler) Accept(path string) bool {
	p := normalize(path)
	if h.excluded(p) {
		return false
	}
	if len(h.include) == 0 {
		return true
	}
	for _, pat := range h.include {
		if ok, _ := doublestar.Match(pat, p); ok {
			return true
		}
	}
	return false
}

// Read expands paths (files or directories) into artifacts, sorted by path.
// Files named explicitly bypass the include patterns but not the exclude
// patterns.
func (h *Handler) Read(paths []string) ([]Artifact, error) {
	var artifacts []Artifact
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			found, err := h.ReadDirectory(p)
			if err != nil {
				return nil, err
			}
			artifacts = append(artifacts, found...)
			continue
		}
		a, ok, err := h.readFile(p, p, true)
		if err != nil {
			return nil, err
		}
		if ok {
			artifacts = append(artifacts, a)
		}
	}
	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].Path < artifacts[j].Path })
	return dedupe(artifacts), nil
}

func dedupe(as []Artifact) []Artifact {
	out := as[:0]
	for i, a := range as {
		if i > 0 && as[i-1].Path == a.Path {
			continue
		}
		out = append(out, a)
	}
	return out
}

// readFile reads path if selected. rel is the path the patterns see.
func (h *Handler) readFile(path, rel string, explicit bool) (Artifact, bool, error) {
	lang, ok := parse.Detect(path)
	if !ok {
		if explicit {
			h.logger.Debug("skipping file with unsupported language", "path", path)
		}
		return Artifact{}, false, nil
	}
	if explicit {
		if h.excluded(normalize(rel)) {
			return Artifact{}, false, nil
		}
	} else if !h.Accept(rel) {
		return Artifact{}, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, false, err
	}
	if !utf8.Valid(data) {
		h.logger.Warn("skipping file with invalid UTF-8", "path", path)
		return Artifact{}, false, nil
	}
	return Artifact{Path: path, Language: lang, Content: data}, true, nil
}

func (h *Handler) excluded(p string) bool {
	for _, pat := range h.exclude {
		if ok, _ := doublestar.Match(pat, p); ok {
			return true
		}
	}
	return false
}

// ReadDirectory walks dir, matching patterns against paths relative to it.
// Hidden directories are skipped.
func (h *Handler) ReadDirectory(dir string) ([]Artifact, error) {
	var artifacts []Artifact
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		a, ok, err := h.readFile(path, rel, false)
		if err != nil {
			return err
		}
		if ok {
			artifacts = append(artifacts, a)
		}
		return nil
	})
	return artifacts, err
}

// ChangedPaths returns the post-image paths named by a unified git diff,
// in order of appearance. Deleted files are skipped.
func ChangedPaths(diff string) []string {
	var paths []string
	for _, line := range strings.Split(diff, "\n") {
		if !strings.HasPrefix(line, "+++ ") {
			continue
		}
		p := strings.TrimSpace(strings.TrimPrefix(line, "+++ "))
		if p == "/dev/null" {
			continue
		}
		paths = append(paths, strings.TrimPrefix(p, "b/"))
	}
	return paths
}
