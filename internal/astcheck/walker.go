package astcheck

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/chris-regnier/treecheck/internal/ast"
)

// Violation is one structured finding. The key and args are rendered into
// text by the message layer, never here.
type Violation struct {
	CheckID   string `json:"check"`
	Key       string `json:"key"`
	Args      []any  `json:"args,omitempty"`
	Severity  string `json:"severity,omitempty"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"end_line,omitempty"`
	EndColumn int    `json:"end_column,omitempty"`
}

// Fault records a check that failed while processing a file. The check's
// remaining hooks for that file were skipped.
type Fault struct {
	CheckID string `json:"check"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Err     string `json:"error"`
}

// FileResult is everything a walk produced for one file.
type FileResult struct {
	Path       string      `json:"path"`
	Language   string      `json:"language"`
	Violations []Violation `json:"violations"`
	Faults     []Fault     `json:"faults,omitempty"`
	Nodes      int         `json:"nodes"`
}

// Phase distinguishes enter and leave events.
type Phase int

const (
	PhaseEnter Phase = iota
	PhaseLeave
)

func (p Phase) String() string {
	if p == PhaseEnter {
		return "enter"
	}
	return "leave"
}

// Event is one step of a walk, delivered to a trace function.
type Event struct {
	Node  *ast.Node
	Phase Phase
}

// Option configures a Walker.
type Option func(*Walker)

// WithTrace calls fn for every node event, whether or not any check listens.
func WithTrace(fn func(Event)) Option {
	return func(w *Walker) { w.trace = fn }
}

// WithLogger sets the logger used for fault reports.
func WithLogger(l *slog.Logger) Option {
	return func(w *Walker) { w.logger = l }
}

// Walker holds the dispatch tables for one run. It is immutable after
// NewWalker and safe for concurrent use.
type Walker struct {
	checks []*Configured
	enter  map[ast.Kind][]int
	leave  map[ast.Kind][]int
	trivia bool
	trace  func(Event)
	logger *slog.Logger
}

// NewWalker builds the enter and leave dispatch tables. Listeners for a kind
// are invoked in the order the checks were given; a check listed twice
// receives independent events for each entry.
func NewWalker(checks []*Configured, opts ...Option) *Walker {
	w := &Walker{
		checks: checks,
		enter:  make(map[ast.Kind][]int),
		leave:  make(map[ast.Kind][]int),
		logger: slog.Default(),
	}
	for i, c := range checks {
		for _, k := range dedupe(c.Enter) {
			w.enter[k] = append(w.enter[k], i)
		}
		for _, k := range dedupe(c.Leave) {
			w.leave[k] = append(w.leave[k], i)
		}
		if c.Trivia {
			w.trivia = true
		}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func dedupe(kinds []ast.Kind) []ast.Kind {
	seen := make(map[ast.Kind]bool, len(kinds))
	out := kinds[:0:0]
	for _, k := range kinds {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// WantsTrivia reports whether any check needs comment nodes in the tree.
func (w *Walker) WantsTrivia() bool { return w.trivia }

// Checks returns the configured checks in dispatch order.
func (w *Walker) Checks() []*Configured { return w.checks }

// Walk runs every check over tree. The returned error is non-nil only when
// the tree itself cannot be traversed; check failures are recorded as
// faults in the result.
func (w *Walker) Walk(tree *ast.Tree) (*FileResult, error) {
	if tree == nil {
		return nil, errors.Wrap(ast.ErrMalformedTree, "nil tree")
	}
	if err := tree.Validate(); err != nil {
		return nil, errors.Wrapf(err, "walking %s", tree.Path())
	}
	res := &FileResult{
		Path:       tree.Path(),
		Language:   tree.Language(),
		Violations: []Violation{},
		Nodes:      tree.Len(),
	}
	root := tree.Root()

	s := &session{
		walker:   w,
		result:   res,
		visitors: make([]Visitor, len(w.checks)),
		disabled: make([]bool, len(w.checks)),
	}
	for i, c := range w.checks {
		if !c.Entry.SupportsLanguage(tree.Language()) {
			s.disabled[i] = true
			continue
		}
		s.begin(i, root)
	}

	n := root
	for n != nil {
		s.dispatch(PhaseEnter, n)
		if c := n.FirstChild(); c != nil {
			n = c
			continue
		}
		for n != nil {
			s.dispatch(PhaseLeave, n)
			if n == root {
				n = nil
				break
			}
			if next := n.NextSibling(); next != nil {
				n = next
				break
			}
			n = n.Parent()
		}
	}

	for i := range w.checks {
		s.finish(i, root)
	}
	sortViolations(res.Violations)
	return res, nil
}

// sortViolations orders findings by position, then check and key, so output
// never depends on the order checks emitted them in.
func sortViolations(vs []Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		if a.CheckID != b.CheckID {
			return a.CheckID < b.CheckID
		}
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		return fmt.Sprint(a.Args...) < fmt.Sprint(b.Args...)
	})
}

// session is the per-file state of one walk.
type session struct {
	walker   *Walker
	result   *FileResult
	visitors []Visitor
	disabled []bool
}

func (s *session) dispatch(phase Phase, n *ast.Node) {
	if s.walker.trace != nil {
		s.walker.trace(Event{Node: n, Phase: phase})
	}
	table := s.walker.enter
	if phase == PhaseLeave {
		table = s.walker.leave
	}
	for _, i := range table[n.Kind()] {
		if s.disabled[i] {
			continue
		}
		s.invoke(i, phase, n)
	}
}

func (s *session) begin(i int, root *ast.Node) {
	defer s.recoverFault(i, root)
	v := s.walker.checks[i].Check.NewVisitor(root, &reporter{session: s, check: s.walker.checks[i]})
	if v == nil {
		v = NopVisitor{}
	}
	s.visitors[i] = v
}

func (s *session) invoke(i int, phase Phase, n *ast.Node) {
	defer s.recoverFault(i, n)
	if phase == PhaseEnter {
		s.visitors[i].Enter(n)
	} else {
		s.visitors[i].Leave(n)
	}
}

func (s *session) finish(i int, root *ast.Node) {
	if s.disabled[i] {
		return
	}
	defer s.recoverFault(i, root)
	s.visitors[i].Finish(root)
}

// recoverFault disables check i for the rest of the file if its hook panicked.
func (s *session) recoverFault(i int, n *ast.Node) {
	r := recover()
	if r == nil {
		return
	}
	s.disabled[i] = true
	c := s.walker.checks[i]
	f := Fault{CheckID: c.ID, Line: n.Line(), Column: n.Column(), Err: fmt.Sprint(r)}
	s.result.Faults = append(s.result.Faults, f)
	s.walker.logger.Warn("check failed",
		"check", c.ID,
		"file", s.result.Path,
		"line", f.Line,
		"error", f.Err)
	s.walker.logger.Debug("check failure stack", "check", c.ID, "stack", string(debug.Stack()))
}

type reporter struct {
	session *session
	check   *Configured
}

func (r *reporter) Report(n *ast.Node, key string, args ...any) {
	r.add(Violation{
		Line:      n.Line(),
		Column:    n.Column(),
		EndLine:   n.EndLine(),
		EndColumn: n.EndColumn(),
		Key:       key,
		Args:      args,
	})
}

func (r *reporter) ReportAt(line, column int, key string, args ...any) {
	r.add(Violation{Line: line, Column: column, Key: key, Args: args})
}

func (r *reporter) add(v Violation) {
	if v.Line < 1 {
		v.Line = 1
	}
	if v.Column < 1 {
		v.Column = 1
	}
	v.CheckID = r.check.ID
	v.Severity = r.check.Severity
	r.session.result.Violations = append(r.session.result.Violations, v)
}
