package astcheck

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"

	"github.com/chris-regnier/treecheck/internal/ast"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// sampleTree builds
//
//	program
//	  class_body
//	    method_declaration
//	      block
//	        if_statement
//	          block
//	            return_statement
//	        return_statement
//	    field_declaration
func sampleTree(t *testing.T) *ast.Tree {
	t.Helper()
	b := ast.NewBuilder("Sample.java", "java", nil)
	b.Open("program", "")
	b.Open("class_body", "{")
	b.Open("method_declaration", "void m()")
	b.Open("block", "{")
	b.Open("if_statement", "if (x)")
	b.Open("block", "{")
	b.Leaf("return_statement", "return;")
	b.Close()
	b.Close()
	b.Leaf("return_statement", "return;")
	b.Close()
	b.Close()
	b.Leaf("field_declaration", "int f;")
	b.Close()
	b.Close()
	tree, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return tree
}

// recordingCheck logs every hook call as "id:phase:kind".
type recordingCheck struct {
	id     string
	tokens Tokens
	log    *[]string
}

func (c *recordingCheck) Tokens() Tokens { return c.tokens }

func (c *recordingCheck) NewVisitor(root *ast.Node, r Reporter) Visitor {
	*c.log = append(*c.log, c.id+":begin:"+string(root.Kind()))
	return &recordingVisitor{check: c, r: r}
}

type recordingVisitor struct {
	check *recordingCheck
	r     Reporter
}

func (v *recordingVisitor) Enter(n *ast.Node) {
	*v.check.log = append(*v.check.log, v.check.id+":enter:"+string(n.Kind()))
}

func (v *recordingVisitor) Leave(n *ast.Node) {
	*v.check.log = append(*v.check.log, v.check.id+":leave:"+string(n.Kind()))
}

func (v *recordingVisitor) Finish(root *ast.Node) {
	*v.check.log = append(*v.check.log, v.check.id+":finish:"+string(root.Kind()))
}

// countingCheck returns no visitor at all.
type countingCheck struct {
	kinds []ast.Kind
}

func (c *countingCheck) Tokens() Tokens { return Tokens{Default: c.kinds} }

func (c *countingCheck) NewVisitor(*ast.Node, Reporter) Visitor { return nil }

// statefulCheck reports every node of its kinds with a running count, so
// state leaking between files would show up in the args.
type statefulCheck struct {
	kinds []ast.Kind
}

func (c *statefulCheck) Tokens() Tokens { return Tokens{Default: c.kinds} }

func (c *statefulCheck) NewVisitor(_ *ast.Node, r Reporter) Visitor {
	return &statefulVisitor{r: r}
}

type statefulVisitor struct {
	NopVisitor
	r     Reporter
	count int
}

func (v *statefulVisitor) Enter(n *ast.Node) {
	v.count++
	v.r.Report(n, "seen", v.count)
}

// panicCheck panics when it enters a node of kind boom.
type panicCheck struct {
	boom  ast.Kind
	calls *int
}

func (c *panicCheck) Tokens() Tokens {
	return Tokens{Default: []ast.Kind{"block", c.boom}}
}

func (c *panicCheck) NewVisitor(*ast.Node, Reporter) Visitor {
	return &panicVisitor{check: c}
}

type panicVisitor struct {
	NopVisitor
	check *panicCheck
}

func (v *panicVisitor) Enter(n *ast.Node) {
	*v.check.calls++
	if n.Kind() == v.check.boom {
		panic("unexpected shape")
	}
}

func configured(id string, c Check) *Configured {
	tokens := c.Tokens()
	leave := tokens.Leave
	if leave == nil {
		leave = tokens.Default
	}
	return &Configured{ID: id, Check: c, Enter: tokens.Default, Leave: leave, Trivia: tokens.Trivia}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// referenceOrder computes the expected event sequence recursively.
func referenceOrder(n *ast.Node, out *[]string) {
	*out = append(*out, "enter:"+fmt.Sprint(n.Index()))
	for _, c := range n.Children() {
		referenceOrder(c, out)
	}
	*out = append(*out, "leave:"+fmt.Sprint(n.Index()))
}

// ---------------------------------------------------------------------------
// Traversal order
// ---------------------------------------------------------------------------

func TestWalkOrderIsPreAndPostOrder(t *testing.T) {
	tree := sampleTree(t)
	var want []string
	referenceOrder(tree.Root(), &want)

	var log []string
	populations := map[string][]*Configured{
		"none": nil,
		"some": {configured("rec", &recordingCheck{id: "rec", tokens: Tokens{Default: []ast.Kind{"block"}}, log: &log})},
	}
	for name, checks := range populations {
		t.Run(name, func(t *testing.T) {
			var got []string
			w := NewWalker(checks, WithTrace(func(e Event) {
				got = append(got, e.Phase.String()+":"+fmt.Sprint(e.Node.Index()))
			}))
			if _, err := w.Walk(tree); err != nil {
				t.Fatalf("Walk() error: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("event order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLeafAndRootGetBothEvents(t *testing.T) {
	tree := sampleTree(t)
	var log []string
	rec := &recordingCheck{id: "r", tokens: Tokens{Default: []ast.Kind{"program", "field_declaration"}}, log: &log}
	if _, err := NewWalker([]*Configured{configured("r", rec)}).Walk(tree); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"r:begin:program",
		"r:enter:program",
		"r:enter:field_declaration",
		"r:leave:field_declaration",
		"r:leave:program",
		"r:finish:program",
	}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("hook sequence mismatch (-want +got):\n%s", diff)
	}
}

// ---------------------------------------------------------------------------
// Interest filtering and dispatch
// ---------------------------------------------------------------------------

func TestInterestFiltering(t *testing.T) {
	tree := sampleTree(t)
	var log []string
	rec := &recordingCheck{id: "r", tokens: Tokens{Default: []ast.Kind{"return_statement"}}, log: &log}
	if _, err := NewWalker([]*Configured{configured("r", rec)}).Walk(tree); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"r:begin:program",
		"r:enter:return_statement",
		"r:leave:return_statement",
		"r:enter:return_statement",
		"r:leave:return_statement",
		"r:finish:program",
	}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestNoMatchingKindsMeansNoNodeCalls(t *testing.T) {
	tree := sampleTree(t)
	var log []string
	rec := &recordingCheck{id: "r", tokens: Tokens{Default: []ast.Kind{"switch_block"}}, log: &log}
	if _, err := NewWalker([]*Configured{configured("r", rec)}).Walk(tree); err != nil {
		t.Fatal(err)
	}
	if len(log) != 2 {
		t.Fatalf("expected only begin and finish, got %v", log)
	}
}

func TestSeparateLeaveSet(t *testing.T) {
	tree := sampleTree(t)
	var log []string
	rec := &recordingCheck{id: "r", tokens: Tokens{
		Default: []ast.Kind{"if_statement"},
		Leave:   []ast.Kind{},
	}, log: &log}
	if _, err := NewWalker([]*Configured{configured("r", rec)}).Walk(tree); err != nil {
		t.Fatal(err)
	}
	for _, entry := range log {
		if entry == "r:leave:if_statement" {
			t.Fatal("empty leave set should suppress leave events")
		}
	}
}

func TestRegistrationOrderAndDuplicates(t *testing.T) {
	tree := sampleTree(t)
	var log []string
	tokens := Tokens{Default: []ast.Kind{"field_declaration"}}
	a := &recordingCheck{id: "a", tokens: tokens, log: &log}
	b := &recordingCheck{id: "b", tokens: tokens, log: &log}
	checks := []*Configured{configured("b", b), configured("a", a), configured("b2", b)}
	for _, c := range checks {
		c.Leave = nil
	}
	if _, err := NewWalker(checks).Walk(tree); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"b:begin:program", "a:begin:program", "b:begin:program",
		"b:enter:field_declaration", "a:enter:field_declaration", "b:enter:field_declaration",
		"b:finish:program", "a:finish:program", "b:finish:program",
	}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

// ---------------------------------------------------------------------------
// State isolation, determinism, idempotence
// ---------------------------------------------------------------------------

func TestStateIsolationAcrossFiles(t *testing.T) {
	tree := sampleTree(t)
	check := &statefulCheck{kinds: []ast.Kind{"block"}}
	w := NewWalker([]*Configured{configured("s", check)})

	first, err := w.Walk(tree)
	if err != nil {
		t.Fatal(err)
	}
	second, err := w.Walk(tree)
	if err != nil {
		t.Fatal(err)
	}
	fresh, err := NewWalker([]*Configured{configured("s", &statefulCheck{kinds: []ast.Kind{"block"}})}).Walk(tree)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second walk differs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(fresh, second); diff != "" {
		t.Errorf("reused walker differs from fresh one (-fresh +reused):\n%s", diff)
	}
	if len(first.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(first.Violations))
	}
	if first.Violations[1].Args[0] != 2 {
		t.Errorf("counter should restart per file, got %v", first.Violations[1].Args)
	}
}

type reverseCheck struct{}

func (reverseCheck) Tokens() Tokens { return Tokens{Default: []ast.Kind{"return_statement"}} }

func (reverseCheck) NewVisitor(_ *ast.Node, r Reporter) Visitor {
	return &reverseVisitor{r: r}
}

type reverseVisitor struct {
	NopVisitor
	r     Reporter
	nodes []*ast.Node
}

func (v *reverseVisitor) Enter(n *ast.Node) { v.nodes = append(v.nodes, n) }

func (v *reverseVisitor) Finish(*ast.Node) {
	for i := len(v.nodes) - 1; i >= 0; i-- {
		v.r.Report(v.nodes[i], "late")
	}
}

func TestViolationsSortedByPosition(t *testing.T) {
	tree := sampleTree(t)
	res, err := NewWalker([]*Configured{configured("rev", reverseCheck{})}).Walk(tree)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(res.Violations))
	}
	if res.Violations[0].Line >= res.Violations[1].Line {
		t.Errorf("violations not sorted: %+v", res.Violations)
	}
}

// ---------------------------------------------------------------------------
// Fault isolation
// ---------------------------------------------------------------------------

func TestFaultIsolation(t *testing.T) {
	tree := sampleTree(t)
	calls := 0
	bad := &panicCheck{boom: "if_statement", calls: &calls}
	good := &statefulCheck{kinds: []ast.Kind{"return_statement"}}
	w := NewWalker([]*Configured{configured("bad", bad), configured("good", good)}, WithLogger(quietLogger()))

	res, err := w.Walk(tree)
	if err != nil {
		t.Fatalf("a check fault must not fail the walk: %v", err)
	}
	if len(res.Faults) != 1 {
		t.Fatalf("expected 1 fault, got %d", len(res.Faults))
	}
	f := res.Faults[0]
	if f.CheckID != "bad" || f.Line != 5 {
		t.Errorf("unexpected fault %+v", f)
	}
	// block (line 4) and if_statement (line 5); the inner block is skipped.
	if calls != 2 {
		t.Errorf("faulted check should stop receiving events, got %d calls", calls)
	}
	if len(res.Violations) != 2 {
		t.Fatalf("good check should still report both returns, got %d", len(res.Violations))
	}
	for _, v := range res.Violations {
		if v.CheckID != "good" {
			t.Errorf("unexpected violation from %q", v.CheckID)
		}
	}
}

type panicOnBegin struct{}

func (panicOnBegin) Tokens() Tokens { return Tokens{Default: []ast.Kind{"block"}} }

func (panicOnBegin) NewVisitor(*ast.Node, Reporter) Visitor { panic("no state") }

func TestFaultInNewVisitor(t *testing.T) {
	tree := sampleTree(t)
	res, err := NewWalker([]*Configured{configured("p", panicOnBegin{})}, WithLogger(quietLogger())).Walk(tree)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Faults) != 1 || res.Faults[0].Line != 1 {
		t.Fatalf("expected one fault at the root, got %+v", res.Faults)
	}
}

func TestNilVisitorIsNoop(t *testing.T) {
	tree := sampleTree(t)
	res, err := NewWalker([]*Configured{configured("c", &countingCheck{kinds: []ast.Kind{"block"}})}).Walk(tree)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Faults) != 0 || len(res.Violations) != 0 {
		t.Fatalf("unexpected output %+v", res)
	}
}

func TestWalkNilTree(t *testing.T) {
	if _, err := NewWalker(nil).Walk(nil); !errors.Is(err, ast.ErrMalformedTree) {
		t.Fatalf("expected ErrMalformedTree, got %v", err)
	}
}

func TestWalkRootlessTree(t *testing.T) {
	tree, err := ast.NewBuilder("Empty.java", "java", nil).Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	var log []string
	rec := &recordingCheck{id: "rec", tokens: Tokens{Default: []ast.Kind{"block"}}, log: &log}
	res, err := NewWalker([]*Configured{configured("rec", rec)}).Walk(tree)
	if !errors.Is(err, ast.ErrMalformedTree) {
		t.Fatalf("expected ErrMalformedTree, got %v", err)
	}
	if res != nil {
		t.Errorf("expected no result, got %+v", res)
	}
	if len(log) != 0 {
		t.Errorf("no hook should run on a rootless tree, got %v", log)
	}
}

func TestLanguageFilter(t *testing.T) {
	tree := sampleTree(t)
	var log []string
	rec := &recordingCheck{id: "py", tokens: Tokens{Default: []ast.Kind{"block"}}, log: &log}
	c := configured("py", rec)
	c.Entry = Entry{Name: "py", Languages: []string{"python"}}
	if _, err := NewWalker([]*Configured{c}).Walk(tree); err != nil {
		t.Fatal(err)
	}
	if len(log) != 0 {
		t.Fatalf("check for another language should not run, got %v", log)
	}
}

func TestWantsTrivia(t *testing.T) {
	plain := configured("a", &countingCheck{kinds: []ast.Kind{"block"}})
	if NewWalker([]*Configured{plain}).WantsTrivia() {
		t.Error("no check asked for trivia")
	}
	trivia := &Configured{ID: "t", Check: plain.Check, Enter: []ast.Kind{"line_comment"}, Trivia: true}
	if !NewWalker([]*Configured{plain, trivia}).WantsTrivia() {
		t.Error("trivia check should enable comment nodes")
	}
}
