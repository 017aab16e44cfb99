package checks

import (
	"github.com/chris-regnier/treecheck/internal/ast"
	"github.com/chris-regnier/treecheck/internal/astcheck"
)

const defaultMaxDepth = 4

// nestingKinds returns the control-flow kinds that open a nesting level.
func nestingKinds(lang string) []ast.Kind {
	switch lang {
	case "go":
		return []ast.Kind{"if_statement", "for_statement", "expression_switch_statement", "type_switch_statement", "select_statement"}
	case "python":
		return []ast.Kind{"if_statement", "for_statement", "while_statement", "with_statement", "try_statement"}
	case "javascript", "typescript":
		return []ast.Kind{"if_statement", "for_statement", "for_in_statement", "while_statement", "do_statement", "switch_statement", "try_statement"}
	case "java":
		return []ast.Kind{"if_statement", "for_statement", "enhanced_for_statement", "while_statement", "do_statement", "switch_expression", "switch_statement", "try_statement", "try_with_resources_statement"}
	case "c":
		return []ast.Kind{"if_statement", "for_statement", "while_statement", "do_statement", "switch_statement"}
	case "rust":
		return []ast.Kind{"if_expression", "for_expression", "while_expression", "loop_expression", "match_expression"}
	default:
		return nil
	}
}

var allNestingKinds = union(
	nestingKinds("go"), nestingKinds("python"), nestingKinds("javascript"),
	nestingKinds("java"), nestingKinds("c"), nestingKinds("rust"),
)

// isElseIf reports whether an if statement is the else branch of another,
// which continues the parent's level rather than opening a new one.
func isElseIf(n *ast.Node) bool {
	if !n.Is("if_statement") {
		return false
	}
	if n.Field() == "alternative" && n.Parent().Is("if_statement") {
		return true
	}
	// JavaScript wraps the branch: if_statement(alternative: else_clause(if_statement)).
	p := n.Parent()
	return p.Is("else_clause") && p.Field() == "alternative"
}

type depthOptions struct {
	Max int `mapstructure:"max"`
}

// nestedDepth counts enclosing statements of a few kinds and reports when a
// statement sits deeper than Max. The outermost statement has depth 0.
type nestedDepth struct {
	key   string
	kinds []ast.Kind
	max   int
}

func newNestedDepth(key string, defaultMax int, kinds ...ast.Kind) astcheck.Factory {
	return func(props astcheck.Properties) (astcheck.Check, error) {
		opts := depthOptions{Max: defaultMax}
		if err := astcheck.DecodeProperties(props, &opts); err != nil {
			return nil, err
		}
		if err := astcheck.NonNegative("max", opts.Max); err != nil {
			return nil, err
		}
		return &nestedDepth{key: key, kinds: kinds, max: opts.Max}, nil
	}
}

func (c *nestedDepth) Tokens() astcheck.Tokens {
	return astcheck.Tokens{Default: c.kinds, Acceptable: c.kinds, Required: c.kinds}
}

func (c *nestedDepth) NewVisitor(_ *ast.Node, r astcheck.Reporter) astcheck.Visitor {
	return &nestedDepthVisitor{check: c, r: r}
}

type nestedDepthVisitor struct {
	check *nestedDepth
	r     astcheck.Reporter
	depth int
}

func (v *nestedDepthVisitor) Enter(n *ast.Node) {
	if isElseIf(n) {
		return
	}
	if v.depth > v.check.max {
		v.r.Report(n, v.check.key, v.depth, v.check.max)
	}
	v.depth++
}

func (v *nestedDepthVisitor) Leave(n *ast.Node) {
	if isElseIf(n) {
		return
	}
	v.depth--
}

func (v *nestedDepthVisitor) Finish(*ast.Node) {
	if v.depth != 0 {
		panic("nesting depth unbalanced at end of file")
	}
}

func nestedIfDepthEntry() astcheck.Entry {
	return astcheck.Entry{
		Name:      "nested-if-depth",
		Category:  "coding",
		Languages: []string{"java"},
		Doc: `Restricts nested if-else blocks to a specified depth.

An ` + "`else if`" + ` continues the level of the if it belongs to.

| property | default |
|---|---|
| max | 1 |
`,
		New: newNestedDepth("nested.if.depth", 1, "if_statement"),
	}
}

func nestedForDepthEntry() astcheck.Entry {
	return astcheck.Entry{
		Name:      "nested-for-depth",
		Category:  "coding",
		Languages: []string{"java"},
		Doc: `Restricts nested for loops to a specified depth.

| property | default |
|---|---|
| max | 1 |
`,
		New: newNestedDepth("nested.for.depth", 1, "for_statement", "enhanced_for_statement"),
	}
}

func nestedTryDepthEntry() astcheck.Entry {
	return astcheck.Entry{
		Name:      "nested-try-depth",
		Category:  "coding",
		Languages: []string{"java"},
		Doc: `Restricts nested try blocks to a specified depth.

| property | default |
|---|---|
| max | 1 |
`,
		New: newNestedDepth("nested.try.depth", 1, "try_statement", "try_with_resources_statement"),
	}
}

// nestingDepth checks that control-flow nesting does not exceed a
// configurable depth in any supported language. Only the first statement to
// cross the limit on a path is reported.
type nestingDepth struct {
	max int
}

func newNestingDepth(props astcheck.Properties) (astcheck.Check, error) {
	opts := depthOptions{Max: defaultMaxDepth}
	if err := astcheck.DecodeProperties(props, &opts); err != nil {
		return nil, err
	}
	if err := astcheck.NonNegative("max", opts.Max); err != nil {
		return nil, err
	}
	return &nestingDepth{max: opts.Max}, nil
}

func (c *nestingDepth) Tokens() astcheck.Tokens {
	return astcheck.Tokens{Default: allNestingKinds, Acceptable: allNestingKinds}
}

func (c *nestingDepth) NewVisitor(root *ast.Node, r astcheck.Reporter) astcheck.Visitor {
	return &nestingDepthVisitor{
		max:   c.max,
		kinds: newKindSet(nestingKinds(languageOf(root))...),
		r:     r,
	}
}

type nestingDepthVisitor struct {
	max   int
	kinds kindSet
	r     astcheck.Reporter
	depth int
}

func (v *nestingDepthVisitor) counts(n *ast.Node) bool {
	return v.kinds[n.Kind()] && !isElseIf(n)
}

func (v *nestingDepthVisitor) Enter(n *ast.Node) {
	if !v.counts(n) {
		return
	}
	v.depth++
	if v.depth == v.max+1 {
		v.r.Report(n, "nesting.depth", v.depth, v.max)
	}
}

func (v *nestingDepthVisitor) Leave(n *ast.Node) {
	if v.counts(n) {
		v.depth--
	}
}

func (v *nestingDepthVisitor) Finish(*ast.Node) {}

func nestingDepthEntry() astcheck.Entry {
	return astcheck.Entry{
		Name:     "nesting-depth",
		Category: "complexity",
		Doc: `Checks that control-flow nesting does not exceed a maximum depth.

Works for Go, Python, JavaScript, TypeScript, Java, C and Rust. Only the
first statement that crosses the limit on each path is reported.

| property | default |
|---|---|
| max | 4 |
`,
		New: newNestingDepth,
	}
}
