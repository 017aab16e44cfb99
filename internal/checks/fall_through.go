package checks

import (
	"regexp"

	"github.com/chris-regnier/treecheck/internal/ast"
	"github.com/chris-regnier/treecheck/internal/astcheck"
)

type fallThroughOptions struct {
	CheckLastCaseGroup bool   `mapstructure:"checkLastCaseGroup"`
	ReliefPattern      string `mapstructure:"reliefPattern"`
}

// fallThrough reports switch groups whose statements can complete normally
// and so continue into the next group. A comment matching the relief
// pattern after the group's last statement marks the fall-through as
// intended.
type fallThrough struct {
	checkLast bool
	relief    *regexp.Regexp
}

func newFallThrough(props astcheck.Properties) (astcheck.Check, error) {
	opts := fallThroughOptions{ReliefPattern: `falls?[ -]?thr(u|ough)`}
	if err := astcheck.DecodeProperties(props, &opts); err != nil {
		return nil, err
	}
	re, err := astcheck.CompilePattern("reliefPattern", opts.ReliefPattern)
	if err != nil {
		return nil, err
	}
	return &fallThrough{checkLast: opts.CheckLastCaseGroup, relief: re}, nil
}

func (c *fallThrough) Tokens() astcheck.Tokens {
	kinds := []ast.Kind{"switch_block_statement_group"}
	return astcheck.Tokens{Default: kinds, Acceptable: kinds, Required: kinds, Leave: []ast.Kind{}, Trivia: true}
}

func (c *fallThrough) NewVisitor(_ *ast.Node, r astcheck.Reporter) astcheck.Visitor {
	return &fallThroughVisitor{check: c, r: r}
}

type fallThroughVisitor struct {
	astcheck.NopVisitor
	check *fallThrough
	r     astcheck.Reporter
}

func (v *fallThroughVisitor) Enter(group *ast.Node) {
	next := nextGroup(group)
	isLast := next == nil
	if isLast && !v.check.checkLast {
		return
	}
	last := lastStatement(group, "switch_label")
	if last == nil {
		return
	}
	if isTerminated(last, true, true, map[string]bool{}) {
		return
	}
	if v.hasReliefComment(group, last, next) {
		return
	}
	if isLast {
		v.r.Report(group, "fall.through.last")
	} else {
		v.r.Report(next, "fall.through")
	}
}

// nextGroup returns the following statement group of the same switch.
func nextGroup(group *ast.Node) *ast.Node {
	for s := group.NextSibling(); s != nil; s = s.NextSibling() {
		if s.Is("switch_block_statement_group") {
			return s
		}
	}
	return nil
}

// hasReliefComment looks for a matching comment between the group's last
// statement and the start of the next group, or the end of the switch.
func (v *fallThroughVisitor) hasReliefComment(group, last, next *ast.Node) bool {
	from := last.EndByte()
	to := group.Parent().EndByte()
	if next != nil {
		to = next.StartByte()
	}
	found := false
	group.Parent().Preorder(func(n *ast.Node) bool {
		if found || n.EndByte() < from || n.StartByte() > to {
			return false
		}
		if n.IsComment() && n.StartByte() >= from && v.check.relief.MatchString(n.Text()) {
			found = true
			return false
		}
		return true
	})
	return found
}

// isTerminated reports whether control cannot fall out of the end of the
// statement. A plain break ends the group when useBreak is set; inside a
// nested loop or switch it no longer does. Labels declared inside the group
// do not leave the switch.
func isTerminated(n *ast.Node, useBreak, useContinue bool, labels map[string]bool) bool {
	switch n.Kind() {
	case "return_statement", "throw_statement", "yield_statement":
		return true
	case "break_statement":
		return useBreak || hasOuterLabel(n, labels)
	case "continue_statement":
		return useContinue || hasOuterLabel(n, labels)
	case "block":
		last := lastStatement(n)
		return last != nil && isTerminated(last, useBreak, useContinue, labels)
	case "if_statement":
		then, _ := n.ChildByField("consequence")
		alt, ok := n.ChildByField("alternative")
		return ok &&
			isTerminated(then, useBreak, useContinue, labels) &&
			isTerminated(alt, useBreak, useContinue, labels)
	case "for_statement", "enhanced_for_statement", "while_statement", "do_statement":
		body, ok := n.ChildByField("body")
		return ok && isTerminated(body, false, false, labels)
	case "try_statement", "try_with_resources_statement":
		return tryTerminated(n, useBreak, useContinue, labels)
	case "switch_expression", "switch_statement":
		return switchTerminated(n, useContinue, labels)
	case "synchronized_statement":
		body, ok := n.FirstChildOfKind("block")
		return ok && isTerminated(body, useBreak, useContinue, labels)
	case "labeled_statement":
		if label, ok := n.FirstChildOfKind("identifier"); ok {
			labels[label.Text()] = true
		}
		last := lastStatement(n, "identifier")
		return last != nil && isTerminated(last, useBreak, useContinue, labels)
	case "expression_statement":
		// `switch` used as a statement expression
		if inner := lastStatement(n); inner.Is("switch_expression") {
			return switchTerminated(inner, useContinue, labels)
		}
		return false
	default:
		return false
	}
}

// hasOuterLabel reports whether a break or continue targets a label that was
// not declared inside the current switch group.
func hasOuterLabel(stmt *ast.Node, labels map[string]bool) bool {
	label, ok := stmt.FirstChildOfKind("identifier")
	return ok && !labels[label.Text()]
}

func tryTerminated(n *ast.Node, useBreak, useContinue bool, labels map[string]bool) bool {
	if fin, ok := n.FirstChildOfKind("finally_clause"); ok {
		if body, ok := fin.FirstChildOfKind("block"); ok && isTerminated(body, useBreak, useContinue, labels) {
			return true
		}
	}
	body, ok := n.ChildByField("body")
	if !ok || !isTerminated(body, useBreak, useContinue, labels) {
		return false
	}
	for _, c := range n.ChildrenOfKind("catch_clause") {
		cb, ok := c.ChildByField("body")
		if !ok || !isTerminated(cb, useBreak, useContinue, labels) {
			return false
		}
	}
	return true
}

// switchTerminated requires every group of a nested switch to terminate
// without relying on a plain break, which would only leave the inner switch.
func switchTerminated(n *ast.Node, useContinue bool, labels map[string]bool) bool {
	body, ok := n.ChildByField("body")
	if !ok {
		return false
	}
	groups := body.ChildrenOfKind("switch_block_statement_group")
	if len(groups) == 0 {
		return false
	}
	for _, g := range groups {
		last := lastStatement(g, "switch_label")
		if last == nil || !isTerminated(last, false, useContinue, labels) {
			return false
		}
	}
	return true
}

func fallThroughEntry() astcheck.Entry {
	return astcheck.Entry{
		Name:      "fall-through",
		Category:  "coding",
		Languages: []string{"java"},
		Doc: `Checks for fall-through in switch statements: a case group whose
statements can complete normally continues into the next one.

A group is terminated by return, throw, yield, break or continue, by an
if/else whose branches both terminate, by a try whose finally terminates
or whose body and every catch terminate, by a synchronized block that
terminates, and by a nested switch whose every group terminates. Loops
terminate only through return or throw.

Intentional fall-through is marked with a comment matching the relief
pattern after the last statement of the group, for example
` + "`// fall through`" + `.

| property | default |
|---|---|
| checkLastCaseGroup | false |
| reliefPattern | ` + "`falls?[ -]?thr(u|ough)`" + ` |
`,
		New: newFallThrough,
	}
}
