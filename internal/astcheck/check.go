// Package astcheck defines the contract between the tree walker and checks,
// binds configured checks into a dispatch table, and walks trees.
package astcheck

import (
	"github.com/chris-regnier/treecheck/internal/ast"
)

// Check is one configured rule. It is built once per run from its
// properties, never mutated afterwards, and may be shared by concurrent
// walks. All per-file state lives in the Visitor it creates.
type Check interface {
	// Tokens declares the node kinds the check can and wants to see.
	Tokens() Tokens
	// NewVisitor starts a file. The returned visitor holds fresh state and
	// reports through r.
	NewVisitor(root *ast.Node, r Reporter) Visitor
}

// Visitor receives traversal events for one file on behalf of one check.
type Visitor interface {
	// Enter is called in pre-order for nodes in the enter set.
	Enter(n *ast.Node)
	// Leave is called in post-order, after every descendant, for nodes in the
	// leave set.
	Leave(n *ast.Node)
	// Finish is called once after the whole tree has been walked.
	Finish(root *ast.Node)
}

// Reporter records violations. Reporting never stops traversal.
type Reporter interface {
	Report(n *ast.Node, key string, args ...any)
	ReportAt(line, column int, key string, args ...any)
}

// NopVisitor implements every hook as a no-op. Embed it to implement only
// the hooks a check needs.
type NopVisitor struct{}

func (NopVisitor) Enter(*ast.Node)  {}
func (NopVisitor) Leave(*ast.Node)  {}
func (NopVisitor) Finish(*ast.Node) {}

// Tokens is the declared interest of a check.
type Tokens struct {
	// Default is the enter set used when no override is configured.
	Default []ast.Kind
	// Acceptable is the largest enter set the check understands. Nil means
	// Default.
	Acceptable []ast.Kind
	// Required kinds must remain in any override.
	Required []ast.Kind
	// Leave is the leave set. Nil means the effective enter set; an empty
	// non-nil slice means no leave events.
	Leave []ast.Kind
	// Trivia keeps comment nodes in every tree, for checks that read the
	// comments around the nodes they enter. Comment kinds in the effective
	// enter set imply it.
	Trivia bool
}

func (t Tokens) acceptable() []ast.Kind {
	if t.Acceptable == nil {
		return t.Default
	}
	return t.Acceptable
}
