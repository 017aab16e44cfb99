package checks

import (
	"strings"

	"github.com/chris-regnier/treecheck/internal/ast"
	"github.com/chris-regnier/treecheck/internal/astcheck"
)

// emptyHandler checks for empty error/exception handling blocks.
type emptyHandler struct{}

func newEmptyHandler(props astcheck.Properties) (astcheck.Check, error) {
	if err := astcheck.DecodeProperties(props, &struct{}{}); err != nil {
		return nil, err
	}
	return emptyHandler{}, nil
}

func (emptyHandler) Tokens() astcheck.Tokens {
	kinds := []ast.Kind{"catch_clause", "except_clause", "if_statement"}
	return astcheck.Tokens{Default: kinds, Acceptable: kinds, Leave: []ast.Kind{}}
}

func (emptyHandler) NewVisitor(root *ast.Node, r astcheck.Reporter) astcheck.Visitor {
	return &emptyHandlerVisitor{lang: languageOf(root), r: r}
}

type emptyHandlerVisitor struct {
	astcheck.NopVisitor
	lang string
	r    astcheck.Reporter
}

func (v *emptyHandlerVisitor) Enter(n *ast.Node) {
	switch {
	case v.lang == "go" && n.Is("if_statement"):
		v.checkGo(n)
	case v.lang == "python" && n.Is("except_clause"):
		v.checkPython(n)
	case n.Is("catch_clause"):
		v.checkCatchClause(n)
	}
}

// checkGo finds `if err != nil { }` blocks with empty bodies.
func (v *emptyHandlerVisitor) checkGo(n *ast.Node) {
	cond, ok := n.ChildByField("condition")
	if !ok || strings.TrimSpace(cond.Text()) != "err != nil" {
		return
	}
	cons, ok := n.ChildByField("consequence")
	if ok && isEmptyBlock(cons) {
		v.r.Report(n, "empty.handler", "if err != nil {}")
	}
}

// checkPython finds `except: pass` blocks.
func (v *emptyHandlerVisitor) checkPython(n *ast.Node) {
	body, ok := n.FirstChildOfKind("block")
	if !ok {
		return
	}
	stmts := body.NamedChildren()
	if len(stmts) == 1 && stmts[0].Is("pass_statement") {
		v.r.Report(n, "empty.handler", "except: pass")
	}
}

// checkCatchClause finds catch blocks with empty bodies (JS/TS/Java).
func (v *emptyHandlerVisitor) checkCatchClause(n *ast.Node) {
	body, ok := n.ChildByField("body")
	if ok && isEmptyBlock(body) {
		v.r.Report(n, "empty.handler", "catch {}")
	}
}

// isEmptyBlock reports whether a block holds nothing but comments.
func isEmptyBlock(n *ast.Node) bool {
	for _, c := range n.NamedChildren() {
		if !c.IsComment() {
			return false
		}
	}
	return true
}

func emptyHandlerEntry() astcheck.Entry {
	return astcheck.Entry{
		Name:      "empty-handler",
		Category:  "coding",
		Languages: []string{"go", "python", "javascript", "typescript", "java"},
		Doc: `Checks for error handlers that do nothing: empty catch blocks in
Java, JavaScript and TypeScript, ` + "`except: pass`" + ` in Python and
` + "`if err != nil {}`" + ` in Go. A catch block holding only a comment
still counts as empty.
`,
		New: newEmptyHandler,
	}
}
