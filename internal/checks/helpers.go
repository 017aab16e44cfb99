package checks

import (
	"strings"

	"github.com/chris-regnier/treecheck/internal/ast"
)

// kindSet is a set of node kinds.
type kindSet map[ast.Kind]bool

func newKindSet(kinds ...ast.Kind) kindSet {
	s := make(kindSet, len(kinds))
	for _, k := range kinds {
		s[k] = true
	}
	return s
}

// union returns the kinds of every set, in first-seen order.
func union(sets ...[]ast.Kind) []ast.Kind {
	seen := make(kindSet)
	var out []ast.Kind
	for _, set := range sets {
		for _, k := range set {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}

// languageOf returns the language of the tree n belongs to.
func languageOf(n *ast.Node) string {
	if t := n.Tree(); t != nil {
		return t.Language()
	}
	return ""
}

// funcKinds returns the node kinds that represent function definitions for
// the given language.
func funcKinds(lang string) []ast.Kind {
	switch lang {
	case "go":
		return []ast.Kind{"function_declaration", "method_declaration"}
	case "python":
		return []ast.Kind{"function_definition"}
	case "javascript", "typescript":
		return []ast.Kind{"function_declaration", "method_definition", "arrow_function"}
	case "java":
		return []ast.Kind{"method_declaration", "constructor_declaration"}
	case "c":
		return []ast.Kind{"function_definition"}
	case "rust":
		return []ast.Kind{"function_item"}
	default:
		return nil
	}
}

var allFuncKinds = union(
	funcKinds("go"), funcKinds("python"), funcKinds("javascript"),
	funcKinds("java"), funcKinds("c"), funcKinds("rust"),
)

// funcName extracts a human-readable function name from a function node.
func funcName(n *ast.Node) string {
	if name, ok := n.ChildByField("name"); ok {
		return name.Text()
	}
	if decl, ok := n.ChildByField("declarator"); ok {
		// C: function_declarator(declarator: identifier, parameters)
		if inner, ok := decl.ChildByField("declarator"); ok {
			return inner.Text()
		}
	}
	return "<anonymous>"
}

// modifiers returns the Java modifiers node of a declaration, or nil.
func modifiers(decl *ast.Node) *ast.Node {
	m, _ := decl.FirstChildOfKind("modifiers")
	return m
}

// hasModifier reports whether a Java declaration carries the keyword.
func hasModifier(decl *ast.Node, keyword string) bool {
	return modifiers(decl).HasChildText(keyword)
}

// hasAnnotation reports whether a Java declaration is annotated with name.
func hasAnnotation(decl *ast.Node, name string) bool {
	for _, c := range modifiers(decl).Children() {
		if !c.Is("marker_annotation", "annotation") {
			continue
		}
		if n, ok := c.ChildByField("name"); ok && n.Text() == name {
			return true
		}
	}
	return false
}

// declaratorNames returns the name nodes of every variable_declarator under
// a field or local variable declaration.
func declaratorNames(decl *ast.Node) []*ast.Node {
	var names []*ast.Node
	for _, d := range decl.ChildrenOfKind("variable_declarator") {
		if name, ok := d.ChildByField("name"); ok {
			names = append(names, name)
		}
	}
	return names
}

// declarationParents are the kinds whose "name" child introduces a symbol
// rather than referring to one.
var declarationParents = newKindSet(
	"variable_declarator",
	"formal_parameter",
	"spread_parameter",
	"catch_formal_parameter",
	"method_declaration",
	"constructor_declaration",
	"compact_constructor_declaration",
	"class_declaration",
	"interface_declaration",
	"enum_declaration",
	"record_declaration",
	"annotation_type_declaration",
	"enum_constant",
	"resource",
	"enhanced_for_statement",
	"labeled_statement",
)

// isDeclarationSite reports whether an identifier names the symbol its
// parent declares.
func isDeclarationSite(id *ast.Node) bool {
	p := id.Parent()
	if p.Is("labeled_statement", "break_statement", "continue_statement") {
		return true
	}
	return id.Field() == "name" && declarationParents[p.Kind()]
}

// isPlainAssignTarget reports whether an identifier is written, not read, by
// a plain "=" assignment: `x = ...` or `this.x = ...`.
func isPlainAssignTarget(id *ast.Node) bool {
	target := id
	if p := id.Parent(); p.Is("field_access") && id.Field() == "field" {
		if obj, ok := p.ChildByField("object"); !ok || !obj.Is("this") {
			return false
		}
		target = p
	}
	if target.Field() != "left" {
		return false
	}
	assign := target.Parent()
	if !assign.Is("assignment_expression") {
		return false
	}
	op, ok := assign.ChildByField("operator")
	return ok && op.Text() == "="
}

// lastStatement returns the last named, non-comment child of n that is not
// one of the skipped kinds.
func lastStatement(n *ast.Node, skip ...ast.Kind) *ast.Node {
	for c := n.LastChild(); c != nil; c = c.PrevSibling() {
		if !c.IsNamed() || c.IsComment() || c.Is(skip...) {
			continue
		}
		return c
	}
	return nil
}

// lineCount returns the number of source lines n spans, optionally ignoring
// blank lines and lines holding only a line comment.
func lineCount(n *ast.Node, countEmpty bool) int {
	if countEmpty {
		return n.EndLine() - n.Line() + 1
	}
	count := 0
	for _, line := range strings.Split(n.Text(), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		count++
	}
	return count
}
