package checks

import (
	"regexp"

	"github.com/chris-regnier/treecheck/internal/ast"
	"github.com/chris-regnier/treecheck/internal/astcheck"
)

// isRead reports whether an identifier occurrence may read a symbol. Names
// at declaration sites and targets of a plain assignment are writes; every
// other occurrence counts, so ambiguous references err towards "used".
func isRead(id *ast.Node) bool {
	return !isDeclarationSite(id) && !isPlainAssignTarget(id)
}

type declared struct {
	name string
	node *ast.Node
}

type ignoreOptions struct {
	IgnoreFormat string `mapstructure:"ignoreFormat"`
}

func decodeIgnore(props astcheck.Properties, def string) (*regexp.Regexp, error) {
	opts := ignoreOptions{IgnoreFormat: def}
	if err := astcheck.DecodeProperties(props, &opts); err != nil {
		return nil, err
	}
	return astcheck.CompilePattern("ignoreFormat", opts.IgnoreFormat)
}

// unusedPrivate collects private members of one kind while walking and
// reports, once the whole file has been seen, those whose name is never read.
type unusedPrivate struct {
	member ast.Kind
	key    string
	ignore *regexp.Regexp
}

func newUnusedPrivate(member ast.Kind, key, ignore string) astcheck.Factory {
	return func(props astcheck.Properties) (astcheck.Check, error) {
		re, err := decodeIgnore(props, ignore)
		if err != nil {
			return nil, err
		}
		return &unusedPrivate{member: member, key: key, ignore: re}, nil
	}
}

func (c *unusedPrivate) Tokens() astcheck.Tokens {
	kinds := []ast.Kind{c.member, "identifier"}
	return astcheck.Tokens{Default: kinds, Acceptable: kinds, Required: kinds, Leave: []ast.Kind{}}
}

func (c *unusedPrivate) NewVisitor(_ *ast.Node, r astcheck.Reporter) astcheck.Visitor {
	return &unusedPrivateVisitor{check: c, r: r, used: make(map[string]bool)}
}

type unusedPrivateVisitor struct {
	astcheck.NopVisitor
	check    *unusedPrivate
	r        astcheck.Reporter
	declared []declared
	used     map[string]bool
}

func (v *unusedPrivateVisitor) Enter(n *ast.Node) {
	if n.Is("identifier") {
		if isRead(n) {
			v.used[n.Text()] = true
		}
		return
	}
	if !hasModifier(n, "private") || !n.Parent().Is(memberScopeKinds...) {
		return
	}
	var names []*ast.Node
	if n.Is("method_declaration") {
		if name, ok := n.ChildByField("name"); ok {
			names = append(names, name)
		}
	} else {
		names = declaratorNames(n)
	}
	for _, name := range names {
		if !v.check.ignore.MatchString(name.Text()) {
			v.declared = append(v.declared, declared{name: name.Text(), node: name})
		}
	}
}

func (v *unusedPrivateVisitor) Finish(*ast.Node) {
	for _, d := range v.declared {
		if !v.used[d.name] {
			v.r.Report(d.node, v.check.key, d.name)
		}
	}
}

func unusedPrivateFieldEntry() astcheck.Entry {
	return astcheck.Entry{
		Name:      "unused-private-field",
		Category:  "coding",
		Languages: []string{"java"},
		Doc: `Reports private fields that are never read anywhere in the file.

Assigning to a field with plain ` + "`=`" + ` is not a read. Any other
occurrence of the name counts as a use, so shadowed names can hide an unused
field but never produce a false report.

| property | default |
|---|---|
| ignoreFormat | ` + "`^serialVersionUID$`" + ` |
`,
		New: newUnusedPrivate("field_declaration", "unused.private.field", "^serialVersionUID$"),
	}
}

func unusedPrivateMethodEntry() astcheck.Entry {
	return astcheck.Entry{
		Name:      "unused-private-method",
		Category:  "coding",
		Languages: []string{"java"},
		Doc: `Reports private methods that are never called or referenced in the
file. Calls, method references and any other occurrence of the name count.

| property | default |
|---|---|
| ignoreFormat | serialization hooks such as ` + "`readObject`" + ` |
`,
		New: newUnusedPrivate("method_declaration", "unused.private.method",
			"^(readObject|writeObject|readObjectNoData|readResolve|writeReplace)$"),
	}
}

var localScopeKinds = []ast.Kind{
	"block",
	"constructor_body",
	"for_statement",
	"switch_block",
	"lambda_expression",
}

// unusedLocal keeps a stack of scopes. Each scope records the locals
// declared in it; a read marks the innermost visible declaration, and a
// scope reports its unread locals when it closes.
type unusedLocal struct {
	ignore *regexp.Regexp
}

func newUnusedLocal(props astcheck.Properties) (astcheck.Check, error) {
	re, err := decodeIgnore(props, "^_$")
	if err != nil {
		return nil, err
	}
	return &unusedLocal{ignore: re}, nil
}

func (c *unusedLocal) Tokens() astcheck.Tokens {
	kinds := append([]ast.Kind{"local_variable_declaration", "identifier"}, localScopeKinds...)
	return astcheck.Tokens{Default: kinds, Acceptable: kinds, Required: kinds, Leave: localScopeKinds}
}

func (c *unusedLocal) NewVisitor(_ *ast.Node, r astcheck.Reporter) astcheck.Visitor {
	return &unusedLocalVisitor{check: c, r: r}
}

type localScope struct {
	locals []declared
	used   map[string]bool
}

type unusedLocalVisitor struct {
	check  *unusedLocal
	r      astcheck.Reporter
	scopes []*localScope
}

func (v *unusedLocalVisitor) Enter(n *ast.Node) {
	switch {
	case n.Is(localScopeKinds...):
		v.scopes = append(v.scopes, &localScope{used: make(map[string]bool)})
	case n.Is("local_variable_declaration"):
		if len(v.scopes) == 0 {
			return
		}
		top := v.scopes[len(v.scopes)-1]
		for _, name := range declaratorNames(n) {
			if !v.check.ignore.MatchString(name.Text()) {
				top.locals = append(top.locals, declared{name: name.Text(), node: name})
			}
		}
	case n.Is("identifier"):
		if isRead(n) {
			v.resolve(n.Text())
		}
	}
}

// resolve marks the innermost declaration of name as used.
func (v *unusedLocalVisitor) resolve(name string) {
	for i := len(v.scopes) - 1; i >= 0; i-- {
		s := v.scopes[i]
		for _, d := range s.locals {
			if d.name == name {
				s.used[name] = true
				return
			}
		}
	}
}

func (v *unusedLocalVisitor) Leave(n *ast.Node) {
	if len(v.scopes) == 0 {
		return
	}
	top := v.scopes[len(v.scopes)-1]
	v.scopes = v.scopes[:len(v.scopes)-1]
	for _, d := range top.locals {
		if !top.used[d.name] {
			v.r.Report(d.node, "unused.local.var", d.name)
		}
	}
}

func (v *unusedLocalVisitor) Finish(*ast.Node) {
	if len(v.scopes) != 0 {
		panic("local scopes unbalanced at end of file")
	}
}

func unusedLocalVariableEntry() astcheck.Entry {
	return astcheck.Entry{
		Name:      "unused-local-variable",
		Category:  "coding",
		Languages: []string{"java"},
		Doc: `Reports local variables that are declared but never read before
their scope ends. A plain assignment is not a read.

| property | default |
|---|---|
| ignoreFormat | ` + "`^_$`" + ` |
`,
		New: newUnusedLocal,
	}
}
