package checks

import (
	"github.com/chris-regnier/treecheck/internal/ast"
	"github.com/chris-regnier/treecheck/internal/astcheck"
)

// Member categories in their expected order.
const (
	stateStaticVariable = iota + 1
	stateInstanceVariable
	stateConstructor
	stateMethod
)

// access levels, widest first.
type access int

const (
	accessPublic access = iota
	accessProtected
	accessPackage
	accessPrivate
)

func accessOf(decl *ast.Node) access {
	switch {
	case hasModifier(decl, "public"):
		return accessPublic
	case hasModifier(decl, "protected"):
		return accessProtected
	case hasModifier(decl, "private"):
		return accessPrivate
	default:
		return accessPackage
	}
}

var memberScopeKinds = []ast.Kind{"class_body", "interface_body", "enum_body_declarations"}

type declarationOrderOptions struct {
	IgnoreConstructors bool `mapstructure:"ignoreConstructors"`
	IgnoreModifiers    bool `mapstructure:"ignoreModifiers"`
}

// declarationOrder checks that class members appear as static variables,
// instance variables, constructors, then methods, and that variables of each
// kind go from public to private.
type declarationOrder struct {
	opts declarationOrderOptions
}

func newDeclarationOrder(props astcheck.Properties) (astcheck.Check, error) {
	var opts declarationOrderOptions
	if err := astcheck.DecodeProperties(props, &opts); err != nil {
		return nil, err
	}
	return &declarationOrder{opts: opts}, nil
}

func (c *declarationOrder) Tokens() astcheck.Tokens {
	kinds := append([]ast.Kind{
		"field_declaration",
		"constant_declaration",
		"constructor_declaration",
		"compact_constructor_declaration",
		"method_declaration",
	}, memberScopeKinds...)
	return astcheck.Tokens{
		Default:    kinds,
		Acceptable: kinds,
		Required:   kinds,
		Leave:      memberScopeKinds,
	}
}

func (c *declarationOrder) NewVisitor(_ *ast.Node, r astcheck.Reporter) astcheck.Visitor {
	return &declarationOrderVisitor{opts: c.opts, r: r, fieldNames: make(map[string]bool)}
}

type memberScope struct {
	state  int
	access access
}

type declarationOrderVisitor struct {
	opts       declarationOrderOptions
	r          astcheck.Reporter
	scopes     []*memberScope
	fieldNames map[string]bool
}

func (v *declarationOrderVisitor) Enter(n *ast.Node) {
	if n.Is(memberScopeKinds...) {
		v.scopes = append(v.scopes, &memberScope{state: stateStaticVariable, access: accessPublic})
		return
	}
	if !n.Parent().Is(memberScopeKinds...) || len(v.scopes) == 0 {
		return
	}
	scope := v.scopes[len(v.scopes)-1]
	switch n.Kind() {
	case "field_declaration", "constant_declaration":
		v.field(n, scope)
		for _, name := range declaratorNames(n) {
			v.fieldNames[name.Text()] = true
		}
	case "constructor_declaration", "compact_constructor_declaration":
		if scope.state > stateConstructor {
			if !v.opts.IgnoreConstructors {
				v.r.Report(n, "declaration.order.constructor")
			}
		} else {
			scope.state = stateConstructor
		}
	case "method_declaration":
		scope.state = stateMethod
	}
}

func (v *declarationOrderVisitor) field(n *ast.Node, scope *memberScope) {
	valid := true
	if !hasModifier(n, "static") {
		if scope.state > stateInstanceVariable {
			valid = false
			v.r.Report(n, "declaration.order.instance")
		} else if scope.state == stateStaticVariable {
			scope.access = accessPublic
			scope.state = stateInstanceVariable
		}
	} else if scope.state > stateInstanceVariable ||
		(scope.state > stateStaticVariable && !v.opts.IgnoreModifiers) {
		valid = false
		v.r.Report(n, "declaration.order.static")
	}

	acc := accessOf(n)
	if scope.access > acc {
		if valid && !v.opts.IgnoreModifiers && !v.isForwardReference(n) {
			v.r.Report(n, "declaration.order.access")
		}
	} else {
		scope.access = acc
	}
}

// isForwardReference reports whether the field's initializer reads a field
// declared before it, which forces the narrower field to come first.
func (v *declarationOrderVisitor) isForwardReference(field *ast.Node) bool {
	for _, d := range field.ChildrenOfKind("variable_declarator") {
		value, ok := d.ChildByField("value")
		if !ok {
			continue
		}
		_, found := value.FindFirst(func(n *ast.Node) bool {
			return n.Is("identifier") && v.fieldNames[n.Text()]
		})
		if found || (value.Is("identifier") && v.fieldNames[value.Text()]) {
			return true
		}
	}
	return false
}

func (v *declarationOrderVisitor) Leave(n *ast.Node) {
	if n.Is(memberScopeKinds...) && len(v.scopes) > 0 {
		v.scopes = v.scopes[:len(v.scopes)-1]
	}
}

func (v *declarationOrderVisitor) Finish(*ast.Node) {
	if len(v.scopes) != 0 {
		panic("member scopes unbalanced at end of file")
	}
}

func declarationOrderEntry() astcheck.Entry {
	return astcheck.Entry{
		Name:      "declaration-order",
		Category:  "coding",
		Languages: []string{"java"},
		Doc: `Checks that the parts of a class, record, enum or interface
declaration appear in this order:

1. static variables: public, protected, package, private
2. instance variables: public, protected, package, private
3. constructors
4. methods

A variable whose initializer reads an earlier field may appear after a
narrower one. Each nested or anonymous class is checked on its own.

| property | default |
|---|---|
| ignoreConstructors | false |
| ignoreModifiers | false |
`,
		New: newDeclarationOrder,
	}
}
