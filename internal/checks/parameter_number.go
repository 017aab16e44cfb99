package checks

import (
	"github.com/chris-regnier/treecheck/internal/ast"
	"github.com/chris-regnier/treecheck/internal/astcheck"
)

const defaultMaxParams = 5

type parameterNumberOptions struct {
	Max              int  `mapstructure:"max"`
	IgnoreOverridden bool `mapstructure:"ignoreOverridden"`
}

// parameterNumber checks that functions do not have too many parameters.
type parameterNumber struct {
	opts parameterNumberOptions
}

func newParameterNumber(props astcheck.Properties) (astcheck.Check, error) {
	opts := parameterNumberOptions{Max: defaultMaxParams}
	if err := astcheck.DecodeProperties(props, &opts); err != nil {
		return nil, err
	}
	if err := astcheck.NonNegative("max", opts.Max); err != nil {
		return nil, err
	}
	return &parameterNumber{opts: opts}, nil
}

func (c *parameterNumber) Tokens() astcheck.Tokens {
	return astcheck.Tokens{Default: allFuncKinds, Acceptable: allFuncKinds, Leave: []ast.Kind{}}
}

func (c *parameterNumber) NewVisitor(root *ast.Node, r astcheck.Reporter) astcheck.Visitor {
	lang := languageOf(root)
	return &parameterNumberVisitor{opts: c.opts, lang: lang, kinds: newKindSet(funcKinds(lang)...), r: r}
}

type parameterNumberVisitor struct {
	astcheck.NopVisitor
	opts  parameterNumberOptions
	lang  string
	kinds kindSet
	r     astcheck.Reporter
}

func (v *parameterNumberVisitor) Enter(n *ast.Node) {
	if !v.kinds[n.Kind()] {
		return
	}
	if v.opts.IgnoreOverridden && hasAnnotation(n, "Override") {
		return
	}
	params, ok := n.ChildByField("parameters")
	if !ok {
		if decl, found := n.ChildByField("declarator"); found {
			params, ok = decl.ChildByField("parameters")
		}
	}
	if !ok {
		return
	}
	if count := countParams(params, v.lang); count > v.opts.Max {
		v.r.Report(n, "maxParam", count, v.opts.Max, funcName(n))
	}
}

func countParams(params *ast.Node, lang string) int {
	if lang == "go" {
		return countGoParams(params)
	}
	kinds := paramKinds(lang)
	count := 0
	for _, c := range params.NamedChildren() {
		if kinds == nil || kinds[c.Kind()] {
			count++
		}
	}
	return count
}

// countGoParams handles Go's grouped parameter declarations (e.g. `a, b int`).
// Each parameter_declaration may contain multiple identifiers.
func countGoParams(params *ast.Node) int {
	count := 0
	for _, decl := range params.NamedChildren() {
		if !decl.Is("parameter_declaration", "variadic_parameter_declaration") {
			continue
		}
		ids := len(decl.ChildrenOfKind("identifier"))
		if ids == 0 {
			// unnamed parameter such as `int`
			ids = 1
		}
		count += ids
	}
	return count
}

func paramKinds(lang string) kindSet {
	switch lang {
	case "python":
		return newKindSet("identifier", "default_parameter", "typed_parameter", "typed_default_parameter")
	case "javascript":
		return newKindSet("identifier", "assignment_pattern", "rest_pattern")
	case "typescript":
		return newKindSet("identifier", "assignment_pattern", "rest_pattern", "required_parameter", "optional_parameter")
	case "java":
		return newKindSet("formal_parameter", "spread_parameter")
	case "c":
		return newKindSet("parameter_declaration")
	case "rust":
		return newKindSet("parameter")
	default:
		return nil
	}
}

func parameterNumberEntry() astcheck.Entry {
	return astcheck.Entry{
		Name:     "parameter-number",
		Category: "size",
		Doc: `Checks the number of parameters of functions, methods and
constructors. Go counts every name in a grouped declaration such as
` + "`a, b int`" + `.

| property | default |
|---|---|
| max | 5 |
| ignoreOverridden | false (skip methods annotated ` + "`@Override`" + `) |
`,
		New: newParameterNumber,
	}
}
