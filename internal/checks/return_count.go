package checks

import (
	"regexp"

	"github.com/chris-regnier/treecheck/internal/ast"
	"github.com/chris-regnier/treecheck/internal/astcheck"
)

type returnCountOptions struct {
	Max        int    `mapstructure:"max"`
	MaxForVoid int    `mapstructure:"maxForVoid"`
	Format     string `mapstructure:"format"`
}

// returnCount restricts the number of return statements per method,
// constructor and lambda. Methods whose name matches Format are exempt.
type returnCount struct {
	max        int
	maxForVoid int
	format     *regexp.Regexp
}

func newReturnCount(props astcheck.Properties) (astcheck.Check, error) {
	opts := returnCountOptions{Max: 2, MaxForVoid: 1, Format: "^equals$"}
	if err := astcheck.DecodeProperties(props, &opts); err != nil {
		return nil, err
	}
	if err := astcheck.NonNegative("max", opts.Max); err != nil {
		return nil, err
	}
	if err := astcheck.NonNegative("maxForVoid", opts.MaxForVoid); err != nil {
		return nil, err
	}
	re, err := astcheck.CompilePattern("format", opts.Format)
	if err != nil {
		return nil, err
	}
	return &returnCount{max: opts.Max, maxForVoid: opts.MaxForVoid, format: re}, nil
}

var returnContextKinds = []ast.Kind{"method_declaration", "constructor_declaration", "lambda_expression"}

func (c *returnCount) Tokens() astcheck.Tokens {
	all := append([]ast.Kind{"return_statement"}, returnContextKinds...)
	return astcheck.Tokens{
		Default:    all,
		Acceptable: all,
		Required:   []ast.Kind{"return_statement"},
	}
}

func (c *returnCount) NewVisitor(_ *ast.Node, r astcheck.Reporter) astcheck.Visitor {
	return &returnCountVisitor{check: c, r: r, current: &returnContext{}}
}

// returnContext counts the returns of one method or lambda. The limit is
// only known once the first return shows whether the body returns a value.
type returnContext struct {
	checking bool
	count    int
	max      int
	void     bool
	seen     bool
}

type returnCountVisitor struct {
	check   *returnCount
	r       astcheck.Reporter
	current *returnContext
	stack   []*returnContext
}

func (v *returnCountVisitor) Enter(n *ast.Node) {
	switch n.Kind() {
	case "method_declaration", "constructor_declaration":
		name, _ := n.ChildByField("name")
		v.push(&returnContext{checking: !v.check.format.MatchString(name.Text())})
	case "lambda_expression":
		v.push(&returnContext{checking: true})
	case "return_statement":
		c := v.current
		c.seen = true
		c.count++
		if lastStatement(n) == nil {
			c.void, c.max = true, v.check.maxForVoid
		} else {
			c.void, c.max = false, v.check.max
		}
	}
}

func (v *returnCountVisitor) Leave(n *ast.Node) {
	if !n.Is(returnContextKinds...) {
		return
	}
	c := v.current
	if c.checking && c.seen && c.count > c.max {
		key := "return.count"
		if c.void {
			key = "return.countVoid"
		}
		v.r.Report(n, key, c.count, c.max)
	}
	v.current = v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
}

func (v *returnCountVisitor) push(c *returnContext) {
	v.stack = append(v.stack, v.current)
	v.current = c
}

func (v *returnCountVisitor) Finish(*ast.Node) {
	if len(v.stack) != 0 {
		panic("return contexts unbalanced at end of file")
	}
}

func returnCountEntry() astcheck.Entry {
	return astcheck.Entry{
		Name:      "return-count",
		Category:  "coding",
		Languages: []string{"java"},
		Doc: `Restricts the number of return statements in methods, constructors
and lambdas. Void bodies use a separate limit. Lambdas are counted on their
own and do not add to the enclosing method.

| property | default |
|---|---|
| max | 2 |
| maxForVoid | 1 |
| format | ` + "`^equals$`" + ` (exempt method names) |
`,
		New: newReturnCount,
	}
}
