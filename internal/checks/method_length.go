package checks

import (
	"github.com/chris-regnier/treecheck/internal/ast"
	"github.com/chris-regnier/treecheck/internal/astcheck"
)

const defaultMaxLines = 50

type methodLengthOptions struct {
	Max        int  `mapstructure:"max"`
	CountEmpty bool `mapstructure:"countEmpty"`
}

// methodLength checks that functions do not exceed a configurable line count.
type methodLength struct {
	opts methodLengthOptions
}

func newMethodLength(props astcheck.Properties) (astcheck.Check, error) {
	opts := methodLengthOptions{Max: defaultMaxLines, CountEmpty: true}
	if err := astcheck.DecodeProperties(props, &opts); err != nil {
		return nil, err
	}
	if err := astcheck.NonNegative("max", opts.Max); err != nil {
		return nil, err
	}
	return &methodLength{opts: opts}, nil
}

func (c *methodLength) Tokens() astcheck.Tokens {
	return astcheck.Tokens{Default: allFuncKinds, Acceptable: allFuncKinds, Leave: []ast.Kind{}}
}

func (c *methodLength) NewVisitor(root *ast.Node, r astcheck.Reporter) astcheck.Visitor {
	return &methodLengthVisitor{opts: c.opts, kinds: newKindSet(funcKinds(languageOf(root))...), r: r}
}

type methodLengthVisitor struct {
	astcheck.NopVisitor
	opts  methodLengthOptions
	kinds kindSet
	r     astcheck.Reporter
}

func (v *methodLengthVisitor) Enter(n *ast.Node) {
	if !v.kinds[n.Kind()] {
		return
	}
	if lines := lineCount(n, v.opts.CountEmpty); lines > v.opts.Max {
		v.r.Report(n, "maxLen.method", lines, v.opts.Max, funcName(n))
	}
}

func methodLengthEntry() astcheck.Entry {
	return astcheck.Entry{
		Name:     "method-length",
		Category: "size",
		Doc: `Checks that functions and methods do not exceed a number of lines.

| property | default |
|---|---|
| max | 50 |
| countEmpty | true (count blank and comment-only lines) |
`,
		New: newMethodLength,
	}
}
