package checks

import (
	"regexp"

	"github.com/chris-regnier/treecheck/internal/ast"
	"github.com/chris-regnier/treecheck/internal/astcheck"
)

var textKinds = []ast.Kind{
	"string_literal",
	"character_literal",
	"text_block",
	"identifier",
	"interpreted_string_literal",
	"raw_string_literal",
	"string",
	"template_string",
	"comment",
	"line_comment",
	"block_comment",
}

type regexpOptions struct {
	Format     string `mapstructure:"format"`
	IgnoreCase bool   `mapstructure:"ignoreCase"`
	Message    string `mapstructure:"message"`
}

// textMatch is stateless: it tests the text of every node of its kinds
// against a precompiled pattern. One value serves any number of concurrent
// walks.
type textMatch struct {
	key      string
	pattern  *regexp.Regexp
	format   string
	message  string
	defaults []ast.Kind
}

func (c *textMatch) Tokens() astcheck.Tokens {
	return astcheck.Tokens{Default: c.defaults, Acceptable: textKinds, Leave: []ast.Kind{}}
}

func (c *textMatch) NewVisitor(_ *ast.Node, r astcheck.Reporter) astcheck.Visitor {
	return &textMatchVisitor{check: c, r: r}
}

type textMatchVisitor struct {
	astcheck.NopVisitor
	check *textMatch
	r     astcheck.Reporter
}

func (v *textMatchVisitor) Enter(n *ast.Node) {
	if !v.check.pattern.MatchString(n.Text()) {
		return
	}
	if v.check.message != "" {
		v.r.Report(n, v.check.key, v.check.format, v.check.message)
		return
	}
	v.r.Report(n, v.check.key, v.check.format)
}

func newTextMatch(key, defaultFormat string, defaults []ast.Kind) astcheck.Factory {
	return func(props astcheck.Properties) (astcheck.Check, error) {
		opts := regexpOptions{Format: defaultFormat}
		if err := astcheck.DecodeProperties(props, &opts); err != nil {
			return nil, err
		}
		expr := opts.Format
		if opts.IgnoreCase {
			expr = "(?i)" + expr
		}
		re, err := astcheck.CompilePattern("format", expr)
		if err != nil {
			return nil, err
		}
		return &textMatch{key: key, pattern: re, format: opts.Format, message: opts.Message, defaults: defaults}, nil
	}
}

func regexpEntry() astcheck.Entry {
	return astcheck.Entry{
		Name:     "regexp",
		Category: "misc",
		Doc: `Reports literals, identifiers or comments whose text matches a
regular expression. The node kinds are chosen with a token override; by
default string literals are tested.

| property | default |
|---|---|
| format | ` + "`$^`" + ` (matches nothing) |
| ignoreCase | false |
| message | custom text appended to the report |
`,
		New: newTextMatch("regexp.match", "$^", []ast.Kind{"string_literal", "string", "interpreted_string_literal"}),
	}
}

func todoCommentEntry() astcheck.Entry {
	return astcheck.Entry{
		Name:     "todo-comment",
		Category: "misc",
		Doc: `Reports comments containing a marker such as ` + "`TODO:`" + `.

| property | default |
|---|---|
| format | ` + "`TODO:`" + ` |
`,
		New: newTextMatch("todo.match", "TODO:", []ast.Kind{"comment", "line_comment", "block_comment"}),
	}
}
