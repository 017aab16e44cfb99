package rules

import (
	"fmt"
	"strings"

	"github.com/chris-regnier/treecheck/internal/ast"
	"github.com/chris-regnier/treecheck/internal/astcheck"
)

// patternCheck reports every node of the rule's kinds whose text matches the
// rule's pattern.
type patternCheck struct {
	rule Rule
}

func (c *patternCheck) Tokens() astcheck.Tokens {
	return astcheck.Tokens{Default: c.rule.Kinds, Leave: []ast.Kind{}}
}

func (c *patternCheck) NewVisitor(_ *ast.Node, r astcheck.Reporter) astcheck.Visitor {
	return &patternVisitor{rule: &c.rule, r: r}
}

type patternVisitor struct {
	astcheck.NopVisitor
	rule *Rule
	r    astcheck.Reporter
}

func (v *patternVisitor) Enter(n *ast.Node) {
	text := n.Text()
	loc := v.rule.Pattern.FindStringIndex(text)
	if loc == nil {
		return
	}
	// Anchor at the match, not the node, so multi-line comments point at
	// the offending line.
	line, col := n.Line(), n.Column()
	prefix := text[:loc[0]]
	if nl := strings.Count(prefix, "\n"); nl > 0 {
		line += nl
		col = len(prefix) - strings.LastIndex(prefix, "\n")
	} else {
		col += len(prefix)
	}
	v.r.ReportAt(line, col, "pattern.match", v.rule.Message)
}

// Entry turns the rule into a registrable check.
func (r Rule) Entry() astcheck.Entry {
	rule := r
	return astcheck.Entry{
		Name:      r.ID,
		Doc:       r.doc(),
		Category:  string(r.Category),
		Languages: r.Languages,
		New: func(props astcheck.Properties) (astcheck.Check, error) {
			if err := astcheck.DecodeProperties(props, &struct{}{}); err != nil {
				return nil, err
			}
			return &patternCheck{rule: rule}, nil
		},
	}
}

func (r Rule) doc() string {
	var b strings.Builder
	title := r.Name
	if title == "" {
		title = r.ID
	}
	fmt.Fprintf(&b, "%s\n\n", r.Message)
	fmt.Fprintf(&b, "Pattern rule `%s` (%s), level %s. Matches `%s`.\n", title, r.Category, r.Level, r.RawPattern)
	if r.Explanation != "" {
		fmt.Fprintf(&b, "\n%s\n", strings.TrimSpace(r.Explanation))
	}
	if r.Remediation != "" {
		fmt.Fprintf(&b, "\n**Remediation:** %s\n", strings.TrimSpace(r.Remediation))
	}
	if len(r.CWE) > 0 {
		fmt.Fprintf(&b, "\n**CWE:** %s\n", strings.Join(r.CWE, ", "))
	}
	if len(r.References) > 0 {
		b.WriteString("\n")
		for _, ref := range r.References {
			fmt.Fprintf(&b, "- %s\n", ref)
		}
	}
	return b.String()
}

// Register adds every rule to reg, replacing any entry with the same ID.
func Register(reg *astcheck.Registry, rules []Rule) {
	for _, r := range rules {
		reg.Register(r.Entry())
	}
}
