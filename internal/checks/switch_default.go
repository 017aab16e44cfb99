package checks

import (
	"github.com/chris-regnier/treecheck/internal/ast"
	"github.com/chris-regnier/treecheck/internal/astcheck"
)

// switchExprParents are parents that use a switch for its value. Switch
// expressions must be exhaustive already, so they are not checked.
var switchExprParents = newKindSet(
	"variable_declarator",
	"assignment_expression",
	"return_statement",
	"yield_statement",
	"argument_list",
	"parenthesized_expression",
	"lambda_expression",
	"ternary_expression",
	"binary_expression",
	"cast_expression",
	"array_initializer",
)

// missingSwitchDefault reports switch statements without a default label.
type missingSwitchDefault struct{}

func newMissingSwitchDefault(props astcheck.Properties) (astcheck.Check, error) {
	if err := astcheck.DecodeProperties(props, &struct{}{}); err != nil {
		return nil, err
	}
	return missingSwitchDefault{}, nil
}

func (missingSwitchDefault) Tokens() astcheck.Tokens {
	kinds := []ast.Kind{"switch_block"}
	return astcheck.Tokens{Default: kinds, Acceptable: kinds, Required: kinds, Leave: []ast.Kind{}}
}

func (missingSwitchDefault) NewVisitor(_ *ast.Node, r astcheck.Reporter) astcheck.Visitor {
	return &switchDefaultVisitor{r: r}
}

type switchDefaultVisitor struct {
	astcheck.NopVisitor
	r astcheck.Reporter
}

func (v *switchDefaultVisitor) Enter(body *ast.Node) {
	sw := body.Parent()
	if switchExprParents[sw.Parent().Kind()] {
		return
	}
	hasCases := false
	for _, c := range body.Children() {
		if !c.Is("switch_block_statement_group", "switch_rule") {
			continue
		}
		hasCases = true
		for _, label := range c.ChildrenOfKind("switch_label") {
			if isDefaultLabel(label) {
				return
			}
		}
	}
	if hasCases {
		v.r.Report(sw, "missing.switch.default")
	}
}

// isDefaultLabel accepts `default` and `case null, default`. Only the
// keyword token counts, so a constant such as `nodefault` does not.
func isDefaultLabel(label *ast.Node) bool {
	return label.HasChildText("default")
}

func missingSwitchDefaultEntry() astcheck.Entry {
	return astcheck.Entry{
		Name:      "missing-switch-default",
		Category:  "coding",
		Languages: []string{"java"},
		Doc: `Checks that switch statements have a default label.

Switch expressions are skipped because the compiler already requires them
to be exhaustive.
`,
		New: newMissingSwitchDefault,
	}
}
