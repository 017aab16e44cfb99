// Package rules loads pattern rules from YAML and turns each into a check.
package rules

import (
	"regexp"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/chris-regnier/treecheck/internal/ast"
)

type RuleCategory string

const (
	CategorySecurity        RuleCategory = "security"
	CategoryReliability     RuleCategory = "reliability"
	CategoryMaintainability RuleCategory = "maintainability"
)

type RuleSource string

const (
	SourceCWE       RuleSource = "CWE"
	SourceOWASP     RuleSource = "OWASP"
	SourceSonarQube RuleSource = "SonarQube"
	SourceCustom    RuleSource = "Custom"
)

// DefaultKinds are the node kinds tested when a rule names none: comments
// and string literals across the supported grammars.
var DefaultKinds = []ast.Kind{
	"comment",
	"line_comment",
	"block_comment",
	"string_literal",
	"string",
	"interpreted_string_literal",
	"raw_string_literal",
	"template_string",
	"text_block",
}

var levels = []string{"error", "warning", "note", "info"}

// Rule matches RawPattern against the text of nodes of the given Kinds.
// Languages limits it to files of those languages; empty means all.
type Rule struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Category    RuleCategory   `yaml:"category"`
	Pattern     *regexp.Regexp `yaml:"-"`
	RawPattern  string         `yaml:"pattern"`
	Languages   []string       `yaml:"languages,omitempty"`
	Kinds       []ast.Kind     `yaml:"kinds,omitempty"`
	Level       string         `yaml:"level"`
	Message     string         `yaml:"message"`
	Explanation string         `yaml:"explanation,omitempty"`
	Remediation string         `yaml:"remediation,omitempty"`
	Source      RuleSource     `yaml:"source,omitempty"`
	CWE         []string       `yaml:"cwe,omitempty"`
	OWASP       []string       `yaml:"owasp,omitempty"`
	References  []string       `yaml:"references,omitempty"`
}

// RuleFile is the top-level shape of a rule YAML document.
type RuleFile struct {
	Rules []Rule `yaml:"rules"`
}

// ParseRuleFile decodes and validates a rule document, compiling each
// pattern. Rule IDs must be unique within the document.
func ParseRuleFile(data []byte) (*RuleFile, error) {
	var rf RuleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, errors.Wrap(err, "parsing rule file")
	}

	seen := make(map[string]struct{}, len(rf.Rules))
	for i := range rf.Rules {
		r := &rf.Rules[i]
		if err := r.compile(); err != nil {
			return nil, errors.Wrapf(err, "rule %q (index %d)", r.ID, i)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, errors.Newf("duplicate rule ID %q", r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return &rf, nil
}

// Validate reports the first missing or malformed field.
func (r *Rule) Validate() error {
	switch {
	case r.ID == "":
		return errors.New("missing required field: id")
	case r.RawPattern == "":
		return errors.New("missing required field: pattern")
	case r.Level == "":
		return errors.New("missing required field: level")
	case !slices.Contains(levels, r.Level):
		return errors.WithHintf(errors.Newf("unknown level %q", r.Level), "use one of %v", levels)
	case r.Message == "":
		return errors.New("missing required field: message")
	}
	return nil
}

func (r *Rule) compile() error {
	if err := r.Validate(); err != nil {
		return err
	}
	re, err := regexp.Compile(r.RawPattern)
	if err != nil {
		return errors.Wrap(err, "invalid regex pattern")
	}
	r.Pattern = re
	if len(r.Kinds) == 0 {
		r.Kinds = DefaultKinds
	}
	return nil
}

// ByCategory returns the rules in category, in order.
func ByCategory(rules []Rule, category RuleCategory) []Rule {
	return lo.Filter(rules, func(r Rule, _ int) bool { return r.Category == category })
}

// ByCWE returns the rules tagged with cweID, in order.
func ByCWE(rules []Rule, cweID string) []Rule {
	return lo.Filter(rules, func(r Rule, _ int) bool { return slices.Contains(r.CWE, cweID) })
}
