package rules

import (
	"strings"
	"testing"
)

const validYAML = `rules:
  - id: "hardcoded-credentials"
    name: "Hard-coded credentials"
    category: "security"
    pattern: '(?i)(password|secret)\s*[:=]\s*\S{4,}'
    languages: ["java", "python"]
    kinds: ["string_literal"]
    level: "error"
    message: "Hard-coded credentials detected"
    explanation: "Credentials should not be hard-coded."
    remediation: "Use environment variables."
    source: "CWE"
    cwe: ["CWE-259", "CWE-798"]
    owasp: ["A07:2021"]
    references:
      - "https://cwe.mitre.org/data/definitions/798.html"
  - id: "fixme"
    name: "fixme"
    category: "maintainability"
    pattern: 'FIXME'
    level: "note"
    message: "FIXME left in code"
`

func TestParseRuleFile_AllFields(t *testing.T) {
	rf, err := ParseRuleFile([]byte(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rf.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rf.Rules))
	}

	r := rf.Rules[0]
	if r.Category != CategorySecurity {
		t.Errorf("expected category security, got %s", r.Category)
	}
	if r.Pattern == nil {
		t.Fatal("expected compiled pattern, got nil")
	}
	if len(r.Kinds) != 1 || r.Kinds[0] != "string_literal" {
		t.Errorf("expected kinds [string_literal], got %v", r.Kinds)
	}
	if len(r.CWE) != 2 || r.CWE[1] != "CWE-798" {
		t.Errorf("unexpected CWE list %v", r.CWE)
	}
	if r.Source != SourceCWE {
		t.Errorf("expected source CWE, got %s", r.Source)
	}
}

func TestParseRuleFile_DefaultKinds(t *testing.T) {
	rf, err := ParseRuleFile([]byte(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rf.Rules[1].Kinds; len(got) != len(DefaultKinds) {
		t.Errorf("expected default kinds, got %v", got)
	}
}

func TestParseRuleFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing id", `rules: [{pattern: x, level: error, message: m}]`, "id"},
		{"missing pattern", `rules: [{id: a, level: error, message: m}]`, "pattern"},
		{"missing level", `rules: [{id: a, pattern: x, message: m}]`, "level"},
		{"unknown level", `rules: [{id: a, pattern: x, level: fatal, message: m}]`, "level"},
		{"missing message", `rules: [{id: a, pattern: x, level: error}]`, "message"},
		{"bad regex", `rules: [{id: a, pattern: "(", level: error, message: m}]`, "regex"},
		{"duplicate", `rules: [{id: a, pattern: x, level: error, message: m}, {id: a, pattern: y, level: error, message: m}]`, "duplicate"},
		{"not yaml", `rules: [`, "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRuleFile([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestByCategoryAndCWE(t *testing.T) {
	rf, err := ParseRuleFile([]byte(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ByCategory(rf.Rules, CategoryMaintainability); len(got) != 1 || got[0].ID != "fixme" {
		t.Errorf("ByCategory(maintainability) = %v", got)
	}
	if got := ByCWE(rf.Rules, "CWE-798"); len(got) != 1 || got[0].ID != "hardcoded-credentials" {
		t.Errorf("ByCWE(CWE-798) = %v", got)
	}
	if got := ByCWE(rf.Rules, "CWE-1"); len(got) != 0 {
		t.Errorf("expected no rules for CWE-1, got %d", len(got))
	}
}

// ---------------------------------------------------------------------------
// Embedded defaults
// ---------------------------------------------------------------------------

func TestDefaultRules_LoadsEmbedded(t *testing.T) {
	rules, err := DefaultRules()
	if err != nil {
		t.Fatalf("DefaultRules() returned error: %v", err)
	}
	if len(rules) < 10 {
		t.Fatalf("expected at least 10 rules, got %d", len(rules))
	}

	counts := map[RuleCategory]int{}
	for _, r := range rules {
		counts[r.Category]++
		if r.Pattern == nil {
			t.Errorf("rule %s has nil compiled pattern", r.ID)
		}
	}
	for _, cat := range []RuleCategory{CategorySecurity, CategoryReliability, CategoryMaintainability} {
		if counts[cat] == 0 {
			t.Errorf("expected at least 1 rule in category %q, got 0", cat)
		}
	}
}
