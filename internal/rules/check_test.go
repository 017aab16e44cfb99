package rules

import (
	"context"
	"testing"

	"github.com/chris-regnier/treecheck/internal/astcheck"
	"github.com/chris-regnier/treecheck/internal/parse"
)

func walkJava(t *testing.T, reg *astcheck.Registry, src string, ids ...string) *astcheck.FileResult {
	t.Helper()
	var specs []astcheck.Spec
	for _, id := range ids {
		specs = append(specs, astcheck.Spec{ID: id})
	}
	cfg, err := astcheck.Configure(reg, specs)
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	w := astcheck.NewWalker(cfg)
	tree, err := parse.ParseLanguage(context.Background(), "java", "A.java", []byte(src), parse.Options{Trivia: w.WantsTrivia()})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res, err := w.Walk(tree)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	return res
}

func TestPatternRuleReportsAtMatch(t *testing.T) {
	rules, err := DefaultRules()
	if err != nil {
		t.Fatalf("DefaultRules: %v", err)
	}
	reg := astcheck.NewRegistry()
	Register(reg, rules)

	src := `class A {
  /*
   * FIXME later
   */
  String url = "http://example.com/api";
  void m() {
    System.exit(1);
  }
}
`
	res := walkJava(t, reg, src, "fixme-comment", "cleartext-http-url", "system-exit")
	if len(res.Faults) != 0 {
		t.Fatalf("unexpected faults: %v", res.Faults)
	}
	want := []struct {
		check     string
		line, col int
	}{
		{"fixme-comment", 3, 6},
		{"cleartext-http-url", 5, 17},
		{"system-exit", 7, 5},
	}
	if len(res.Violations) != len(want) {
		t.Fatalf("expected %d violations, got %d: %+v", len(want), len(res.Violations), res.Violations)
	}
	for i, w := range want {
		v := res.Violations[i]
		if v.CheckID != w.check || v.Line != w.line || v.Column != w.col {
			t.Errorf("violation %d = %s %d:%d, want %s %d:%d", i, v.CheckID, v.Line, v.Column, w.check, w.line, w.col)
		}
		if v.Key != "pattern.match" {
			t.Errorf("violation %d key = %s", i, v.Key)
		}
	}
}

func TestPatternRuleLanguageFilter(t *testing.T) {
	rules, err := DefaultRules()
	if err != nil {
		t.Fatalf("DefaultRules: %v", err)
	}
	reg := astcheck.NewRegistry()
	Register(reg, rules)

	e, ok := reg.Get("nolint-directive")
	if !ok {
		t.Fatal("nolint-directive not registered")
	}
	if e.SupportsLanguage("java") {
		t.Error("go-only rule should not support java")
	}
	if e.Doc == "" {
		t.Error("expected generated documentation")
	}
}

func TestPatternRuleRejectsProperties(t *testing.T) {
	rules, err := DefaultRules()
	if err != nil {
		t.Fatalf("DefaultRules: %v", err)
	}
	reg := astcheck.NewRegistry()
	Register(reg, rules)
	_, err = astcheck.Configure(reg, []astcheck.Spec{{ID: "fixme-comment", Properties: astcheck.Properties{"max": 1}}})
	if err == nil {
		t.Fatal("expected property error")
	}
}
