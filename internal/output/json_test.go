package output

import (
	"encoding/json"
	"testing"

	"github.com/chris-regnier/treecheck/internal/metrics"
)

func TestJSONFormatter_Findings(t *testing.T) {
	out, err := (&JSONFormatter{}).Format(testOutput("fail"))
	if err != nil {
		t.Fatalf("Format() returned error: %v", err)
	}

	var got jsonReport
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if got.Decision != "fail" {
		t.Errorf("decision = %q, want fail", got.Decision)
	}
	if len(got.Findings) != 5 {
		t.Fatalf("expected 5 findings, got %d", len(got.Findings))
	}
	first := got.Findings[0]
	if first.File != "src/Config.java" || first.Line != 42 || first.Column != 9 {
		t.Errorf("unexpected location: %+v", first)
	}
	if first.Check != "nested-if-depth" || first.Key != "k.nested-if-depth" {
		t.Errorf("unexpected check fields: %+v", first)
	}
	if got.Stats != nil {
		t.Error("stats should be omitted when not collected")
	}
}

func TestJSONFormatter_Stats(t *testing.T) {
	o := testOutput("pass")
	o.Stats = &metrics.AggregateStats{TotalFiles: 3}
	out, err := (&JSONFormatter{}).Format(o)
	if err != nil {
		t.Fatal(err)
	}
	var got jsonReport
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatal(err)
	}
	if got.Stats == nil || got.Stats.TotalFiles != 3 {
		t.Errorf("expected stats with 3 files, got %+v", got.Stats)
	}
}

func TestJSONFormatter_EmptyFindingsIsArray(t *testing.T) {
	out, err := (&JSONFormatter{}).Format(&AnalysisOutput{Verdict: testOutput("pass").Verdict})
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(out, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["findings"].([]any); !ok {
		t.Errorf("findings should be an empty array, got %v", raw["findings"])
	}
}

func TestJSONFormatter_NilVerdict(t *testing.T) {
	if _, err := (&JSONFormatter{}).Format(&AnalysisOutput{}); err == nil {
		t.Fatal("expected error for nil verdict")
	}
}
