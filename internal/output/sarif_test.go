package output

import (
	"encoding/json"
	"testing"

	"github.com/chris-regnier/treecheck/internal/sarif"
)

func TestSARIFFormatter_Enriches(t *testing.T) {
	out, err := (&SARIFFormatter{}).Format(testOutput("fail"))
	if err != nil {
		t.Fatalf("Format() returned error: %v", err)
	}
	if out[len(out)-1] != '\n' {
		t.Error("expected trailing newline")
	}

	var log sarif.Log
	if err := json.Unmarshal(out, &log); err != nil {
		t.Fatalf("invalid SARIF JSON: %v", err)
	}
	run := log.Runs[0]
	if run.Tool.Driver.InformationURI != informationURI {
		t.Errorf("informationUri = %q", run.Tool.Driver.InformationURI)
	}
	if len(run.Invocations) != 1 || !run.Invocations[0].ExecutionSuccessful {
		t.Errorf("unexpected invocations: %+v", run.Invocations)
	}
	for _, r := range run.Results {
		if len(r.PartialFingerprints["primaryLocationLineHash"]) != 16 {
			t.Errorf("%s: bad fingerprint %q", r.RuleID, r.PartialFingerprints["primaryLocationLineHash"])
		}
		if r.Properties["precision"] != "very-high" {
			t.Errorf("%s: precision = %v", r.RuleID, r.Properties["precision"])
		}
	}
	if got := run.Results[0].Properties["security-severity"]; got != 8.0 {
		t.Errorf("error security-severity = %v, want 8", got)
	}
}

func TestSARIFFormatter_FingerprintIgnoresColumn(t *testing.T) {
	a := result("A.java", 3, 1, "nested-if-depth", "warning", "msg")
	b := result("A.java", 3, 9, "nested-if-depth", "warning", "msg")
	c := result("A.java", 4, 1, "nested-if-depth", "warning", "msg")
	enrichResult(&a)
	enrichResult(&b)
	enrichResult(&c)
	if a.PartialFingerprints["primaryLocationLineHash"] != b.PartialFingerprints["primaryLocationLineHash"] {
		t.Error("fingerprint should not depend on the column")
	}
	if a.PartialFingerprints["primaryLocationLineHash"] == c.PartialFingerprints["primaryLocationLineHash"] {
		t.Error("fingerprint should depend on the line")
	}
}

func TestSARIFFormatter_ToolDiagnosticsPrecision(t *testing.T) {
	r := result("A.java", 1, 1, sarif.ParseErrorRuleID, "warning", "File has 1 syntax error(s)")
	enrichResult(&r)
	if r.Properties["precision"] != "medium" {
		t.Errorf("precision = %v, want medium", r.Properties["precision"])
	}
}

func TestSARIFFormatter_NilLog(t *testing.T) {
	if _, err := (&SARIFFormatter{}).Format(&AnalysisOutput{}); err == nil {
		t.Fatal("expected error for nil SARIF log")
	}
}
