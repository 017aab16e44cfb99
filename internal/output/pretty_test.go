package output

import (
	"strings"
	"testing"

	"github.com/chris-regnier/treecheck/internal/store"
)

func formatPretty(t *testing.T, o *AnalysisOutput) string {
	t.Helper()
	out, err := (&PrettyFormatter{}).Format(o)
	if err != nil {
		t.Fatalf("Format() returned error: %v", err)
	}
	return string(out)
}

func TestPrettyFormatter_ContainsDecision(t *testing.T) {
	out := formatPretty(t, testOutput("warn"))
	if !strings.Contains(out, "Decision: warn") {
		t.Errorf("output missing decision:\n%s", out)
	}
}

func TestPrettyFormatter_GroupsByFile(t *testing.T) {
	out := formatPretty(t, testOutput("warn"))

	mainIdx := strings.Index(out, "cmd/Main.java")
	configIdx := strings.Index(out, "src/Config.java")
	handlerIdx := strings.Index(out, "src/Handler.java")
	if mainIdx < 0 || configIdx < 0 || handlerIdx < 0 {
		t.Fatalf("missing file headers:\n%s", out)
	}
	if !(mainIdx < configIdx && configIdx < handlerIdx) {
		t.Errorf("files out of order: %d %d %d", mainIdx, configIdx, handlerIdx)
	}
}

func TestPrettyFormatter_SortsWithinFile(t *testing.T) {
	out := formatPretty(t, testOutput("warn"))
	if strings.Index(out, "nested-if-depth") > strings.Index(out, "missing-switch-default") {
		t.Error("line 42 should appear before line 78")
	}
	if !strings.Contains(out, "42:9") {
		t.Errorf("missing position 42:9:\n%s", out)
	}
}

func TestPrettyFormatter_HasSummaryLine(t *testing.T) {
	out := formatPretty(t, testOutput("warn"))
	if !strings.Contains(out, "1 error, 3 warnings, 1 note in 3 files") {
		t.Errorf("missing summary line:\n%s", out)
	}
}

func TestPrettyFormatter_NoFindings(t *testing.T) {
	out := formatPretty(t, &AnalysisOutput{Verdict: &store.Verdict{Decision: "pass"}})
	if !strings.Contains(out, "No findings.") || !strings.Contains(out, "pass") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestPrettyFormatter_NilResult(t *testing.T) {
	if _, err := (&PrettyFormatter{}).Format(nil); err == nil {
		t.Fatal("expected error for nil AnalysisOutput")
	}
}

func TestPrettyFormatter_PlainOutputHasNoEscapes(t *testing.T) {
	o := testOutput("fail")
	o.Sources = map[string][]byte{"src/Config.java": []byte(strings.Repeat("\n", 41) + "        if (x) {\n")}
	out := formatPretty(t, o)
	if strings.Contains(out, "\x1b[") {
		t.Error("plain output should not contain ANSI escapes")
	}
}

func TestPrettyFormatter_Snippet(t *testing.T) {
	o := testOutput("fail")
	o.Sources = map[string][]byte{"src/Config.java": []byte(strings.Repeat("\n", 41) + "        if (x) {\n")}
	out := formatPretty(t, o)
	want := "     42 │         if (x) {\n" +
		"        │         ^\n"
	if !strings.Contains(out, want) {
		t.Errorf("missing snippet %q in:\n%s", want, out)
	}
}

func TestPrettyFormatter_ColorHighlights(t *testing.T) {
	o := testOutput("fail")
	o.Sources = map[string][]byte{"src/Config.java": []byte(strings.Repeat("\n", 41) + "        if (x) {\n")}
	out, err := (&PrettyFormatter{Color: true}).Format(o)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "\x1b[") {
		t.Error("highlighted snippet should contain ANSI escapes")
	}
}

func TestCaretOffset(t *testing.T) {
	tests := []struct {
		line   string
		column int
		want   int
	}{
		{"abc", 1, 0},
		{"abc", 3, 2},
		{"abc", 10, 3},
		{"\tx", 2, 4},
		{"é x", 4, 2},
	}
	for _, tt := range tests {
		if got := caretOffset(tt.line, tt.column); got != tt.want {
			t.Errorf("caretOffset(%q, %d) = %d, want %d", tt.line, tt.column, got, tt.want)
		}
	}
}
