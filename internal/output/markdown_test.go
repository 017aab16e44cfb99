package output

import (
	"strings"
	"testing"

	"github.com/chris-regnier/treecheck/internal/metrics"
	"github.com/chris-regnier/treecheck/internal/sarif"
	"github.com/chris-regnier/treecheck/internal/store"
)

func TestMarkdownFormatter_Summary(t *testing.T) {
	out, err := (&MarkdownFormatter{}).Format(testOutput("fail"))
	if err != nil {
		t.Fatalf("Format() returned error: %v", err)
	}
	md := string(out)

	for _, want := range []string{
		"## treecheck Summary",
		":x: Fail",
		"**Findings:** 5 | **Files:** 3",
		"| error | 1 |",
		"| warning | 3 |",
		"| note | 1 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdownFormatter_GroupsFilesInOrder(t *testing.T) {
	out, err := (&MarkdownFormatter{}).Format(testOutput("warn"))
	if err != nil {
		t.Fatal(err)
	}
	md := string(out)

	mainIdx := strings.Index(md, "<code>cmd/Main.java</code>: 1 finding")
	configIdx := strings.Index(md, "<code>src/Config.java</code>: 2 findings")
	handlerIdx := strings.Index(md, "<code>src/Handler.java</code>: 2 findings")
	if mainIdx < 0 || configIdx < 0 || handlerIdx < 0 {
		t.Fatalf("missing file sections:\n%s", md)
	}
	if !(mainIdx < configIdx && configIdx < handlerIdx) {
		t.Errorf("file sections out of order: %d %d %d", mainIdx, configIdx, handlerIdx)
	}
	if !strings.Contains(md, "| :red_circle: | 42:9 | `nested-if-depth` |") {
		t.Errorf("missing error row:\n%s", md)
	}
}

func TestMarkdownFormatter_SeverityOrderWithinFile(t *testing.T) {
	log := sarif.NewLog("treecheck", "0.1.0")
	log.Runs[0].Results = []sarif.Result{
		result("A.java", 1, 1, "todo-comment", "note", "later"),
		result("A.java", 9, 1, "nested-if-depth", "error", "deep"),
	}
	out, err := (&MarkdownFormatter{}).Format(&AnalysisOutput{Verdict: &store.Verdict{Decision: "fail"}, SARIFLog: log})
	if err != nil {
		t.Fatal(err)
	}
	md := string(out)
	if strings.Index(md, "deep") > strings.Index(md, "later") {
		t.Error("errors should be listed before notes")
	}
}

func TestMarkdownFormatter_EscapesPipes(t *testing.T) {
	log := sarif.NewLog("treecheck", "0.1.0")
	log.Runs[0].Results = []sarif.Result{result("A.java", 1, 1, "regexp", "warning", "a|b")}
	out, err := (&MarkdownFormatter{}).Format(&AnalysisOutput{Verdict: &store.Verdict{Decision: "warn"}, SARIFLog: log})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `a\|b`) {
		t.Errorf("pipe not escaped:\n%s", out)
	}
}

func TestMarkdownFormatter_NoFindings(t *testing.T) {
	out, err := (&MarkdownFormatter{}).Format(&AnalysisOutput{Verdict: &store.Verdict{Decision: "pass"}})
	if err != nil {
		t.Fatal(err)
	}
	md := string(out)
	if !strings.Contains(md, "No findings detected.") || !strings.Contains(md, ":white_check_mark: Pass") {
		t.Errorf("unexpected output:\n%s", md)
	}
}

func TestMarkdownFormatter_Stats(t *testing.T) {
	o := testOutput("warn")
	o.Stats = &metrics.AggregateStats{TotalFiles: 4, AvgDurationMs: 2.5, CacheHitRate: 0.5}
	out, err := (&MarkdownFormatter{}).Format(o)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "4 files checked in 2.5ms on average (50% cached).") {
		t.Errorf("missing stats line:\n%s", out)
	}
}

func TestMarkdownFormatter_RequiresVerdict(t *testing.T) {
	if _, err := (&MarkdownFormatter{}).Format(nil); err == nil {
		t.Error("expected error for nil result")
	}
	if _, err := (&MarkdownFormatter{}).Format(&AnalysisOutput{}); err == nil {
		t.Error("expected error for nil verdict")
	}
}
