package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/treecheck/internal/config"
)

const nestedIfs = `class A {
  void m(boolean a, boolean b, boolean c) {
    if (a) {
      if (b) {
        if (c) {
        }
      }
    }
  }
}
`

// project creates an isolated working directory holding files and points
// HOME at an empty directory so no machine config or rules leak in.
func project(t *testing.T, files map[string]string) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TREECHECK_TELEMETRY_ENABLED", "false")
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	t.Chdir(dir)
	return dir
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

type findings struct {
	Decision string `json:"decision"`
	Findings []struct {
		File    string `json:"file"`
		Line    int    `json:"line"`
		Column  int    `json:"column"`
		Check   string `json:"check"`
		Level   string `json:"level"`
		Message string `json:"message"`
	} `json:"findings"`
}

func decode(t *testing.T, stdout string) findings {
	t.Helper()
	var f findings
	require.NoError(t, json.Unmarshal([]byte(stdout), &f), stdout)
	return f
}

func testEngine(t *testing.T, cfg *config.Config) *engine {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	eng, err := newEngine(cfg, t.TempDir(), "", slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.NoError(t, eng.configErr)
	return eng
}

// ---------------------------------------------------------------------------
// check
// ---------------------------------------------------------------------------

func TestCheckReportsFindings(t *testing.T) {
	project(t, map[string]string{"src/A.java": nestedIfs})

	stdout, _, err := execute(t, "check", "--no-cache", "--format", "json", "src")
	require.NoError(t, err)

	f := decode(t, stdout)
	assert.Equal(t, "warn", f.Decision)
	require.Len(t, f.Findings, 1)
	got := f.Findings[0]
	assert.Equal(t, "src/A.java", got.File)
	assert.Equal(t, 5, got.Line)
	assert.Equal(t, 9, got.Column)
	assert.Equal(t, "nested-if-depth", got.Check)
	assert.Equal(t, "Nested if-else depth is 2 (max allowed is 1).", got.Message)
}

func TestCheckWritesMetricsCSV(t *testing.T) {
	project(t, map[string]string{"src/A.java": nestedIfs})

	_, stderr, err := execute(t, "check", "--no-cache", "--verbose", "--format", "json", "--metrics", "out/metrics.csv", "src")
	require.NoError(t, err)
	assert.Contains(t, stderr, "=== Summary ===")

	data, err := os.ReadFile("out/metrics.csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "timestamp,file,language"))
	assert.Contains(t, lines[1], "A.java")
}

func TestCheckFailsGateOnErrors(t *testing.T) {
	project(t, map[string]string{
		"src/A.java": nestedIfs,
		".treecheck/config.yaml": `checks:
  nested-if-depth:
    severity: error
`,
	})

	stdout, _, err := execute(t, "check", "--no-cache", "--format", "json", "src")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errGateFailed))
	assert.Equal(t, "fail", decode(t, stdout).Decision)
}

func TestCheckReportsConfigErrorsAndRunsTheRest(t *testing.T) {
	project(t, map[string]string{
		"src/A.java": nestedIfs,
		".treecheck/config.yaml": `checks:
  nested-if-depth:
    properties:
      bogus: 1
  strict-if:
    check: nested-if-depth
    severity: note
    properties:
      max: 1
`,
	})

	stdout, stderr, err := execute(t, "check", "--no-cache", "--format", "json", "src")
	require.NoError(t, err)
	assert.Contains(t, stderr, `check "nested-if-depth", property "bogus"`)

	f := decode(t, stdout)
	require.Len(t, f.Findings, 1)
	assert.Equal(t, "strict-if", f.Findings[0].Check)
	assert.Equal(t, "note", f.Findings[0].Level)
	assert.Equal(t, "pass", f.Decision)
}

func TestCheckUnknownCheckHints(t *testing.T) {
	project(t, map[string]string{
		"src/A.java": "class A {}\n",
		".treecheck/config.yaml": `checks:
  no-such-check: {}
`,
	})

	_, stderr, err := execute(t, "check", "--no-cache", "--format", "json", "src")
	require.NoError(t, err)
	assert.Contains(t, stderr, `check "no-such-check"`)
	assert.Contains(t, stderr, "hint: run `treecheck checks`")
}

func TestCheckLocale(t *testing.T) {
	project(t, map[string]string{"src/A.java": nestedIfs})

	stdout, _, err := execute(t, "check", "--no-cache", "--format", "json", "--locale", "de", "src")
	require.NoError(t, err)
	f := decode(t, stdout)
	require.Len(t, f.Findings, 1)
	assert.Equal(t, "Verschachtelungstiefe von if-else ist 2 (Maximum ist 1).", f.Findings[0].Message)
}

func TestCheckStoresResults(t *testing.T) {
	dir := project(t, map[string]string{"src/A.java": nestedIfs})

	_, _, err := execute(t, "check", "--no-cache", "--format", "sarif", "--output", "results", "src")
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "results"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	for _, name := range []string{"sarif.json", "verdict.json"} {
		_, err := os.Stat(filepath.Join(dir, "results", entries[0].Name(), name))
		assert.NoError(t, err, name)
	}
}

func TestCheckDiffLimitsFiles(t *testing.T) {
	project(t, map[string]string{
		"src/A.java": nestedIfs,
		"src/B.java": nestedIfs,
		"change.diff": `diff --git a/src/B.java b/src/B.java
--- a/src/B.java
+++ b/src/B.java
@@ -1 +1 @@
-class B {}
+class A {}
`,
	})

	stdout, _, err := execute(t, "check", "--no-cache", "--format", "json", "--diff", "change.diff")
	require.NoError(t, err)
	f := decode(t, stdout)
	require.Len(t, f.Findings, 1)
	assert.Equal(t, "src/B.java", f.Findings[0].File)
}

// ---------------------------------------------------------------------------
// checks / explain / version
// ---------------------------------------------------------------------------

func TestChecksListsBuiltinsAndRules(t *testing.T) {
	project(t, nil)

	stdout, _, err := execute(t, "checks", "--format", "json")
	require.NoError(t, err)

	var infos []checkInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &infos))
	names := make(map[string]checkInfo, len(infos))
	for _, info := range infos {
		names[info.Name] = info
	}
	assert.Contains(t, names, "nested-if-depth")
	assert.Contains(t, names, "unused-private-field")
	assert.Contains(t, names, "hardcoded-credentials")
	assert.NotEmpty(t, names["nested-if-depth"].Summary)
}

func TestChecksFilterByCWE(t *testing.T) {
	project(t, nil)

	stdout, _, err := execute(t, "checks", "--format", "json", "--cwe", "CWE-798")
	require.NoError(t, err)

	var infos []checkInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &infos))
	require.NotEmpty(t, infos)
	for _, info := range infos {
		assert.NotEqual(t, "nested-if-depth", info.Name)
	}
	assert.Contains(t, stdout, "hardcoded-credentials")
}

func TestExplainPrintsMarkdown(t *testing.T) {
	project(t, nil)

	stdout, _, err := execute(t, "explain", "nested-if-depth")
	require.NoError(t, err)
	assert.Contains(t, stdout, "# nested-if-depth")

	_, _, err = execute(t, "explain", "no-such-check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no check named "no-such-check"`)
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "treecheck dev")
}

func TestSummaryLine(t *testing.T) {
	assert.Equal(t, "First line.", summaryLine("\n  First line.\n\nMore."))
	assert.Equal(t, "", summaryLine(""))
}
