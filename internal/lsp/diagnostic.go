// internal/lsp/diagnostic.go
package lsp

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/chris-regnier/treecheck/internal/sarif"
)

// DiagnosticSeverity maps to LSP severity levels
type DiagnosticSeverity int

const (
	DiagnosticSeverityError       DiagnosticSeverity = 1
	DiagnosticSeverityWarning     DiagnosticSeverity = 2
	DiagnosticSeverityInformation DiagnosticSeverity = 3
	DiagnosticSeverityHint        DiagnosticSeverity = 4
)

// Position is a zero-based line and UTF-16 character offset.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// DiagnosticData carries the message key so clients can group findings
// independently of the locale.
type DiagnosticData struct {
	Key string `json:"key,omitempty"`
}

type Diagnostic struct {
	Range    Range              `json:"range"`
	Severity DiagnosticSeverity `json:"severity"`
	Code     string             `json:"code,omitempty"`
	Source   string             `json:"source,omitempty"`
	Message  string             `json:"message"`
	Data     *DiagnosticData    `json:"data,omitempty"`
}

// levelToSeverity maps SARIF level strings to LSP severity
func levelToSeverity(level string) DiagnosticSeverity {
	switch level {
	case "error":
		return DiagnosticSeverityError
	case "warning":
		return DiagnosticSeverityWarning
	case "none":
		return DiagnosticSeverityHint
	default:
		return DiagnosticSeverityInformation
	}
}

// ToDiagnostic converts a SARIF result into a diagnostic. Regions use
// 1-based lines and byte columns; content is needed to turn byte columns
// into UTF-16 offsets. A result without an end position covers the rest of
// its start line.
func ToDiagnostic(result sarif.Result, lines []string) Diagnostic {
	diag := Diagnostic{
		Severity: levelToSeverity(result.Level),
		Code:     result.RuleID,
		Source:   "treecheck",
		Message:  result.Message.Text,
	}

	region := result.Region()
	start := position(lines, region.StartLine, region.StartColumn)
	end := start
	if region.EndLine > 0 {
		end = position(lines, region.EndLine, region.EndColumn)
	}
	if region.EndLine == 0 || (end.Line == start.Line && end.Character <= start.Character) {
		end = Position{Line: start.Line, Character: lineLength(lines, start.Line)}
	}
	diag.Range = Range{Start: start, End: end}

	if key, ok := result.Properties["treecheck/key"].(string); ok && key != "" {
		diag.Data = &DiagnosticData{Key: key}
	}
	return diag
}

// ToDiagnostics converts the results of one document.
func ToDiagnostics(results []sarif.Result, content string) []Diagnostic {
	lines := strings.Split(content, "\n")
	diagnostics := make([]Diagnostic, 0, len(results))
	for _, r := range results {
		diagnostics = append(diagnostics, ToDiagnostic(r, lines))
	}
	return diagnostics
}

// position converts a 1-based line and byte column.
func position(lines []string, line, column int) Position {
	l := max(line-1, 0)
	if l >= len(lines) {
		return Position{Line: l}
	}
	return Position{Line: l, Character: utf16Offset(lines[l], max(column-1, 0))}
}

// utf16Offset counts the UTF-16 code units in the first byteCol bytes of s.
func utf16Offset(s string, byteCol int) int {
	if byteCol > len(s) {
		byteCol = len(s)
	}
	n := 0
	for i := 0; i < byteCol; {
		r, size := utf8.DecodeRuneInString(s[i:])
		n += utf16.RuneLen(r)
		i += size
	}
	return n
}

func lineLength(lines []string, line int) int {
	if line >= len(lines) {
		return 0
	}
	text := strings.TrimSuffix(lines[line], "\r")
	return utf16Offset(text, len(text))
}
