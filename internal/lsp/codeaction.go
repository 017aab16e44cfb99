// internal/lsp/codeaction.go
package lsp

import (
	"fmt"
	"strings"

	"github.com/chris-regnier/treecheck/internal/parse"
)

// lineComment returns the line comment marker of the document's language.
func lineComment(path string) string {
	if lang, _ := parse.Detect(path); lang == "python" {
		return "#"
	}
	return "//"
}

// GetCodeActions returns quick fixes that suppress each diagnostic with an
// inline directive: one for the flagged line and one for the whole file.
func GetCodeActions(uri, content string, diagnostics []Diagnostic) []CodeAction {
	lines := strings.Split(content, "\n")
	marker := lineComment(uriToPath(uri))

	var actions []CodeAction
	seenFile := make(map[string]bool)
	for _, diag := range diagnostics {
		if diag.Code == "" {
			continue
		}
		line := diag.Range.Start.Line
		indent := ""
		if line < len(lines) {
			indent = leadingWhitespace(lines[line])
		}
		actions = append(actions, CodeAction{
			Title:       fmt.Sprintf("Suppress %s on this line", diag.Code),
			Kind:        CodeActionKindQuickFix,
			Diagnostics: []Diagnostic{diag},
			IsPreferred: true,
			Edit: insertLine(uri, line,
				fmt.Sprintf("%s%s treecheck:ignore-next-line %s\n", indent, marker, diag.Code)),
		})

		if seenFile[diag.Code] {
			continue
		}
		seenFile[diag.Code] = true
		actions = append(actions, CodeAction{
			Title:       fmt.Sprintf("Suppress %s in this file", diag.Code),
			Kind:        CodeActionKindQuickFix,
			Diagnostics: []Diagnostic{diag},
			Edit:        insertLine(uri, 0, fmt.Sprintf("%s treecheck:off %s\n", marker, diag.Code)),
		})
	}
	return actions
}

func insertLine(uri string, line int, text string) *WorkspaceEdit {
	at := Position{Line: line}
	return &WorkspaceEdit{Changes: map[string][]TextEdit{
		uri: {{Range: Range{Start: at, End: at}, NewText: text}},
	}}
}

func leadingWhitespace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

// FilterDiagnosticsForRange returns diagnostics that overlap with the given range
func FilterDiagnosticsForRange(diagnostics []Diagnostic, r Range) []Diagnostic {
	var filtered []Diagnostic
	for _, d := range diagnostics {
		if rangesOverlap(d.Range, r) {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

// rangesOverlap checks if two ranges overlap
func rangesOverlap(a, b Range) bool {
	// Range a ends before b starts
	if a.End.Line < b.Start.Line || (a.End.Line == b.Start.Line && a.End.Character < b.Start.Character) {
		return false
	}
	// Range b ends before a starts
	if b.End.Line < a.Start.Line || (b.End.Line == a.Start.Line && b.End.Character < a.Start.Character) {
		return false
	}
	return true
}
