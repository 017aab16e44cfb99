package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chris-regnier/treecheck/internal/astcheck"
	"github.com/chris-regnier/treecheck/internal/rules"
)

type checkInfo struct {
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Languages []string `json:"languages,omitempty"`
	Summary   string   `json:"summary"`
}

func newChecksCmd() *cobra.Command {
	var (
		configPath string
		format     string
		cwe        string
	)
	cmd := &cobra.Command{
		Use:   "checks",
		Short: "List the available checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			reg, loaded, err := buildRegistry(cfg, ".")
			if err != nil {
				return err
			}
			entries := reg.Entries()
			if cwe != "" {
				entries = entriesForRules(entries, rules.ByCWE(loaded, cwe))
			}
			return listChecks(cmd.OutOrStdout(), entries, format)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Project config file (default .treecheck/config.yaml)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json")
	cmd.Flags().StringVar(&cwe, "cwe", "", "Only list pattern rules tagged with this CWE (e.g. CWE-798)")
	return cmd
}

func listChecks(w io.Writer, entries []astcheck.Entry, format string) error {
	infos := make([]checkInfo, len(entries))
	for i, e := range entries {
		infos[i] = checkInfo{Name: e.Name, Category: e.Category, Languages: e.Languages, Summary: summaryLine(e.Doc)}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	case "table":
		rows := make([][]string, len(infos))
		for i, info := range infos {
			langs := strings.Join(info.Languages, ",")
			if langs == "" {
				langs = "any"
			}
			rows[i] = []string{info.Name, info.Category, langs, info.Summary}
		}
		t := table.New().
			Headers("CHECK", "CATEGORY", "LANGUAGES", "SUMMARY").
			Rows(rows...).
			BorderTop(false).
			BorderBottom(false).
			BorderLeft(false).
			BorderRight(false).
			BorderRow(false).
			BorderColumn(false).
			BorderHeader(false).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return lipgloss.NewStyle().Bold(true).Padding(0, 2, 0, 0)
				}
				return lipgloss.NewStyle().Padding(0, 2, 0, 0)
			})
		_, err := fmt.Fprintln(w, t.String())
		return err
	default:
		return errors.Newf("unknown format %q (supported: table, json)", format)
	}
}

// entriesForRules keeps the entries registered by the given rules.
func entriesForRules(entries []astcheck.Entry, keep []rules.Rule) []astcheck.Entry {
	ids := make(map[string]bool, len(keep))
	for _, r := range keep {
		ids[r.ID] = true
	}
	var out []astcheck.Entry
	for _, e := range entries {
		if ids[e.Name] {
			out = append(out, e)
		}
	}
	return out
}

// summaryLine returns the first line of a check's documentation.
func summaryLine(doc string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(doc), "\n")
	return strings.TrimSpace(line)
}

func newExplainCmd() *cobra.Command {
	var (
		configPath string
		raw        bool
	)
	cmd := &cobra.Command{
		Use:   "explain <check>",
		Short: "Show the documentation of a check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			reg, _, err := buildRegistry(cfg, ".")
			if err != nil {
				return err
			}
			entry, ok := reg.Get(args[0])
			if !ok {
				return errors.WithHint(errors.Newf("no check named %q", args[0]),
					"run `treecheck checks` to list available checks")
			}

			doc := explainMarkdown(entry)
			out := cmd.OutOrStdout()
			if raw || !isTerminal(out) {
				_, err := io.WriteString(out, doc)
				return err
			}
			rendered, err := renderMarkdown(doc, terminalWidth())
			if err != nil {
				// Fall back to plain markdown.
				rendered = doc
			}
			_, err = io.WriteString(out, rendered)
			return err
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Project config file (default .treecheck/config.yaml)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown without rendering")
	return cmd
}

// explainMarkdown renders an entry's documentation under a title.
func explainMarkdown(e astcheck.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", e.Name)
	langs := "any language"
	if len(e.Languages) > 0 {
		langs = strings.Join(e.Languages, ", ")
	}
	fmt.Fprintf(&b, "*%s* · %s\n\n", e.Category, langs)
	b.WriteString(strings.TrimSpace(e.Doc))
	b.WriteString("\n")
	return b.String()
}

func renderMarkdown(text string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(text)
}

func terminalWidth() int {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	return min(width, 120)
}
