package sarif

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/chris-regnier/treecheck/internal/astcheck"
)

// Rule IDs for findings that do not come from a check.
const (
	FaultRuleID      = "treecheck.fault"
	ParseErrorRuleID = "parse.error"
)

// Formatter renders a message key and its arguments.
type Formatter interface {
	Format(key string, args ...any) string
}

// Assembler builds a SARIF log from walk results.
type Assembler struct {
	version    string
	formatter  Formatter
	results    []Result
	rules      []ReportingDescriptor
	ruleSeen   map[string]bool
	inputScope string
}

// NewAssembler creates an Assembler that renders messages with f.
func NewAssembler(version string, f Formatter) *Assembler {
	return &Assembler{
		version:   version,
		formatter: f,
		results:   []Result{},
		rules:     []ReportingDescriptor{},
		ruleSeen:  make(map[string]bool),
	}
}

// AddRules adds one reporting descriptor per configured check.
func (a *Assembler) AddRules(checks []*astcheck.Configured) *Assembler {
	for _, c := range checks {
		a.addRule(ReportingDescriptor{
			ID:               c.ID,
			ShortDescription: Message{Text: summary(c.Entry.Doc, c.ID)},
			FullDescription:  &Message{Text: c.Entry.Doc},
			DefaultConfig:    &ReportingConfiguration{Level: Level(c.Severity)},
			Properties: map[string]interface{}{
				"treecheck/check":    c.Entry.Name,
				"treecheck/category": c.Entry.Category,
			},
		})
	}
	return a
}

func (a *Assembler) addRule(d ReportingDescriptor) {
	if a.ruleSeen[d.ID] {
		return
	}
	a.ruleSeen[d.ID] = true
	a.rules = append(a.rules, d)
}

// summary returns the first line of a check's documentation.
func summary(doc, fallback string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(doc), "\n")
	if line == "" {
		return fallback
	}
	return line
}

// AddFile adds the violations and faults of one file. A file that parsed
// with errors gets one parse.error result.
func (a *Assembler) AddFile(res *astcheck.FileResult, parseErrors int) *Assembler {
	uri := filepath.ToSlash(res.Path)
	for _, v := range res.Violations {
		a.results = append(a.results, Result{
			RuleID:  v.CheckID,
			Level:   Level(v.Severity),
			Message: Message{Text: a.formatter.Format(v.Key, v.Args...)},
			Locations: []Location{location(uri, Region{
				StartLine:   v.Line,
				StartColumn: v.Column,
				EndLine:     v.EndLine,
				EndColumn:   v.EndColumn,
			})},
			Properties: map[string]interface{}{
				"treecheck/key":  v.Key,
				"treecheck/args": argsOrEmpty(v.Args),
			},
		})
	}
	for _, f := range res.Faults {
		a.addRule(ReportingDescriptor{
			ID:               FaultRuleID,
			ShortDescription: Message{Text: "A check failed while processing a file"},
			DefaultConfig:    &ReportingConfiguration{Level: "error"},
		})
		a.results = append(a.results, Result{
			RuleID:    FaultRuleID,
			Level:     "error",
			Message:   Message{Text: a.formatter.Format(FaultRuleID, f.CheckID+": "+f.Err)},
			Locations: []Location{location(uri, Region{StartLine: f.Line, StartColumn: f.Column})},
			Properties: map[string]interface{}{
				"treecheck/check": f.CheckID,
			},
		})
	}
	if parseErrors > 0 {
		a.addRule(ReportingDescriptor{
			ID:               ParseErrorRuleID,
			ShortDescription: Message{Text: "The file has syntax errors"},
			DefaultConfig:    &ReportingConfiguration{Level: "warning"},
		})
		a.results = append(a.results, Result{
			RuleID:    ParseErrorRuleID,
			Level:     "warning",
			Message:   Message{Text: a.formatter.Format(ParseErrorRuleID, parseErrors)},
			Locations: []Location{location(uri, Region{StartLine: 1, StartColumn: 1})},
		})
	}
	return a
}

func argsOrEmpty(args []any) []any {
	if args == nil {
		return []any{}
	}
	return args
}

func location(uri string, r Region) Location {
	return Location{PhysicalLocation: PhysicalLocation{
		ArtifactLocation: ArtifactLocation{URI: uri},
		Region:           r,
	}}
}

// WithInputScope records what was checked (files, dir, diff, source).
func (a *Assembler) WithInputScope(scope string) *Assembler {
	a.inputScope = scope
	return a
}

// Build constructs the log. Results are ordered by file, line, column, rule
// and message.
func (a *Assembler) Build() *Log {
	results := append([]Result(nil), a.results...)
	sort.SliceStable(results, func(i, j int) bool {
		ri, rj := results[i], results[j]
		if ri.URI() != rj.URI() {
			return ri.URI() < rj.URI()
		}
		gi, gj := ri.Region(), rj.Region()
		if gi.StartLine != gj.StartLine {
			return gi.StartLine < gj.StartLine
		}
		if gi.StartColumn != gj.StartColumn {
			return gi.StartColumn < gj.StartColumn
		}
		if ri.RuleID != rj.RuleID {
			return ri.RuleID < rj.RuleID
		}
		return ri.Message.Text < rj.Message.Text
	})
	if results == nil {
		results = []Result{}
	}

	log := NewLog(ToolName, a.version)
	log.Runs[0].Tool.Driver.Rules = a.rules
	log.Runs[0].Results = results
	if a.inputScope != "" {
		log.Runs[0].Properties = map[string]interface{}{
			"treecheck/inputScope": a.inputScope,
		}
	}
	return log
}
