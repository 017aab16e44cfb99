package output

import (
	"encoding/xml"
	"fmt"
	"sort"

	"github.com/chris-regnier/treecheck/internal/sarif"
)

// CheckstyleFormatter renders results in the Checkstyle XML report format
// understood by most CI report plugins.
type CheckstyleFormatter struct{}

type checkstyleReport struct {
	XMLName xml.Name         `xml:"checkstyle"`
	Version string           `xml:"version,attr"`
	Files   []checkstyleFile `xml:"file"`
}

type checkstyleFile struct {
	Name   string            `xml:"name,attr"`
	Errors []checkstyleError `xml:"error"`
}

type checkstyleError struct {
	Line     int    `xml:"line,attr"`
	Column   int    `xml:"column,attr,omitempty"`
	Severity string `xml:"severity,attr"`
	Message  string `xml:"message,attr"`
	Source   string `xml:"source,attr"`
}

// checkstyleSeverity maps SARIF levels onto Checkstyle severities.
func checkstyleSeverity(level string) string {
	switch level {
	case "error":
		return "error"
	case "warning":
		return "warning"
	default:
		return "info"
	}
}

// Format produces the XML document. Files appear in path order and each
// file's errors in line, then column order.
func (f *CheckstyleFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("checkstyle formatter: result is required")
	}

	version := ""
	if result.SARIFLog != nil && len(result.SARIFLog.Runs) > 0 {
		version = result.SARIFLog.Runs[0].Tool.Driver.Version
	}
	report := checkstyleReport{Version: version}

	byFile := make(map[string][]sarif.Result)
	for _, r := range result.results() {
		byFile[r.URI()] = append(byFile[r.URI()], r)
	}
	names := make([]string, 0, len(byFile))
	for name := range byFile {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rs := byFile[name]
		sort.SliceStable(rs, func(i, j int) bool {
			gi, gj := rs[i].Region(), rs[j].Region()
			if gi.StartLine != gj.StartLine {
				return gi.StartLine < gj.StartLine
			}
			return gi.StartColumn < gj.StartColumn
		})
		file := checkstyleFile{Name: name}
		for _, r := range rs {
			region := r.Region()
			file.Errors = append(file.Errors, checkstyleError{
				Line:     region.StartLine,
				Column:   region.StartColumn,
				Severity: checkstyleSeverity(r.Level),
				Message:  r.Message.Text,
				Source:   r.RuleID,
			})
		}
		report.Files = append(report.Files, file)
	}

	data, err := xml.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("checkstyle formatter: %w", err)
	}
	out := append([]byte(xml.Header), data...)
	return append(out, '\n'), nil
}
