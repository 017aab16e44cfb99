package output

import (
	"encoding/json"
	"fmt"

	"github.com/chris-regnier/treecheck/internal/metrics"
)

// JSONFormatter renders the verdict and a flat list of findings as
// indented JSON.
type JSONFormatter struct{}

type jsonFinding struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Check   string `json:"check"`
	Level   string `json:"level"`
	Message string `json:"message"`
	Key     string `json:"key,omitempty"`
}

type jsonReport struct {
	Decision string                  `json:"decision"`
	Reason   string                  `json:"reason"`
	Findings []jsonFinding           `json:"findings"`
	Stats    *metrics.AggregateStats `json:"stats,omitempty"`
}

// Format serializes the report as pretty-printed JSON.
func (f *JSONFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil || result.Verdict == nil {
		return nil, fmt.Errorf("json formatter: verdict is required")
	}
	report := jsonReport{
		Decision: result.Verdict.Decision,
		Reason:   result.Verdict.Reason,
		Findings: []jsonFinding{},
		Stats:    result.Stats,
	}
	for _, r := range result.results() {
		region := r.Region()
		key, _ := r.Properties["treecheck/key"].(string)
		report.Findings = append(report.Findings, jsonFinding{
			File:    r.URI(),
			Line:    region.StartLine,
			Column:  region.StartColumn,
			Check:   r.RuleID,
			Level:   r.Level,
			Message: r.Message.Text,
			Key:     key,
		})
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json formatter: %w", err)
	}
	return append(data, '\n'), nil
}
