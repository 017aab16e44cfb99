package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/chris-regnier/treecheck/internal/sarif"
)

const informationURI = "https://github.com/chris-regnier/treecheck"

// SARIFFormatter renders the SARIF 2.1.0 log enriched with GitHub Code
// Scanning properties (security-severity, precision, partial fingerprints,
// and invocation metadata).
type SARIFFormatter struct{}

// Format enriches the SARIF log in place and serializes it as indented JSON
// with a trailing newline.
func (f *SARIFFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil || result.SARIFLog == nil {
		return nil, fmt.Errorf("sarif formatter: SARIF log is required")
	}

	log := result.SARIFLog
	for i := range log.Runs {
		enrichRun(&log.Runs[i])
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("sarif formatter: %w", err)
	}
	return append(data, '\n'), nil
}

func enrichRun(run *sarif.Run) {
	run.Tool.Driver.InformationURI = informationURI

	wd, _ := os.Getwd()
	run.Invocations = []sarif.Invocation{{
		WorkingDirectory:    sarif.ArtifactLocation{URI: wd},
		ExecutionSuccessful: true,
	}}

	for j := range run.Results {
		enrichResult(&run.Results[j])
	}
}

// enrichResult adds a partial fingerprint, security-severity and precision.
// The fingerprint leaves out the column so that reindenting a line keeps
// the alert identity.
func enrichResult(r *sarif.Result) {
	if r.PartialFingerprints == nil {
		r.PartialFingerprints = make(map[string]string)
	}
	if r.Properties == nil {
		r.Properties = make(map[string]any)
	}

	input := fmt.Sprintf("%s|%s|%d|%s", r.RuleID, r.URI(), r.Region().StartLine, r.Message.Text)
	r.PartialFingerprints["primaryLocationLineHash"] = fmt.Sprintf("%016x", xxhash.Sum64String(input))

	r.Properties["security-severity"] = securitySeverity(r.Level)
	r.Properties["precision"] = precision(r.RuleID)
}

// securitySeverity maps SARIF levels to GitHub Code Scanning security-severity scores.
func securitySeverity(level string) float64 {
	switch level {
	case "error":
		return 8.0
	case "warning":
		return 5.0
	default:
		return 2.0
	}
}

// precision maps a rule to its GitHub Code Scanning precision. Tool
// diagnostics are "medium", check results "very-high".
func precision(ruleID string) string {
	switch ruleID {
	case sarif.ParseErrorRuleID, sarif.FaultRuleID:
		return "medium"
	default:
		return "very-high"
	}
}
