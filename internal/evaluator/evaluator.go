// Package evaluator applies a Rego gate policy to a SARIF log.
package evaluator

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/chris-regnier/treecheck/internal/sarif"
	"github.com/chris-regnier/treecheck/internal/store"
)

//go:embed default.rego
var defaultPolicy string

// Query is the rule every gate policy must define.
const Query = "data.treecheck.gate.decision"

// Gate decisions.
const (
	Pass = "pass"
	Warn = "warn"
	Fail = "fail"
)

type Evaluator struct {
	query rego.PreparedEvalQuery
}

// NewEvaluator creates an evaluator. If policyPath is empty, the embedded
// default policy is used. Otherwise policyPath names a .rego file or a
// directory whose .rego files replace the default.
func NewEvaluator(policyPath string) (*Evaluator, error) {
	ctx := context.Background()

	modules, err := loadModules(policyPath)
	if err != nil {
		return nil, err
	}
	opts := []func(*rego.Rego){rego.Query(Query)}
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		opts = append(opts, rego.Module(name, modules[name]))
	}

	query, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("preparing rego query: %w", err)
	}
	return &Evaluator{query: query}, nil
}

func loadModules(policyPath string) (map[string]string, error) {
	def := map[string]string{"default.rego": defaultPolicy}
	if policyPath == "" {
		return def, nil
	}

	info, err := os.Stat(policyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return def, nil
		}
		return nil, fmt.Errorf("reading policy path: %w", err)
	}
	if !info.IsDir() {
		data, err := os.ReadFile(policyPath)
		if err != nil {
			return nil, err
		}
		return map[string]string{filepath.Base(policyPath): string(data)}, nil
	}

	entries, err := os.ReadDir(policyPath)
	if err != nil {
		return nil, fmt.Errorf("reading policy dir: %w", err)
	}
	custom := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".rego") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(policyPath, e.Name()))
		if err != nil {
			return nil, err
		}
		custom[e.Name()] = string(data)
	}
	if len(custom) == 0 {
		return def, nil
	}
	return custom, nil
}

func (e *Evaluator) Evaluate(ctx context.Context, log *sarif.Log) (*store.Verdict, error) {
	data, err := json.Marshal(log)
	if err != nil {
		return nil, err
	}
	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("evaluating rego: %w", err)
	}

	decision := Pass
	if len(results) > 0 && len(results[0].Expressions) > 0 {
		d, ok := results[0].Expressions[0].Value.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a string, got %T", Query, results[0].Expressions[0].Value)
		}
		decision = d
	}

	var relevant []sarif.Result
	counts := map[string]int{}
	for _, run := range log.Runs {
		for _, r := range run.Results {
			counts[r.Level]++
			if decision == Fail && r.Level == "error" {
				relevant = append(relevant, r)
			} else if decision == Warn && r.Level == "warning" {
				relevant = append(relevant, r)
			}
		}
	}

	return &store.Verdict{
		Decision:         decision,
		Reason:           fmt.Sprintf("%s: %d error(s), %d warning(s), %d note(s)", decision, counts["error"], counts["warning"], counts["note"]),
		RelevantFindings: relevant,
		Metadata: map[string]interface{}{
			"errors":   counts["error"],
			"warnings": counts["warning"],
			"notes":    counts["note"],
		},
	}, nil
}
