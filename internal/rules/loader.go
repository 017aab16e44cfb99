package rules

import (
	_ "embed"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// DefaultRules returns the rules built into the binary.
func DefaultRules() ([]Rule, error) {
	rf, err := ParseRuleFile(defaultRulesYAML)
	if err != nil {
		return nil, errors.Wrap(err, "embedded rules")
	}
	return rf.Rules, nil
}

// DefaultDirs returns the user and project rule directories.
func DefaultDirs(projectRoot string) (userDir, projectDir string) {
	if home, err := os.UserHomeDir(); err == nil {
		userDir = filepath.Join(home, ".config", "treecheck", "rules")
	}
	return userDir, filepath.Join(projectRoot, ".treecheck", "rules")
}

// LoadRules layers the rule files of userDir and then projectDir over the
// embedded defaults. A rule replaces any earlier rule with the same ID.
// Missing directories are skipped. The result is sorted by ID.
func LoadRules(userDir, projectDir string) ([]Rule, error) {
	defaults, err := DefaultRules()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Rule, len(defaults))
	for _, r := range defaults {
		byID[r.ID] = r
	}

	for _, dir := range []string{userDir, projectDir} {
		layer, err := readRuleDir(dir)
		if err != nil {
			return nil, errors.Wrapf(err, "rules in %s", dir)
		}
		for _, r := range layer {
			byID[r.ID] = r
		}
	}

	out := make([]Rule, 0, len(byID))
	for _, r := range byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// readRuleDir parses every *.yaml and *.yml file directly inside dir, in
// lexical order.
func readRuleDir(dir string) ([]Rule, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	names, err := doublestar.Glob(os.DirFS(dir), "*.{yaml,yml,YAML,YML}", doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	var out []Rule
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		rf, err := ParseRuleFile(data)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", name)
		}
		out = append(out, rf.Rules...)
	}
	return out, nil
}
