package review

import (
	"sort"

	"github.com/chris-regnier/treecheck/internal/sarif"
)

// matches reports whether a level passes the current filter.
func (m Model) matches(level string) bool {
	switch m.filter {
	case FilterErrors:
		return level == "error"
	case FilterWarnings:
		return level == "error" || level == "warning"
	default:
		return true
	}
}

// filteredFindings returns findings filtered by current filter setting
func (m Model) filteredFindings() []sarif.Result {
	if m.filter == FilterAll {
		return m.findings
	}
	var filtered []sarif.Result
	for _, f := range m.findings {
		if m.matches(f.Level) {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

// filteredFiles returns files with at least one finding passing the filter.
func (m Model) filteredFiles() map[string][]sarif.Result {
	filtered := make(map[string][]sarif.Result)
	for path, findings := range m.files {
		for _, f := range findings {
			if m.matches(f.Level) {
				filtered[path] = append(filtered[path], f)
			}
		}
	}
	return filtered
}

// fileList returns the filtered file paths in sorted order.
func (m Model) fileList() []string {
	files := m.filteredFiles()
	list := make([]string, 0, len(files))
	for path := range files {
		list = append(list, path)
	}
	sort.Strings(list)
	return list
}

// current returns the selected finding.
func (m Model) current() (sarif.Result, bool) {
	filtered := m.filteredFindings()
	if m.currentFinding < 0 || m.currentFinding >= len(filtered) {
		return sarif.Result{}, false
	}
	return filtered[m.currentFinding], true
}
