// Package checks holds the built-in checks.
package checks

import "github.com/chris-regnier/treecheck/internal/astcheck"

// Entries returns every built-in check.
func Entries() []astcheck.Entry {
	return []astcheck.Entry{
		declarationOrderEntry(),
		emptyHandlerEntry(),
		fallThroughEntry(),
		methodLengthEntry(),
		missingSwitchDefaultEntry(),
		nestedForDepthEntry(),
		nestedIfDepthEntry(),
		nestedTryDepthEntry(),
		nestingDepthEntry(),
		parameterNumberEntry(),
		regexpEntry(),
		returnCountEntry(),
		todoCommentEntry(),
		unusedLocalVariableEntry(),
		unusedPrivateFieldEntry(),
		unusedPrivateMethodEntry(),
	}
}

// DefaultRegistry returns a Registry pre-loaded with all built-in checks.
func DefaultRegistry() *astcheck.Registry {
	r := astcheck.NewRegistry()
	for _, e := range Entries() {
		r.Register(e)
	}
	return r
}
