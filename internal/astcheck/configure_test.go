package astcheck

import (
	"regexp"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/treecheck/internal/ast"
)

type depthOptions struct {
	Max     int        `mapstructure:"max"`
	Format  string     `mapstructure:"format"`
	Skip    []ast.Kind `mapstructure:"skip"`
	Verbose bool       `mapstructure:"verbose"`
}

type depthCheck struct {
	opts    depthOptions
	pattern *regexp.Regexp
}

func (c *depthCheck) Tokens() Tokens {
	return Tokens{
		Default:    []ast.Kind{"if_statement"},
		Acceptable: []ast.Kind{"if_statement", "for_statement", "while_statement"},
		Required:   []ast.Kind{"if_statement"},
	}
}

func (c *depthCheck) NewVisitor(*ast.Node, Reporter) Visitor { return NopVisitor{} }

func newDepthCheck(props Properties) (Check, error) {
	opts := depthOptions{Max: 1, Format: "^$"}
	if err := DecodeProperties(props, &opts); err != nil {
		return nil, err
	}
	if err := NonNegative("max", opts.Max); err != nil {
		return nil, err
	}
	re, err := CompilePattern("format", opts.Format)
	if err != nil {
		return nil, err
	}
	return &depthCheck{opts: opts, pattern: re}, nil
}

type commentCheck struct{}

func (commentCheck) Tokens() Tokens {
	return Tokens{Default: []ast.Kind{"line_comment"}}
}

func (commentCheck) NewVisitor(*ast.Node, Reporter) Visitor { return NopVisitor{} }

func testRegistry() *Registry {
	r := NewRegistry()
	r.Register(Entry{Name: "depth", Category: "coding", New: newDepthCheck})
	r.Register(Entry{Name: "comments", New: func(Properties) (Check, error) { return commentCheck{}, nil }})
	r.Register(Entry{Name: "broken", New: func(Properties) (Check, error) { panic("boom") }})
	return r
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

func TestRegistryBasics(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Names())

	r.Register(Entry{Name: "nested-if-depth"})
	r.Register(Entry{Name: "declaration-order"})
	assert.Equal(t, []string{"declaration-order", "nested-if-depth"}, r.Names())

	e, ok := r.Get("nested-if-depth")
	assert.True(t, ok)
	assert.Equal(t, "nested-if-depth", e.Name)

	_, ok = r.Get("nonexistent")
	assert.False(t, ok)

	entries := r.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "declaration-order", entries[0].Name)
}

func TestEntrySupportsLanguage(t *testing.T) {
	assert.True(t, Entry{}.SupportsLanguage("java"))
	e := Entry{Languages: []string{"java", "go"}}
	assert.True(t, e.SupportsLanguage("go"))
	assert.False(t, e.SupportsLanguage("python"))
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

func TestDecodePropertiesDefaultsAndOverrides(t *testing.T) {
	opts := depthOptions{Max: 3, Format: "x"}
	err := DecodeProperties(Properties{"max": 5, "skip": "for_statement,while_statement"}, &opts)
	require.NoError(t, err)
	assert.Equal(t, 5, opts.Max)
	assert.Equal(t, "x", opts.Format)
	assert.Equal(t, []ast.Kind{"for_statement", "while_statement"}, opts.Skip)
}

func TestDecodePropertiesWeakNumbers(t *testing.T) {
	opts := depthOptions{}
	require.NoError(t, DecodeProperties(Properties{"max": "7", "verbose": "true"}, &opts))
	assert.Equal(t, 7, opts.Max)
	assert.True(t, opts.Verbose)
}

func TestDecodePropertiesRejectsUnknownKey(t *testing.T) {
	opts := depthOptions{}
	err := DecodeProperties(Properties{"maximum": 2}, &opts)
	require.Error(t, err)
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "maximum", ce.Property)
	assert.True(t, errors.Is(err, ErrInvalidProperty))
}

func TestDecodePropertiesRejectsWrongType(t *testing.T) {
	opts := depthOptions{}
	err := DecodeProperties(Properties{"max": "lots"}, &opts)
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "max", ce.Property)
}

// ---------------------------------------------------------------------------
// Configure
// ---------------------------------------------------------------------------

func TestConfigureDefaults(t *testing.T) {
	got, err := Configure(testRegistry(), []Spec{{ID: "depth", Severity: "warning"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	c := got[0]
	assert.Equal(t, "depth", c.ID)
	assert.Equal(t, "warning", c.Severity)
	assert.Equal(t, []ast.Kind{"if_statement"}, c.Enter)
	assert.Equal(t, c.Enter, c.Leave)
	assert.Equal(t, 1, c.Check.(*depthCheck).opts.Max)
}

func TestConfigureNamedInstances(t *testing.T) {
	got, err := Configure(testRegistry(), []Spec{
		{ID: "depth"},
		{ID: "strict-depth", Check: "depth", Properties: Properties{"max": 0}},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "strict-depth", got[1].ID)
	assert.Equal(t, "depth", got[1].Entry.Name)
	assert.Equal(t, 0, got[1].Check.(*depthCheck).opts.Max)
}

func TestConfigureTokenOverride(t *testing.T) {
	got, err := Configure(testRegistry(), []Spec{
		{ID: "depth", Tokens: []ast.Kind{"if_statement", "for_statement"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []ast.Kind{"if_statement", "for_statement"}, got[0].Enter)
}

func TestConfigureDerivesTrivia(t *testing.T) {
	got, err := Configure(testRegistry(), []Spec{{ID: "depth"}, {ID: "comments"}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.False(t, got[0].Trivia, "no comment kinds entered")
	assert.True(t, got[1].Trivia, "line_comment entered")
}

func TestConfigureErrors(t *testing.T) {
	tests := []struct {
		name     string
		spec     Spec
		sentinel error
		property string
	}{
		{"unknown check", Spec{ID: "nope"}, ErrUnknownCheck, ""},
		{"unknown property", Spec{ID: "depth", Properties: Properties{"bogus": 1}}, ErrInvalidProperty, "bogus"},
		{"negative limit", Spec{ID: "depth", Properties: Properties{"max": -1}}, ErrInvalidProperty, "max"},
		{"bad regexp", Spec{ID: "depth", Properties: Properties{"format": "("}}, ErrInvalidProperty, "format"},
		{"unacceptable token", Spec{ID: "depth", Tokens: []ast.Kind{"if_statement", "class_body"}}, ErrIllegalTokens, "tokens"},
		{"missing required token", Spec{ID: "depth", Tokens: []ast.Kind{"for_statement"}}, ErrIllegalTokens, "tokens"},
		{"factory panic", Spec{ID: "broken"}, ErrInvalidProperty, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Configure(testRegistry(), []Spec{tt.spec})
			require.Error(t, err)
			assert.Empty(t, got)
			assert.True(t, errors.Is(err, ErrConfig), "should be marked as configuration error: %v", err)
			assert.True(t, errors.Is(err, tt.sentinel), "expected %v, got %v", tt.sentinel, err)

			var ce *ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.spec.ID, ce.CheckID)
			assert.Equal(t, tt.property, ce.Property)
			assert.Contains(t, err.Error(), tt.spec.ID)
		})
	}
}

func TestConfigureKeepsGoodChecks(t *testing.T) {
	got, err := Configure(testRegistry(), []Spec{
		{ID: "nope"},
		{ID: "depth"},
		{ID: "depth-bad", Check: "depth", Properties: Properties{"max": "x"}},
	})
	require.Error(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "depth", got[0].ID)
	assert.Contains(t, err.Error(), "nope")
	assert.Contains(t, err.Error(), "depth-bad")
}
