package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "de"}, c.Locales())
}

func TestFormatEnglish(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	p := c.Printer("en")

	tests := []struct {
		key  string
		args []any
		want string
	}{
		{"nested.if.depth", []any{2, 1}, "Nested if-else depth is 2 (max allowed is 1)."},
		{"unused.local.var", []any{"dead"}, "Unused local variable 'dead'."},
		{"missing.switch.default", nil, `switch without "default" clause.`},
		{"maxParam", []any{3, 2, "m"}, "m has 3 parameters (max allowed is 2)."},
		{"pattern.match", []any{"custom text"}, "custom text"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Format(tt.key, tt.args...))
		})
	}
}

func TestFormatNegotiation(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "de", c.Printer("de-AT").Locale())
	assert.Equal(t, "de", c.Printer("fr-CH, de;q=0.8").Locale())
	assert.Equal(t, "en", c.Printer("ja").Locale())
	assert.Equal(t, "en", c.Printer().Locale())

	de := c.Printer("de")
	assert.Equal(t, "Unbenutztes privates Feld 'x'.", de.Format("unused.private.field", "x"))
}

func TestFormatUnknownKey(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	p := c.Printer("en")
	assert.Equal(t, "custom.key: 1, two", p.Format("custom.key", 1, "two"))
	assert.Equal(t, "custom.key", p.Format("custom.key"))
}

func TestFallbackToDefaultLocale(t *testing.T) {
	c, err := Parse([]byte("en:\n  a: \"A {0}\"\n  b: B\nde:\n  a: \"DE {0}\"\n"))
	require.NoError(t, err)
	p := c.Printer("de")
	assert.Equal(t, "DE x", p.Format("a", "x"))
	assert.Equal(t, "B", p.Format("b"))
}

func TestExpand(t *testing.T) {
	assert.Equal(t, "a {1} b", expand("a {1} b", []any{"x"}))
	assert.Equal(t, "x and x", expand("{0} and {0}", []any{"x"}))
	assert.Equal(t, "open {", expand("open {", nil))
	assert.Equal(t, "it's", expand("it''s", nil))
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("{}"))
	assert.Error(t, err)
	_, err = Parse([]byte("not-a-locale!!:\n  a: b\n"))
	assert.Error(t, err)
}
