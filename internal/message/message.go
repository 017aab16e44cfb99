// Package message renders violation keys and arguments into localized text.
package message

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var messagesYAML []byte

// Catalog holds one message table per locale.
type Catalog struct {
	tables  map[language.Tag]map[string]string
	matcher language.Matcher
	tags    []language.Tag
}

// Default returns the catalog built into the binary.
func Default() (*Catalog, error) {
	return Parse(messagesYAML)
}

// Parse reads a YAML document mapping locale to key to template. The first
// locale in sorted order that is "en" is the fallback; otherwise the first.
func Parse(data []byte) (*Catalog, error) {
	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing message catalog: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("message catalog has no locales")
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	// English first so the matcher falls back to it.
	sort.SliceStable(names, func(i, j int) bool { return names[i] == "en" && names[j] != "en" })

	c := &Catalog{tables: make(map[language.Tag]map[string]string, len(raw))}
	for _, name := range names {
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("invalid locale %q: %w", name, err)
		}
		c.tables[tag] = raw[name]
		c.tags = append(c.tags, tag)
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// Locales returns the locales in the catalog, fallback first.
func (c *Catalog) Locales() []string {
	out := make([]string, len(c.tags))
	for i, t := range c.tags {
		out[i] = t.String()
	}
	return out
}

// Printer renders messages for one negotiated locale.
type Printer struct {
	tag      language.Tag
	table    map[string]string
	fallback map[string]string
}

// Printer negotiates the best locale for the preferences, which may be
// BCP 47 tags or Accept-Language strings. An empty preference selects the
// fallback locale.
func (c *Catalog) Printer(prefs ...string) *Printer {
	var want []language.Tag
	for _, p := range prefs {
		tags, _, err := language.ParseAcceptLanguage(p)
		if err == nil {
			want = append(want, tags...)
		}
	}
	_, idx, _ := c.matcher.Match(want...)
	tag := c.tags[idx]
	return &Printer{tag: tag, table: c.tables[tag], fallback: c.tables[c.tags[0]]}
}

// Locale is the negotiated locale.
func (p *Printer) Locale() string { return p.tag.String() }

// Format renders key with args. Keys missing from the locale fall back to
// the default locale; unknown keys render as "key: args".
func (p *Printer) Format(key string, args ...any) string {
	tmpl, ok := p.table[key]
	if !ok {
		tmpl, ok = p.fallback[key]
	}
	if !ok {
		if len(args) == 0 {
			return key
		}
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = fmt.Sprint(a)
		}
		return key + ": " + strings.Join(parts, ", ")
	}
	return expand(tmpl, args)
}

// expand substitutes {n} placeholders. A doubled single quote yields one
// quote; placeholders without a matching argument are left as written.
func expand(tmpl string, args []any) string {
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		ch := tmpl[i]
		switch {
		case ch == '\'' && i+1 < len(tmpl) && tmpl[i+1] == '\'':
			b.WriteByte('\'')
			i++
		case ch == '{':
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				b.WriteString(tmpl[i:])
				return b.String()
			}
			n, err := strconv.Atoi(tmpl[i+1 : i+end])
			if err != nil || n < 0 || n >= len(args) {
				b.WriteString(tmpl[i : i+end+1])
			} else {
				b.WriteString(fmt.Sprint(args[n]))
			}
			i += end
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
