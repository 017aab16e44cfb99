// Package config loads the tiered treecheck configuration.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/chris-regnier/treecheck/internal/ast"
	"github.com/chris-regnier/treecheck/internal/astcheck"
	"github.com/chris-regnier/treecheck/internal/filter"
)

// CheckConfig configures one check instance. The map key in Config.Checks is
// the instance ID; Check names the registered check when it differs.
type CheckConfig struct {
	Enabled    *bool          `yaml:"enabled,omitempty"`
	Check      string         `yaml:"check,omitempty"`
	Severity   string         `yaml:"severity,omitempty"`
	Tokens     []string       `yaml:"tokens,omitempty"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

// IsEnabled treats an unset flag as enabled.
func (c CheckConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// CacheConfig controls the result cache.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// RulesConfig controls the YAML pattern rules.
type RulesConfig struct {
	Enabled  *bool    `yaml:"enabled,omitempty"`
	Disabled []string `yaml:"disabled,omitempty"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled        bool              `yaml:"enabled"`
	Endpoint       string            `yaml:"endpoint,omitempty"`
	Protocol       string            `yaml:"protocol,omitempty"`
	Insecure       bool              `yaml:"insecure,omitempty"`
	Headers        map[string]string `yaml:"headers,omitempty"`
	SampleRate     float64           `yaml:"sample_rate,omitempty"`
	ServiceName    string            `yaml:"service_name,omitempty"`
	ServiceVersion string            `yaml:"service_version,omitempty"`
}

// Config holds the full treecheck configuration.
type Config struct {
	Locale       string                 `yaml:"locale,omitempty"`
	Checks       map[string]CheckConfig `yaml:"checks"`
	Suppressions []filter.Suppression   `yaml:"suppressions,omitempty"`
	Include      []string               `yaml:"include,omitempty"`
	Exclude      []string               `yaml:"exclude,omitempty"`
	Workers      int                    `yaml:"workers,omitempty"`
	Cache        CacheConfig            `yaml:"cache,omitempty"`
	Rules        RulesConfig            `yaml:"rules,omitempty"`
	Telemetry    TelemetryConfig        `yaml:"telemetry,omitempty"`
}

var validSeverities = map[string]bool{"": true, "error": true, "warning": true, "note": true, "info": true}

// ErrInvalidConfig marks every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks settings that do not depend on the check registry.
// Property-level problems surface when checks are bound.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, errors.Mark(errors.Newf(format, args...), ErrInvalidConfig))
	}
	for _, id := range c.CheckIDs() {
		cc := c.Checks[id]
		if id == "" {
			invalid("check with empty name")
		}
		if !validSeverities[cc.Severity] {
			invalid("checks.%s.severity: unknown severity %q", id, cc.Severity)
		}
	}
	if c.Workers < 0 {
		invalid("workers must not be negative, got %d", c.Workers)
	}
	for _, p := range append(append([]string{}, c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			invalid("invalid file pattern %q", p)
		}
	}
	if _, err := filter.NewSuppressionFilter(c.Suppressions); err != nil {
		errs = append(errs, errors.Mark(err, ErrInvalidConfig))
	}
	switch c.Telemetry.Protocol {
	case "", "grpc", "http":
	default:
		invalid("telemetry.protocol must be 'grpc' or 'http', got %q", c.Telemetry.Protocol)
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		invalid("telemetry.sample_rate must be in [0, 1], got %v", c.Telemetry.SampleRate)
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

// CheckIDs returns the configured check IDs in sorted order.
func (c *Config) CheckIDs() []string {
	ids := make([]string, 0, len(c.Checks))
	for id := range c.Checks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Specs returns the enabled checks as binding requests, sorted by ID.
func (c *Config) Specs() []astcheck.Spec {
	var specs []astcheck.Spec
	for _, id := range c.CheckIDs() {
		cc := c.Checks[id]
		if !cc.IsEnabled() {
			continue
		}
		spec := astcheck.Spec{
			ID:         id,
			Check:      cc.Check,
			Severity:   cc.Severity,
			Properties: cc.Properties,
		}
		if spec.Severity == "" {
			spec.Severity = "warning"
		}
		for _, k := range cc.Tokens {
			spec.Tokens = append(spec.Tokens, ast.Kind(k))
		}
		specs = append(specs, spec)
	}
	return specs
}

// CacheEnabled treats an unset flag as enabled.
func (c *Config) CacheEnabled() bool {
	return c.Cache.Enabled == nil || *c.Cache.Enabled
}

// RulesEnabled treats an unset flag as enabled.
func (c *Config) RulesEnabled() bool {
	return c.Rules.Enabled == nil || *c.Rules.Enabled
}

// RuleDisabled reports whether a pattern rule was switched off by ID.
func (c *Config) RuleDisabled(id string) bool {
	for _, d := range c.Rules.Disabled {
		if d == id {
			return true
		}
	}
	if cc, ok := c.Checks[id]; ok && !cc.IsEnabled() {
		return true
	}
	return false
}

// MergeConfigs merges configs in order of increasing precedence.
// Later configs override earlier ones. Non-zero fields override; a check's
// properties are merged key by key.
func MergeConfigs(configs ...*Config) *Config {
	result := &Config{
		Checks: make(map[string]CheckConfig),
	}

	for _, cfg := range configs {
		if cfg == nil {
			continue
		}

		if cfg.Locale != "" {
			result.Locale = cfg.Locale
		}
		if cfg.Workers != 0 {
			result.Workers = cfg.Workers
		}
		if len(cfg.Include) > 0 {
			result.Include = cfg.Include
		}
		if len(cfg.Exclude) > 0 {
			result.Exclude = cfg.Exclude
		}
		// Suppressions accumulate across tiers.
		result.Suppressions = append(result.Suppressions, cfg.Suppressions...)

		if cfg.Cache.Enabled != nil {
			result.Cache.Enabled = cfg.Cache.Enabled
		}
		if cfg.Cache.Path != "" {
			result.Cache.Path = cfg.Cache.Path
		}
		if cfg.Rules.Enabled != nil {
			result.Rules.Enabled = cfg.Rules.Enabled
		}
		result.Rules.Disabled = append(result.Rules.Disabled, cfg.Rules.Disabled...)
		mergeTelemetry(&result.Telemetry, cfg.Telemetry)

		for id, check := range cfg.Checks {
			existing, ok := result.Checks[id]
			if !ok {
				result.Checks[id] = check
				continue
			}
			if check.Enabled != nil {
				existing.Enabled = check.Enabled
			}
			if check.Check != "" {
				existing.Check = check.Check
			}
			if check.Severity != "" {
				existing.Severity = check.Severity
			}
			// Tokens: if specified, override completely
			if len(check.Tokens) > 0 {
				existing.Tokens = check.Tokens
			}
			if len(check.Properties) > 0 {
				props := make(map[string]any, len(existing.Properties)+len(check.Properties))
				for k, v := range existing.Properties {
					props[k] = v
				}
				for k, v := range check.Properties {
					props[k] = v
				}
				existing.Properties = props
			}
			result.Checks[id] = existing
		}
	}

	return result
}

func mergeTelemetry(dst *TelemetryConfig, src TelemetryConfig) {
	if src.Enabled {
		dst.Enabled = true
	}
	if src.Endpoint != "" {
		dst.Endpoint = src.Endpoint
	}
	if src.Protocol != "" {
		dst.Protocol = src.Protocol
	}
	if src.Insecure {
		dst.Insecure = true
	}
	if len(src.Headers) > 0 {
		dst.Headers = src.Headers
	}
	if src.SampleRate != 0 {
		dst.SampleRate = src.SampleRate
	}
	if src.ServiceName != "" {
		dst.ServiceName = src.ServiceName
	}
	if src.ServiceVersion != "" {
		dst.ServiceVersion = src.ServiceVersion
	}
}

// LoadFromFile reads a YAML config file. Returns nil, nil if the file doesn't exist.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading config file %s", path)
	}
	return Parse(data, path)
}

// Parse decodes a YAML config document. Unknown fields are rejected.
func Parse(data []byte, name string) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.WithHint(
			errors.Mark(errors.Wrapf(err, "parsing config file %s", name), ErrInvalidConfig),
			"check the YAML syntax and field names")
	}
	return &cfg, nil
}

// DefaultPaths returns the machine and project config file locations.
func DefaultPaths(projectRoot string) (machine, project string) {
	if home, err := os.UserHomeDir(); err == nil {
		machine = filepath.Join(home, ".config", "treecheck", "config.yaml")
	}
	return machine, filepath.Join(projectRoot, ".treecheck", "config.yaml")
}

// LoadTiered loads system defaults, then machine config, then project config,
// and merges them in order of increasing precedence.
func LoadTiered(machinePath, projectPath string) (*Config, error) {
	system := SystemDefaults()

	machine, err := LoadFromFile(machinePath)
	if err != nil {
		return nil, errors.Wrap(err, "loading machine config")
	}

	project, err := LoadFromFile(projectPath)
	if err != nil {
		return nil, errors.Wrap(err, "loading project config")
	}

	return MergeConfigs(system, machine, project), nil
}
