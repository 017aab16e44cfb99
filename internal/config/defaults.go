package config

func enabled(v bool) *bool { return &v }

// SystemDefaults returns the built-in check selection and settings.
func SystemDefaults() *Config {
	return &Config{
		Locale: "en",
		Checks: map[string]CheckConfig{
			"nested-if-depth":        {Severity: "warning", Properties: map[string]any{"max": 1}},
			"nested-for-depth":       {Severity: "warning", Properties: map[string]any{"max": 1}},
			"nested-try-depth":       {Severity: "warning", Properties: map[string]any{"max": 1}},
			"nesting-depth":          {Severity: "warning", Properties: map[string]any{"max": 4}},
			"declaration-order":      {Severity: "warning"},
			"fall-through":           {Severity: "error"},
			"missing-switch-default": {Severity: "warning"},
			"return-count":           {Severity: "note"},
			"unused-private-field":   {Severity: "warning"},
			"unused-private-method":  {Severity: "warning"},
			"unused-local-variable":  {Severity: "warning"},
			"empty-handler":          {Severity: "warning"},
			"method-length":          {Severity: "note", Properties: map[string]any{"max": 50}},
			"parameter-number":       {Severity: "note", Properties: map[string]any{"max": 5}},
			"todo-comment":           {Severity: "info", Enabled: enabled(false)},
			"regexp":                 {Severity: "warning", Enabled: enabled(false)},
		},
		Exclude: []string{"**/node_modules/**", "**/vendor/**", "**/build/**", "**/target/**"},
		Cache:   CacheConfig{Enabled: enabled(true), Path: ".treecheck/cache.db"},
		Telemetry: TelemetryConfig{
			Protocol:    "grpc",
			Endpoint:    "localhost:4317",
			Insecure:    true,
			SampleRate:  1.0,
			ServiceName: "treecheck",
		},
	}
}
