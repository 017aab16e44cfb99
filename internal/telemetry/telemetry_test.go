package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/treecheck/internal/config"
)

// Exporters connect lazily, so Init succeeds without a collector. A short
// shutdown deadline keeps the final flush from waiting on a dial.
func shutdownCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		in   config.TelemetryConfig
		want config.TelemetryConfig
	}{
		{
			name: "defaults",
			in:   config.TelemetryConfig{},
			want: config.TelemetryConfig{ServiceName: "treecheck", SampleRate: 1.0, Protocol: "grpc"},
		},
		{
			name: "explicit values kept",
			in:   config.TelemetryConfig{Enabled: true, ServiceName: "svc", SampleRate: 0.25, Protocol: "http"},
			want: config.TelemetryConfig{Enabled: true, ServiceName: "svc", SampleRate: 0.25, Protocol: "http"},
		},
		{
			name: "env disables",
			env:  map[string]string{EnvEnabled: "false"},
			in:   config.TelemetryConfig{Enabled: true},
			want: config.TelemetryConfig{ServiceName: "treecheck", SampleRate: 1.0, Protocol: "grpc"},
		},
		{
			name: "env enables case insensitive",
			env:  map[string]string{EnvEnabled: "TRUE"},
			want: config.TelemetryConfig{Enabled: true, ServiceName: "treecheck", SampleRate: 1.0, Protocol: "grpc"},
		},
		{
			name: "env enables with 1",
			env:  map[string]string{EnvEnabled: "1"},
			want: config.TelemetryConfig{Enabled: true, ServiceName: "treecheck", SampleRate: 1.0, Protocol: "grpc"},
		},
		{
			name: "env endpoint",
			env:  map[string]string{EnvEndpoint: "collector:4317"},
			in:   config.TelemetryConfig{Endpoint: "localhost:4317"},
			want: config.TelemetryConfig{Endpoint: "collector:4317", ServiceName: "treecheck", SampleRate: 1.0, Protocol: "grpc"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvEnabled, "")
			t.Setenv(EnvEndpoint, "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.want, Resolve(tt.in))
		})
	}
}

func TestInitDisabled(t *testing.T) {
	t.Setenv(EnvEnabled, "")
	shutdown, err := Init(context.Background(), config.TelemetryConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitExporters(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.TelemetryConfig
	}{
		{"grpc", config.TelemetryConfig{Enabled: true, Endpoint: "localhost:4317", Protocol: "grpc", Insecure: true}},
		{"http", config.TelemetryConfig{Enabled: true, Endpoint: "localhost:4318", Protocol: "http", Insecure: true}},
		{"headers", config.TelemetryConfig{
			Enabled: true, Endpoint: "localhost:4317", Protocol: "grpc",
			Headers: map[string]string{"Authorization": "Bearer test-token"},
		}},
		{"sampled", config.TelemetryConfig{Enabled: true, Endpoint: "localhost:4318", Protocol: "http", Insecure: true, SampleRate: 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvEnabled, "")
			shutdown, err := Init(context.Background(), tt.cfg)
			require.NoError(t, err)
			_ = shutdown(shutdownCtx(t))
		})
	}
}

func TestInitEnabledByEnv(t *testing.T) {
	t.Setenv(EnvEnabled, "true")
	shutdown, err := Init(context.Background(), config.TelemetryConfig{Endpoint: "localhost:4317", Insecure: true})
	require.NoError(t, err)
	assert.NotNil(t, Tracer())
	_ = shutdown(shutdownCtx(t))
}
