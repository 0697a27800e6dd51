package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	assert.Equal(t, DefaultServiceName, cfg.GetServiceName())
	assert.Equal(t, "unknown", cfg.GetServiceVersion())
	assert.Equal(t, DefaultEndpoint, cfg.GetEndpoint())
	assert.Equal(t, DefaultSampling, (&TracingConfig{}).GetSampling())

	cfg = &Config{ServiceName: "grosbeak-staging", ServiceVersion: "v1.2.0", Endpoint: "otel:4318"}
	assert.Equal(t, "grosbeak-staging", cfg.GetServiceName())
	assert.Equal(t, "v1.2.0", cfg.GetServiceVersion())
	assert.Equal(t, "otel:4318", cfg.GetEndpoint())
	assert.Equal(t, 0.25, (&TracingConfig{Sampling: 0.25}).GetSampling())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{name: "nil config", config: nil},
		{
			name:   "disabled config ignores bad values",
			config: &Config{Tracing: &TracingConfig{Enabled: true, Sampling: 3}},
		},
		{
			name: "valid tracing and metrics",
			config: &Config{
				Enabled: true,
				Tracing: &TracingConfig{Enabled: true, Sampling: 1},
				Metrics: &MetricsConfig{Enabled: true, Prometheus: true, DisableOTLP: true},
			},
		},
		{
			name: "negative sampling",
			config: &Config{
				Enabled: true,
				Tracing: &TracingConfig{Enabled: true, Sampling: -0.1},
			},
			wantErr: "sampling must be between 0.0 and 1.0",
		},
		{
			name: "sampling ignored when tracing disabled",
			config: &Config{
				Enabled: true,
				Tracing: &TracingConfig{Sampling: 7},
			},
		},
		{
			name: "no metrics exporter left",
			config: &Config{
				Enabled: true,
				Metrics: &MetricsConfig{Enabled: true, DisableOTLP: true},
			},
			wantErr: "disableOTLP requires prometheus",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.config.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
