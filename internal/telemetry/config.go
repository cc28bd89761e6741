// Package telemetry traces governance runs with OpenTelemetry.
//
// Tracing is off unless enabled through the environment. When an OTLP
// endpoint is configured, spans are exported over HTTP when the process
// exits.
package telemetry

import (
	"fmt"
	"strconv"
	"strings"
)

// Environment variables read by FromEnv.
const (
	EnvTracing    = "APIGOV_TRACING"
	EnvSampleRate = "APIGOV_TRACE_SAMPLE_RATE"
	// EnvEndpoint is the standard OTLP variable; setting it enables tracing.
	EnvEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvInsecure = "OTEL_EXPORTER_OTLP_INSECURE"
)

// Config holds configuration for the tracer
type Config struct {
	ServiceName    string
	ServiceVersion string

	// Environment is the deployment environment, e.g. ci or local
	Environment string

	// Enabled determines whether tracing is enabled
	// When false, a noop tracer is used
	Enabled bool

	// Endpoint is the OTLP/HTTP collector as host:port.
	// If empty, spans are recorded but not exported
	Endpoint string
	Insecure bool

	// SampleRate is the fraction of runs to trace (0.0 to 1.0)
	SampleRate float64
}

// DefaultConfig returns a configuration with tracing disabled
func DefaultConfig() Config {
	return Config{
		ServiceName:    "apigov",
		ServiceVersion: "dev",
		Environment:    "local",
		SampleRate:     1.0,
	}
}

// FromEnv overlays the tracing environment variables on DefaultConfig.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()

	if v := getenv(EnvTracing); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvTracing, err)
		}
		cfg.Enabled = enabled
	}
	if v := strings.TrimSpace(getenv(EnvEndpoint)); v != "" {
		cfg.Endpoint = strings.TrimPrefix(strings.TrimPrefix(v, "https://"), "http://")
		cfg.Insecure = strings.HasPrefix(v, "http://")
		if getenv(EnvTracing) == "" {
			cfg.Enabled = true
		}
	}
	if v := getenv(EnvInsecure); v != "" {
		insecure, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvInsecure, err)
		}
		cfg.Insecure = insecure
	}
	if v := getenv(EnvSampleRate); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil || rate < 0 || rate > 1 {
			return cfg, fmt.Errorf("%s must be a number between 0 and 1, got %q", EnvSampleRate, v)
		}
		cfg.SampleRate = rate
	}
	if env := getenv("CI"); env != "" {
		cfg.Environment = "ci"
	}
	return cfg, nil
}
