package main

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/jonwraymond/underpressure/admission"
	"github.com/jonwraymond/underpressure/health"
	"github.com/jonwraymond/underpressure/observe"
)

// envPrefix is prepended to every variable, e.g. PRESSURE_MAX_RSS_BYTES.
const envPrefix = "PRESSURE"

var version = "dev"

// Settings is the daemon configuration read from the environment.
type Settings struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"pressured"`
	Addr        string `envconfig:"ADDR" default:":8080"`
	GRPCAddr    string `envconfig:"GRPC_ADDR" default:""`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	Resolution     time.Duration `envconfig:"RESOLUTION" default:"10ms"`
	SampleInterval time.Duration `envconfig:"SAMPLE_INTERVAL" default:"1s"`

	MaxEventLoopDelayMs float64 `envconfig:"MAX_EVENT_LOOP_DELAY_MS" default:"0"`
	MaxHeapUsedBytes    uint64  `envconfig:"MAX_HEAP_USED_BYTES" default:"0"`
	MaxRSSBytes         uint64  `envconfig:"MAX_RSS_BYTES" default:"0"`
	MaxUtilization      float64 `envconfig:"MAX_UTILIZATION" default:"0"`

	StatusCode int               `envconfig:"STATUS_CODE" default:"503"`
	Reason     string            `envconfig:"REASON" default:"Service Unavailable"`
	Headers    map[string]string `envconfig:"HEADERS"`

	LogLevel        string  `envconfig:"LOG_LEVEL" default:"info"`
	MetricsExporter string  `envconfig:"METRICS_EXPORTER" default:"prometheus"`
	TracingExporter string  `envconfig:"TRACING_EXPORTER" default:"none"`
	TraceSamplePct  float64 `envconfig:"TRACE_SAMPLE_PCT" default:"1"`
}

func loadSettings() (*Settings, error) {
	s := &Settings{}
	if err := envconfig.Process(envPrefix, s); err != nil {
		return nil, fmt.Errorf("unable to parse daemon configuration: %w", err)
	}
	if err := s.admissionConfig().Validate(); err != nil {
		return nil, err
	}
	obsCfg := s.observeConfig()
	if err := obsCfg.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) admissionConfig() admission.Config {
	return admission.Config{
		Thresholds: admission.Thresholds{
			MaxEventLoopDelayMs: s.MaxEventLoopDelayMs,
			MaxHeapUsedBytes:    s.MaxHeapUsedBytes,
			MaxRSSBytes:         s.MaxRSSBytes,
			MaxUtilization:      s.MaxUtilization,
		},
		Rejection: admission.Rejection{
			StatusCode: s.StatusCode,
			Reason:     s.Reason,
			Headers:    s.Headers,
		},
		Sampler: health.SamplerConfig{
			Resolution:     s.Resolution,
			SampleInterval: s.SampleInterval,
		},
	}
}

func (s *Settings) observeConfig() observe.Config {
	return observe.Config{
		ServiceName: s.ServiceName,
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   s.TracingExporter != "none" && s.TracingExporter != "",
			Exporter:  s.TracingExporter,
			SamplePct: s.TraceSamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  s.MetricsExporter != "none" && s.MetricsExporter != "",
			Exporter: s.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   s.LogLevel,
		},
	}
}
