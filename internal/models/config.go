package models

// ConfigError indicates an invalid or incomplete configuration.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return "config error: " + e.Message
}

// DatabaseConfig locates the on-device store.
type DatabaseConfig struct {
	Path string `json:"path"`
}

// QueueConfig bounds the offline queue and its retry behavior.
type QueueConfig struct {
	MaxSize          int   `json:"maxSize"`
	MaxSendAttempts  int   `json:"maxSendAttempts"`
	RetryDelaysSec   []int `json:"retryDelaysSec"`
	SweepIntervalSec int   `json:"sweepIntervalSec"`
}

// NetworkConfig drives the reachability probe.
type NetworkConfig struct {
	ProbeURL         string `json:"probeUrl"`
	ProbeIntervalSec int    `json:"probeIntervalSec"`
	ProbeTimeoutSec  int    `json:"probeTimeoutSec"`
}

// TracingConfig mirrors the OpenTelemetry setup options.
type TracingConfig struct {
	Enabled        bool    `json:"enabled"`
	ServiceName    string  `json:"serviceName"`
	ServiceVersion string  `json:"serviceVersion"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlpEndpoint"`
	SampleRate     float64 `json:"sampleRate"`
	UseStdout      bool    `json:"useStdout"`
}

// Config is the root configuration for the queue core.
type Config struct {
	LogLevel string         `json:"logLevel"`
	Database DatabaseConfig `json:"database"`
	Queue    QueueConfig    `json:"queue"`
	Network  NetworkConfig  `json:"network"`
	Tracing  TracingConfig  `json:"tracing"`
}
