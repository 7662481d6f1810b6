package tracer

import "errors"

// Config controls the tracer provider.
type Config struct {
	// ServiceName is reported as the service.name resource attribute
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`

	// AppEnv is reported as deployment.environment
	AppEnv string `yaml:"app_env" mapstructure:"app_env"`

	// EnableExport sends spans to an OTLP/HTTP collector. Without it spans
	// are created and sampled but never leave the process.
	EnableExport bool `yaml:"enable_export" mapstructure:"enable_export"`

	// Endpoint is the collector host:port. Empty uses the OTEL_EXPORTER_OTLP_*
	// environment variables or the exporter default.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// Insecure disables TLS towards the collector
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
}

// Validate requires a service name when spans are exported.
func (c Config) Validate() error {
	if c.EnableExport && c.ServiceName == "" {
		return errors.New("tracer: service_name is required when export is enabled")
	}
	return nil
}

// Logger is the logging interface used by the tracer.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
