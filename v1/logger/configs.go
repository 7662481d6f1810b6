package logger

import "fmt"

// Log levels accepted by Config.Level.
const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// Config selects the level and the constant fields of the logger.
type Config struct {
	// Level is one of debug, info, warning or error. Anything else logs at info.
	Level string `yaml:"level" mapstructure:"level"`

	// ServiceName is attached to every entry as "service".
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`

	// EnableTracing adds trace_id and span_id to entries logged with a context.
	EnableTracing bool `yaml:"enable_tracing" mapstructure:"enable_tracing"`
}

// Validate rejects unknown levels. An empty level means info.
func (c Config) Validate() error {
	switch c.Level {
	case "", Debug, Info, Warning, Error:
		return nil
	default:
		return fmt.Errorf("logger: unknown level %q", c.Level)
	}
}
