package metrics

import (
	"fmt"
	"net"
)

// DefaultMetricsAddress is used when Config.Address is empty.
const DefaultMetricsAddress = ":9090"

// DefaultNamespace prefixes every vecdocs metric.
const DefaultNamespace = "vecdocs"

// Config defines how metrics are exposed and collected.
type Config struct {
	// Address is where the /metrics HTTP server listens, e.g. ":9090".
	Address string `yaml:"address" mapstructure:"address"`

	// EnableDefaultCollectors registers the Go runtime, process and build
	// info collectors.
	EnableDefaultCollectors bool `yaml:"enable_default_collectors" mapstructure:"enable_default_collectors"`

	// Namespace prefixes all metric names. Defaults to "vecdocs".
	Namespace string `yaml:"namespace" mapstructure:"namespace"`

	// ServiceName is attached to every metric as the constant label service.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
}

func (c Config) withDefaults() Config {
	if c.Address == "" {
		c.Address = DefaultMetricsAddress
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	return c
}

// Validate checks that Address, when set, is a host:port pair.
func (c Config) Validate() error {
	if c.Address == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return fmt.Errorf("metrics: invalid address %q: %w", c.Address, err)
	}
	return nil
}

// Logger is an interface that matches the vecdocs/v1/logger.Logger
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
