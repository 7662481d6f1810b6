package postgres

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the connection settings and pool limits.
type Config struct {
	Connection        Connection        `yaml:"connection" mapstructure:"connection"`
	ConnectionDetails ConnectionDetails `yaml:"connection_details" mapstructure:"connection_details"`
}

// Connection identifies the PostgreSQL server and database.
type Connection struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     string `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	DbName   string `yaml:"db_name" mapstructure:"db_name"`
	SSLMode  string `yaml:"ssl_mode" mapstructure:"ssl_mode"`
}

// ConnectionDetails tunes the connection pool. Zero values select the defaults.
type ConnectionDetails struct {
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// Default pool settings
const (
	DefaultMaxOpenConns    = 50
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = time.Minute
)

// Validate checks that the connection block names a server and a database.
func (c Config) Validate() error {
	var missing []string
	if c.Connection.Host == "" {
		missing = append(missing, "host")
	}
	if c.Connection.Port == "" {
		missing = append(missing, "port")
	}
	if c.Connection.User == "" {
		missing = append(missing, "user")
	}
	if c.Connection.DbName == "" {
		missing = append(missing, "db_name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("postgres: missing connection settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// DSN renders the key/value connection string understood by the pgx driver.
func (c Config) DSN() string {
	sslMode := c.Connection.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Connection.Host,
		c.Connection.Port,
		c.Connection.User,
		c.Connection.Password,
		c.Connection.DbName,
		sslMode)
}

// Logger defines the interface for logging operations within the postgres package.
// It provides methods for different logging levels to track database operations,
// connection status, and error handling.
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
