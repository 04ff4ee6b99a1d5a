package journal

import (
	"fmt"
	"time"
)

// Driver names accepted in Config.Driver.
const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains journal database settings.
type Config struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`

	// Connection pool settings
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`

	// DefaultTimeout bounds the connection check and every write.
	DefaultTimeout time.Duration `mapstructure:"default_timeout" yaml:"default_timeout"`
}

// NewConfig returns a sqlite journal configuration writing to path.
func NewConfig(path string) *Config {
	return &Config{
		Driver:          DriverSQLite,
		DSN:             path,
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		DefaultTimeout:  5 * time.Second,
	}
}

// Enabled reports whether a journal should be opened at all.
func (c *Config) Enabled() bool {
	return c.Driver != "" && c.Driver != DriverNone
}

// Validate checks the configuration and normalises the driver name.
func (c *Config) Validate() error {
	switch c.Driver {
	case "", DriverNone:
		c.Driver = DriverNone
		return nil
	case DriverSQLite, "sqlite3":
		c.Driver = DriverSQLite
		if c.MaxOpenConns == 0 {
			c.MaxOpenConns = 1
		}
	case DriverPostgres, "postgresql":
		c.Driver = DriverPostgres
	default:
		return fmt.Errorf("%w: %s", ErrInvalidDriver, c.Driver)
	}

	if c.DSN == "" {
		return ErrMissingDSN
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return ErrInvalidPool
	}
	if c.MaxOpenConns > 0 && c.MaxIdleConns > c.MaxOpenConns {
		return ErrInvalidPool
	}
	if c.DefaultTimeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}
