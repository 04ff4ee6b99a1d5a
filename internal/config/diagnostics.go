package config

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// LogConfig represents the [log] section
type LogConfig struct {
	Level  string `toml:"level" mapstructure:"level" yaml:"level"`
	Format string `toml:"format" mapstructure:"format" yaml:"format"`
}

// ZapLevel parses Level.
func (l *LogConfig) ZapLevel() (zapcore.Level, error) {
	if l.Level == "" {
		return zapcore.InfoLevel, nil
	}
	return zapcore.ParseLevel(l.Level)
}

// Validate performs validation on the log configuration
func (l *LogConfig) Validate() error {
	if _, err := l.ZapLevel(); err != nil {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}
	switch l.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s (valid options: json, console)", l.Format)
	}
	return nil
}
