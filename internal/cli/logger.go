package cli

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/LeJamon/goMarketd/internal/config"
)

// buildLogger honours the [log] section; --debug and --verbose lower the
// level, --quiet raises it to warnings.
func buildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := cfg.ZapLevel()
	if err != nil {
		return nil, fmt.Errorf("failed to set log level: %w", err)
	}
	switch {
	case debug || verbose:
		level = zapcore.DebugLevel
	case quiet && level < zapcore.WarnLevel:
		level = zapcore.WarnLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	encoder := zapcore.NewJSONEncoder(encoderConfig)
	if cfg.Format == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	return zap.New(zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)), nil
}
