package cli

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// parseLogLevel maps a --log-level value (case-insensitive) to a zap
// level. WARNING is accepted alongside zap's own WARN spelling.
func parseLogLevel(value string) (zapcore.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "DEBUG":
		return zapcore.DebugLevel, nil
	case "INFO", "":
		return zapcore.InfoLevel, nil
	case "WARNING", "WARN":
		return zapcore.WarnLevel, nil
	case "ERROR":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q (use DEBUG, INFO, WARNING, or ERROR)", value)
	}
}

// NewLogger builds the CLI logger on the given atomic level. The level
// is shared with the generated run commands so --log-level takes effect
// on every logger built from it. Output goes to stderr so schema/list
// JSON on stdout stays machine-readable.
func NewLogger(level zap.AtomicLevel) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = level
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
