// Package logging builds the zap logger used by the CLI.
//
// Compilation itself never logs; the CLI reports what it compiled and why a
// run failed. Logs go to stderr so templates written to stdout stay clean.
package logging

import (
	"errors"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelEnv names the environment variable holding the default log level.
const LevelEnv = "WETWIRE_APIGW_LOG_LEVEL"

const (
	levelDebug = "debug"
	levelInfo  = "info"
	levelWarn  = "warn"
	levelError = "error"
)

// Options configures the logger.
type Options struct {
	// Level is debug, info, warn or error. Empty falls back to LevelEnv,
	// then to warn.
	Level string
	// Format is console or json. Defaults to console.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
}

// New creates a logger from opts.
func New(opts Options) (*zap.Logger, error) {
	level, err := parseLevel(resolveLevel(opts.Level))
	if err != nil {
		return nil, err
	}

	enc := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "console", "":
		encoder = zapcore.NewConsoleEncoder(enc)
	case "json":
		encoder = zapcore.NewJSONEncoder(enc)
	default:
		return nil, errors.New("logging: unsupported log format")
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(out), level)), nil
}

func resolveLevel(level string) string {
	if strings.TrimSpace(level) != "" {
		return level
	}
	if env := os.Getenv(LevelEnv); env != "" {
		return env
	}
	return levelWarn
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case levelDebug:
		return zapcore.DebugLevel, nil
	case levelInfo:
		return zapcore.InfoLevel, nil
	case levelWarn, "warning":
		return zapcore.WarnLevel, nil
	case levelError:
		return zapcore.ErrorLevel, nil
	default:
		return 0, errors.New("logging: unsupported log level")
	}
}
