// Package logger builds the zap loggers used by the claims service and the
// adapters that route gin and gorm output through them.
package logger

import (
	"errors"
	"fmt"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultTimeFormat is used when Config.TimeFormat is empty.
const DefaultTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Config mirrors the [log] section of config.toml.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr or a file path
	TimeFormat string
}

// New builds the service logger. Each bridge core (the OTLP log exporter in
// production) receives the entries that pass the configured level.
func New(cfg *Config, bridges ...zapcore.Core) (*zap.Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	sink, err := openSink(cfg.Output)
	if err != nil {
		return nil, err
	}
	level := ParseLevel(cfg.Level)

	cores := []zapcore.Core{zapcore.NewCore(encoderFor(cfg), sink, level)}
	for _, b := range bridges {
		cores = append(cores, minLevelCore{Core: b, min: level})
	}
	return zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// ParseLevel accepts zap level names in any case plus "warning". Anything
// else is info.
func ParseLevel(s string) zapcore.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func openSink(output string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		output = "stdout"
	case "stderr":
		output = "stderr"
	}
	sink, _, err := zap.Open(output)
	if err != nil {
		return nil, fmt.Errorf("open log output %q: %w", output, err)
	}
	return sink, nil
}

func encoderFor(cfg *Config) zapcore.Encoder {
	layout := cfg.TimeFormat
	if layout == "" {
		layout = DefaultTimeFormat
	}
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(layout)
	ec.EncodeDuration = zapcore.MillisDurationEncoder

	if strings.EqualFold(cfg.Format, "console") {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

// minLevelCore drops entries below min before they reach the wrapped core.
type minLevelCore struct {
	zapcore.Core
	min zapcore.Level
}

func (c minLevelCore) Enabled(l zapcore.Level) bool {
	return l >= c.min && c.Core.Enabled(l)
}

func (c minLevelCore) With(fields []zapcore.Field) zapcore.Core {
	return minLevelCore{Core: c.Core.With(fields), min: c.min}
}

func (c minLevelCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if e.Level < c.min {
		return ce
	}
	return c.Core.Check(e, ce)
}

// Sync flushes buffered entries. stdout on a terminal or pipe rejects fsync
// with EINVAL or ENOTTY; neither means a lost write.
func Sync(l *zap.Logger) error {
	err := l.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}
