package logger

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowQuery is the threshold GormConfig applies when none is set.
const DefaultSlowQuery = 200 * time.Millisecond

// GormLogger implements gormlogger.Interface on top of zap. Statements are
// logged at debug, slow ones at warn and failures at error. Which of those
// are emitted is decided by the gorm LogLevel, not the zap level.
type GormLogger struct {
	log *zap.Logger
	cfg gormlogger.Config
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// GormConfig derives the gorm logger settings from the service log level.
// Missing rows are left to the repositories, which map them to domain errors.
func GormConfig(level string, slow time.Duration) gormlogger.Config {
	if slow <= 0 {
		slow = DefaultSlowQuery
	}
	return gormlogger.Config{
		LogLevel:                  gormLevel(level),
		SlowThreshold:             slow,
		IgnoreRecordNotFoundError: true,
	}
}

func gormLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	}
	return gormlogger.Warn
}

// NewGormLogger names the logger "gorm" and applies cfg.
func NewGormLogger(l *zap.Logger, cfg gormlogger.Config) *GormLogger {
	return &GormLogger{log: l.Named("gorm"), cfg: cfg}
}

// LogMode returns a copy at level; gorm calls it for db.Debug().
func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.cfg.LogLevel = level
	return &clone
}

func (g *GormLogger) Info(_ context.Context, msg string, args ...any) {
	g.printf(gormlogger.Info, zapcore.InfoLevel, msg, args)
}

func (g *GormLogger) Warn(_ context.Context, msg string, args ...any) {
	g.printf(gormlogger.Warn, zapcore.WarnLevel, msg, args)
}

func (g *GormLogger) Error(_ context.Context, msg string, args ...any) {
	g.printf(gormlogger.Error, zapcore.ErrorLevel, msg, args)
}

func (g *GormLogger) printf(need gormlogger.LogLevel, lvl zapcore.Level, msg string, args []any) {
	if g.cfg.LogLevel >= need {
		g.log.Sugar().Logf(lvl, msg, args...)
	}
}

// Trace logs one executed statement with its request and trace ids.
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	level := g.cfg.LogLevel
	if level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var msg string
	var lvl zapcore.Level
	switch {
	case err != nil && level >= gormlogger.Error:
		if g.cfg.IgnoreRecordNotFoundError && errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		msg, lvl = "SQL Error", zapcore.ErrorLevel
	case g.cfg.SlowThreshold > 0 && elapsed > g.cfg.SlowThreshold && level >= gormlogger.Warn:
		msg, lvl = "Slow SQL", zapcore.WarnLevel
	case level >= gormlogger.Info:
		msg, lvl = "SQL Query", zapcore.DebugLevel
	default:
		return
	}

	stmt, rows := fc()
	fields := make([]zap.Field, 0, 7)
	fields = append(fields,
		zap.String("sql", stmt),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	)
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
	}
	switch lvl {
	case zapcore.ErrorLevel:
		fields = append(fields, zap.Error(err))
	case zapcore.WarnLevel:
		fields = append(fields, zap.Duration("threshold", g.cfg.SlowThreshold))
	}
	g.log.Log(lvl, msg, fields...)
}
