package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func observedGorm(cfg gormlogger.Config) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), cfg), recorded
}

func stmt(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormConfig(t *testing.T) {
	cfg := GormConfig("debug", 0)
	assert.Equal(t, gormlogger.Info, cfg.LogLevel)
	assert.Equal(t, DefaultSlowQuery, cfg.SlowThreshold)
	assert.True(t, cfg.IgnoreRecordNotFoundError)

	assert.Equal(t, gormlogger.Silent, GormConfig("silent", 0).LogLevel)
	assert.Equal(t, gormlogger.Error, GormConfig("error", 0).LogLevel)
	assert.Equal(t, gormlogger.Warn, GormConfig("warn", time.Second).LogLevel)
	assert.Equal(t, gormlogger.Warn, GormConfig("loud", 0).LogLevel)
	assert.Equal(t, time.Second, GormConfig("warn", time.Second).SlowThreshold)
}

func TestGormLogger_LogModeDoesNotMutate(t *testing.T) {
	gl, _ := observedGorm(GormConfig("warn", 0))
	debug := gl.LogMode(gormlogger.Info).(*GormLogger)

	assert.Equal(t, gormlogger.Info, debug.cfg.LogLevel)
	assert.Equal(t, gormlogger.Warn, gl.cfg.LogLevel)
}

func TestGormLogger_MessagesGatedByGormLevel(t *testing.T) {
	gl, recorded := observedGorm(GormConfig("warn", 0))
	ctx := context.Background()

	gl.Info(ctx, "migrated %d tables", 6)
	gl.Warn(ctx, "column %s missing", "deductible_rate")
	gl.Error(ctx, "constraint %s violated", "uniq_claim_payment")

	entries := recorded.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "column deductible_rate missing", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "constraint uniq_claim_payment violated", entries[1].Message)
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := context.Background()

	t.Run("failed statement", func(t *testing.T) {
		gl, recorded := observedGorm(GormConfig("warn", 0))
		gl.Trace(ctx, time.Now(), stmt("INSERT INTO payments", 0), errors.New("duplicate key"))
		failed := recorded.FilterMessage("SQL Error").All()
		require.Len(t, failed, 1)
		assert.Equal(t, "duplicate key", failed[0].ContextMap()["error"])
		assert.Equal(t, "INSERT INTO payments", failed[0].ContextMap()["sql"])
	})

	t.Run("missing row is quiet", func(t *testing.T) {
		gl, recorded := observedGorm(GormConfig("warn", 0))
		gl.Trace(ctx, time.Now(), stmt("SELECT * FROM claims", 0), gormlogger.ErrRecordNotFound)
		assert.Zero(t, recorded.Len())
	})

	t.Run("slow statement", func(t *testing.T) {
		gl, recorded := observedGorm(GormConfig("warn", time.Millisecond))
		gl.Trace(ctx, time.Now().Add(-time.Second), stmt("SELECT * FROM assessments", 3), nil)
		slow := recorded.FilterMessage("Slow SQL").All()
		require.Len(t, slow, 1)
		assert.Equal(t, zapcore.WarnLevel, slow[0].Level)
		assert.EqualValues(t, 3, slow[0].ContextMap()["rows"])
	})

	t.Run("fast statement below info is skipped", func(t *testing.T) {
		gl, recorded := observedGorm(GormConfig("warn", 0))
		gl.Trace(ctx, time.Now(), stmt("SELECT 1", 1), nil)
		assert.Zero(t, recorded.Len())
	})

	t.Run("statement at info carries request id", func(t *testing.T) {
		gl, recorded := observedGorm(GormConfig("info", 0))
		reqCtx, _ := WithRequestID(ctx, zap.NewNop(), "req-9")
		gl.Trace(reqCtx, time.Now(), stmt("SELECT * FROM claims", 1), nil)
		entries := recorded.FilterMessage("SQL Query").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
		assert.Equal(t, "req-9", entries[0].ContextMap()["request_id"])
	})

	t.Run("silent", func(t *testing.T) {
		gl, recorded := observedGorm(GormConfig("silent", 0))
		gl.Trace(ctx, time.Now(), stmt("SELECT 1", 0), errors.New("x"))
		assert.Zero(t, recorded.Len())
	})
}
