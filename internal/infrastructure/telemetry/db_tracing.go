package telemetry

import (
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls statement spans.
type DBTracingConfig struct {
	Enabled bool
	// BindVariables puts argument values into db.statement. It leaks claim
	// and bank data into traces; keep it off outside development.
	BindVariables      bool
	SlowQueryThreshold time.Duration
	// DBName is reported as db.name; otelgorm derives db.system itself.
	DBName string
}

const defaultSlowStatement = 200 * time.Millisecond

const tracingStartKey = "claims:db_tracing:start"

// DBTracing is a gorm plugin that installs otelgorm, which opens one client
// span per statement, and flags statements slower than the threshold on
// that span.
type DBTracing struct {
	cfg DBTracingConfig
}

// NewDBTracing fills in the default slow statement threshold.
func NewDBTracing(cfg DBTracingConfig) *DBTracing {
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = defaultSlowStatement
	}
	return &DBTracing{cfg: cfg}
}

// Name implements gorm.Plugin.
func (t *DBTracing) Name() string { return "claims_db_tracing" }

// Initialize implements gorm.Plugin. otelgorm itself records the table, row
// count and failures, treating a missing row as success.
func (t *DBTracing) Initialize(db *gorm.DB) error {
	// pool statistics come from DBMetrics
	opts := []otelgorm.Option{otelgorm.WithoutMetrics()}
	if t.cfg.DBName != "" {
		opts = append(opts, otelgorm.WithDBName(t.cfg.DBName))
	}
	if !t.cfg.BindVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	return registerAround(db, "db_tracing", tracingStartKey, func(string) func(*gorm.DB) {
		return t.markSlow
	})
}

func (t *DBTracing) markSlow(tx *gorm.DB) {
	elapsed, ok := elapsedSince(tx, tracingStartKey)
	if !ok || elapsed <= t.cfg.SlowQueryThreshold || tx.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(tx.Statement.Context)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attribute.Bool("db.slow_query", true))
	span.AddEvent("slow_statement", trace.WithAttributes(
		attribute.Int64("duration_ms", elapsed.Milliseconds()),
		attribute.Int64("threshold_ms", t.cfg.SlowQueryThreshold.Milliseconds()),
	))
}

// RegisterDBTracing installs DBTracing on db when cfg is enabled and p
// exports traces. It reports whether the plugin was installed.
func RegisterDBTracing(db *gorm.DB, p *Provider, cfg DBTracingConfig, logger *zap.Logger) (bool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled || !p.TracesEnabled() {
		logger.Debug("Database tracing disabled")
		return false, nil
	}
	t := NewDBTracing(cfg)
	if err := db.Use(t); err != nil {
		return false, err
	}
	logger.Info("Database tracing enabled",
		zap.String("db_name", t.cfg.DBName),
		zap.Bool("bind_variables", t.cfg.BindVariables),
		zap.Duration("slow_query_threshold", t.cfg.SlowQueryThreshold))
	return true, nil
}
