package telemetry

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetricsConfig controls the database instruments.
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration
	PoolStatsInterval  time.Duration
}

// DefaultDBMetricsConfig samples the pool every 15s and counts statements
// slower than 200ms as slow.
func DefaultDBMetricsConfig() DBMetricsConfig {
	return DBMetricsConfig{
		Enabled:            true,
		SlowQueryThreshold: 200 * time.Millisecond,
		PoolStatsInterval:  15 * time.Second,
	}
}

const metricsStartKey = "claims:db_metrics:start"

// DBMetrics records statement counts and latency, and periodically samples
// the connection pool of one *sql.DB.
type DBMetrics struct {
	queries     *Counter
	slowQueries *Counter
	latency     *Histogram
	pool        *Gauge
	poolMax     *Gauge

	sqlDB  *sql.DB
	config DBMetricsConfig
	logger *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDBMetrics registers the database instruments on meter. sqlDB may be nil
// when only statement metrics are wanted.
func NewDBMetrics(meter metric.Meter, sqlDB *sql.DB, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultDBMetricsConfig()
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = defaults.SlowQueryThreshold
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = defaults.PoolStatsInterval
	}

	m := &DBMetrics{sqlDB: sqlDB, config: cfg, logger: logger, stop: make(chan struct{})}
	var err error
	if m.queries, err = NewCounter(meter, "claims_db_query_total",
		"Database statements by operation", "{query}"); err != nil {
		return nil, err
	}
	if m.slowQueries, err = NewCounter(meter, "claims_db_slow_query_total",
		"Statements slower than the configured threshold, by table", "{query}"); err != nil {
		return nil, err
	}
	if m.latency, err = NewHistogram(meter, HistogramOpts{
		Name:        "claims_db_query_duration_seconds",
		Description: "Database statement latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.pool, err = NewGauge(meter, "claims_db_pool_connections",
		"Pooled connections by state", "{connection}"); err != nil {
		return nil, err
	}
	if m.poolMax, err = NewGauge(meter, "claims_db_pool_connections_max",
		"Configured maximum open connections", "{connection}"); err != nil {
		return nil, err
	}
	return m, nil
}

// Start samples pool statistics immediately and then every PoolStatsInterval
// until Stop is called or ctx ends. It is a no-op without a *sql.DB.
func (m *DBMetrics) Start(ctx context.Context) {
	if m.sqlDB == nil {
		return
	}
	m.samplePool(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.config.PoolStatsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.samplePool(ctx)
			case <-m.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	m.logger.Info("Database pool sampling started", zap.Duration("interval", m.config.PoolStatsInterval))
}

// Stop ends pool sampling and waits for the sampler to exit. Repeated calls
// are no-ops.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.wg.Wait()
	})
}

func (m *DBMetrics) samplePool(ctx context.Context) {
	stats := m.sqlDB.Stats()
	m.poolMax.Record(ctx, int64(stats.MaxOpenConnections))
	m.pool.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	m.pool.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.pool.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
}

// RecordQuery counts one statement against its verb, and against its table
// when it ran slower than the threshold.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, elapsed time.Duration) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "UNKNOWN"
	}
	op := AttrDBOperation.String(operation)
	m.queries.Inc(ctx, op)
	m.latency.RecordDuration(ctx, elapsed, op)

	if elapsed > m.config.SlowQueryThreshold {
		if table == "" {
			table = "unknown"
		}
		m.slowQueries.Inc(ctx, AttrDBTable.String(table))
	}
}

// Name implements gorm.Plugin.
func (m *DBMetrics) Name() string { return "claims_db_metrics" }

// Initialize implements gorm.Plugin by timing every callback chain.
func (m *DBMetrics) Initialize(db *gorm.DB) error {
	return registerAround(db, "db_metrics", metricsStartKey, func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			ctx := tx.Statement.Context
			if ctx == nil {
				ctx = context.Background()
			}
			verb := op
			if verb == opRaw {
				verb = statementVerb(tx.Statement.SQL.String())
			}
			elapsed, _ := elapsedSince(tx, metricsStartKey)
			m.RecordQuery(ctx, verb, tx.Statement.Table, elapsed)
		}
	})
}

func statementVerb(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, verb := range []string{opSelect, opInsert, opUpdate, opDelete} {
		if strings.HasPrefix(sql, verb) {
			return verb
		}
	}
	return "OTHER"
}

// RegisterDBMetrics installs DBMetrics on db and starts pool sampling bound
// to ctx. It returns nil when cfg is disabled or the provider does not export
// metrics. Callers Stop the result on shutdown.
func RegisterDBMetrics(ctx context.Context, db *gorm.DB, p *Provider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if !cfg.Enabled || !p.MetricsEnabled() {
		return nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	m, err := NewDBMetrics(p.Meter("db.client"), sqlDB, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Use(m); err != nil {
		return nil, err
	}
	m.Start(ctx)

	logger.Info("Database metrics registered",
		zap.Duration("slow_query_threshold", m.config.SlowQueryThreshold),
		zap.Duration("pool_stats_interval", m.config.PoolStatsInterval))
	return m, nil
}
