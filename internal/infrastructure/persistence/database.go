package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/claimswift/backend/internal/infrastructure/config"
	"github.com/claimswift/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database is the claims store: one gorm handle over postgres or sqlite plus
// its connection pool.
type Database struct {
	DB     *gorm.DB
	Driver string
	pool   *sql.DB
}

// Connect opens the driver named in cfg, sizes the pool and pings it.
func Connect(ctx context.Context, cfg *config.DatabaseConfig, gl gormlogger.Interface) (*Database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	db, err := Open(dialector, gl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}
	d, err := wrap(db, cfg.Driver)
	if err != nil {
		return nil, err
	}
	configurePool(d.pool, cfg)

	if err := d.Ping(ctx); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", cfg.Driver, err)
	}
	return d, nil
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath), nil
	case config.DriverPostgres, "":
		return postgres.Open(cfg.DSN()), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func configurePool(pool *sql.DB, cfg *config.DatabaseConfig) {
	if cfg.Driver == config.DriverSQLite {
		// sqlite allows one writer; a second connection would hit SQLITE_BUSY.
		pool.SetMaxOpenConns(1)
		return
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

func wrap(db *gorm.DB, driver string) (*Database, error) {
	pool, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection pool: %w", err)
	}
	return &Database{DB: db, Driver: driver, pool: pool}, nil
}

// Open applies the gorm settings the repositories depend on: unique
// violations come back as gorm.ErrDuplicatedKey and single statements run
// without an implicit transaction. A nil logger discards gorm output.
func Open(dialector gorm.Dialector, gl gormlogger.Interface) (*gorm.DB, error) {
	if gl == nil {
		gl = gormlogger.Discard
	}
	return gorm.Open(dialector, &gorm.Config{
		Logger:                 gl,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
}

// AutoMigrate creates the tables from the gorm models. Only sqlite and tests
// use it; postgres runs the versioned SQL migrations.
func (d *Database) AutoMigrate() error {
	return AutoMigrate(d.DB)
}

// AutoMigrate creates or updates every claims table on db.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}
	return nil
}

// Ping checks that a pooled connection is usable.
func (d *Database) Ping(ctx context.Context) error {
	return d.pool.PingContext(ctx)
}

// Stats reports the connection pool counters.
func (d *Database) Stats() sql.DBStats {
	return d.pool.Stats()
}

// SQLDB exposes the pool for metrics and migrations.
func (d *Database) SQLDB() *sql.DB {
	return d.pool
}

func (d *Database) Close() error {
	return d.pool.Close()
}
