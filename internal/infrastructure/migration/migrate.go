// Package migration runs the versioned Postgres schema in migrations/ and
// scaffolds new migration files.
package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/claimswift/backend/migrations"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Migrator wraps golang-migrate. Close releases the *sql.DB it was given.
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// Open builds a Migrator over db. An empty dir reads the schema compiled into
// the binary; otherwise files are read from dir.
func Open(db *sql.DB, dir string, logger *zap.Logger) (*Migrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	var m *migrate.Migrate
	if dir == "" {
		src, serr := iofs.New(migrations.FS, ".")
		if serr != nil {
			return nil, fmt.Errorf("failed to open embedded migrations: %w", serr)
		}
		m, err = migrate.NewWithInstance("iofs", src, "postgres", driver)
	} else {
		m, err = migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return &Migrator{m: m, logger: logger}, nil
}

// Connect opens and pings a lib/pq connection for dsn.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// ApplyEmbedded brings the database at dsn up to the latest embedded version
// on a dedicated connection.
func ApplyEmbedded(ctx context.Context, dsn string, logger *zap.Logger) error {
	db, err := Connect(ctx, dsn)
	if err != nil {
		return err
	}
	m, err := Open(db, "", logger)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer m.Close()
	return m.Up()
}

// Up applies every pending migration.
func (mg *Migrator) Up() error {
	return mg.run("up", mg.m.Up)
}

// Down rolls back every applied migration.
func (mg *Migrator) Down() error {
	return mg.run("down", mg.m.Down)
}

// Steps applies n migrations forward, or -n backward when n is negative.
func (mg *Migrator) Steps(n int) error {
	return mg.run(fmt.Sprintf("step %d", n), func() error { return mg.m.Steps(n) })
}

// GoTo migrates up or down to version.
func (mg *Migrator) GoTo(version uint) error {
	return mg.run(fmt.Sprintf("goto %d", version), func() error { return mg.m.Migrate(version) })
}

// run executes one golang-migrate command. ErrNoChange is success.
func (mg *Migrator) run(name string, fn func() error) error {
	mg.logger.Info("Running migration", zap.String("command", name))
	err := fn()
	if errors.Is(err, migrate.ErrNoChange) {
		mg.logger.Info("Schema already current", zap.String("command", name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", name, err)
	}

	version, dirty, err := mg.Version()
	if err != nil {
		return err
	}
	mg.logger.Info("Migration complete",
		zap.String("command", name),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))
	return nil
}

// Version reports the applied version. A fresh database reports 0.
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Force records version as applied and clears the dirty flag without running
// anything. It is the recovery path after a failed migration.
func (mg *Migrator) Force(version int) error {
	mg.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every object in the schema.
func (mg *Migrator) Drop() error {
	mg.logger.Warn("Dropping every claims table")
	if err := mg.m.Drop(); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return nil
}

// Close releases the migration source and the database handle.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}
