// Command migrate manages the versioned PostgreSQL schema of the claims
// service. sqlite databases are created by the server with AutoMigrate and
// are not handled here.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/claimswift/backend/internal/infrastructure/config"
	"github.com/claimswift/backend/internal/infrastructure/logger"
	"github.com/claimswift/backend/internal/infrastructure/migration"
	"github.com/claimswift/backend/migrations"
	"go.uber.org/zap"
)

const (
	defaultMigrationsDir = "migrations"
	connectTimeout       = 10 * time.Second
)

const usage = `Claims schema migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply every pending migration
  down                  Revert every applied migration
  step <n>              Apply n migrations (negative rolls back)
  goto <version>        Migrate up or down to version
  version               Show the applied version
  force <version>       Record version as applied without running it
  drop -confirm         Drop every object in the schema
  create <name> [desc]  Write the next up/down file pair
  list                  List migrations (embedded unless -path is set)

Flags:
  -path string          Migrations directory (default: embedded schema; ./migrations for create)
  -log-level string     debug, info, warn or error (default: info)

Connection settings come from config.toml or CLAIMS_DATABASE_* variables.

Examples:
  migrate up
  migrate step -1
  migrate create add_payout_index "Index payments by processed_at"
`

// schemaCommand runs against a live database.
type schemaCommand func(m *migration.Migrator, args []string, log *zap.Logger) error

var schemaCommands = map[string]schemaCommand{
	"up":   func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Up() },
	"down": func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Down() },
	"step": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := intArg(args, "step <n>")
		if err != nil {
			return err
		}
		return m.Steps(n)
	},
	"goto": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		v, err := intArg(args, "goto <version>")
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("version must not be negative, got %d", v)
		}
		return m.GoTo(uint(v))
	},
	"version": func(m *migration.Migrator, _ []string, log *zap.Logger) error {
		v, dirty, err := m.Version()
		switch {
		case err != nil:
			return err
		case v == 0:
			log.Info("Schema is empty, nothing applied yet")
		default:
			log.Info("Schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		}
		return nil
	},
	"force": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		v, err := intArg(args, "force <version>")
		if err != nil {
			return err
		}
		return m.Force(v)
	},
	"drop": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		if !slices.Contains(args, "-confirm") && !slices.Contains(args, "--confirm") {
			return errors.New("drop destroys every claim, payment and audit row; rerun as 'migrate drop -confirm'")
		}
		return m.Drop()
	},
}

func main() {
	dir := flag.String("path", "", "Migrations directory (default: embedded)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	command, rest := args[0], args[1:]

	log, err := logger.New(&logger.Config{Level: *logLevel, Format: "console", Output: "stderr", TimeFormat: time.TimeOnly})
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	if err := run(command, rest, *dir, log); err != nil {
		log.Error("Migration command failed", zap.String("command", command), zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
}

func run(command string, args []string, dir string, log *zap.Logger) error {
	switch command {
	case "create":
		if len(args) == 0 {
			return errors.New("usage: migrate create <name> [description]")
		}
		var desc string
		if len(args) > 1 {
			desc = args[1]
		}
		mf, err := migration.CreateMigration(fileDir(dir), args[0], desc)
		if err != nil {
			return err
		}
		log.Info("Migration created",
			zap.String("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath))
		return nil

	case "list":
		var src fs.FS = migrations.FS
		if dir != "" {
			src = os.DirFS(fileDir(dir))
		}
		entries, err := migration.ListMigrations(src)
		if err != nil {
			return err
		}
		log.Info("Available migrations", zap.String("source", sourceLabel(dir)), zap.Int("count", len(entries)))
		for _, e := range entries {
			fmt.Println("  -", e.Name)
		}
		return nil
	}

	cmd, ok := schemaCommands[command]
	if !ok {
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("versioned migrations target postgres, configured driver is %s", cfg.Database.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	db, err := migration.Connect(ctx, cfg.Database.DSN())
	if err != nil {
		return err
	}

	source := dir
	if source != "" {
		if source, err = filepath.Abs(source); err != nil {
			_ = db.Close()
			return err
		}
	}
	log.Info("Running schema command",
		zap.String("command", command),
		zap.String("source", sourceLabel(source)),
		zap.String("database", cfg.Database.DBName))

	m, err := migration.Open(db, source, log)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer m.Close()

	return cmd(m, args, log)
}

// fileDir resolves the on-disk directory used by create and by list -path.
func fileDir(dir string) string {
	if dir == "" {
		dir = defaultMigrationsDir
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

func sourceLabel(dir string) string {
	if dir == "" {
		return "embedded"
	}
	return dir
}

func intArg(args []string, form string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("usage: migrate %s", form)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", args[0])
	}
	return n, nil
}
