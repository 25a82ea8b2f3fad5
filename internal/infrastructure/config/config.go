// Package config loads service settings from config.toml and CLAIMS_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	App            AppConfig            `mapstructure:"app"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Auth           AuthConfig           `mapstructure:"auth"`
	Log            LogConfig            `mapstructure:"log"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	Gateway        GatewayConfig        `mapstructure:"gateway"`
	Collaborators  CollaboratorsConfig  `mapstructure:"collaborators"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation"`
	Telemetry      TelemetryConfig      `mapstructure:"telemetry"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// LogConfig selects level, encoding and destination for the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr or a file path
}

// DatabaseConfig covers both drivers. SQLitePath is only read for sqlite.
// AutoMigrate applies the embedded versioned schema at startup on Postgres.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// RedisConfig holds Redis connection settings. An empty Host disables the
// Redis-backed payment lock and falls back to an in-process one.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AuthConfig holds bearer token settings. When disabled the caller identity
// comes from the X-User-ID header.
type AuthConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// HTTPConfig holds server timeouts and the CORS allow lists.
type HTTPConfig struct {
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes   int           `mapstructure:"max_header_bytes"`
	CORSAllowOrigins []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders []string      `mapstructure:"cors_allow_headers"`
}

// GatewayConfig selects the payment gateway implementation. SuccessRate is
// only read in simulated mode.
type GatewayConfig struct {
	Mode        string        `mapstructure:"mode"`
	SuccessRate float64       `mapstructure:"success_rate"`
	Latency     time.Duration `mapstructure:"latency"`
}

// CollaboratorsConfig holds the claim and notification service endpoints.
// Empty URLs select the in-process adapters.
type CollaboratorsConfig struct {
	ClaimServiceURL        string        `mapstructure:"claim_service_url"`
	NotificationServiceURL string        `mapstructure:"notification_service_url"`
	Timeout                time.Duration `mapstructure:"timeout"`
}

// ReconciliationConfig controls the claim sync sweep
type ReconciliationConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

// TelemetryConfig switches the OTLP signals. Enabled governs traces.
type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"`
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"`
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
	ExportInterval    time.Duration `mapstructure:"export_interval"`
	LogsEnabled       bool          `mapstructure:"logs_enabled"`
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
}

// Gateway modes
const (
	GatewaySimulated     = "simulated"
	GatewayAlwaysSucceed = "always_succeed"
	GatewayAlwaysFail    = "always_fail"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// defaults lists every key viper should know about. Keys must be registered
// here for CLAIMS_* overrides to reach Unmarshal, so empty values are listed too.
var defaults = map[string]any{
	"app.name": "claimswift-backend",
	"app.env":  "development",
	"app.port": "8080",

	"database.driver":             DriverPostgres,
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "claims",
	"database.sslmode":            "disable",
	"database.sqlite_path":        "claims.db",
	"database.auto_migrate":       false,
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"redis.host":     "",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,
	"redis.lock_ttl": "30s",

	"auth.enabled":    false,
	"auth.jwt_secret": "",
	"auth.issuer":     "claimswift",

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":     "15s",
	"http.write_timeout":    "15s",
	"http.idle_timeout":     "60s",
	"http.shutdown_timeout": "10s",
	"http.max_header_bytes": 1 << 20,
	// No wildcard origin; an empty list rejects cross-origin calls.
	"http.cors_allow_origins": []string{},
	"http.cors_allow_methods": []string{"GET", "POST", "PUT", "OPTIONS"},
	"http.cors_allow_headers": []string{"Content-Type", "Authorization", "X-Request-ID", "X-User-ID"},

	"gateway.mode":         GatewaySimulated,
	"gateway.success_rate": 0.9,
	"gateway.latency":      "0s",

	"collaborators.claim_service_url":        "",
	"collaborators.notification_service_url": "",
	"collaborators.timeout":                  "5s",

	"reconciliation.enabled":    true,
	"reconciliation.interval":   "5m",
	"reconciliation.batch_size": 50,

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "",
	"telemetry.insecure":                false,
	"telemetry.metrics_enabled":         false,
	"telemetry.export_interval":         "60s",
	"telemetry.logs_enabled":            false,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_slow_query_threshold": "200ms",
}

// Load reads configuration with this precedence, highest first:
//  1. CLAIMS_* environment variables (CLAIMS_DATABASE_PASSWORD -> database.password)
//  2. config.toml in ., ./config or /etc/claimswift
//  3. defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/claimswift")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("CLAIMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	switch {
	case c.Database.MaxOpenConns <= 0:
		return errors.New("database.max_open_conns must be positive")
	case c.Database.MaxIdleConns < 0:
		return errors.New("database.max_idle_conns cannot be negative")
	case c.Database.MaxIdleConns > c.Database.MaxOpenConns:
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Gateway.Mode {
	case GatewaySimulated, GatewayAlwaysSucceed, GatewayAlwaysFail:
	default:
		return fmt.Errorf("gateway.mode must be one of simulated, always_succeed, always_fail, got %q", c.Gateway.Mode)
	}
	if !inUnitRange(c.Gateway.SuccessRate) {
		return fmt.Errorf("gateway.success_rate must be between 0.0 and 1.0, got %f", c.Gateway.SuccessRate)
	}
	if !inUnitRange(c.Telemetry.SamplingRatio) {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required when auth is enabled")
	}
	if c.Reconciliation.Interval < time.Second {
		return errors.New("reconciliation.interval must be at least 1s")
	}
	if c.Reconciliation.BatchSize <= 0 {
		return errors.New("reconciliation.batch_size must be positive")
	}

	if c.App.Env == "production" {
		return c.validateProduction()
	}
	return nil
}

// validateProduction rejects settings that only make sense in development.
func (c *Config) validateProduction() error {
	if c.Database.Driver == DriverSQLite {
		return errors.New("database.driver sqlite is not allowed in production")
	}
	if c.Database.Password == "" {
		return errors.New("database.password is required in production")
	}
	if c.Gateway.Mode != GatewaySimulated {
		return fmt.Errorf("gateway.mode %s is for testing only", c.Gateway.Mode)
	}
	if c.Auth.Enabled && len(c.Auth.JWTSecret) < 32 {
		return errors.New("auth.jwt_secret must be at least 32 characters in production")
	}
	for _, origin := range c.HTTP.CORSAllowOrigins {
		if origin == "*" {
			return errors.New("http.cors_allow_origins cannot be '*' in production")
		}
	}
	return nil
}

func inUnitRange(f float64) bool { return f >= 0.0 && f <= 1.0 }

// DSN returns a postgres:// URL with user info and query values escaped.
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}
