// Package database manages the PostgreSQL connection pool used for saved
// favorites.
package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotConfigured is returned by Connect when neither DATABASE_URL nor
// DB_HOST is set.
var ErrNotConfigured = errors.New("database not configured")

// Config holds database connection configuration.
type Config struct {
	// URL, when set, is used as-is and the discrete fields are ignored.
	URL string

	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
}

// ConfigFromEnv reads DATABASE_URL or the DB_* variables.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		URL:      os.Getenv("DATABASE_URL"),
		Host:     os.Getenv("DB_HOST"),
		User:     getEnvOrDefault("DB_USER", "airsight"),
		Password: os.Getenv("DB_PASSWORD"),
		Database: getEnvOrDefault("DB_NAME", "airsight"),
		SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
	}

	var errs []error
	port, err := strconv.Atoi(getEnvOrDefault("DB_PORT", "5432"))
	if err != nil {
		errs = append(errs, fmt.Errorf("DB_PORT: %w", err))
	}
	cfg.Port = port

	maxConns, err := strconv.ParseInt(getEnvOrDefault("DB_MAX_CONNS", "10"), 10, 32)
	if err != nil {
		errs = append(errs, fmt.Errorf("DB_MAX_CONNS: %w", err))
	}
	cfg.MaxConns = int32(maxConns)

	minConns, err := strconv.ParseInt(getEnvOrDefault("DB_MIN_CONNS", "2"), 10, 32)
	if err != nil {
		errs = append(errs, fmt.Errorf("DB_MIN_CONNS: %w", err))
	}
	cfg.MinConns = int32(minConns)

	lifetime, err := time.ParseDuration(getEnvOrDefault("DB_CONN_MAX_LIFETIME", "5m"))
	if err != nil {
		errs = append(errs, fmt.Errorf("DB_CONN_MAX_LIFETIME: %w", err))
	}
	cfg.ConnMaxLifetime = lifetime

	if err := errors.Join(errs...); err != nil {
		return cfg, fmt.Errorf("invalid database config: %w", err)
	}
	if cfg.MinConns > cfg.MaxConns {
		return cfg, fmt.Errorf("invalid database config: DB_MIN_CONNS %d exceeds DB_MAX_CONNS %d", cfg.MinConns, cfg.MaxConns)
	}
	return cfg, nil
}

// Configured reports whether a database location was given.
func (c Config) Configured() bool {
	return c.URL != "" || c.Host != ""
}

// ConnectionString returns the PostgreSQL connection URL.
func (c Config) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Connect creates a pool and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = cfg.MinConns
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck adapts a pool to a readiness check.
func PingCheck(p Pinger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		return nil
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
