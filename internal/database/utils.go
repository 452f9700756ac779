package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/encanta/encanta/config"
)

// PoolSettings are the connection pool limits applied to the shared *sql.DB
type PoolSettings struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// GetConnectionPoolSettings returns connection pool settings for an environment
func GetConnectionPoolSettings(environment string) PoolSettings {
	switch environment {
	case "test", "development":
		return PoolSettings{MaxOpen: 10, MaxIdle: 5, MaxLifetime: 2 * time.Minute}
	default:
		return PoolSettings{MaxOpen: 25, MaxIdle: 25, MaxLifetime: 20 * time.Minute}
	}
}

func buildDSN(cfg *config.DatabaseConfig, dbName string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + dbName,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode(cfg)),
	}
	return u.String()
}

func sslMode(cfg *config.DatabaseConfig) string {
	if cfg.SSLMode == "" {
		return "disable"
	}
	return cfg.SSLMode
}

// GetDSN returns the DSN of the application database. DATABASE_URL wins over
// the discrete fields.
func GetDSN(cfg *config.DatabaseConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return buildDSN(cfg, cfg.DBName)
}

// GetPostgresDSN returns the DSN for connecting to the server's maintenance database
func GetPostgresDSN(cfg *config.DatabaseConfig) string {
	return buildDSN(cfg, "postgres")
}

// Open connects with driverName (plain "postgres" or a tracing wrapper), applies
// the pool settings and pings the server
func Open(ctx context.Context, driverName string, cfg *config.DatabaseConfig, environment string) (*sql.DB, error) {
	db, err := sql.Open(driverName, GetDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	ConfigurePool(db, GetConnectionPoolSettings(environment))
	return db, nil
}

// ConfigurePool applies pool limits to db
func ConfigurePool(db *sql.DB, pool PoolSettings) {
	db.SetMaxOpenConns(pool.MaxOpen)
	db.SetMaxIdleConns(pool.MaxIdle)
	db.SetConnMaxLifetime(pool.MaxLifetime)
	db.SetConnMaxIdleTime(pool.MaxLifetime / 2)
}

// EnsureDatabaseExists creates the application database through the maintenance
// connection when it is missing. It is skipped when DATABASE_URL is set: managed
// databases are provisioned outside the application.
func EnsureDatabaseExists(ctx context.Context, cfg *config.DatabaseConfig) error {
	if cfg.URL != "" {
		return nil
	}

	db, err := sql.Open("postgres", GetPostgresDSN(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL server: %w", err)
	}
	defer db.Close()

	return ensureDatabase(ctx, db, cfg.DBName)
}

func ensureDatabase(ctx context.Context, db *sql.DB, dbName string) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping PostgreSQL server: %w", err)
	}

	var exists bool
	err := db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}

	if !exists {
		if _, err := db.ExecContext(ctx, "CREATE DATABASE "+quoteIdentifier(dbName)); err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
	}
	return nil
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
