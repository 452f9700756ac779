package migrations

import (
	"context"
	"database/sql"
)

// DBExecutor represents a database connection that can execute queries
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Migration moves the schema from Version()-1 to Version()
type Migration interface {
	Version() int
	Description() string
	Up(ctx context.Context, db DBExecutor) error
}

// MigrationRegistry manages registered migrations
type MigrationRegistry interface {
	Register(migration Migration)
	GetMigrations() []Migration
	LatestVersion() int
}
