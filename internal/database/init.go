package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/encanta/encanta/internal/database/schema"
)

// InitializeDatabase creates all tables and indexes at the latest schema version
// when they don't exist yet
func InitializeDatabase(ctx context.Context, db *sql.DB) error {
	for _, query := range schema.TableDefinitions {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// CleanDatabase drops every table, used by integration tests
func CleanDatabase(ctx context.Context, db *sql.DB) error {
	for _, table := range schema.TableNames {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
