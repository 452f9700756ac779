package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/encanta/encanta/pkg/logger"
)

const schemaVersionKey = "schema_version"

// Manager applies registered migrations and tracks the schema version in the
// settings table
type Manager struct {
	logger   logger.Logger
	registry MigrationRegistry
}

// NewManager creates a migration manager over the default registry
func NewManager(logger logger.Logger) *Manager {
	return NewManagerWithRegistry(logger, DefaultRegistry)
}

func NewManagerWithRegistry(logger logger.Logger, registry MigrationRegistry) *Manager {
	return &Manager{logger: logger, registry: registry}
}

// GetCurrentVersion reads the stored schema version. The boolean is false on a
// database that has never recorded one.
func (m *Manager) GetCurrentVersion(ctx context.Context, db DBExecutor) (int, bool, error) {
	var raw string
	err := db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = $1", schemaVersionKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get current schema version: %w", err)
	}

	version, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("invalid schema version format '%s': %w", raw, err)
	}
	return version, true, nil
}

// SetCurrentVersion records version in the settings table
func (m *Manager) SetCurrentVersion(ctx context.Context, db DBExecutor, version int) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = CURRENT_TIMESTAMP
	`, schemaVersionKey, strconv.Itoa(version))
	if err != nil {
		return fmt.Errorf("failed to set schema version to %d: %w", version, err)
	}
	return nil
}

// RunMigrations brings the schema to the latest registered version. A database
// without a recorded version was just created from the current schema, so it is
// stamped with the latest version without running anything.
func (m *Manager) RunMigrations(ctx context.Context, db *sql.DB) error {
	latest := m.registry.LatestVersion()

	current, exists, err := m.GetCurrentVersion(ctx, db)
	if err != nil {
		return err
	}

	if !exists {
		m.logger.WithField("version", latest).Info("Fresh database detected, recording schema version")
		return m.SetCurrentVersion(ctx, db, latest)
	}

	if current >= latest {
		m.logger.WithField("version", current).Debug("Schema is up to date")
		return nil
	}

	for _, migration := range m.registry.GetMigrations() {
		if migration.Version() <= current {
			continue
		}
		if err := m.apply(ctx, db, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version(), err)
		}
	}

	m.logger.WithFields(map[string]interface{}{
		"from": current,
		"to":   latest,
	}).Info("Schema migrated")
	return nil
}

// apply runs one migration and records its version in the same transaction
func (m *Manager) apply(ctx context.Context, db *sql.DB, migration Migration) error {
	m.logger.WithFields(map[string]interface{}{
		"version":     migration.Version(),
		"description": migration.Description(),
	}).Info("Applying migration")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := migration.Up(ctx, tx); err != nil {
		return err
	}
	if err := m.SetCurrentVersion(ctx, tx, migration.Version()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration transaction: %w", err)
	}
	return nil
}
