package migrations

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encanta/encanta/pkg/logger"
)

type stubMigration struct {
	version int
	err     error
	ran     bool
}

func (s *stubMigration) Version() int        { return s.version }
func (s *stubMigration) Description() string { return "stub" }
func (s *stubMigration) Up(ctx context.Context, db DBExecutor) error {
	s.ran = true
	if s.err != nil {
		return s.err
	}
	_, err := db.ExecContext(ctx, "ALTER TABLE stub")
	return err
}

const selectVersion = `SELECT value FROM settings WHERE key = \$1`
const upsertVersion = `INSERT INTO settings \(key, value\) VALUES \(\$1, \$2\)`

func newTestManager(t *testing.T, migrations ...Migration) *Manager {
	registry := NewRegistry()
	for _, m := range migrations {
		registry.Register(m)
	}
	return NewManagerWithRegistry(logger.NewTestLogger(t), registry)
}

func TestDefaultRegistry(t *testing.T) {
	migrations := DefaultRegistry.GetMigrations()
	require.Len(t, migrations, 2)
	assert.Equal(t, 2, migrations[0].Version())
	assert.Equal(t, 3, migrations[1].Version())
	assert.Equal(t, 3, DefaultRegistry.LatestVersion())
}

func TestRegistry_LatestVersionEmpty(t *testing.T) {
	assert.Equal(t, BaselineVersion, NewRegistry().LatestVersion())
}

func TestManager_GetCurrentVersion(t *testing.T) {
	t.Run("stored", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(selectVersion).WithArgs("schema_version").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("2"))

		version, exists, err := newTestManager(t).GetCurrentVersion(context.Background(), db)
		require.NoError(t, err)
		assert.True(t, exists)
		assert.Equal(t, 2, version)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(selectVersion).WillReturnError(sql.ErrNoRows)

		_, exists, err := newTestManager(t).GetCurrentVersion(context.Background(), db)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("garbage", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(selectVersion).
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("two"))

		_, _, err = newTestManager(t).GetCurrentVersion(context.Background(), db)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid schema version format")
	})
}

func TestManager_RunMigrations_FreshInstall(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m2 := &stubMigration{version: 2}
	mock.ExpectQuery(selectVersion).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(upsertVersion).WithArgs("schema_version", "2").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, newTestManager(t, m2).RunMigrations(context.Background(), db))
	assert.False(t, m2.ran, "fresh installs already have the latest schema")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_RunMigrations_UpToDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m2 := &stubMigration{version: 2}
	mock.ExpectQuery(selectVersion).WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("2"))

	require.NoError(t, newTestManager(t, m2).RunMigrations(context.Background(), db))
	assert.False(t, m2.ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_RunMigrations_AppliesPendingInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m2 := &stubMigration{version: 2}
	m3 := &stubMigration{version: 3}

	mock.ExpectQuery(selectVersion).WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("1"))
	for _, v := range []string{"2", "3"} {
		mock.ExpectBegin()
		mock.ExpectExec("ALTER TABLE stub").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(upsertVersion).WithArgs("schema_version", v).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	require.NoError(t, newTestManager(t, m3, m2).RunMigrations(context.Background(), db))
	assert.True(t, m2.ran)
	assert.True(t, m3.ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_RunMigrations_FailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m2 := &stubMigration{version: 2, err: errors.New("bad ddl")}
	m3 := &stubMigration{version: 3}

	mock.ExpectQuery(selectVersion).WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("1"))
	mock.ExpectBegin()
	mock.ExpectRollback()

	err = newTestManager(t, m2, m3).RunMigrations(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration 2 failed")
	assert.False(t, m3.ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgentConfigsMigration(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS agent_configs").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE UNIQUE INDEX IF NOT EXISTS idx_agent_configs_default").WillReturnResult(sqlmock.NewResult(0, 0))

	m := &AgentConfigsMigration{}
	assert.Equal(t, 2, m.Version())
	require.NoError(t, m.Up(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionPriceMigration(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("ALTER TABLE subscriptions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_subscriptions_user_status").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_subscriptions_customer_id").WillReturnError(errors.New("lock timeout"))

	err = (&SubscriptionPriceMigration{}).Up(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create subscriptions index")
	assert.NoError(t, mock.ExpectationsWereMet())
}
