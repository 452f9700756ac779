package testutil

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupMockDB(t *testing.T) {
	t.Run("creates mock DB successfully", func(t *testing.T) {
		db, mock, cleanup := SetupMockDB(t)
		defer cleanup()

		require.NotNil(t, db)
		require.NotNil(t, mock)
	})

	t.Run("cleanup closes database", func(t *testing.T) {
		db, _, cleanup := SetupMockDB(t)

		require.NoError(t, db.Ping())

		cleanup()

		assert.Error(t, db.Ping())
	})

	t.Run("matches queries by regular expression", func(t *testing.T) {
		db, mock, cleanup := SetupMockDB(t)
		defer cleanup()

		mock.ExpectQuery("SELECT .* FROM workspaces").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("1"))

		var id string
		require.NoError(t, db.QueryRow("SELECT id FROM workspaces WHERE slug = $1", "acme").Scan(&id))
		assert.Equal(t, "1", id)
		ExpectationsMet(t, mock)
	})
}
