package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encanta/encanta/internal/domain"
	"github.com/encanta/encanta/internal/repository/testutil"
)

const (
	testWorkspaceID = "6f1c2f9e-3b7a-4c1e-9a55-0d2b7a1e4c10"
	testDocumentID  = "b2a4d9c3-61f0-4a8e-8f4d-2c7e5b9a1d22"
)

var documentRowColumns = []string{
	"id", "workspace_id", "brand_profile_id", "title", "content",
	"type", "status", "created_by", "created_at", "updated_at",
}

func documentRow(rows *sqlmock.Rows, id, title string) *sqlmock.Rows {
	now := time.Now().UTC()
	return rows.AddRow(id, testWorkspaceID, nil, title, "body", "blog", "draft", "user_1", now, now)
}

func TestResource_Insert(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	doc := &domain.Document{
		ID:          testDocumentID,
		WorkspaceID: testWorkspaceID,
		Title:       "Launch post",
		Type:        domain.DocumentTypeBlog,
		Status:      domain.DocumentStatusDraft,
		CreatedBy:   "user_1",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	t.Run("inserts every column", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO documents \(id,workspace_id,brand_profile_id,title,content,type,status,created_by,created_at,updated_at\)`).
			WithArgs(testDocumentID, testWorkspaceID, sqlmock.AnyArg(), "Launch post", "", "blog", "draft", "user_1", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, repo.Insert(context.Background(), doc))
		testutil.ExpectationsMet(t, mock)
	})

	t.Run("foreign key violation is a validation error", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO documents`).
			WillReturnError(&pq.Error{Code: "23503"})

		err := repo.Insert(context.Background(), doc)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
		assert.Contains(t, err.Error(), "referenced record does not exist")
		testutil.ExpectationsMet(t, mock)
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO documents`).
			WillReturnError(errors.New("connection reset"))

		err := repo.Insert(context.Background(), doc)
		require.Error(t, err)
		assert.False(t, domain.IsValidation(err))
		assert.Contains(t, err.Error(), "failed to create document")
	})
}

func TestResource_FindOne(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewDocumentRepository(db)

	t.Run("returns the row", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, workspace_id, brand_profile_id, title, content, type, status, created_by, created_at, updated_at FROM documents WHERE id = \$1`).
			WithArgs(testDocumentID).
			WillReturnRows(documentRow(sqlmock.NewRows(documentRowColumns), testDocumentID, "Launch post"))

		doc, err := repo.FindOne(context.Background(), testDocumentID)
		require.NoError(t, err)
		assert.Equal(t, testDocumentID, doc.ID)
		assert.Equal(t, domain.DocumentTypeBlog, doc.Type)
		assert.Nil(t, doc.BrandProfileID)
		testutil.ExpectationsMet(t, mock)
	})

	t.Run("missing row is not found", func(t *testing.T) {
		mock.ExpectQuery(`FROM documents WHERE id = \$1`).
			WithArgs(testDocumentID).
			WillReturnRows(sqlmock.NewRows(documentRowColumns))

		_, err := repo.FindOne(context.Background(), testDocumentID)
		assert.True(t, domain.IsNotFound(err))
		testutil.ExpectationsMet(t, mock)
	})

	t.Run("malformed id is not found without a query", func(t *testing.T) {
		_, err := repo.FindOne(context.Background(), "not-a-uuid")
		assert.True(t, domain.IsNotFound(err))
		testutil.ExpectationsMet(t, mock)
	})
}

func TestResource_FindMany(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewDocumentRepository(db)

	t.Run("applies known filters in key order", func(t *testing.T) {
		rows := sqlmock.NewRows(documentRowColumns)
		documentRow(rows, testDocumentID, "First")
		documentRow(rows, "c3b5e0d4-72a1-4b9f-9a5e-3d8f6c0b2e33", "Second")

		mock.ExpectQuery(`FROM documents WHERE workspace_id = \$1 AND status = \$2 AND type = \$3 ORDER BY created_at DESC`).
			WithArgs(testWorkspaceID, "draft", "blog").
			WillReturnRows(rows)

		docs, err := repo.FindMany(context.Background(), domain.ListQuery{
			ScopeID: testWorkspaceID,
			Filters: map[string]string{"type": "blog", "status": "draft", "owner": "ignored"},
		})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "First", docs[0].Title)
		testutil.ExpectationsMet(t, mock)
	})

	t.Run("empty result is an empty slice", func(t *testing.T) {
		mock.ExpectQuery(`FROM documents WHERE workspace_id = \$1 ORDER BY created_at DESC`).
			WithArgs(testWorkspaceID).
			WillReturnRows(sqlmock.NewRows(documentRowColumns))

		docs, err := repo.FindMany(context.Background(), domain.ListQuery{ScopeID: testWorkspaceID})
		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
		testutil.ExpectationsMet(t, mock)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery(`FROM documents`).WillReturnError(errors.New("boom"))

		_, err := repo.FindMany(context.Background(), domain.ListQuery{ScopeID: testWorkspaceID})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list documents")
	})
}

func TestResource_Update(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	title := "Renamed"
	status := domain.DocumentStatusReview

	t.Run("sets only provided fields", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE documents SET updated_at = \$1, title = \$2, status = \$3 WHERE id = \$4 RETURNING id, workspace_id`).
			WithArgs(sqlmock.AnyArg(), title, "review", testDocumentID).
			WillReturnRows(documentRow(sqlmock.NewRows(documentRowColumns), testDocumentID, title))

		doc, err := repo.Update(context.Background(), testDocumentID, domain.DocumentPatch{Title: &title, Status: &status})
		require.NoError(t, err)
		assert.Equal(t, title, doc.Title)
		testutil.ExpectationsMet(t, mock)
	})

	t.Run("empty patch reads the row back", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM documents WHERE id = \$1`).
			WithArgs(testDocumentID).
			WillReturnRows(documentRow(sqlmock.NewRows(documentRowColumns), testDocumentID, "Unchanged"))

		doc, err := repo.Update(context.Background(), testDocumentID, domain.DocumentPatch{})
		require.NoError(t, err)
		assert.Equal(t, "Unchanged", doc.Title)
		testutil.ExpectationsMet(t, mock)
	})

	t.Run("no matching row is not found", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE documents`).
			WillReturnRows(sqlmock.NewRows(documentRowColumns))

		_, err := repo.Update(context.Background(), testDocumentID, domain.DocumentPatch{Title: &title})
		assert.True(t, domain.IsNotFound(err))
		testutil.ExpectationsMet(t, mock)
	})
}

func TestResource_Delete(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewDocumentRepository(db)

	t.Run("deletes the row", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM documents WHERE id = \$1`).
			WithArgs(testDocumentID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(context.Background(), testDocumentID))
		testutil.ExpectationsMet(t, mock)
	})

	t.Run("zero rows affected is not found", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM documents WHERE id = \$1`).
			WithArgs(testDocumentID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), testDocumentID)
		assert.True(t, domain.IsNotFound(err))
		testutil.ExpectationsMet(t, mock)
	})
}

func TestCommentRepository_ScopedByDocument(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, document_id, user_id, content, created_at, updated_at FROM comments WHERE document_id = \$1 ORDER BY created_at DESC`).
		WithArgs(testDocumentID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "user_id", "content", "created_at", "updated_at"}).
			AddRow("d4c6f1e5-83b2-4ca0-8b6f-4e9a7d1c3f44", testDocumentID, "user_2", "Looks good", now, now))

	comments, err := NewCommentRepository(db).FindMany(context.Background(), domain.ListQuery{ScopeID: testDocumentID})
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "user_2", comments[0].UserID)
	testutil.ExpectationsMet(t, mock)
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		validation bool
		contains   string
	}{
		{"unique violation", &pq.Error{Code: "23505"}, true, "brand profile already exists"},
		{"foreign key violation", &pq.Error{Code: "23503"}, true, "referenced record does not exist"},
		{"check violation", &pq.Error{Code: "23514"}, true, "invalid brand profile value"},
		{"invalid text", &pq.Error{Code: "22P02"}, true, "invalid identifier"},
		{"other pq error", &pq.Error{Code: "40001"}, false, "failed to create brand profile"},
		{"plain error", errors.New("boom"), false, "failed to create brand profile: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := writeError("create", "brand profile", tt.err)
			assert.Equal(t, tt.validation, domain.IsValidation(err))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
