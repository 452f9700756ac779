package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/encanta/encanta/internal/domain"
)

var workspaceMapping = tableMapping[domain.Workspace, domain.WorkspacePatch]{
	entity:  "workspace",
	table:   "workspaces",
	columns: []string{"id", "name", "slug", "description", "user_id", "created_at", "updated_at"},
	scope:   "user_id",
	values: func(w *domain.Workspace) []interface{} {
		return []interface{}{w.ID, w.Name, w.Slug, w.Description, w.UserID, w.CreatedAt, w.UpdatedAt}
	},
	scan: func(row rowScanner) (*domain.Workspace, error) {
		var w domain.Workspace
		if err := row.Scan(&w.ID, &w.Name, &w.Slug, &w.Description, &w.UserID, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		return &w, nil
	},
	changes: func(p domain.WorkspacePatch) []change {
		var cs []change
		if p.Name != nil {
			cs = append(cs, change{"name", *p.Name})
		}
		if p.Slug != nil {
			cs = append(cs, change{"slug", *p.Slug})
		}
		if p.Description != nil {
			cs = append(cs, change{"description", *p.Description})
		}
		return cs
	},
}

type workspaceRepository struct {
	*pgResource[domain.Workspace, domain.WorkspacePatch]
}

// NewWorkspaceRepository creates a new PostgreSQL workspace repository
func NewWorkspaceRepository(db *sql.DB) domain.WorkspaceRepository {
	return &workspaceRepository{pgResource: newPGResource(db, workspaceMapping)}
}

func (r *workspaceRepository) Create(ctx context.Context, workspace *domain.Workspace, owner *domain.TeamMember) error {
	return withTransaction(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.insert(ctx, tx, workspace); err != nil {
			if domain.IsValidation(err) {
				return domain.NewValidationError(fmt.Sprintf("slug %q is already in use", workspace.Slug))
			}
			return err
		}
		return insertMember(ctx, tx, owner)
	})
}

func (r *workspaceRepository) GetByID(ctx context.Context, id string) (*domain.Workspace, error) {
	return r.FindOne(ctx, id)
}

func (r *workspaceRepository) Update(ctx context.Context, id string, patch domain.WorkspacePatch) (*domain.Workspace, error) {
	workspace, err := r.update(ctx, r.db, id, patch)
	if err != nil && domain.IsValidation(err) && patch.Slug != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("slug %q is already in use", *patch.Slug))
	}
	return workspace, err
}

// ListForUser returns every workspace the user is a member of, with the
// user's role in each
func (r *workspaceRepository) ListForUser(ctx context.Context, userID string) ([]*domain.Workspace, error) {
	query, args, err := psql.Select(
		"w.id", "w.name", "w.slug", "w.description", "w.user_id", "w.created_at", "w.updated_at", "tm.role",
	).
		From("workspaces w").
		Join("team_members tm ON tm.workspace_id = w.id").
		Where(sq.Eq{"tm.user_id": userID}).
		OrderBy("w.created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	defer rows.Close()

	workspaces := make([]*domain.Workspace, 0)
	for rows.Next() {
		var w domain.Workspace
		err := rows.Scan(&w.ID, &w.Name, &w.Slug, &w.Description, &w.UserID, &w.CreatedAt, &w.UpdatedAt, &w.Role)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workspace: %w", err)
		}
		workspaces = append(workspaces, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workspaces: %w", err)
	}
	return workspaces, nil
}
