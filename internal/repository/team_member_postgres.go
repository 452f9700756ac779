package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/encanta/encanta/internal/domain"
)

var teamMemberColumns = []string{"id", "workspace_id", "user_id", "role", "created_at", "updated_at"}

func scanTeamMember(row rowScanner) (*domain.TeamMember, error) {
	var m domain.TeamMember
	if err := row.Scan(&m.ID, &m.WorkspaceID, &m.UserID, &m.Role, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func insertMember(ctx context.Context, exec executor, member *domain.TeamMember) error {
	query, args, err := psql.Insert("team_members").
		Columns(teamMemberColumns...).
		Values(member.ID, member.WorkspaceID, member.UserID, member.Role, member.CreatedAt, member.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return domain.NewValidationError("user is already a member of this workspace")
		}
		return writeError("create", "team member", err)
	}
	return nil
}

type membershipRepository struct {
	db *sql.DB
}

// NewMembershipRepository creates the store backing the membership authority
func NewMembershipRepository(db *sql.DB) domain.MembershipRepository {
	return &membershipRepository{db: db}
}

func memberNotFound(workspaceID, userID string) error {
	return &domain.ErrNotFound{Entity: "team member", ID: workspaceID + "/" + userID}
}

func (r *membershipRepository) GetMembership(ctx context.Context, userID, workspaceID string) (*domain.TeamMember, error) {
	if _, err := uuid.Parse(workspaceID); err != nil {
		return nil, memberNotFound(workspaceID, userID)
	}

	query, args, err := psql.Select(teamMemberColumns...).
		From("team_members").
		Where(sq.Eq{"workspace_id": workspaceID, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	member, err := scanTeamMember(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, memberNotFound(workspaceID, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return member, nil
}

func (r *membershipRepository) ListMembers(ctx context.Context, workspaceID string) ([]*domain.TeamMember, error) {
	query, args, err := psql.Select(teamMemberColumns...).
		From("team_members").
		Where(sq.Eq{"workspace_id": workspaceID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	defer rows.Close()

	members := make([]*domain.TeamMember, 0)
	for rows.Next() {
		member, err := scanTeamMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team members: %w", err)
	}
	return members, nil
}

func (r *membershipRepository) AddMember(ctx context.Context, member *domain.TeamMember) error {
	return insertMember(ctx, r.db, member)
}

func (r *membershipRepository) UpdateRole(ctx context.Context, workspaceID, userID string, role domain.Role) (*domain.TeamMember, error) {
	query, args, err := psql.Update("team_members").
		Set("role", role).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"workspace_id": workspaceID, "user_id": userID}).
		Suffix("RETURNING id, workspace_id, user_id, role, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	member, err := scanTeamMember(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, memberNotFound(workspaceID, userID)
	}
	if err != nil {
		return nil, writeError("update", "team member", err)
	}
	return member, nil
}

func (r *membershipRepository) RemoveMember(ctx context.Context, workspaceID, userID string) error {
	query, args, err := psql.Delete("team_members").
		Where(sq.Eq{"workspace_id": workspaceID, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to remove team member: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return memberNotFound(workspaceID, userID)
	}
	return nil
}
