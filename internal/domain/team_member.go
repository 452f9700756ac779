package domain

import (
	"context"
	"time"
)

//go:generate mockgen -destination mocks/mock_membership_repository.go -package mocks github.com/encanta/encanta/internal/domain MembershipRepository

// TeamMember is the (user, workspace, role) relation granting scoped access
type TeamMember struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	UserID      string    `json:"user_id"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type AddMemberRequest struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

func (r *AddMemberRequest) Validate() error {
	if r.UserID == "" {
		return NewValidationError("user_id is required")
	}
	if r.Role == "" {
		r.Role = RoleViewer
	}
	if _, err := ParseRole(string(r.Role)); err != nil {
		return err
	}
	if r.Role == RoleOwner {
		return NewValidationError("the owner role cannot be granted")
	}
	return nil
}

type UpdateMemberRequest struct {
	Role Role `json:"role"`
}

func (r *UpdateMemberRequest) Validate() error {
	if r.Role == "" {
		return NewValidationError("role is required")
	}
	if _, err := ParseRole(string(r.Role)); err != nil {
		return err
	}
	if r.Role == RoleOwner {
		return NewValidationError("the owner role cannot be granted")
	}
	return nil
}

// MembershipRepository is the membership store consulted by the membership authority.
// GetMembership returns *ErrNotFound when the user is not a member.
type MembershipRepository interface {
	GetMembership(ctx context.Context, userID, workspaceID string) (*TeamMember, error)
	ListMembers(ctx context.Context, workspaceID string) ([]*TeamMember, error)
	AddMember(ctx context.Context, member *TeamMember) error
	UpdateRole(ctx context.Context, workspaceID, userID string, role Role) (*TeamMember, error)
	RemoveMember(ctx context.Context, workspaceID, userID string) error
}
