package service

import (
	"context"
	"fmt"

	"github.com/encanta/encanta/internal/domain"
	"github.com/encanta/encanta/pkg/logger"
)

// Decision is the outcome of a membership check. Member is nil when the caller
// does not belong to the workspace or the membership could not be read.
type Decision struct {
	Member  *domain.TeamMember
	Allowed bool
}

// MembershipAuthority decides whether a user may act inside a workspace.
// It fails closed and consults the store on every call.
type MembershipAuthority struct {
	repo   domain.MembershipRepository
	logger logger.Logger
}

func NewMembershipAuthority(repo domain.MembershipRepository, logger logger.Logger) *MembershipAuthority {
	return &MembershipAuthority{
		repo:   repo,
		logger: logger,
	}
}

// CheckAccess reports whether userID is a member of workspaceID and, when
// requiredRoles is non-empty, holds one of them
func (a *MembershipAuthority) CheckAccess(ctx context.Context, userID, workspaceID string, requiredRoles ...domain.Role) bool {
	return a.Decide(ctx, userID, workspaceID, requiredRoles...).Allowed
}

// Decide is CheckAccess that also returns the membership it found
func (a *MembershipAuthority) Decide(ctx context.Context, userID, workspaceID string, requiredRoles ...domain.Role) Decision {
	if userID == "" || workspaceID == "" {
		return Decision{}
	}

	member, err := a.repo.GetMembership(ctx, userID, workspaceID)
	if err != nil {
		if !domain.IsNotFound(err) {
			a.logger.WithFields(map[string]interface{}{
				"user_id":      userID,
				"workspace_id": workspaceID,
			}).Error(fmt.Sprintf("Failed to check workspace membership: %v", err))
		}
		return Decision{}
	}
	if member == nil {
		return Decision{}
	}

	if len(requiredRoles) == 0 {
		return Decision{Member: member, Allowed: true}
	}
	return Decision{Member: member, Allowed: domain.HasRole(requiredRoles, member.Role)}
}

// Authorize is Decide reported as a *domain.PermissionError, nil when allowed
func (a *MembershipAuthority) Authorize(ctx context.Context, userID, workspaceID string, requiredRoles ...domain.Role) *domain.PermissionError {
	decision := a.Decide(ctx, userID, workspaceID, requiredRoles...)
	switch {
	case decision.Member == nil:
		return domain.NewPermissionError(workspaceID, msgNoWorkspaceAccess)
	case !decision.Allowed:
		return domain.NewPermissionError(workspaceID, msgNoPermission)
	}
	return nil
}
