package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/encanta/encanta/internal/domain"
	"github.com/encanta/encanta/pkg/logger"
	"github.com/encanta/encanta/pkg/tracing"
)

// TeamService manages workspace membership. Every operation is addressed by
// workspace id, and the owner membership can never be granted, changed or
// removed through it.
type TeamService struct {
	repo      domain.MembershipRepository
	authority *MembershipAuthority
	logger    logger.Logger
}

func NewTeamService(repo domain.MembershipRepository, authority *MembershipAuthority, logger logger.Logger) *TeamService {
	return &TeamService{
		repo:      repo,
		authority: authority,
		logger:    logger,
	}
}

const msgMemberNotFound = "Team member not found"

// authorize applies the workspace-addressed rule: non-members and members
// without the role are both denied with Unauthorized
func (s *TeamService) authorize(ctx context.Context, identity *domain.Identity, workspaceID string, roles ...domain.Role) (domain.FailureKind, string) {
	if workspaceID == "" {
		return domain.FailureValidation, "workspace_id is required"
	}
	if err := s.authority.Authorize(ctx, identity.UserID, workspaceID, roles...); err != nil {
		return domain.FailureUnauthorized, err.Message
	}
	return domain.FailureNone, ""
}

func (s *TeamService) ListMembers(ctx context.Context, workspaceID string) domain.ActionResult[[]*domain.TeamMember] {
	ctx, span := tracing.StartServiceSpan(ctx, "TeamService", "ListMembers")
	identity, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return endResult(span, domain.Unauthenticated[[]*domain.TeamMember]())
	}
	if kind, msg := s.authorize(ctx, identity, workspaceID); kind != domain.FailureNone {
		return endResult(span, domain.Fail[[]*domain.TeamMember](kind, msg))
	}

	members, err := s.repo.ListMembers(ctx, workspaceID)
	if err != nil {
		s.logger.WithField("workspace_id", workspaceID).Error(fmt.Sprintf("Failed to list team members: %v", err))
		return endResult(span, domain.Fail[[]*domain.TeamMember](domain.FailureUpstream, "Failed to list team members"))
	}
	if members == nil {
		members = []*domain.TeamMember{}
	}
	return endResult(span, domain.Succeed("", members))
}

func (s *TeamService) AddMember(ctx context.Context, workspaceID string, req *domain.AddMemberRequest) domain.ActionResult[*domain.TeamMember] {
	ctx, span := tracing.StartServiceSpan(ctx, "TeamService", "AddMember")
	identity, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return endResult(span, domain.Unauthenticated[*domain.TeamMember]())
	}
	if req == nil {
		return endResult(span, domain.Fail[*domain.TeamMember](domain.FailureValidation, msgInvalidRequestBody))
	}
	if err := req.Validate(); err != nil {
		return endResult(span, domain.Fail[*domain.TeamMember](domain.FailureValidation, validationMessage(err)))
	}
	if kind, msg := s.authorize(ctx, identity, workspaceID, domain.RolesAtLeast(domain.RoleAdmin)...); kind != domain.FailureNone {
		return endResult(span, domain.Fail[*domain.TeamMember](kind, msg))
	}

	now := time.Now().UTC()
	member := &domain.TeamMember{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		UserID:      req.UserID,
		Role:        req.Role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.AddMember(ctx, member); err != nil {
		if domain.IsValidation(err) {
			return endResult(span, domain.Fail[*domain.TeamMember](domain.FailureValidation, validationMessage(err)))
		}
		s.logger.WithFields(map[string]interface{}{
			"workspace_id": workspaceID,
			"member_id":    req.UserID,
		}).Error(fmt.Sprintf("Failed to add team member: %v", err))
		return endResult(span, domain.Fail[*domain.TeamMember](domain.FailureUpstream, "Failed to add team member"))
	}
	return endResult(span, domain.Succeed("Team member added successfully", member))
}

func (s *TeamService) UpdateMember(ctx context.Context, workspaceID, userID string, req *domain.UpdateMemberRequest) domain.ActionResult[*domain.TeamMember] {
	ctx, span := tracing.StartServiceSpan(ctx, "TeamService", "UpdateMember")
	identity, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return endResult(span, domain.Unauthenticated[*domain.TeamMember]())
	}
	if req == nil {
		return endResult(span, domain.Fail[*domain.TeamMember](domain.FailureValidation, msgInvalidRequestBody))
	}
	if err := req.Validate(); err != nil {
		return endResult(span, domain.Fail[*domain.TeamMember](domain.FailureValidation, validationMessage(err)))
	}
	if kind, msg := s.authorize(ctx, identity, workspaceID, domain.RolesAtLeast(domain.RoleAdmin)...); kind != domain.FailureNone {
		return endResult(span, domain.Fail[*domain.TeamMember](kind, msg))
	}

	if failed := s.checkTarget(ctx, workspaceID, userID, "The owner role cannot be changed"); failed != nil {
		return endResult(span, domain.Fail[*domain.TeamMember](failed.kind, failed.message))
	}

	member, err := s.repo.UpdateRole(ctx, workspaceID, userID, req.Role)
	if err != nil {
		if domain.IsNotFound(err) {
			return endResult(span, domain.Fail[*domain.TeamMember](domain.FailureNotFound, msgMemberNotFound))
		}
		s.logger.WithFields(map[string]interface{}{
			"workspace_id": workspaceID,
			"member_id":    userID,
		}).Error(fmt.Sprintf("Failed to update team member: %v", err))
		return endResult(span, domain.Fail[*domain.TeamMember](domain.FailureUpstream, "Failed to update team member"))
	}
	return endResult(span, domain.Succeed("Team member updated successfully", member))
}

func (s *TeamService) RemoveMember(ctx context.Context, workspaceID, userID string) domain.ActionResult[string] {
	ctx, span := tracing.StartServiceSpan(ctx, "TeamService", "RemoveMember")
	identity, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return endResult(span, domain.Unauthenticated[string]())
	}
	if kind, msg := s.authorize(ctx, identity, workspaceID, domain.RolesAtLeast(domain.RoleAdmin)...); kind != domain.FailureNone {
		return endResult(span, domain.Fail[string](kind, msg))
	}

	if failed := s.checkTarget(ctx, workspaceID, userID, "The workspace owner cannot be removed"); failed != nil {
		return endResult(span, domain.Fail[string](failed.kind, failed.message))
	}

	if err := s.repo.RemoveMember(ctx, workspaceID, userID); err != nil {
		if domain.IsNotFound(err) {
			return endResult(span, domain.Fail[string](domain.FailureNotFound, msgMemberNotFound))
		}
		s.logger.WithFields(map[string]interface{}{
			"workspace_id": workspaceID,
			"member_id":    userID,
		}).Error(fmt.Sprintf("Failed to remove team member: %v", err))
		return endResult(span, domain.Fail[string](domain.FailureUpstream, "Failed to remove team member"))
	}
	return endResult(span, domain.Succeed("Team member removed successfully", userID))
}

type failure struct {
	kind    domain.FailureKind
	message string
}

// checkTarget loads the member being changed and refuses to touch the owner
func (s *TeamService) checkTarget(ctx context.Context, workspaceID, userID, ownerMessage string) *failure {
	target, err := s.repo.GetMembership(ctx, userID, workspaceID)
	if err != nil {
		if domain.IsNotFound(err) {
			return &failure{domain.FailureNotFound, msgMemberNotFound}
		}
		s.logger.WithFields(map[string]interface{}{
			"workspace_id": workspaceID,
			"member_id":    userID,
		}).Error(fmt.Sprintf("Failed to get team member: %v", err))
		return &failure{domain.FailureUpstream, "Failed to get team member"}
	}
	if target.Role == domain.RoleOwner {
		return &failure{domain.FailureValidation, ownerMessage}
	}
	return nil
}
