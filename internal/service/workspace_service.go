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

// WorkspaceService manages the tenant roots. Any identity may create a
// workspace and becomes its owner.
type WorkspaceService struct {
	repo      domain.WorkspaceRepository
	authority *MembershipAuthority
	analytics domain.AnalyticsClient
	logger    logger.Logger
}

func NewWorkspaceService(repo domain.WorkspaceRepository, authority *MembershipAuthority, analytics domain.AnalyticsClient, logger logger.Logger) *WorkspaceService {
	return &WorkspaceService{
		repo:      repo,
		authority: authority,
		analytics: analytics,
		logger:    logger,
	}
}

const msgWorkspaceNotFound = "Workspace not found"

func (s *WorkspaceService) Create(ctx context.Context, req *domain.CreateWorkspaceRequest) domain.ActionResult[*domain.Workspace] {
	ctx, span := tracing.StartServiceSpan(ctx, "WorkspaceService", "Create")
	identity, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return endResult(span, domain.Unauthenticated[*domain.Workspace]())
	}
	if req == nil {
		return endResult(span, domain.Fail[*domain.Workspace](domain.FailureValidation, msgInvalidRequestBody))
	}
	if err := req.Validate(); err != nil {
		return endResult(span, domain.Fail[*domain.Workspace](domain.FailureValidation, validationMessage(err)))
	}

	now := time.Now().UTC()
	workspace := &domain.Workspace{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		UserID:      identity.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	owner := &domain.TeamMember{
		ID:          uuid.New().String(),
		WorkspaceID: workspace.ID,
		UserID:      identity.UserID,
		Role:        domain.RoleOwner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, workspace, owner); err != nil {
		if domain.IsValidation(err) {
			return endResult(span, domain.Fail[*domain.Workspace](domain.FailureValidation, validationMessage(err)))
		}
		s.logger.WithField("user_id", identity.UserID).Error(fmt.Sprintf("Failed to create workspace: %v", err))
		return endResult(span, domain.Fail[*domain.Workspace](domain.FailureUpstream, "Failed to create workspace"))
	}

	captureEvent(ctx, s.analytics, s.logger, domain.AnalyticsEvent{
		DistinctID: identity.UserID,
		Event:      domain.EventWorkspaceCreated,
		Properties: map[string]interface{}{"workspace_id": workspace.ID},
	})

	workspace.Role = domain.RoleOwner
	return endResult(span, domain.Succeed("Workspace created successfully", workspace))
}

// List returns the workspaces the caller belongs to
func (s *WorkspaceService) List(ctx context.Context) domain.ActionResult[[]*domain.Workspace] {
	ctx, span := tracing.StartServiceSpan(ctx, "WorkspaceService", "List")
	identity, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return endResult(span, domain.Unauthenticated[[]*domain.Workspace]())
	}

	workspaces, err := s.repo.ListForUser(ctx, identity.UserID)
	if err != nil {
		s.logger.WithField("user_id", identity.UserID).Error(fmt.Sprintf("Failed to list workspaces: %v", err))
		return endResult(span, domain.Fail[[]*domain.Workspace](domain.FailureUpstream, "Failed to list workspaces"))
	}
	if workspaces == nil {
		workspaces = []*domain.Workspace{}
	}
	return endResult(span, domain.Succeed("", workspaces))
}

func (s *WorkspaceService) Get(ctx context.Context, id string) domain.ActionResult[*domain.Workspace] {
	ctx, span := tracing.StartServiceSpan(ctx, "WorkspaceService", "Get")
	identity, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return endResult(span, domain.Unauthenticated[*domain.Workspace]())
	}

	decision := s.authority.Decide(ctx, identity.UserID, id)
	if decision.Member == nil {
		return endResult(span, domain.Fail[*domain.Workspace](domain.FailureNotFound, msgWorkspaceNotFound))
	}

	workspace, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return endResult(span, domain.Fail[*domain.Workspace](domain.FailureNotFound, msgWorkspaceNotFound))
		}
		s.logger.WithField("workspace_id", id).Error(fmt.Sprintf("Failed to get workspace: %v", err))
		return endResult(span, domain.Fail[*domain.Workspace](domain.FailureUpstream, "Failed to get workspace"))
	}
	workspace.Role = decision.Member.Role
	return endResult(span, domain.Succeed("", workspace))
}

// Update requires admin or owner
func (s *WorkspaceService) Update(ctx context.Context, id string, patch *domain.WorkspacePatch) domain.ActionResult[*domain.Workspace] {
	ctx, span := tracing.StartServiceSpan(ctx, "WorkspaceService", "Update")
	identity, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return endResult(span, domain.Unauthenticated[*domain.Workspace]())
	}
	if patch == nil {
		return endResult(span, domain.Fail[*domain.Workspace](domain.FailureValidation, msgInvalidRequestBody))
	}
	if err := patch.Validate(); err != nil {
		return endResult(span, domain.Fail[*domain.Workspace](domain.FailureValidation, validationMessage(err)))
	}

	decision := s.authority.Decide(ctx, identity.UserID, id, domain.RolesAtLeast(domain.RoleAdmin)...)
	if kind, msg := workspaceDenial(decision); kind != domain.FailureNone {
		return endResult(span, domain.Fail[*domain.Workspace](kind, msg))
	}

	workspace, err := s.repo.Update(ctx, id, *patch)
	if err != nil {
		switch {
		case domain.IsNotFound(err):
			return endResult(span, domain.Fail[*domain.Workspace](domain.FailureNotFound, msgWorkspaceNotFound))
		case domain.IsValidation(err):
			return endResult(span, domain.Fail[*domain.Workspace](domain.FailureValidation, validationMessage(err)))
		}
		s.logger.WithField("workspace_id", id).Error(fmt.Sprintf("Failed to update workspace: %v", err))
		return endResult(span, domain.Fail[*domain.Workspace](domain.FailureUpstream, "Failed to update workspace"))
	}
	workspace.Role = decision.Member.Role
	return endResult(span, domain.Succeed("Workspace updated successfully", workspace))
}

// Delete is reserved to the owner and cascades to every workspace-scoped row
func (s *WorkspaceService) Delete(ctx context.Context, id string) domain.ActionResult[string] {
	ctx, span := tracing.StartServiceSpan(ctx, "WorkspaceService", "Delete")
	identity, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return endResult(span, domain.Unauthenticated[string]())
	}

	decision := s.authority.Decide(ctx, identity.UserID, id, domain.RoleOwner)
	if kind, msg := workspaceDenial(decision); kind != domain.FailureNone {
		return endResult(span, domain.Fail[string](kind, msg))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if domain.IsNotFound(err) {
			return endResult(span, domain.Fail[string](domain.FailureNotFound, msgWorkspaceNotFound))
		}
		s.logger.WithField("workspace_id", id).Error(fmt.Sprintf("Failed to delete workspace: %v", err))
		return endResult(span, domain.Fail[string](domain.FailureUpstream, "Failed to delete workspace"))
	}
	return endResult(span, domain.Succeed("Workspace deleted successfully", id))
}

// workspaceDenial applies the id-addressed rule: non-members see NotFound,
// members without the role see Unauthorized
func workspaceDenial(decision Decision) (domain.FailureKind, string) {
	switch {
	case decision.Member == nil:
		return domain.FailureNotFound, msgWorkspaceNotFound
	case !decision.Allowed:
		return domain.FailureUnauthorized, msgNoPermission
	default:
		return domain.FailureNone, ""
	}
}
