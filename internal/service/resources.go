package service

import (
	"context"
	"fmt"

	"github.com/asaskevich/govalidator"

	"github.com/encanta/encanta/internal/domain"
	"github.com/encanta/encanta/pkg/logger"
)

type (
	BrandProfileService   = ResourceService[domain.BrandProfile, domain.CreateBrandProfileRequest, domain.BrandProfilePatch]
	DocumentService       = ResourceService[domain.Document, domain.CreateDocumentRequest, domain.DocumentPatch]
	ContentProjectService = ResourceService[domain.ContentProject, domain.CreateContentProjectRequest, domain.ContentProjectPatch]
	CommentService        = ResourceService[domain.Comment, domain.CreateCommentRequest, domain.CommentPatch]
	AgentConfigService    = ResourceService[domain.AgentConfig, domain.CreateAgentConfigRequest, domain.AgentConfigPatch]
)

func NewBrandProfileService(store domain.BrandProfileRepository, authority *MembershipAuthority, logger logger.Logger) *BrandProfileService {
	return NewResourceService(Resource[domain.BrandProfile, domain.CreateBrandProfileRequest, domain.BrandProfilePatch]{
		Name:           "brand profile",
		Label:          "Brand profile",
		Store:          store,
		Policy:         ContentPolicy,
		WorkspaceOf:    func(_ context.Context, b *domain.BrandProfile) (string, error) { return b.WorkspaceID, nil },
		ParentOf:       func(in *domain.CreateBrandProfileRequest) string { return in.WorkspaceID },
		ValidateCreate: (*domain.CreateBrandProfileRequest).Validate,
		ValidatePatch:  (*domain.BrandProfilePatch).Validate,
		Build: func(in *domain.CreateBrandProfileRequest, _ *domain.Identity) *domain.BrandProfile {
			return in.NewBrandProfile()
		},
	}, authority, logger)
}

func NewDocumentService(store domain.DocumentRepository, profiles domain.BrandProfileRepository, authority *MembershipAuthority, analytics domain.AnalyticsClient, logger logger.Logger) *DocumentService {
	return NewResourceService(Resource[domain.Document, domain.CreateDocumentRequest, domain.DocumentPatch]{
		Name:        "document",
		Label:       "Document",
		Store:       store,
		Policy:      ContentPolicy,
		WorkspaceOf: func(_ context.Context, d *domain.Document) (string, error) { return d.WorkspaceID, nil },
		ParentOf:    func(in *domain.CreateDocumentRequest) string { return in.WorkspaceID },
		Filters: map[string]func(string) error{
			"status": func(v string) error {
				if !domain.DocumentStatus(v).IsValid() {
					return domain.NewValidationError(fmt.Sprintf("invalid document status %q", v))
				}
				return nil
			},
			"type": func(v string) error {
				if !domain.DocumentType(v).IsValid() {
					return domain.NewValidationError(fmt.Sprintf("invalid document type %q", v))
				}
				return nil
			},
			"brand_profile_id": uuidFilter("brand_profile_id"),
		},
		ValidateCreate: (*domain.CreateDocumentRequest).Validate,
		ValidatePatch:  (*domain.DocumentPatch).Validate,
		Build: func(in *domain.CreateDocumentRequest, identity *domain.Identity) *domain.Document {
			return in.NewDocument(identity.UserID)
		},
		CheckCreate: func(ctx context.Context, in *domain.CreateDocumentRequest) error {
			return brandProfileRef(ctx, profiles, in.WorkspaceID, in.BrandProfileID)
		},
		CheckPatch: func(ctx context.Context, d *domain.Document, p *domain.DocumentPatch) error {
			return brandProfileRef(ctx, profiles, d.WorkspaceID, p.BrandProfileID)
		},
		AfterCreate: func(ctx context.Context, d *domain.Document, identity *domain.Identity) {
			captureEvent(ctx, analytics, logger, domain.AnalyticsEvent{
				DistinctID: identity.UserID,
				Event:      domain.EventDocumentCreated,
				Properties: map[string]interface{}{
					"workspace_id": d.WorkspaceID,
					"document_id":  d.ID,
					"type":         string(d.Type),
				},
			})
		},
	}, authority, logger)
}

func NewContentProjectService(store domain.ContentProjectRepository, profiles domain.BrandProfileRepository, authority *MembershipAuthority, logger logger.Logger) *ContentProjectService {
	return NewResourceService(Resource[domain.ContentProject, domain.CreateContentProjectRequest, domain.ContentProjectPatch]{
		Name:        "content project",
		Label:       "Content project",
		Store:       store,
		Policy:      ContentPolicy,
		WorkspaceOf: func(_ context.Context, c *domain.ContentProject) (string, error) { return c.WorkspaceID, nil },
		ParentOf:    func(in *domain.CreateContentProjectRequest) string { return in.WorkspaceID },
		Filters: map[string]func(string) error{
			"status": func(v string) error {
				if !domain.ContentProjectStatus(v).IsValid() {
					return domain.NewValidationError(fmt.Sprintf("invalid project status %q", v))
				}
				return nil
			},
			"brand_profile_id": uuidFilter("brand_profile_id"),
		},
		ValidateCreate: (*domain.CreateContentProjectRequest).Validate,
		ValidatePatch:  (*domain.ContentProjectPatch).Validate,
		Build: func(in *domain.CreateContentProjectRequest, identity *domain.Identity) *domain.ContentProject {
			return in.NewContentProject(identity.UserID)
		},
		CheckCreate: func(ctx context.Context, in *domain.CreateContentProjectRequest) error {
			return brandProfileRef(ctx, profiles, in.WorkspaceID, in.BrandProfileID)
		},
		CheckPatch: func(ctx context.Context, c *domain.ContentProject, p *domain.ContentProjectPatch) error {
			return brandProfileRef(ctx, profiles, c.WorkspaceID, p.BrandProfileID)
		},
	}, authority, logger)
}

// NewCommentService scopes comments through their document. Any member may
// comment; authors and admins may edit or remove a comment.
func NewCommentService(store domain.CommentRepository, documents domain.DocumentRepository, authority *MembershipAuthority, logger logger.Logger) *CommentService {
	documentWorkspace := func(ctx context.Context, documentID string) (string, error) {
		doc, err := documents.FindOne(ctx, documentID)
		if err != nil {
			return "", err
		}
		return doc.WorkspaceID, nil
	}

	return NewResourceService(Resource[domain.Comment, domain.CreateCommentRequest, domain.CommentPatch]{
		Name:  "comment",
		Label: "Comment",
		Store: store,
		Policy: AccessPolicy{
			Update: domain.RolesAtLeast(domain.RoleAdmin),
			Delete: domain.RolesAtLeast(domain.RoleAdmin),
		},
		WorkspaceOf: func(ctx context.Context, c *domain.Comment) (string, error) {
			return documentWorkspace(ctx, c.DocumentID)
		},
		ParentOf: func(in *domain.CreateCommentRequest) string { return in.DocumentID },
		Parent: &ParentResolver{
			Param:       "document_id",
			Label:       "Document",
			WorkspaceOf: documentWorkspace,
		},
		Author:         func(c *domain.Comment) string { return c.UserID },
		ValidateCreate: (*domain.CreateCommentRequest).Validate,
		ValidatePatch:  (*domain.CommentPatch).Validate,
		Build: func(in *domain.CreateCommentRequest, identity *domain.Identity) *domain.Comment {
			return in.NewComment(identity.UserID)
		},
	}, authority, logger)
}

func NewAgentConfigService(store domain.AgentConfigRepository, authority *MembershipAuthority, logger logger.Logger) *AgentConfigService {
	return NewResourceService(Resource[domain.AgentConfig, domain.CreateAgentConfigRequest, domain.AgentConfigPatch]{
		Name:        "agent config",
		Label:       "Agent config",
		Store:       store,
		Policy:      ContentPolicy,
		WorkspaceOf: func(_ context.Context, a *domain.AgentConfig) (string, error) { return a.WorkspaceID, nil },
		ParentOf:    func(in *domain.CreateAgentConfigRequest) string { return in.WorkspaceID },
		Filters: map[string]func(string) error{
			"agent_type": func(v string) error {
				if !domain.AgentType(v).IsValid() {
					return domain.NewValidationError(fmt.Sprintf("invalid agent type %q", v))
				}
				return nil
			},
		},
		ValidateCreate: (*domain.CreateAgentConfigRequest).Validate,
		ValidatePatch:  (*domain.AgentConfigPatch).Validate,
		Build: func(in *domain.CreateAgentConfigRequest, identity *domain.Identity) *domain.AgentConfig {
			return in.NewAgentConfig(identity.UserID)
		},
	}, authority, logger)
}

// brandProfileRef rejects a brand profile id that is unknown or owned by
// another workspace with the same message
func brandProfileRef(ctx context.Context, profiles domain.BrandProfileRepository, workspaceID string, id *string) error {
	if id == nil {
		return nil
	}
	profile, err := profiles.FindOne(ctx, *id)
	if err != nil && !domain.IsNotFound(err) {
		return err
	}
	if err != nil || profile.WorkspaceID != workspaceID {
		return domain.NewValidationError("brand_profile_id does not match a brand profile in this workspace")
	}
	return nil
}

func uuidFilter(field string) func(string) error {
	return func(v string) error {
		if !govalidator.IsUUID(v) {
			return domain.NewValidationError(fmt.Sprintf("%s must be a valid UUID", field))
		}
		return nil
	}
}
