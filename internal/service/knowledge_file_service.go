package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/encanta/encanta/internal/domain"
	"github.com/encanta/encanta/pkg/logger"
	"github.com/encanta/encanta/pkg/tracing"
)

// KnowledgeFileService serves knowledge file rows and presigns uploads of
// their content to object storage
type KnowledgeFileService struct {
	*ResourceService[domain.KnowledgeFile, domain.CreateKnowledgeFileRequest, domain.KnowledgeFilePatch]
	storage domain.FileStorage
}

// NewKnowledgeFileService creates the service. storage may be nil when
// object storage is not configured.
func NewKnowledgeFileService(store domain.KnowledgeFileRepository, storage domain.FileStorage, authority *MembershipAuthority, logger logger.Logger) *KnowledgeFileService {
	res := Resource[domain.KnowledgeFile, domain.CreateKnowledgeFileRequest, domain.KnowledgeFilePatch]{
		Name:        "knowledge file",
		Label:       "Knowledge file",
		Store:       store,
		Policy:      ContentPolicy,
		WorkspaceOf: func(_ context.Context, k *domain.KnowledgeFile) (string, error) { return k.WorkspaceID, nil },
		ParentOf:    func(in *domain.CreateKnowledgeFileRequest) string { return in.WorkspaceID },
		Filters: map[string]func(string) error{
			"file_type": func(v string) error {
				if !domain.KnowledgeFileType(v).IsValid() {
					return domain.NewValidationError(fmt.Sprintf("invalid file type %q", v))
				}
				return nil
			},
		},
		ValidateCreate: (*domain.CreateKnowledgeFileRequest).Validate,
		ValidatePatch:  (*domain.KnowledgeFilePatch).Validate,
		Build: func(in *domain.CreateKnowledgeFileRequest, identity *domain.Identity) *domain.KnowledgeFile {
			return in.NewKnowledgeFile(identity.UserID)
		},
	}

	return &KnowledgeFileService{
		ResourceService: NewResourceService(res, authority, logger),
		storage:         storage,
	}
}

// UploadURL presigns a direct upload into the workspace's knowledge prefix.
// The caller needs the same role as for creating a knowledge file.
func (s *KnowledgeFileService) UploadURL(ctx context.Context, req *domain.UploadURLRequest) domain.ActionResult[*domain.UploadTarget] {
	ctx, span := tracing.StartServiceSpan(ctx, s.spanName, "UploadURL")
	identity, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return endResult(span, domain.Unauthenticated[*domain.UploadTarget]())
	}
	if req == nil {
		return endResult(span, domain.Fail[*domain.UploadTarget](domain.FailureValidation, msgInvalidRequestBody))
	}

	if err := req.Validate(); err != nil {
		return endResult(span, domain.Fail[*domain.UploadTarget](domain.FailureValidation, validationMessage(err)))
	}

	if kind, msg := s.authorizeParent(ctx, identity, req.WorkspaceID, s.res.Policy.Create); kind != domain.FailureNone {
		return endResult(span, domain.Fail[*domain.UploadTarget](kind, msg))
	}

	if s.storage == nil {
		return endResult(span, domain.Fail[*domain.UploadTarget](domain.FailureUpstream, "File uploads are not configured"))
	}

	key := fmt.Sprintf("workspaces/%s/knowledge/%s-%s", req.WorkspaceID, uuid.New().String(), strings.TrimSpace(req.FileName))
	target, err := s.storage.PresignUpload(ctx, key, req.ContentType)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"workspace_id": req.WorkspaceID,
			"key":          key,
		}).Error(fmt.Sprintf("Failed to presign knowledge file upload: %v", err))
		return endResult(span, domain.Fail[*domain.UploadTarget](domain.FailureUpstream, "Failed to create upload URL"))
	}
	return endResult(span, domain.Succeed("", target))
}
