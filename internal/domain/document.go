package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
)

type DocumentType string

const (
	DocumentTypeBlog    DocumentType = "blog"
	DocumentTypeSocial  DocumentType = "social"
	DocumentTypeEmail   DocumentType = "email"
	DocumentTypeAd      DocumentType = "ad"
	DocumentTypeLanding DocumentType = "landing"
	DocumentTypeOther   DocumentType = "other"
)

func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeBlog, DocumentTypeSocial, DocumentTypeEmail, DocumentTypeAd, DocumentTypeLanding, DocumentTypeOther:
		return true
	}
	return false
}

type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "draft"
	DocumentStatusReview    DocumentStatus = "review"
	DocumentStatusPublished DocumentStatus = "published"
	DocumentStatusArchived  DocumentStatus = "archived"
)

func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusDraft, DocumentStatusReview, DocumentStatusPublished, DocumentStatusArchived:
		return true
	}
	return false
}

// Document is a piece of generated or edited content inside a workspace
type Document struct {
	ID             string         `json:"id"`
	WorkspaceID    string         `json:"workspace_id"`
	BrandProfileID *string        `json:"brand_profile_id,omitempty"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	Type           DocumentType   `json:"type"`
	Status         DocumentStatus `json:"status"`
	CreatedBy      string         `json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type CreateDocumentRequest struct {
	WorkspaceID    string         `json:"workspace_id"`
	BrandProfileID *string        `json:"brand_profile_id,omitempty"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	Type           DocumentType   `json:"type"`
	Status         DocumentStatus `json:"status"`
}

func (r *CreateDocumentRequest) Validate() error {
	if err := validateWorkspaceID(r.WorkspaceID); err != nil {
		return err
	}
	if err := validateOptionalID("brand_profile_id", r.BrandProfileID); err != nil {
		return err
	}
	if err := validateTitle("title", r.Title); err != nil {
		return err
	}
	if !r.Type.IsValid() {
		return NewValidationError(fmt.Sprintf("invalid document type %q", r.Type))
	}
	if r.Status == "" {
		r.Status = DocumentStatusDraft
	}
	if !r.Status.IsValid() {
		return NewValidationError(fmt.Sprintf("invalid document status %q", r.Status))
	}
	return nil
}

// NewDocument builds the row to insert for a validated request
func (r *CreateDocumentRequest) NewDocument(createdBy string) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:             uuid.New().String(),
		WorkspaceID:    r.WorkspaceID,
		BrandProfileID: r.BrandProfileID,
		Title:          strings.TrimSpace(r.Title),
		Content:        r.Content,
		Type:           r.Type,
		Status:         r.Status,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// DocumentPatch is a sparse update. The owning workspace cannot be changed.
type DocumentPatch struct {
	BrandProfileID *string         `json:"brand_profile_id,omitempty"`
	Title          *string         `json:"title,omitempty"`
	Content        *string         `json:"content,omitempty"`
	Type           *DocumentType   `json:"type,omitempty"`
	Status         *DocumentStatus `json:"status,omitempty"`
}

func (p *DocumentPatch) Validate() error {
	if p.BrandProfileID == nil && p.Title == nil && p.Content == nil && p.Type == nil && p.Status == nil {
		return NewValidationError("no fields to update")
	}
	if err := validateOptionalID("brand_profile_id", p.BrandProfileID); err != nil {
		return err
	}
	if p.Title != nil {
		if err := validateTitle("title", *p.Title); err != nil {
			return err
		}
	}
	if p.Type != nil && !p.Type.IsValid() {
		return NewValidationError(fmt.Sprintf("invalid document type %q", *p.Type))
	}
	if p.Status != nil && !p.Status.IsValid() {
		return NewValidationError(fmt.Sprintf("invalid document status %q", *p.Status))
	}
	return nil
}

type DocumentRepository = ResourceStore[Document, DocumentPatch]

func validateWorkspaceID(id string) error {
	if id == "" {
		return NewValidationError("workspace_id is required")
	}
	if !govalidator.IsUUID(id) {
		return NewValidationError("workspace_id must be a valid UUID")
	}
	return nil
}

func validateOptionalID(field string, id *string) error {
	if id == nil {
		return nil
	}
	if !govalidator.IsUUID(*id) {
		return NewValidationError(fmt.Sprintf("%s must be a valid UUID", field))
	}
	return nil
}

func validateTitle(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(fmt.Sprintf("%s is required", field))
	}
	if !govalidator.IsByteLength(value, 1, 255) {
		return NewValidationError(fmt.Sprintf("%s length must be between 1 and 255", field))
	}
	return nil
}
