package domain

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
)

//go:generate mockgen -destination mocks/mock_file_storage.go -package mocks github.com/encanta/encanta/internal/domain FileStorage

type KnowledgeFileType string

const (
	KnowledgeFileTypePDF   KnowledgeFileType = "pdf"
	KnowledgeFileTypeDoc   KnowledgeFileType = "doc"
	KnowledgeFileTypeTxt   KnowledgeFileType = "txt"
	KnowledgeFileTypeCSV   KnowledgeFileType = "csv"
	KnowledgeFileTypeOther KnowledgeFileType = "other"
)

func (t KnowledgeFileType) IsValid() bool {
	switch t {
	case KnowledgeFileTypePDF, KnowledgeFileTypeDoc, KnowledgeFileTypeTxt, KnowledgeFileTypeCSV, KnowledgeFileTypeOther:
		return true
	}
	return false
}

// KnowledgeFileTypeFromName guesses the file type from an extension
func KnowledgeFileTypeFromName(name string) KnowledgeFileType {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")) {
	case "pdf":
		return KnowledgeFileTypePDF
	case "doc", "docx":
		return KnowledgeFileTypeDoc
	case "txt", "md":
		return KnowledgeFileTypeTxt
	case "csv":
		return KnowledgeFileTypeCSV
	default:
		return KnowledgeFileTypeOther
	}
}

// KnowledgeFile is reference material uploaded to a workspace
type KnowledgeFile struct {
	ID          string            `json:"id"`
	WorkspaceID string            `json:"workspace_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	FileURL     string            `json:"file_url"`
	FileType    KnowledgeFileType `json:"file_type"`
	UploadedBy  string            `json:"uploaded_by"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type CreateKnowledgeFileRequest struct {
	WorkspaceID string            `json:"workspace_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	FileURL     string            `json:"file_url"`
	FileType    KnowledgeFileType `json:"file_type"`
}

func (r *CreateKnowledgeFileRequest) Validate() error {
	if err := validateWorkspaceID(r.WorkspaceID); err != nil {
		return err
	}
	if err := validateTitle("name", r.Name); err != nil {
		return err
	}
	if err := validateFileURL(r.FileURL); err != nil {
		return err
	}
	if r.FileType == "" {
		r.FileType = KnowledgeFileTypeFromName(strings.SplitN(r.FileURL, "?", 2)[0])
	}
	if !r.FileType.IsValid() {
		return NewValidationError(fmt.Sprintf("invalid file type %q", r.FileType))
	}
	return nil
}

func (r *CreateKnowledgeFileRequest) NewKnowledgeFile(uploadedBy string) *KnowledgeFile {
	now := time.Now().UTC()
	return &KnowledgeFile{
		ID:          uuid.New().String(),
		WorkspaceID: r.WorkspaceID,
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
		FileURL:     r.FileURL,
		FileType:    r.FileType,
		UploadedBy:  uploadedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

type KnowledgeFilePatch struct {
	Name        *string            `json:"name,omitempty"`
	Description *string            `json:"description,omitempty"`
	FileURL     *string            `json:"file_url,omitempty"`
	FileType    *KnowledgeFileType `json:"file_type,omitempty"`
}

func (p *KnowledgeFilePatch) Validate() error {
	if p.Name == nil && p.Description == nil && p.FileURL == nil && p.FileType == nil {
		return NewValidationError("no fields to update")
	}
	if p.Name != nil {
		if err := validateTitle("name", *p.Name); err != nil {
			return err
		}
	}
	if p.FileURL != nil {
		if err := validateFileURL(*p.FileURL); err != nil {
			return err
		}
	}
	if p.FileType != nil && !p.FileType.IsValid() {
		return NewValidationError(fmt.Sprintf("invalid file type %q", *p.FileType))
	}
	return nil
}

func validateFileURL(u string) error {
	if u == "" {
		return NewValidationError("file_url is required")
	}
	if !govalidator.IsRequestURL(u) {
		return NewValidationError("file_url must be a valid URL")
	}
	return nil
}

type KnowledgeFileRepository = ResourceStore[KnowledgeFile, KnowledgeFilePatch]

// UploadURLRequest asks for a presigned upload target for a new knowledge file
type UploadURLRequest struct {
	WorkspaceID string `json:"workspace_id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

func (r *UploadURLRequest) Validate() error {
	if err := validateWorkspaceID(r.WorkspaceID); err != nil {
		return err
	}
	if strings.TrimSpace(r.FileName) == "" {
		return NewValidationError("file_name is required")
	}
	if strings.ContainsAny(r.FileName, "/\\") {
		return NewValidationError("file_name must not contain path separators")
	}
	if !govalidator.IsByteLength(r.FileName, 1, 255) {
		return NewValidationError("file_name length must be between 1 and 255")
	}
	if r.ContentType == "" {
		r.ContentType = "application/octet-stream"
	}
	return nil
}

// UploadTarget is a presigned location the client uploads the file body to
type UploadTarget struct {
	UploadURL string    `json:"upload_url"`
	FileURL   string    `json:"file_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FileStorage presigns direct uploads to object storage
type FileStorage interface {
	PresignUpload(ctx context.Context, key, contentType string) (*UploadTarget, error)
}
