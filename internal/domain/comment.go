package domain

import (
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
)

// Comment is feedback left on a document. It is scoped to the document's workspace.
type Comment struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	UserID     string    `json:"user_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateCommentRequest struct {
	DocumentID string `json:"document_id"`
	Content    string `json:"content"`
}

func (r *CreateCommentRequest) Validate() error {
	if r.DocumentID == "" {
		return NewValidationError("document_id is required")
	}
	if !govalidator.IsUUID(r.DocumentID) {
		return NewValidationError("document_id must be a valid UUID")
	}
	return validateCommentContent(r.Content)
}

func (r *CreateCommentRequest) NewComment(author string) *Comment {
	now := time.Now().UTC()
	return &Comment{
		ID:         uuid.New().String(),
		DocumentID: r.DocumentID,
		UserID:     author,
		Content:    strings.TrimSpace(r.Content),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

type CommentPatch struct {
	Content *string `json:"content,omitempty"`
}

func (p *CommentPatch) Validate() error {
	if p.Content == nil {
		return NewValidationError("no fields to update")
	}
	return validateCommentContent(*p.Content)
}

func validateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return NewValidationError("content is required")
	}
	if !govalidator.IsByteLength(content, 1, 10000) {
		return NewValidationError("content length must be between 1 and 10000")
	}
	return nil
}

type CommentRepository = ResourceStore[Comment, CommentPatch]
