package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BrandProfile holds the voice and messaging guidelines content is generated against
type BrandProfile struct {
	ID             string    `json:"id"`
	WorkspaceID    string    `json:"workspace_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	BrandVoice     string    `json:"brand_voice"`
	TargetAudience string    `json:"target_audience"`
	KeyMessages    string    `json:"key_messages"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CreateBrandProfileRequest struct {
	WorkspaceID    string `json:"workspace_id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	BrandVoice     string `json:"brand_voice"`
	TargetAudience string `json:"target_audience"`
	KeyMessages    string `json:"key_messages"`
}

func (r *CreateBrandProfileRequest) Validate() error {
	if err := validateWorkspaceID(r.WorkspaceID); err != nil {
		return err
	}
	return validateTitle("name", r.Name)
}

func (r *CreateBrandProfileRequest) NewBrandProfile() *BrandProfile {
	now := time.Now().UTC()
	return &BrandProfile{
		ID:             uuid.New().String(),
		WorkspaceID:    r.WorkspaceID,
		Name:           strings.TrimSpace(r.Name),
		Description:    r.Description,
		BrandVoice:     r.BrandVoice,
		TargetAudience: r.TargetAudience,
		KeyMessages:    r.KeyMessages,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

type BrandProfilePatch struct {
	Name           *string `json:"name,omitempty"`
	Description    *string `json:"description,omitempty"`
	BrandVoice     *string `json:"brand_voice,omitempty"`
	TargetAudience *string `json:"target_audience,omitempty"`
	KeyMessages    *string `json:"key_messages,omitempty"`
}

func (p *BrandProfilePatch) Validate() error {
	if p.Name == nil && p.Description == nil && p.BrandVoice == nil && p.TargetAudience == nil && p.KeyMessages == nil {
		return NewValidationError("no fields to update")
	}
	if p.Name != nil {
		return validateTitle("name", *p.Name)
	}
	return nil
}

type BrandProfileRepository = ResourceStore[BrandProfile, BrandProfilePatch]
