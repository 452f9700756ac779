package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ContentProjectStatus string

const (
	ContentProjectStatusActive    ContentProjectStatus = "active"
	ContentProjectStatusCompleted ContentProjectStatus = "completed"
	ContentProjectStatusArchived  ContentProjectStatus = "archived"
)

func (s ContentProjectStatus) IsValid() bool {
	switch s {
	case ContentProjectStatusActive, ContentProjectStatusCompleted, ContentProjectStatusArchived:
		return true
	}
	return false
}

// ContentProject groups content work inside a workspace, optionally for one brand
type ContentProject struct {
	ID             string               `json:"id"`
	WorkspaceID    string               `json:"workspace_id"`
	BrandProfileID *string              `json:"brand_profile_id,omitempty"`
	Name           string               `json:"name"`
	Description    string               `json:"description"`
	Status         ContentProjectStatus `json:"status"`
	CreatedBy      string               `json:"created_by"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

type CreateContentProjectRequest struct {
	WorkspaceID    string               `json:"workspace_id"`
	BrandProfileID *string              `json:"brand_profile_id,omitempty"`
	Name           string               `json:"name"`
	Description    string               `json:"description"`
	Status         ContentProjectStatus `json:"status"`
}

func (r *CreateContentProjectRequest) Validate() error {
	if err := validateWorkspaceID(r.WorkspaceID); err != nil {
		return err
	}
	if err := validateOptionalID("brand_profile_id", r.BrandProfileID); err != nil {
		return err
	}
	if err := validateTitle("name", r.Name); err != nil {
		return err
	}
	if r.Status == "" {
		r.Status = ContentProjectStatusActive
	}
	if !r.Status.IsValid() {
		return NewValidationError(fmt.Sprintf("invalid project status %q", r.Status))
	}
	return nil
}

func (r *CreateContentProjectRequest) NewContentProject(createdBy string) *ContentProject {
	now := time.Now().UTC()
	return &ContentProject{
		ID:             uuid.New().String(),
		WorkspaceID:    r.WorkspaceID,
		BrandProfileID: r.BrandProfileID,
		Name:           strings.TrimSpace(r.Name),
		Description:    r.Description,
		Status:         r.Status,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

type ContentProjectPatch struct {
	BrandProfileID *string               `json:"brand_profile_id,omitempty"`
	Name           *string               `json:"name,omitempty"`
	Description    *string               `json:"description,omitempty"`
	Status         *ContentProjectStatus `json:"status,omitempty"`
}

func (p *ContentProjectPatch) Validate() error {
	if p.BrandProfileID == nil && p.Name == nil && p.Description == nil && p.Status == nil {
		return NewValidationError("no fields to update")
	}
	if err := validateOptionalID("brand_profile_id", p.BrandProfileID); err != nil {
		return err
	}
	if p.Name != nil {
		if err := validateTitle("name", *p.Name); err != nil {
			return err
		}
	}
	if p.Status != nil && !p.Status.IsValid() {
		return NewValidationError(fmt.Sprintf("invalid project status %q", *p.Status))
	}
	return nil
}

type ContentProjectRepository = ResourceStore[ContentProject, ContentProjectPatch]
