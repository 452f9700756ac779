package domain

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
)

//go:generate mockgen -destination mocks/mock_workspace_repository.go -package mocks github.com/encanta/encanta/internal/domain WorkspaceRepository

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Workspace is the tenant root. Every workspace-scoped row references one.
type Workspace struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	UserID      string    `json:"user_id"`
	Role        Role      `json:"role,omitempty"` // caller's role, set on listings
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Slugify derives a URL-safe slug from a workspace name
func Slugify(name string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 64 {
		slug = strings.Trim(slug[:64], "-")
	}
	if slug == "" {
		return "workspace"
	}
	return slug
}

func validateSlug(slug string) error {
	if len(slug) > 64 {
		return fmt.Errorf("slug length must be between 1 and 64")
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("slug must contain only lowercase letters, digits and single hyphens")
	}
	return nil
}

type CreateWorkspaceRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// Validate checks the request and fills in a slug derived from the name when none is given
func (r *CreateWorkspaceRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return NewValidationError("name is required")
	}
	if !govalidator.IsByteLength(r.Name, 1, 255) {
		return NewValidationError("name length must be between 1 and 255")
	}
	if r.Slug == "" {
		r.Slug = Slugify(r.Name)
	}
	if err := validateSlug(r.Slug); err != nil {
		return NewValidationError(err.Error())
	}
	return nil
}

// WorkspacePatch is a sparse update: nil fields are left unchanged
type WorkspacePatch struct {
	Name        *string `json:"name,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (p *WorkspacePatch) Validate() error {
	if p.Name == nil && p.Slug == nil && p.Description == nil {
		return NewValidationError("no fields to update")
	}
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return NewValidationError("name cannot be empty")
		}
		if !govalidator.IsByteLength(*p.Name, 1, 255) {
			return NewValidationError("name length must be between 1 and 255")
		}
	}
	if p.Slug != nil {
		if err := validateSlug(*p.Slug); err != nil {
			return NewValidationError(err.Error())
		}
	}
	return nil
}

type WorkspaceRepository interface {
	// Create inserts the workspace and its owner membership atomically
	Create(ctx context.Context, workspace *Workspace, owner *TeamMember) error
	GetByID(ctx context.Context, id string) (*Workspace, error)
	ListForUser(ctx context.Context, userID string) ([]*Workspace, error)
	Update(ctx context.Context, id string, patch WorkspacePatch) (*Workspace, error)
	Delete(ctx context.Context, id string) error
}
