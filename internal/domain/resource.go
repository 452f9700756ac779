package domain

import "context"

// ListQuery selects rows belonging to one parent (a workspace, or a document for
// comments) with optional equality filters keyed by API field name.
type ListQuery struct {
	ScopeID string
	Filters map[string]string
}

// ResourceStore is the persistence boundary shared by every workspace-scoped entity.
// FindOne, Update and Delete return *ErrNotFound when no row matches.
type ResourceStore[T any, P any] interface {
	Insert(ctx context.Context, item *T) error
	FindMany(ctx context.Context, query ListQuery) ([]*T, error)
	FindOne(ctx context.Context, id string) (*T, error)
	Update(ctx context.Context, id string, patch P) (*T, error)
	Delete(ctx context.Context, id string) error
}
