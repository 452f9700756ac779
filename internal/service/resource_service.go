package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opencensus.io/trace"

	"github.com/encanta/encanta/internal/domain"
	"github.com/encanta/encanta/pkg/logger"
	"github.com/encanta/encanta/pkg/tracing"
)

// Caller-facing denial messages
const (
	msgNoWorkspaceAccess  = "You don't have access to this workspace"
	msgNoPermission       = "You don't have permission to perform this action"
	msgInvalidRequestBody = "Invalid request body"
)

// AccessPolicy lists the roles allowed to mutate a resource. A nil set means
// any member. Reads are always open to every member.
type AccessPolicy struct {
	Create []domain.Role
	Update []domain.Role
	Delete []domain.Role
}

// ContentPolicy is the default for workspace content: editors write, admins delete
var ContentPolicy = AccessPolicy{
	Create: domain.RolesAtLeast(domain.RoleEditor),
	Update: domain.RolesAtLeast(domain.RoleEditor),
	Delete: domain.RolesAtLeast(domain.RoleAdmin),
}

// ParentResolver maps a parent that is not itself a workspace (a document, for
// comments) to the workspace owning it
type ParentResolver struct {
	Param       string
	Label       string
	WorkspaceOf func(ctx context.Context, parentID string) (string, error)
}

// Resource describes one workspace-scoped entity served by ResourceService
type Resource[T any, C any, P any] struct {
	Name   string
	Label  string
	Store  domain.ResourceStore[T, P]
	Policy AccessPolicy

	// WorkspaceOf returns the workspace owning an existing row
	WorkspaceOf func(ctx context.Context, item *T) (string, error)
	// ParentOf returns the parent id named by a create input
	ParentOf func(input *C) string
	// Parent is nil when the list and create parent is the workspace itself
	Parent *ParentResolver
	// Author, when set, lets the author of a row update and delete it as a plain member
	Author  func(item *T) string
	Filters map[string]func(value string) error

	ValidateCreate func(input *C) error
	ValidatePatch  func(patch *P) error
	Build          func(input *C, identity *domain.Identity) *T
	// CheckCreate and CheckPatch verify references held by the input belong
	// to the workspace owning the row. They run after authorization.
	CheckCreate func(ctx context.Context, input *C) error
	CheckPatch  func(ctx context.Context, existing *T, patch *P) error
	AfterCreate    func(ctx context.Context, item *T, identity *domain.Identity)
}

// ResourceService is the mutation gateway for one workspace-scoped entity.
// Every operation validates, then authorizes against the workspace owning the
// row, then executes, and reports the outcome as an ActionResult.
type ResourceService[T any, C any, P any] struct {
	res       Resource[T, C, P]
	authority *MembershipAuthority
	logger    logger.Logger
	spanName  string
}

func NewResourceService[T any, C any, P any](res Resource[T, C, P], authority *MembershipAuthority, logger logger.Logger) *ResourceService[T, C, P] {
	return &ResourceService[T, C, P]{
		res:       res,
		authority: authority,
		logger:    logger.WithField("resource", res.Name),
		spanName:  spanName(res.Name),
	}
}

func spanName(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		b.WriteString(strings.ToUpper(word[:1]) + word[1:])
	}
	b.WriteString("Service")
	return b.String()
}

func (s *ResourceService[T, C, P]) notFound() string {
	return s.res.Label + " not found"
}

// List returns the rows under parentID, filtered by the allowed filters
func (s *ResourceService[T, C, P]) List(ctx context.Context, parentID string, filters map[string]string) domain.ActionResult[[]*T] {
	ctx, span := tracing.StartServiceSpan(ctx, s.spanName, "List")
	identity, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return endResult(span, domain.Unauthenticated[[]*T]())
	}

	if parentID == "" {
		return endResult(span, domain.Fail[[]*T](domain.FailureValidation, s.parentParam()+" is required"))
	}
	query := domain.ListQuery{ScopeID: parentID, Filters: map[string]string{}}
	for key, value := range filters {
		validate, allowed := s.res.Filters[key]
		if !allowed || value == "" {
			continue
		}
		if err := validate(value); err != nil {
			return endResult(span, domain.Fail[[]*T](domain.FailureValidation, validationMessage(err)))
		}
		query.Filters[key] = value
	}

	if kind, msg := s.authorizeParent(ctx, identity, parentID, nil); kind != domain.FailureNone {
		return endResult(span, domain.Fail[[]*T](kind, msg))
	}

	items, err := s.res.Store.FindMany(ctx, query)
	if err != nil {
		s.logger.WithField("parent_id", parentID).Error(fmt.Sprintf("Failed to list %s: %v", s.res.Name, err))
		return endResult(span, domain.Fail[[]*T](domain.FailureUpstream, fmt.Sprintf("Failed to list %ss", s.res.Name)))
	}
	if items == nil {
		items = []*T{}
	}
	return endResult(span, domain.Succeed("", items))
}

// Get returns one row. Callers outside the row's workspace see NotFound.
func (s *ResourceService[T, C, P]) Get(ctx context.Context, id string) domain.ActionResult[*T] {
	ctx, span := tracing.StartServiceSpan(ctx, s.spanName, "Get")
	identity, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return endResult(span, domain.Unauthenticated[*T]())
	}

	item, failed := s.load(ctx, id)
	if failed != nil {
		return endResult(span, *failed)
	}
	if kind, msg := s.authorizeRow(ctx, identity, item, nil); kind != domain.FailureNone {
		return endResult(span, domain.Fail[*T](kind, msg))
	}
	return endResult(span, domain.Succeed("", item))
}

// Create validates the input, checks the caller's role in the parent
// workspace and inserts the new row
func (s *ResourceService[T, C, P]) Create(ctx context.Context, input *C) domain.ActionResult[*T] {
	ctx, span := tracing.StartServiceSpan(ctx, s.spanName, "Create")
	identity, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return endResult(span, domain.Unauthenticated[*T]())
	}
	if input == nil {
		return endResult(span, domain.Fail[*T](domain.FailureValidation, msgInvalidRequestBody))
	}

	if err := s.res.ValidateCreate(input); err != nil {
		return endResult(span, domain.Fail[*T](domain.FailureValidation, validationMessage(err)))
	}

	parentID := s.res.ParentOf(input)
	if kind, msg := s.authorizeParent(ctx, identity, parentID, s.res.Policy.Create); kind != domain.FailureNone {
		return endResult(span, domain.Fail[*T](kind, msg))
	}

	if s.res.CheckCreate != nil {
		if kind, msg := s.referenceFailure(s.res.CheckCreate(ctx, input)); kind != domain.FailureNone {
			return endResult(span, domain.Fail[*T](kind, msg))
		}
	}

	item := s.res.Build(input, identity)
	if err := s.res.Store.Insert(ctx, item); err != nil {
		if domain.IsValidation(err) {
			return endResult(span, domain.Fail[*T](domain.FailureValidation, validationMessage(err)))
		}
		s.logger.WithFields(map[string]interface{}{
			"parent_id": parentID,
			"user_id":   identity.UserID,
		}).Error(fmt.Sprintf("Failed to create %s: %v", s.res.Name, err))
		return endResult(span, domain.Fail[*T](domain.FailureUpstream, fmt.Sprintf("Failed to create %s", s.res.Name)))
	}

	if s.res.AfterCreate != nil {
		s.res.AfterCreate(ctx, item, identity)
	}
	return endResult(span, domain.Succeed(s.res.Label+" created successfully", item))
}

// Update applies a sparse patch. The owning workspace is taken from the stored
// row and cannot be changed.
func (s *ResourceService[T, C, P]) Update(ctx context.Context, id string, patch *P) domain.ActionResult[*T] {
	ctx, span := tracing.StartServiceSpan(ctx, s.spanName, "Update")
	identity, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return endResult(span, domain.Unauthenticated[*T]())
	}
	if patch == nil {
		return endResult(span, domain.Fail[*T](domain.FailureValidation, msgInvalidRequestBody))
	}

	if err := s.res.ValidatePatch(patch); err != nil {
		return endResult(span, domain.Fail[*T](domain.FailureValidation, validationMessage(err)))
	}

	existing, failed := s.load(ctx, id)
	if failed != nil {
		return endResult(span, *failed)
	}
	if kind, msg := s.authorizeRow(ctx, identity, existing, s.res.Policy.Update); kind != domain.FailureNone {
		return endResult(span, domain.Fail[*T](kind, msg))
	}

	if s.res.CheckPatch != nil {
		if kind, msg := s.referenceFailure(s.res.CheckPatch(ctx, existing, patch)); kind != domain.FailureNone {
			return endResult(span, domain.Fail[*T](kind, msg))
		}
	}

	updated, err := s.res.Store.Update(ctx, id, *patch)
	if err != nil {
		switch {
		case domain.IsNotFound(err):
			return endResult(span, domain.Fail[*T](domain.FailureNotFound, s.notFound()))
		case domain.IsValidation(err):
			return endResult(span, domain.Fail[*T](domain.FailureValidation, validationMessage(err)))
		}
		s.logger.WithField("id", id).Error(fmt.Sprintf("Failed to update %s: %v", s.res.Name, err))
		return endResult(span, domain.Fail[*T](domain.FailureUpstream, fmt.Sprintf("Failed to update %s", s.res.Name)))
	}
	return endResult(span, domain.Succeed(s.res.Label+" updated successfully", updated))
}

// Delete removes a row. Deleting a row that no longer exists is NotFound.
func (s *ResourceService[T, C, P]) Delete(ctx context.Context, id string) domain.ActionResult[string] {
	ctx, span := tracing.StartServiceSpan(ctx, s.spanName, "Delete")
	identity, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return endResult(span, domain.Unauthenticated[string]())
	}

	existing, failed := s.load(ctx, id)
	if failed != nil {
		return endResult(span, domain.FailFrom[string](*failed))
	}
	if kind, msg := s.authorizeRow(ctx, identity, existing, s.res.Policy.Delete); kind != domain.FailureNone {
		return endResult(span, domain.Fail[string](kind, msg))
	}

	if err := s.res.Store.Delete(ctx, id); err != nil {
		if domain.IsNotFound(err) {
			return endResult(span, domain.Fail[string](domain.FailureNotFound, s.notFound()))
		}
		s.logger.WithField("id", id).Error(fmt.Sprintf("Failed to delete %s: %v", s.res.Name, err))
		return endResult(span, domain.Fail[string](domain.FailureUpstream, fmt.Sprintf("Failed to delete %s", s.res.Name)))
	}
	return endResult(span, domain.Succeed(s.res.Label+" deleted successfully", id))
}

// load reads the addressed row, returning a failed result when it is missing
// or unreadable
func (s *ResourceService[T, C, P]) load(ctx context.Context, id string) (*T, *domain.ActionResult[*T]) {
	if id == "" {
		failed := domain.Fail[*T](domain.FailureNotFound, s.notFound())
		return nil, &failed
	}

	item, err := s.res.Store.FindOne(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			failed := domain.Fail[*T](domain.FailureNotFound, s.notFound())
			return nil, &failed
		}
		s.logger.WithField("id", id).Error(fmt.Sprintf("Failed to get %s: %v", s.res.Name, err))
		failed := domain.Fail[*T](domain.FailureUpstream, fmt.Sprintf("Failed to get %s", s.res.Name))
		return nil, &failed
	}
	return item, nil
}

// authorizeRow checks the caller against the workspace owning item. Non-members
// get the same NotFound a missing row would produce.
func (s *ResourceService[T, C, P]) authorizeRow(ctx context.Context, identity *domain.Identity, item *T, roles []domain.Role) (domain.FailureKind, string) {
	ctx, span := tracing.StartServiceSpan(ctx, s.spanName, "Authorize")

	workspaceID, err := s.res.WorkspaceOf(ctx, item)
	if err != nil {
		if domain.IsNotFound(err) {
			return endDenial(span, domain.FailureNotFound, s.notFound())
		}
		s.logger.Error(fmt.Sprintf("Failed to resolve workspace of %s: %v", s.res.Name, err))
		return endDenial(span, domain.FailureUpstream, fmt.Sprintf("Failed to get %s", s.res.Name))
	}
	span.AddAttributes(trace.StringAttribute("workspace_id", workspaceID))

	decision := s.authority.Decide(ctx, identity.UserID, workspaceID, roles...)
	if decision.Member == nil {
		return endDenial(span, domain.FailureNotFound, s.notFound())
	}
	if decision.Allowed {
		return endDenial(span, domain.FailureNone, "")
	}
	if s.res.Author != nil && s.res.Author(item) == identity.UserID {
		return endDenial(span, domain.FailureNone, "")
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":      identity.UserID,
		"workspace_id": workspaceID,
		"role":         string(decision.Member.Role),
	}).Debug("Denied " + s.res.Name + " access for insufficient role")
	return endDenial(span, domain.FailureUnauthorized, msgNoPermission)
}

// authorizeParent checks the caller against the parent of a list or create.
// A workspace parent denies with Unauthorized; any other parent behaves like a
// row and denies non-members with NotFound.
func (s *ResourceService[T, C, P]) authorizeParent(ctx context.Context, identity *domain.Identity, parentID string, roles []domain.Role) (domain.FailureKind, string) {
	ctx, span := tracing.StartServiceSpan(ctx, s.spanName, "Authorize")

	workspaceID := parentID
	nonMember := domain.FailureUnauthorized
	nonMemberMsg := msgNoWorkspaceAccess

	if s.res.Parent != nil {
		nonMember = domain.FailureNotFound
		nonMemberMsg = s.res.Parent.Label + " not found"

		resolved, err := s.res.Parent.WorkspaceOf(ctx, parentID)
		if err != nil {
			if domain.IsNotFound(err) {
				return endDenial(span, nonMember, nonMemberMsg)
			}
			s.logger.WithField("parent_id", parentID).Error(fmt.Sprintf("Failed to resolve %s parent: %v", s.res.Name, err))
			return endDenial(span, domain.FailureUpstream, fmt.Sprintf("Failed to get %s", strings.ToLower(s.res.Parent.Label)))
		}
		workspaceID = resolved
	}
	span.AddAttributes(trace.StringAttribute("workspace_id", workspaceID))

	decision := s.authority.Decide(ctx, identity.UserID, workspaceID, roles...)
	if decision.Member == nil {
		return endDenial(span, nonMember, nonMemberMsg)
	}
	if !decision.Allowed {
		return endDenial(span, domain.FailureUnauthorized, msgNoPermission)
	}
	return endDenial(span, domain.FailureNone, "")
}

// referenceFailure maps a reference check error onto a failure kind
func (s *ResourceService[T, C, P]) referenceFailure(err error) (domain.FailureKind, string) {
	if err == nil {
		return domain.FailureNone, ""
	}
	if domain.IsValidation(err) {
		return domain.FailureValidation, validationMessage(err)
	}
	s.logger.Error(fmt.Sprintf("Failed to check %s references: %v", s.res.Name, err))
	return domain.FailureUpstream, fmt.Sprintf("Failed to save %s", s.res.Name)
}

func (s *ResourceService[T, C, P]) parentParam() string {
	if s.res.Parent != nil {
		return s.res.Parent.Param
	}
	return "workspace_id"
}

// validationMessage strips the "validation error: " prefix for callers
func validationMessage(err error) string {
	var ve domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}

// statusCode maps a failure kind onto an opencensus span status
func statusCode(kind domain.FailureKind) int32 {
	switch kind {
	case domain.FailureNone:
		return trace.StatusCodeOK
	case domain.FailureUnauthenticated:
		return trace.StatusCodeUnauthenticated
	case domain.FailureUnauthorized:
		return trace.StatusCodePermissionDenied
	case domain.FailureNotFound:
		return trace.StatusCodeNotFound
	case domain.FailureValidation:
		return trace.StatusCodeInvalidArgument
	default:
		return trace.StatusCodeInternal
	}
}

func endResult[T any](span *trace.Span, result domain.ActionResult[T]) domain.ActionResult[T] {
	tracing.EndSpanWithStatus(span, statusCode(result.Kind), result.Message)
	return result
}

func endDenial(span *trace.Span, kind domain.FailureKind, message string) (domain.FailureKind, string) {
	tracing.EndSpanWithStatus(span, statusCode(kind), message)
	return kind, message
}
