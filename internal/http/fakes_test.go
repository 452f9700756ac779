package http

import (
	"context"

	"github.com/encanta/encanta/internal/domain"
)

// fakeGateway records the arguments of the last call and answers with the
// configured results
type fakeGateway[T any, C any, P any] struct {
	listResult   domain.ActionResult[[]*T]
	getResult    domain.ActionResult[*T]
	createResult domain.ActionResult[*T]
	updateResult domain.ActionResult[*T]
	deleteResult domain.ActionResult[string]

	parentID string
	filters  map[string]string
	id       string
	input    *C
	patch    *P
	calls    int
}

func (f *fakeGateway[T, C, P]) List(_ context.Context, parentID string, filters map[string]string) domain.ActionResult[[]*T] {
	f.calls++
	f.parentID, f.filters = parentID, filters
	return f.listResult
}

func (f *fakeGateway[T, C, P]) Get(_ context.Context, id string) domain.ActionResult[*T] {
	f.calls++
	f.id = id
	return f.getResult
}

func (f *fakeGateway[T, C, P]) Create(_ context.Context, input *C) domain.ActionResult[*T] {
	f.calls++
	f.input = input
	return f.createResult
}

func (f *fakeGateway[T, C, P]) Update(_ context.Context, id string, patch *P) domain.ActionResult[*T] {
	f.calls++
	f.id, f.patch = id, patch
	return f.updateResult
}

func (f *fakeGateway[T, C, P]) Delete(_ context.Context, id string) domain.ActionResult[string] {
	f.calls++
	f.id = id
	return f.deleteResult
}

type fakeKnowledgeFiles struct {
	fakeGateway[domain.KnowledgeFile, domain.CreateKnowledgeFileRequest, domain.KnowledgeFilePatch]
	uploadReq    *domain.UploadURLRequest
	uploadResult domain.ActionResult[*domain.UploadTarget]
}

func (f *fakeKnowledgeFiles) UploadURL(_ context.Context, req *domain.UploadURLRequest) domain.ActionResult[*domain.UploadTarget] {
	f.uploadReq = req
	return f.uploadResult
}

type fakeWorkspaces struct {
	identity *domain.Identity
	created  *domain.CreateWorkspaceRequest
	patch    *domain.WorkspacePatch
	id       string
	result   domain.ActionResult[*domain.Workspace]
	list     domain.ActionResult[[]*domain.Workspace]
	deleted  domain.ActionResult[string]
}

func (f *fakeWorkspaces) Create(ctx context.Context, req *domain.CreateWorkspaceRequest) domain.ActionResult[*domain.Workspace] {
	f.identity, _ = domain.IdentityFromContext(ctx)
	f.created = req
	return f.result
}

func (f *fakeWorkspaces) List(ctx context.Context) domain.ActionResult[[]*domain.Workspace] {
	f.identity, _ = domain.IdentityFromContext(ctx)
	return f.list
}

func (f *fakeWorkspaces) Get(_ context.Context, id string) domain.ActionResult[*domain.Workspace] {
	f.id = id
	return f.result
}

func (f *fakeWorkspaces) Update(_ context.Context, id string, patch *domain.WorkspacePatch) domain.ActionResult[*domain.Workspace] {
	f.id, f.patch = id, patch
	return f.result
}

func (f *fakeWorkspaces) Delete(_ context.Context, id string) domain.ActionResult[string] {
	f.id = id
	return f.deleted
}

type fakeTeam struct {
	workspaceID string
	userID      string
	added       *domain.AddMemberRequest
	updated     *domain.UpdateMemberRequest
	member      domain.ActionResult[*domain.TeamMember]
	members     domain.ActionResult[[]*domain.TeamMember]
	removed     domain.ActionResult[string]
}

func (f *fakeTeam) ListMembers(_ context.Context, workspaceID string) domain.ActionResult[[]*domain.TeamMember] {
	f.workspaceID = workspaceID
	return f.members
}

func (f *fakeTeam) AddMember(_ context.Context, workspaceID string, req *domain.AddMemberRequest) domain.ActionResult[*domain.TeamMember] {
	f.workspaceID, f.added = workspaceID, req
	return f.member
}

func (f *fakeTeam) UpdateMember(_ context.Context, workspaceID, userID string, req *domain.UpdateMemberRequest) domain.ActionResult[*domain.TeamMember] {
	f.workspaceID, f.userID, f.updated = workspaceID, userID, req
	return f.member
}

func (f *fakeTeam) RemoveMember(_ context.Context, workspaceID, userID string) domain.ActionResult[string] {
	f.workspaceID, f.userID = workspaceID, userID
	return f.removed
}

type fakeSubscriptions struct {
	current   domain.ActionResult[*domain.Subscription]
	plans     domain.ActionResult[[]domain.Plan]
	session   domain.ActionResult[*domain.SessionURL]
	webhook   domain.ActionResult[string]
	checkout  *domain.CreateCheckoutRequest
	portal    *domain.CreatePortalRequest
	payload   []byte
	signature string
}

func (f *fakeSubscriptions) GetCurrent(context.Context) domain.ActionResult[*domain.Subscription] {
	return f.current
}

func (f *fakeSubscriptions) ListPlans(context.Context) domain.ActionResult[[]domain.Plan] {
	return f.plans
}

func (f *fakeSubscriptions) CreateCheckout(_ context.Context, req *domain.CreateCheckoutRequest) domain.ActionResult[*domain.SessionURL] {
	f.checkout = req
	return f.session
}

func (f *fakeSubscriptions) CreatePortal(_ context.Context, req *domain.CreatePortalRequest) domain.ActionResult[*domain.SessionURL] {
	f.portal = req
	return f.session
}

func (f *fakeSubscriptions) HandleWebhook(_ context.Context, payload []byte, signature string) domain.ActionResult[string] {
	f.payload, f.signature = payload, signature
	return f.webhook
}
