package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/encanta/encanta/internal/domain"
)

type WorkspaceGateway interface {
	Create(ctx context.Context, req *domain.CreateWorkspaceRequest) domain.ActionResult[*domain.Workspace]
	List(ctx context.Context) domain.ActionResult[[]*domain.Workspace]
	Get(ctx context.Context, id string) domain.ActionResult[*domain.Workspace]
	Update(ctx context.Context, id string, patch *domain.WorkspacePatch) domain.ActionResult[*domain.Workspace]
	Delete(ctx context.Context, id string) domain.ActionResult[string]
}

type TeamGateway interface {
	ListMembers(ctx context.Context, workspaceID string) domain.ActionResult[[]*domain.TeamMember]
	AddMember(ctx context.Context, workspaceID string, req *domain.AddMemberRequest) domain.ActionResult[*domain.TeamMember]
	UpdateMember(ctx context.Context, workspaceID, userID string, req *domain.UpdateMemberRequest) domain.ActionResult[*domain.TeamMember]
	RemoveMember(ctx context.Context, workspaceID, userID string) domain.ActionResult[string]
}

// WorkspaceHandler serves workspaces and their team members
type WorkspaceHandler struct {
	workspaces WorkspaceGateway
	team       TeamGateway
}

func NewWorkspaceHandler(workspaces WorkspaceGateway, team TeamGateway) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: workspaces, team: team}
}

func (h *WorkspaceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)

		r.Get("/members", h.ListMembers)
		r.Post("/members", h.AddMember)
		r.Patch("/members/{userID}", h.UpdateMember)
		r.Delete("/members/{userID}", h.RemoveMember)
	})
}

func (h *WorkspaceHandler) List(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, h.workspaces.List(r.Context()))
}

func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateWorkspaceRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	writeResult(w, http.StatusCreated, h.workspaces.Create(r.Context(), &req))
}

func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, h.workspaces.Get(r.Context(), chi.URLParam(r, "id")))
}

func (h *WorkspaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch domain.WorkspacePatch
	if !decodeJSON(w, r, &patch, false) {
		return
	}
	writeResult(w, http.StatusOK, h.workspaces.Update(r.Context(), chi.URLParam(r, "id"), &patch))
}

func (h *WorkspaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	writeDeleted(w, h.workspaces.Delete(r.Context(), chi.URLParam(r, "id")))
}

func (h *WorkspaceHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, h.team.ListMembers(r.Context(), chi.URLParam(r, "id")))
}

func (h *WorkspaceHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req domain.AddMemberRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	writeResult(w, http.StatusCreated, h.team.AddMember(r.Context(), chi.URLParam(r, "id"), &req))
}

func (h *WorkspaceHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateMemberRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	writeResult(w, http.StatusOK, h.team.UpdateMember(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "userID"), &req))
}

func (h *WorkspaceHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	writeDeleted(w, h.team.RemoveMember(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "userID")))
}
