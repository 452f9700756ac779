package http

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encanta/encanta/internal/domain"
)

func workspaceMux(workspaces *fakeWorkspaces, team *fakeTeam) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/workspaces", NewWorkspaceHandler(workspaces, team).RegisterRoutes)
	return r
}

func TestWorkspaceHandler_Workspaces(t *testing.T) {
	workspaces := &fakeWorkspaces{
		list:    domain.Succeed("", []*domain.Workspace{{ID: "ws-1", Name: "Acme", Role: domain.RoleOwner}}),
		result:  domain.Succeed("Workspace created successfully", &domain.Workspace{ID: "ws-1", Name: "Acme", Slug: "acme"}),
		deleted: domain.Succeed("Workspace deleted successfully", "ws-1"),
	}
	mux := workspaceMux(workspaces, &fakeTeam{})

	rec := serve(mux, http.MethodGet, "/api/workspaces", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"owner"`)

	rec = serve(mux, http.MethodPost, "/api/workspaces", `{"name":"Acme"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, workspaces.created)
	assert.Equal(t, "Acme", workspaces.created.Name)

	rec = serve(mux, http.MethodGet, "/api/workspaces/ws-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ws-1", workspaces.id)

	rec = serve(mux, http.MethodPatch, "/api/workspaces/ws-2", `{"description":"new"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ws-2", workspaces.id)
	require.NotNil(t, workspaces.patch.Description)
	assert.Nil(t, workspaces.patch.Name)

	rec = serve(mux, http.MethodDelete, "/api/workspaces/ws-3", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ws-3", workspaces.id)
	assert.JSONEq(t, `{"success":true,"message":"Workspace deleted successfully"}`, rec.Body.String())
}

func TestWorkspaceHandler_Denied(t *testing.T) {
	workspaces := &fakeWorkspaces{result: domain.Fail[*domain.Workspace](domain.FailureUnauthorized, "You don't have permission to perform this action")}

	rec := serve(workspaceMux(workspaces, &fakeTeam{}), http.MethodPatch, "/api/workspaces/ws-1", `{"name":"x"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"You don't have permission to perform this action"}`, rec.Body.String())
}

func TestWorkspaceHandler_Members(t *testing.T) {
	team := &fakeTeam{
		members: domain.Succeed("", []*domain.TeamMember{{UserID: "u1", Role: domain.RoleOwner}}),
		member:  domain.Succeed("Team member added successfully", &domain.TeamMember{UserID: "u2", Role: domain.RoleEditor}),
		removed: domain.Fail[string](domain.FailureValidation, "The workspace owner cannot be removed"),
	}
	mux := workspaceMux(&fakeWorkspaces{}, team)

	rec := serve(mux, http.MethodGet, "/api/workspaces/ws-1/members", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ws-1", team.workspaceID)

	rec = serve(mux, http.MethodPost, "/api/workspaces/ws-1/members", `{"user_id":"u2","role":"editor"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, team.added)
	assert.Equal(t, domain.RoleEditor, team.added.Role)

	rec = serve(mux, http.MethodPatch, "/api/workspaces/ws-1/members/u2", `{"role":"admin"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u2", team.userID)
	assert.Equal(t, domain.RoleAdmin, team.updated.Role)

	rec = serve(mux, http.MethodDelete, "/api/workspaces/ws-1/members/u1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "u1", team.userID)
	assert.JSONEq(t, `{"error":"The workspace owner cannot be removed"}`, rec.Body.String())
}
