package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encanta/encanta/internal/domain"
	"github.com/encanta/encanta/internal/domain/mocks"
	"github.com/encanta/encanta/internal/http/middleware"
	"github.com/encanta/encanta/pkg/logger"
	"github.com/encanta/encanta/pkg/ratelimiter"
)

type routerFixture struct {
	handler       http.Handler
	resolver      *mocks.MockIdentityResolver
	workspaces    *fakeWorkspaces
	documents     *documentGateway
	comments      *fakeGateway[domain.Comment, domain.CreateCommentRequest, domain.CommentPatch]
	subscriptions *fakeSubscriptions
}

func newRouterFixture(t *testing.T, limit int) *routerFixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	log := logger.NewMockLogger(t)
	f := &routerFixture{
		resolver:      mocks.NewMockIdentityResolver(ctrl),
		workspaces:    &fakeWorkspaces{list: domain.Succeed("", []*domain.Workspace{})},
		documents:     &documentGateway{listResult: domain.Succeed("", []*domain.Document{})},
		comments:      &fakeGateway[domain.Comment, domain.CreateCommentRequest, domain.CommentPatch]{createResult: domain.Succeed("Comment created successfully", &domain.Comment{ID: "c1"})},
		subscriptions: &fakeSubscriptions{plans: domain.Succeed("", []domain.Plan{})},
	}

	limiter := ratelimiter.New()
	limiter.SetPolicy(middleware.APIRateLimitNamespace, limit, time.Minute)
	t.Cleanup(limiter.Stop)

	f.handler = NewRouter(RouterConfig{
		Logger:      log,
		Resolver:    f.resolver,
		Limiter:     limiter,
		CORSOrigins: []string{"https://app.example.com"},

		Root:            NewRootHandler("0.1.0", nil, log),
		Workspaces:      NewWorkspaceHandler(f.workspaces, &fakeTeam{}),
		BrandProfiles:   NewResourceHandler[domain.BrandProfile, domain.CreateBrandProfileRequest, domain.BrandProfilePatch](&fakeGateway[domain.BrandProfile, domain.CreateBrandProfileRequest, domain.BrandProfilePatch]{}, "workspace_id"),
		Documents:       NewResourceHandler[domain.Document, domain.CreateDocumentRequest, domain.DocumentPatch](f.documents, "workspace_id"),
		ContentProjects: NewResourceHandler[domain.ContentProject, domain.CreateContentProjectRequest, domain.ContentProjectPatch](&fakeGateway[domain.ContentProject, domain.CreateContentProjectRequest, domain.ContentProjectPatch]{}, "workspace_id"),
		Comments:        NewResourceHandler[domain.Comment, domain.CreateCommentRequest, domain.CommentPatch](f.comments, "document_id"),
		KnowledgeFiles:  NewKnowledgeFileHandler(&fakeKnowledgeFiles{}),
		AgentConfigs:    NewResourceHandler[domain.AgentConfig, domain.CreateAgentConfigRequest, domain.AgentConfigPatch](&fakeGateway[domain.AgentConfig, domain.CreateAgentConfigRequest, domain.AgentConfigPatch]{}, "workspace_id"),
		Subscriptions:   NewSubscriptionHandler(f.subscriptions, log),
	})
	return f
}

func (f *routerFixture) do(method, target, body string) *httptest.ResponseRecorder {
	return serve(f.handler, method, target, body)
}

func TestRouter_PublicRoutes(t *testing.T) {
	f := newRouterFixture(t, 100)
	f.resolver.EXPECT().ResolveIdentity(gomock.Any()).Return(nil, domain.ErrUnauthenticated).AnyTimes()

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/health", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/version", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/subscriptions/plans", "").Code)

	rec := f.do(http.MethodGet, "/api/nothing-here", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())
}

func TestRouter_ProtectedRoutesRequireIdentity(t *testing.T) {
	f := newRouterFixture(t, 100)
	f.resolver.EXPECT().ResolveIdentity(gomock.Any()).Return(nil, domain.ErrUnauthenticated).AnyTimes()

	for _, target := range []string{
		"/api/workspaces",
		"/api/documents?workspace_id=ws-1",
		"/api/brand-profiles?workspace_id=ws-1",
		"/api/content-projects?workspace_id=ws-1",
		"/api/knowledge-files?workspace_id=ws-1",
		"/api/agent-configs?workspace_id=ws-1",
		"/api/comments/c1",
		"/api/subscriptions/current",
	} {
		rec := f.do(http.MethodGet, target, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String(), target)
	}
	assert.Zero(t, f.documents.calls)
}

func TestRouter_IdentityReachesGateway(t *testing.T) {
	f := newRouterFixture(t, 100)
	f.resolver.EXPECT().ResolveIdentity(gomock.Any()).Return(&domain.Identity{UserID: "user_1"}, nil).AnyTimes()

	rec := f.do(http.MethodGet, "/api/workspaces", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.workspaces.identity)
	assert.Equal(t, "user_1", f.workspaces.identity.UserID)

	rec = f.do(http.MethodPost, "/api/documents/doc-1/comments", `{"content":"looks good"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "doc-1", f.comments.input.DocumentID)
}

func TestRouter_RateLimited(t *testing.T) {
	f := newRouterFixture(t, 1)
	f.resolver.EXPECT().ResolveIdentity(gomock.Any()).Return(&domain.Identity{UserID: "user_1"}, nil).AnyTimes()

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/documents?workspace_id=ws-1", "").Code)
	rec := f.do(http.MethodGet, "/api/documents?workspace_id=ws-1", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRouter_CORSPreflight(t *testing.T) {
	f := newRouterFixture(t, 100)

	req := httptest.NewRequest(http.MethodOptions, "/api/documents", strings.NewReader(""))
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
