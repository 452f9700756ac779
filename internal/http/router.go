package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/encanta/encanta/internal/domain"
	"github.com/encanta/encanta/internal/http/middleware"
	"github.com/encanta/encanta/pkg/logger"
	"github.com/encanta/encanta/pkg/ratelimiter"
)

// RouterConfig carries the handlers and cross-cutting dependencies of the API
type RouterConfig struct {
	Logger      logger.Logger
	Resolver    domain.IdentityResolver
	Limiter     *ratelimiter.Limiter
	CORSOrigins []string

	Root            *RootHandler
	Workspaces      *WorkspaceHandler
	BrandProfiles   *ResourceHandler[domain.BrandProfile, domain.CreateBrandProfileRequest, domain.BrandProfilePatch]
	Documents       *ResourceHandler[domain.Document, domain.CreateDocumentRequest, domain.DocumentPatch]
	ContentProjects *ResourceHandler[domain.ContentProject, domain.CreateContentProjectRequest, domain.ContentProjectPatch]
	Comments        *ResourceHandler[domain.Comment, domain.CreateCommentRequest, domain.CommentPatch]
	KnowledgeFiles  *KnowledgeFileHandler
	AgentConfigs    *ResourceHandler[domain.AgentConfig, domain.CreateAgentConfigRequest, domain.AgentConfigPatch]
	Subscriptions   *SubscriptionHandler
}

// NewRouter builds the API mux. CORS, tracing, request logging, identity
// loading and rate limiting wrap every route. /api routes other than plans,
// webhooks, health and version require an identity.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.LoadIdentity(cfg.Resolver))
	if cfg.Limiter != nil {
		r.Use(middleware.RateLimit(cfg.Limiter))
	}

	cfg.Root.RegisterRoutes(r)

	r.Route("/api", func(r chi.Router) {
		cfg.Subscriptions.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireIdentity(cfg.Resolver, cfg.Logger))

			r.Route("/workspaces", cfg.Workspaces.RegisterRoutes)
			r.Route("/brand-profiles", cfg.BrandProfiles.RegisterRoutes)
			r.Route("/documents", func(r chi.Router) {
				cfg.Documents.RegisterRoutes(r)
				r.Get("/{id}/comments", cfg.Comments.ListUnder("id"))
				r.Post("/{id}/comments", cfg.Comments.CreateUnder("id", func(in *domain.CreateCommentRequest, documentID string) {
					in.DocumentID = documentID
				}))
			})
			r.Route("/comments", func(r chi.Router) {
				r.Get("/{id}", cfg.Comments.Get)
				r.Patch("/{id}", cfg.Comments.Update)
				r.Delete("/{id}", cfg.Comments.Delete)
			})
			r.Route("/content-projects", cfg.ContentProjects.RegisterRoutes)
			r.Route("/knowledge-files", cfg.KnowledgeFiles.RegisterRoutes)
			r.Route("/agent-configs", cfg.AgentConfigs.RegisterRoutes)
			cfg.Subscriptions.RegisterRoutes(r)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	return r
}
