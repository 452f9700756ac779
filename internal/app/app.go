package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"contrib.go.opencensus.io/integrations/ocsql"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/encanta/encanta/config"
	"github.com/encanta/encanta/internal/database"
	"github.com/encanta/encanta/internal/domain"
	httpHandler "github.com/encanta/encanta/internal/http"
	"github.com/encanta/encanta/internal/http/middleware"
	"github.com/encanta/encanta/internal/migrations"
	"github.com/encanta/encanta/internal/repository"
	"github.com/encanta/encanta/internal/service"
	"github.com/encanta/encanta/pkg/cache"
	"github.com/encanta/encanta/pkg/logger"
	"github.com/encanta/encanta/pkg/ratelimiter"
	"github.com/encanta/encanta/pkg/tracing"
)

// AppInterface defines the interface for the App
type AppInterface interface {
	Initialize() error
	Start() error
	Shutdown(ctx context.Context) error

	// Getters for app components accessed in tests
	GetConfig() *config.Config
	GetLogger() logger.Logger
	GetHandler() http.Handler
	GetDB() *sql.DB

	// Server status methods
	IsServerCreated() bool
	WaitForServerStart(ctx context.Context) bool

	// Methods for initialization steps
	InitTracing() error
	InitDB() error
	InitRepositories() error
	InitServices() error
	InitHandlers() error

	// Graceful shutdown methods
	SetShutdownTimeout(timeout time.Duration)
	GetActiveRequestCount() int64
	GetShutdownContext() context.Context
}

// App encapsulates the application dependencies and configuration
type App struct {
	config    *config.Config
	logger    logger.Logger
	db        *sql.DB
	redis     *redis.Client
	queue     *asynq.Client
	telemetry *tracing.Telemetry

	stopDBStats func()

	// Repositories
	workspaceRepo      domain.WorkspaceRepository
	membershipRepo     domain.MembershipRepository
	brandProfileRepo   domain.BrandProfileRepository
	documentRepo       domain.DocumentRepository
	contentProjectRepo domain.ContentProjectRepository
	commentRepo        domain.CommentRepository
	knowledgeFileRepo  domain.KnowledgeFileRepository
	agentConfigRepo    domain.AgentConfigRepository
	subscriptionRepo   domain.SubscriptionRepository

	// Services
	resolver              domain.IdentityResolver
	analytics             domain.AnalyticsClient
	authority             *service.MembershipAuthority
	workspaceService      *service.WorkspaceService
	teamService           *service.TeamService
	brandProfileService   *service.BrandProfileService
	documentService       *service.DocumentService
	contentProjectService *service.ContentProjectService
	commentService        *service.CommentService
	knowledgeFileService  *service.KnowledgeFileService
	agentConfigService    *service.AgentConfigService
	subscriptionService   *service.SubscriptionService
	plansCache            *cache.TTLCache[[]domain.Plan]
	limiter               *ratelimiter.Limiter

	// HTTP
	handler       http.Handler
	server        *http.Server
	metricsServer *http.Server

	// Server synchronization
	serverMu      sync.RWMutex
	serverStarted chan struct{}
	startOnce     sync.Once

	// Graceful shutdown management
	shutdownCtx     context.Context
	shutdownCancel  context.CancelFunc
	activeRequests  int64          // atomic counter for active HTTP requests
	requestWg       sync.WaitGroup // wait group for active requests
	shutdownTimeout time.Duration
}

// AppOption defines a functional option for configuring the App
type AppOption func(*App)

// WithMockDB configures the app to use a mock database
func WithMockDB(db *sql.DB) AppOption {
	return func(a *App) {
		a.db = db
	}
}

// WithLogger sets a custom logger
func WithLogger(logger logger.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// WithIdentityResolver replaces the JWT resolver built from the auth config
func WithIdentityResolver(resolver domain.IdentityResolver) AppOption {
	return func(a *App) {
		a.resolver = resolver
	}
}

// WithAnalytics replaces the analytics client chosen from the config
func WithAnalytics(client domain.AnalyticsClient) AppOption {
	return func(a *App) {
		a.analytics = client
	}
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, opts ...AppOption) AppInterface {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	app := &App{
		config:          cfg,
		logger:          logger.NewLoggerWithLevel(cfg.LogLevel),
		serverStarted:   make(chan struct{}),
		shutdownCtx:     shutdownCtx,
		shutdownCancel:  shutdownCancel,
		shutdownTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// InitTracing initializes OpenCensus exporters
func (a *App) InitTracing() error {
	telemetry, err := tracing.InitTracing(&a.config.Tracing, a.config.Environment, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.telemetry = telemetry
	return nil
}

// InitDB connects to PostgreSQL, creates the schema and runs pending migrations.
// It is a no-op when a database was injected.
func (a *App) InitDB() error {
	if a.db != nil {
		return nil
	}

	ctx := context.Background()
	dbCfg := &a.config.Database
	a.logger.WithFields(map[string]interface{}{
		"host":    dbCfg.Host,
		"port":    dbCfg.Port,
		"dbname":  dbCfg.DBName,
		"sslmode": dbCfg.SSLMode,
		"url_set": dbCfg.URL != "",
	}).Info("Connecting to database")

	if err := database.EnsureDatabaseExists(ctx, dbCfg); err != nil {
		return fmt.Errorf("failed to ensure database exists: %w", err)
	}

	driverName := "postgres"
	if a.config.Tracing.Enabled {
		var err error
		driverName, err = ocsql.Register(driverName, ocsql.WithAllTraceOptions())
		if err != nil {
			return fmt.Errorf("failed to register opencensus sql driver: %w", err)
		}
		a.logger.Info("Database driver wrapped with OpenCensus tracing")
	}

	db, err := database.Open(ctx, driverName, dbCfg, a.config.Environment)
	if err != nil {
		return err
	}

	if err := database.InitializeDatabase(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	if err := migrations.NewManager(a.logger).RunMigrations(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if a.config.Tracing.Enabled {
		a.stopDBStats = ocsql.RecordStats(db, 10*time.Second)
	}

	a.db = db
	return nil
}

// InitRepositories initializes all repositories
func (a *App) InitRepositories() error {
	if a.db == nil {
		return fmt.Errorf("database must be initialized before repositories")
	}

	a.workspaceRepo = repository.NewWorkspaceRepository(a.db)
	a.membershipRepo = repository.NewMembershipRepository(a.db)
	a.brandProfileRepo = repository.NewBrandProfileRepository(a.db)
	a.documentRepo = repository.NewDocumentRepository(a.db)
	a.contentProjectRepo = repository.NewContentProjectRepository(a.db)
	a.commentRepo = repository.NewCommentRepository(a.db)
	a.knowledgeFileRepo = repository.NewKnowledgeFileRepository(a.db)
	a.agentConfigRepo = repository.NewAgentConfigRepository(a.db)
	a.subscriptionRepo = repository.NewSubscriptionRepository(a.db)

	return nil
}

func (a *App) newHTTPClient() *http.Client {
	client := &http.Client{Timeout: 10 * time.Second}
	if a.config.Tracing.Enabled {
		client = tracing.WrapHTTPClient(client)
	}
	return client
}

// initAnalytics picks the analytics delivery: queued through Redis when
// available, direct to PostHog when only a key is set, otherwise none
func (a *App) initAnalytics(httpClient *http.Client) {
	if a.analytics != nil {
		return
	}

	switch {
	case a.config.Analytics.PostHogAPIKey == "":
		a.analytics = service.NoopAnalyticsClient{}
		a.logger.Info("Analytics disabled: POSTHOG_API_KEY not set")
	case a.config.Redis.Enabled():
		a.queue = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     a.config.Redis.Addr(),
			Password: a.config.Redis.Password,
			DB:       a.config.Redis.DB,
		})
		a.analytics = service.NewQueuedAnalyticsClient(a.queue)
		a.logger.Info("Analytics events are queued for the worker")
	default:
		a.analytics = service.NewPostHogClient(a.config.Analytics.PostHogAPIKey, a.config.Analytics.PostHogHost, httpClient)
		a.logger.Info("Analytics events are sent directly to PostHog")
	}
}

// InitServices initializes all application services
func (a *App) InitServices() error {
	if a.resolver == nil {
		resolver, err := middleware.NewJWTResolver(a.config.Auth)
		if err != nil {
			return fmt.Errorf("failed to initialize identity resolver: %w", err)
		}
		a.resolver = resolver
	}

	httpClient := a.newHTTPClient()
	a.initAnalytics(httpClient)

	if a.config.Redis.Enabled() && a.redis == nil {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.config.Redis.Addr(),
			Password: a.config.Redis.Password,
			DB:       a.config.Redis.DB,
		})
	}

	var storage domain.FileStorage
	if a.config.Storage.Enabled() {
		s3Storage, err := service.NewS3FileStorage(a.config.Storage)
		if err != nil {
			return fmt.Errorf("failed to initialize file storage: %w", err)
		}
		storage = s3Storage
	} else {
		a.logger.Info("Knowledge file uploads disabled: STORAGE_BUCKET not set")
	}

	a.authority = service.NewMembershipAuthority(a.membershipRepo, a.logger)
	a.workspaceService = service.NewWorkspaceService(a.workspaceRepo, a.authority, a.analytics, a.logger)
	a.teamService = service.NewTeamService(a.membershipRepo, a.authority, a.logger)
	a.brandProfileService = service.NewBrandProfileService(a.brandProfileRepo, a.authority, a.logger)
	a.documentService = service.NewDocumentService(a.documentRepo, a.brandProfileRepo, a.authority, a.analytics, a.logger)
	a.contentProjectService = service.NewContentProjectService(a.contentProjectRepo, a.brandProfileRepo, a.authority, a.logger)
	a.commentService = service.NewCommentService(a.commentRepo, a.documentRepo, a.authority, a.logger)
	a.knowledgeFileService = service.NewKnowledgeFileService(a.knowledgeFileRepo, storage, a.authority, a.logger)
	a.agentConfigService = service.NewAgentConfigService(a.agentConfigRepo, a.authority, a.logger)

	stripe := service.NewStripeService(a.config.Payments, httpClient, a.logger)
	if a.config.Payments.StripeSecretKey == "" {
		a.logger.Warn("Payments disabled: STRIPE_SECRET_KEY not set")
	}
	ttl := a.config.Payments.PlansCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	a.plansCache = cache.New[[]domain.Plan](ttl, ttl)
	a.subscriptionService = service.NewSubscriptionService(a.subscriptionRepo, stripe, a.plansCache, a.config.AppURL, a.analytics, a.logger)

	return nil
}

func (a *App) readinessChecks() map[string]httpHandler.ReadinessCheck {
	checks := map[string]httpHandler.ReadinessCheck{
		"database": a.db.PingContext,
	}
	if a.redis != nil {
		rdb := a.redis
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}

// InitHandlers builds the router
func (a *App) InitHandlers() error {
	a.limiter = ratelimiter.New()
	a.limiter.SetPolicy(middleware.APIRateLimitNamespace, a.config.HTTP.RateLimitRequests, a.config.HTTP.RateLimitWindow)

	a.handler = httpHandler.NewRouter(httpHandler.RouterConfig{
		Logger:      a.logger,
		Resolver:    a.resolver,
		Limiter:     a.limiter,
		CORSOrigins: a.config.HTTP.CORSOrigins,

		Root:            httpHandler.NewRootHandler(a.config.Version, a.readinessChecks(), a.logger),
		Workspaces:      httpHandler.NewWorkspaceHandler(a.workspaceService, a.teamService),
		BrandProfiles:   httpHandler.NewResourceHandler[domain.BrandProfile, domain.CreateBrandProfileRequest, domain.BrandProfilePatch](a.brandProfileService, "workspace_id"),
		Documents:       httpHandler.NewResourceHandler[domain.Document, domain.CreateDocumentRequest, domain.DocumentPatch](a.documentService, "workspace_id"),
		ContentProjects: httpHandler.NewResourceHandler[domain.ContentProject, domain.CreateContentProjectRequest, domain.ContentProjectPatch](a.contentProjectService, "workspace_id"),
		Comments:        httpHandler.NewResourceHandler[domain.Comment, domain.CreateCommentRequest, domain.CommentPatch](a.commentService, "document_id"),
		KnowledgeFiles:  httpHandler.NewKnowledgeFileHandler(a.knowledgeFileService),
		AgentConfigs:    httpHandler.NewResourceHandler[domain.AgentConfig, domain.CreateAgentConfigRequest, domain.AgentConfigPatch](a.agentConfigService, "workspace_id"),
		Subscriptions:   httpHandler.NewSubscriptionHandler(a.subscriptionService, a.logger),
	})

	return nil
}

// Start serves the API, and the Prometheus endpoint when enabled, until
// Shutdown is called or a listener fails
func (a *App) Start() error {
	handler := a.gracefulShutdownMiddleware(a.handler)

	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	a.logger.WithField("address", addr).Info(fmt.Sprintf("Server starting on %s", addr))

	a.serverMu.Lock()
	a.server = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if a.telemetry != nil && a.telemetry.MetricsHandler != nil {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", a.telemetry.MetricsHandler)
		a.metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", a.config.Tracing.PrometheusPort),
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}
	server, metricsServer := a.server, a.metricsServer
	a.serverMu.Unlock()

	a.startOnce.Do(func() { close(a.serverStarted) })

	var g errgroup.Group
	g.Go(func() error {
		var err error
		if a.config.Server.SSL.Enabled {
			a.logger.WithField("cert_file", a.config.Server.SSL.CertFile).Info("SSL enabled")
			err = server.ListenAndServeTLS(a.config.Server.SSL.CertFile, a.config.Server.SSL.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	if metricsServer != nil {
		g.Go(func() error {
			a.logger.WithField("address", metricsServer.Addr).Info("Metrics server starting")
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Shutdown stops accepting requests, waits for in-flight ones up to the
// shutdown timeout and releases resources
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Starting graceful shutdown...")
	a.shutdownCancel()

	a.serverMu.RLock()
	server, metricsServer := a.server, a.metricsServer
	a.serverMu.RUnlock()

	if server == nil {
		a.logger.Info("No server to shutdown")
		return a.cleanupResources(ctx)
	}

	a.logger.WithField("active_requests", a.getActiveRequestCount()).Info("Active requests at shutdown start")

	shutdownTimeout := a.shutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < shutdownTimeout {
			shutdownTimeout = remaining - time.Second
			if shutdownTimeout < 0 {
				shutdownTimeout = 0
			}
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	var g errgroup.Group
	g.Go(func() error { return server.Shutdown(shutdownCtx) })
	if metricsServer != nil {
		g.Go(func() error { return metricsServer.Shutdown(shutdownCtx) })
	}

	requestsDone := make(chan struct{})
	go func() {
		a.requestWg.Wait()
		close(requestsDone)
	}()

	shutdownErr := g.Wait()
	if shutdownErr == nil {
		select {
		case <-requestsDone:
		case <-shutdownCtx.Done():
			a.logger.WithField("active_requests", a.getActiveRequestCount()).Warn("Shutdown timeout reached, forcing shutdown")
			shutdownErr = fmt.Errorf("shutdown timeout exceeded")
		}
	}

	if cleanupErr := a.cleanupResources(ctx); cleanupErr != nil {
		a.logger.WithField("error", cleanupErr.Error()).Error("Error during resource cleanup")
		if shutdownErr == nil {
			shutdownErr = cleanupErr
		}
	}

	if shutdownErr != nil {
		a.logger.WithField("error", shutdownErr.Error()).Error("Graceful shutdown completed with errors")
	} else {
		a.logger.Info("Graceful shutdown completed successfully")
	}
	return shutdownErr
}

// cleanupResources closes connections and stops background goroutines
func (a *App) cleanupResources(ctx context.Context) error {
	a.logger.Info("Cleaning up resources...")

	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.plansCache != nil {
		a.plansCache.Stop()
	}
	if a.queue != nil {
		if err := a.queue.Close(); err != nil {
			a.logger.WithField("error", err.Error()).Warn("Error closing task queue client")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.WithField("error", err.Error()).Warn("Error closing redis client")
		}
	}

	if a.stopDBStats != nil {
		a.stopDBStats()
	}
	if a.db != nil {
		a.logger.Info("Closing database connection")
		if err := a.db.Close(); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error closing database connection")
			return err
		}
	}

	a.logger.Info("Resource cleanup completed")
	return nil
}

// IsServerCreated safely checks if the server has been created
func (a *App) IsServerCreated() bool {
	a.serverMu.RLock()
	defer a.serverMu.RUnlock()
	return a.server != nil
}

// WaitForServerStart waits for the server to be created.
// Returns false if ctx expires first.
func (a *App) WaitForServerStart(ctx context.Context) bool {
	a.serverMu.RLock()
	started := a.serverStarted
	a.serverMu.RUnlock()

	if started == nil {
		a.logger.Error("serverStarted channel is nil - server initialization error")
		<-ctx.Done()
		return false
	}

	select {
	case <-started:
		return a.IsServerCreated()
	case <-ctx.Done():
		return false
	}
}

// Initialize sets up all components of the application
func (a *App) Initialize() error {
	a.logger.WithField("version", a.config.Version).Info("Starting Encanta API")

	steps := []func() error{
		a.InitTracing,
		a.InitDB,
		a.InitRepositories,
		a.InitServices,
		a.InitHandlers,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	a.logger.Info("Application successfully initialized")
	return nil
}

func (a *App) GetConfig() *config.Config {
	return a.config
}

func (a *App) GetLogger() logger.Logger {
	return a.logger
}

func (a *App) GetHandler() http.Handler {
	return a.handler
}

func (a *App) GetDB() *sql.DB {
	return a.db
}

// incrementActiveRequests atomically increments the active request counter
func (a *App) incrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, 1)
	a.requestWg.Add(1)
}

// decrementActiveRequests atomically decrements the active request counter
func (a *App) decrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, -1)
	a.requestWg.Done()
}

func (a *App) getActiveRequestCount() int64 {
	return atomic.LoadInt64(&a.activeRequests)
}

// GetActiveRequestCount returns the current number of active requests
func (a *App) GetActiveRequestCount() int64 {
	return a.getActiveRequestCount()
}

// SetShutdownTimeout sets the timeout for graceful shutdown
func (a *App) SetShutdownTimeout(timeout time.Duration) {
	a.shutdownTimeout = timeout
	a.logger.WithField("shutdown_timeout", timeout.String()).Info("Shutdown timeout configured")
}

// GetShutdownContext returns the context cancelled when shutdown begins
func (a *App) GetShutdownContext() context.Context {
	return a.shutdownCtx
}

func (a *App) isShuttingDown() bool {
	select {
	case <-a.shutdownCtx.Done():
		return true
	default:
		return false
	}
}

// gracefulShutdownMiddleware tracks in-flight requests and rejects new ones
// with 503 once shutdown has begun
func (a *App) gracefulShutdownMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isShuttingDown() {
			w.Header().Set("Connection", "close")
			httpHandler.WriteJSONError(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}

		a.incrementActiveRequests()
		defer a.decrementActiveRequests()

		next.ServeHTTP(w, r)
	})
}
