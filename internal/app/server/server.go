package server

import (
	"context"
	"time"

	"github.com/danger-5344/templa-socialV2/internal/app/service"
	inthttp "github.com/danger-5344/templa-socialV2/internal/http/handler"
	"github.com/danger-5344/templa-socialV2/internal/http/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultBodyLimit = 10 << 20

// Dependencies bundles what the HTTP server needs to build its routes.
type Dependencies struct {
	Logger *zap.Logger
	Redis  *redis.Client

	Platforms service.PlatformService
	Tags      service.TagService
	Templates service.TemplateService
	Catalog   service.CatalogService

	StaffUsers     []string
	CORSOrigins    []string
	RateLimit      middleware.RateLimitConfig
	MaxUploadBytes int64
	HealthChecks   map[string]inthttp.Pinger
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates the HTTP server with its middleware chain and routes.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	bodyLimit := defaultBodyLimit
	if deps.MaxUploadBytes > 0 {
		// leave room for the multipart envelope
		bodyLimit = int(deps.MaxUploadBytes) + 1<<20
	}

	app := fiber.New(fiber.Config{
		AppName:               "templa-social",
		BodyLimit:             bodyLimit,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		DisableStartupMessage: true,
		ErrorHandler:          inthttp.ErrorHandler(deps.Logger),
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerRoutes()
	return s
}

// App exposes the underlying Fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() {
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Logger(s.deps.Logger))
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.CORS(s.deps.CORSOrigins))

	inthttp.NewHealthHandler(s.deps.Logger, s.deps.HealthChecks).Register(s.app)

	api := s.app.Group("/api", middleware.Identity(s.deps.StaffUsers))
	if s.deps.Redis != nil {
		api.Use(middleware.RateLimit(s.deps.Redis, s.deps.RateLimit, s.deps.Logger))
	}

	inthttp.NewPlatformHandler(inthttp.PlatformDeps{
		Logger:    s.deps.Logger,
		Platforms: s.deps.Platforms,
		Tags:      s.deps.Tags,
	}).Register(api)

	inthttp.NewTemplateHandler(inthttp.TemplateDeps{
		Logger:    s.deps.Logger,
		Templates: s.deps.Templates,
	}).Register(api)

	inthttp.NewCatalogHandler(inthttp.CatalogDeps{
		Logger:         s.deps.Logger,
		Catalog:        s.deps.Catalog,
		MaxUploadBytes: s.deps.MaxUploadBytes,
	}).Register(api)
}
