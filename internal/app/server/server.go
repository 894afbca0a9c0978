package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/PowerRead/internal/app/service"
	inthttp "github.com/sifan077/PowerRead/internal/http/handler"
	"github.com/sifan077/PowerRead/internal/http/middleware"
	"go.uber.org/zap"
)

// Dependencies bundles what the HTTP server needs. Redis is optional; without
// it requests are not rate limited.
type Dependencies struct {
	Logger      *zap.Logger
	Entries     service.EntryService
	Tags        service.TagService
	Listing     service.ListingService
	Redis       redis.Cmdable
	RateLimit   middleware.RateLimitConfig
	CORSOrigins []string
	Checks      map[string]inthttp.Pinger
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with all routes registered.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "PowerRead",
		DisableStartupMessage: true,
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerRoutes()
	return s
}

// App exposes the underlying Fiber application, mainly for tests.
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
	log := s.deps.Logger

	s.app.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.CORS(s.deps.CORSOrigins),
	)

	inthttp.NewPublicHandler(inthttp.PublicDeps{
		Logger:  log,
		Entries: s.deps.Entries,
		Checks:  s.deps.Checks,
	}).Register(s.app)

	authed := []fiber.Handler{middleware.Identity()}
	if s.deps.Redis != nil {
		authed = append(authed, middleware.RateLimit(s.deps.Redis, s.deps.RateLimit, log))
	}

	entryHandler := inthttp.NewEntryHandler(inthttp.EntryDeps{
		Logger:  log,
		Entries: s.deps.Entries,
		Listing: s.deps.Listing,
	})
	tagHandler := inthttp.NewTagHandler(inthttp.TagDeps{
		Logger: log,
		Tags:   s.deps.Tags,
	})

	api := s.app.Group("/api", authed...)
	entryHandler.Register(api)
	tagHandler.Register(api)

	bookmarklet := append(append([]fiber.Handler{}, authed...), entryHandler.Bookmarklet)
	s.app.Get("/bookmarklet", bookmarklet...)
}
