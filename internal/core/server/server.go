package server

import (
	"context"
	"fmt"
	"time"

	"freight-booking/internal/core/config"
	"freight-booking/internal/core/logger"

	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	_ "freight-booking/docs/swagger"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Server holds the Fiber application and configuration.
type Server struct {
	// App is the main Fiber application instance.
	App *fiber.App
	// cfg holds the application configuration.
	cfg *config.AppConfig
	// checks are run by /healthz, keyed by dependency name.
	checks map[string]HealthCheck
}

// New creates a new Server instance with configured middleware.
func New(cfg *config.AppConfig) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "freight-booking",
		ErrorHandler:          ErrorHandler,
	})

	app.Use(requestid.New(requestid.Config{
		Header: "X-Ray-ID",
	}))

	app.Use(fiberzap.New(fiberzap.Config{
		Logger: logger.Get(),
	}))

	s := &Server{
		App:    app,
		cfg:    cfg,
		checks: make(map[string]HealthCheck),
	}

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/healthz", s.health)

	return s
}

// AddHealthCheck registers a dependency probe for /healthz.
func (s *Server) AddHealthCheck(name string, check HealthCheck) {
	s.checks[name] = check
}

// health handles GET /healthz.
// @Summary Liveness and dependency health
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func (s *Server) health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	result := fiber.Map{"status": "ok"}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status = fiber.StatusServiceUnavailable
			result["status"] = "degraded"
			result[name] = err.Error()
			continue
		}
		result[name] = "ok"
	}
	return c.Status(status).JSON(result)
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.ServerPort)
	logger.Get().Info("Starting server", zap.String("address", addr))
	return s.App.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.App.ShutdownWithContext(ctx)
}
