package bootstrap

import (
	"strings"

	"mailagent/adapter/in/http"
	"mailagent/config"
	"mailagent/infra/middleware"
	"mailagent/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// NewAPI builds the fiber app with all routes registered. The returned
// cleanup closes every shared connection.
func NewAPI(cfg *config.Config, deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "mailagent",
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),

		// go-json beats encoding/json on classify payloads.
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit:       10 * 1024 * 1024, // room for large batches
		ReadBufferSize:  16384,
		WriteBufferSize: 16384,
	})

	// Order matters: recover first, then request id, then logging.
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	if allowOrigins == "" && cfg.IsDevelopment() {
		allowOrigins = "http://localhost:3000,http://localhost:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-Request-ID",
	}))

	// Health endpoints sit outside the API group.
	healthHandler := http.NewHealthHandlerWithDeps(deps.DB, deps.Redis)
	healthHandler.Register(app)

	api := app.Group("/api/v1")

	http.NewClassifyHandler(deps.ClassificationService).Register(api)
	http.NewDigestHandler(deps.DigestService).Register(api)
	http.NewStateHandler(deps.StateTracker).Register(api)
	http.NewVIPHandler(deps.VIPService).Register(api)

	logger.Info("API routes registered")
	return app
}
