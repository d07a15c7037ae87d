package http

import (
	"github.com/gofiber/fiber/v2"
)

// NewApp builds the fiber application with the global middleware stack and every route.
func NewApp(name string, mw MiddlewareConfig, routes RouteConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler,
	})
	if routes.Metrics == nil {
		routes.Metrics = mw.Metrics
	}
	RegisterMiddlewares(app, mw)
	RegisterRoutes(app, routes)
	return app
}
