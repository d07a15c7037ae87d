package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/mutooni/mutooni-api/internal/api/http/handlers"
	"github.com/mutooni/mutooni-api/internal/auth"
	"github.com/mutooni/mutooni-api/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tokens         *handlers.TokenHandler
	Users          *handlers.UsersHandler
	Products       *handlers.ProductsHandler
	Clients        *handlers.PartnersHandler
	Suppliers      *handlers.PartnersHandler
	Purchases      *handlers.PurchasesHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/api/ping", fiber.StatusFound)
	})
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group("/api")
	api.Get("/ping", cfg.Health.Ping)
	api.Post("/token", cfg.Tokens.Obtain)
	api.Post("/token/refresh", cfg.Tokens.Refresh)

	// auth is registered per prefix; /api/ping and /api/token stay public
	authenticate := cfg.AuthMiddleware.Handle
	adminOnly := auth.RequireAdmin()

	users := api.Group("/users", authenticate)
	users.Get("/", cfg.Users.List)
	users.Post("/", cfg.Users.Create)
	users.Get("/:id", cfg.Users.Get)
	users.Put("/:id", cfg.Users.Update)
	users.Patch("/:id", cfg.Users.Patch)
	users.Delete("/:id", cfg.Users.Delete)

	products := api.Group("/products", authenticate)
	products.Get("/", cfg.Products.List)
	products.Post("/", cfg.Products.Create)
	products.Get("/:id", cfg.Products.Get)
	products.Put("/:id", cfg.Products.Update)
	products.Patch("/:id", cfg.Products.Patch)
	products.Delete("/:id", adminOnly, cfg.Products.Delete)

	registerPartnerRoutes(api.Group("/clients", authenticate), cfg.Clients, adminOnly)
	registerPartnerRoutes(api.Group("/suppliers", authenticate), cfg.Suppliers, adminOnly)

	purchases := api.Group("/purchases", authenticate)
	purchases.Get("/", cfg.Purchases.List)
	purchases.Post("/", cfg.Purchases.Create)
	purchases.Get("/:id", cfg.Purchases.Get)
	purchases.Delete("/:id", cfg.Purchases.Delete)
	purchases.Post("/:id/status", cfg.Purchases.ChangeStatus)
}

func registerPartnerRoutes(group fiber.Router, h *handlers.PartnersHandler, adminOnly fiber.Handler) {
	group.Get("/", h.List)
	group.Post("/", h.Create)
	group.Get("/:id", h.Get)
	group.Put("/:id", h.Update)
	group.Patch("/:id", h.Patch)
	group.Delete("/:id", adminOnly, h.Delete)
}
