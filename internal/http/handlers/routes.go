package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	applog "campusmart/internal/log"
)

// NewApp builds the fiber app with middleware and every route mounted.
func NewApp(d *Deps) *fiber.App {
	engine := html.New(d.Config.TemplatesDir, ".html")
	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: ErrorHandler,
		BodyLimit:    1 << 20, // 1 MiB
	})

	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	if d.Metrics != nil {
		app.Use(d.Metrics.Middleware())
	}
	app.Use(limiter.New(limiter.Config{
		Max:        d.Config.RateLimitMax,
		Expiration: d.Config.RateLimitWindow,
		Storage:    d.Limiter,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == "/healthz" || p == "/metrics"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.limit.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(errorBody{Error: "rate limit exceeded, retry soon"})
		},
	}))

	Mount(app, d)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(errorBody{Error: "not found"})
	})
	return app
}

// Mount registers the routes. Unsafe /admin requests must carry the CSRF
// token from GET /admin/session in the X-Csrf-Token header.
func Mount(app *fiber.App, d *Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	if d.Metrics != nil {
		app.Get("/metrics", d.Metrics.Handler())
	}

	// storefront
	app.Get("/products", d.ProductHandler.List)
	app.Get("/products/:id", d.ProductHandler.Detail)
	app.Post("/products", d.ProductHandler.Submit)
	app.Post("/products/:id/like", d.ProductHandler.Like)
	app.Delete("/products/:id/like", d.ProductHandler.Unlike)

	// buyers
	app.Post("/orders", d.OrderHandler.Place)
	app.Get("/customers/:buyerId/orders", d.OrderHandler.ListForBuyer)
	app.Post("/customers/orders/:id/cancel", d.OrderHandler.CancelByBuyer)

	admin := app.Group("/admin", csrf.New(csrf.Config{
		KeyLookup:      "header:" + csrf.HeaderName,
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   d.Config.CookieSecure,
		CookieHTTPOnly: false, // the dashboard script reads it
		ContextKey:     "csrf",
		Storage:        d.Limiter,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			return c.Status(fiber.StatusForbidden).JSON(errorBody{Error: "Security check failed. Please refresh and try again."})
		},
	}))

	admin.Get("/session", d.AuthHandler.Session)
	admin.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		Storage:    d.Limiter,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(errorBody{Error: "Too many attempts. Please try again later."})
		},
	}), d.AuthHandler.Login)
	admin.Post("/logout", d.AuthHandler.Logout)

	guard := RequireAdmin(d.Auth)
	ah := d.AdminHandler
	admin.Get("/", guard, ah.Dashboard)

	admin.Get("/orders", guard, ah.ListOrders)
	admin.Post("/orders/:id/confirm", guard, ah.Confirm)
	admin.Post("/orders/:id/deliver", guard, ah.Deliver)
	admin.Post("/orders/:id/cancel", guard, ah.Cancel)
	admin.Get("/orders/:id/invoice", guard, ah.Invoice)

	admin.Get("/products", guard, ah.ListProducts)
	admin.Post("/products/:id/approve", guard, ah.Approve)
	admin.Post("/products/:id/reject", guard, ah.Reject)
	admin.Post("/products/:id/sold-out", guard, ah.SoldOut)
	admin.Patch("/products/:id", guard, ah.UpdateProduct)
	admin.Delete("/products/:id", guard, ah.DeleteProduct)
}
