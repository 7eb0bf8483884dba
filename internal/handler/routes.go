package handler

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	ws "github.com/groupcollage/api/internal/websocket"
)

// Routes bundles what RegisterRoutes mounts.
type Routes struct {
	Orders      *OrderHandler
	Render      *RenderHandler
	Auth        *AuthHandler
	Hub         *ws.Hub
	Health      fiber.Handler
	APIAuth     fiber.Handler
	RenderLimit fiber.Handler
}

// RegisterRoutes mounts the HTTP and WebSocket routes on app.
func RegisterRoutes(app *fiber.App, r Routes) {
	app.Get("/health", r.Health)

	// ForwardAuth verification endpoint (internal, called by the gateway)
	app.Get("/auth/verify", r.Auth.Verify)

	api := app.Group("/api", r.APIAuth)

	api.Put("/orders/:orderId", r.Orders.Upsert)
	api.Post("/orders/:orderId/render", r.RenderLimit, r.Render.Enqueue)
	api.Get("/orders/:orderId/render/status", r.Render.Status)
	api.Get("/orders/:orderId/variants", r.Render.Variants)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/orders/:orderId", websocket.New(func(c *websocket.Conn) {
		r.Hub.HandleConnection(c, c.Params("orderId"))
	}))
}
