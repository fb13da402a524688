package controllers

import (
	"github.com/MEE-POONG/mapoo-sub001/src/middleware"

	"github.com/gofiber/fiber/v2"
)

// Routers groups the API by audience so auth middleware is mounted once per group.
type Routers struct {
	Public   fiber.Router
	Customer fiber.Router
	Admin    fiber.Router
	Auth     *middleware.Authenticator
}

func NewRouters(app *fiber.App, auth *middleware.Authenticator) Routers {
	return Routers{
		Public:   app.Group("/api"),
		Customer: app.Group("/api/customer", auth.RequireAuth()),
		Admin:    app.Group("/api/admin", auth.RequireAuth(), middleware.RequireRole(middleware.RoleAdmin)),
		Auth:     auth,
	}
}
