// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/elemevent/site/internal/handler"
)

// RegisterRoutes registers the probes. /healthz is liveness only; /health
// checks the database and Redis.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/health", h.Check)
}

// RegisterMedia serves uploaded images from root under /media. Production
// setups usually leave this to the reverse proxy.
func RegisterMedia(e *echo.Echo, root string) {
	e.Static("/media", root)
}

// RegisterPublic registers the read-only site API under /v1. mw is applied
// to the whole group, typically the rate limiter and the response cache.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mw...)

	g.GET("/home", p.Home)
	g.GET("/events", p.Events)
	g.GET("/events/:slug", p.Event)
	g.GET("/events/:slug/calendar.ics", p.Calendar)
	g.GET("/archive", p.Archive)
	g.GET("/tours", p.Tours)
	g.GET("/tours/:slug", p.Tour)
	g.GET("/faq", p.FAQ)
	g.GET("/site", p.Site)
}
