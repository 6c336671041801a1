package router

import (
	"github.com/labstack/echo/v4"

	"github.com/elemevent/site/internal/handler"
	"github.com/elemevent/site/internal/middleware"
	"github.com/elemevent/site/internal/model"
)

// RegisterAdminAuth registers the login endpoints. Only /me needs a token.
func RegisterAdminAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/admin/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin))
}

// Labels carries the handlers of the two name-only lookup tables.
type Labels struct {
	EventTypes      *handler.LabelHandler
	AgeRestrictions *handler.LabelHandler
}

// RegisterAdmin registers the back-office under /v1/admin. All routes
// require a valid JWT with the ADMIN role; mw runs after authentication,
// typically the cache purge.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, l Labels, jwtSecret string, mw ...echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.Use(mw...)

	// ---- Events ----
	g.GET("/events", a.ListEvents)
	g.POST("/events", a.CreateEvent)
	g.POST("/events/actions", a.EventAction)
	g.GET("/events/:id", a.GetEvent)
	g.PUT("/events/:id", a.UpdateEvent)
	g.DELETE("/events/:id", a.DeleteEvent)
	g.POST("/events/:id/duplicate", a.DuplicateEvent)
	g.POST("/events/:id/poster", a.UploadEventPoster)
	g.POST("/events/:id/cover", a.UploadEventCover)
	g.PUT("/events/:id/push", a.PutPush)
	g.DELETE("/events/:id/push", a.DeletePush)
	g.PUT("/events/:id/advertising", a.PutAdvertising)
	g.DELETE("/events/:id/advertising", a.DeleteAdvertising)

	// ---- Tours ----
	g.GET("/tours", a.ListTours)
	g.POST("/tours", a.CreateTour)
	g.POST("/tours/actions", a.TourAction)
	g.GET("/tours/:id", a.GetTour)
	g.PUT("/tours/:id", a.UpdateTour)
	g.DELETE("/tours/:id", a.DeleteTour)
	g.POST("/tours/:id/events", a.LinkTourEvents)
	g.DELETE("/tours/:id/events", a.UnlinkTourEvents)
	g.POST("/tours/:id/duplicate", a.DuplicateTour)
	g.POST("/tours/:id/poster", a.UploadTourPoster)
	g.POST("/tours/:id/cover", a.UploadTourCover)

	// ---- Banners ----
	g.GET("/banners", a.ListBanners)
	g.POST("/banners", a.CreateBanner)
	g.POST("/banners/actions", a.BannerAction)
	g.PUT("/banners/:id", a.UpdateBanner)
	g.DELETE("/banners/:id", a.DeleteBanner)
	g.POST("/banners/:id/duplicate", a.DuplicateBanner)
	g.POST("/banners/:id/cover", a.UploadBannerCover)

	// ---- FAQ ----
	g.GET("/questions", a.ListQuestions)
	g.POST("/questions", a.CreateQuestion)
	g.PUT("/questions/:id", a.UpdateQuestion)
	g.DELETE("/questions/:id", a.DeleteQuestion)
	g.POST("/questions/:id/move/:dir", a.MoveQuestion)

	// ---- Site info ----
	g.GET("/site", a.GetSiteInfo)
	g.PUT("/site", a.UpdateSiteInfo)

	// ---- Reference data ----
	g.GET("/cities", a.ListCities)
	g.POST("/cities", a.CreateCity)
	g.PUT("/cities/:id", a.UpdateCity)
	g.DELETE("/cities/:id", a.DeleteCity)
	registerLabels(g.Group("/event-types"), l.EventTypes)
	registerLabels(g.Group("/age-restrictions"), l.AgeRestrictions)
}

func registerLabels(g *echo.Group, h *handler.LabelHandler) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
