package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/sourav8908/FLEX-QC-APP/internal/config"
	"github.com/sourav8908/FLEX-QC-APP/internal/handler"
	"github.com/sourav8908/FLEX-QC-APP/internal/middleware"
	"github.com/sourav8908/FLEX-QC-APP/internal/utils"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring probes hit this endpoint to verify
	// that the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterSession registers the inspection workflow routes. Sessions are
// addressed by their opaque id, so no JWT is needed here; each session
// carries its own authentication state after a successful login. The
// login endpoint alone runs behind the token-bucket limiter to slow
// credential guessing from a shared terminal's network.
func RegisterSession(e *echo.Echo, s *handler.SessionHandler, rdb *redis.Client) {
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e.POST("/v1/sessions", s.Create)

	g := e.Group("/v1/sessions/:id")
	g.GET("", s.Get)
	g.DELETE("", s.Logout)
	g.POST("/stage", s.SelectStage)
	g.POST("/login", s.Login, limiter)
	g.POST("/device", s.EnterDevice)
	g.POST("/scan", s.ScanDevice)
	g.POST("/checkpoints", s.AddCheckpoint)
	g.PATCH("/checkpoints/:cpid", s.PatchCheckpoint)
	g.DELETE("/checkpoints/:cpid", s.DeleteCheckpoint)
	g.POST("/checkpoints/:cpid/suggest-reason", s.SuggestReason)
	g.POST("/submit", s.Submit)
	g.POST("/next-device", s.NextDevice)
	g.POST("/dashboard", s.OpenDashboard)
}

// RegisterAdmin registers the management console routes. Every endpoint
// here requires a valid access token with the ADMIN role; the dashboard
// additionally sits behind the Redis response cache because it
// aggregates the full report history on every hit.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, d *handler.DashboardHandler, jwtSecret string, rdb *redis.Client) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(utils.RoleAdmin))

	g.GET("/users", a.List)
	g.POST("/users", a.Create)
	g.GET("/users/search", a.Search)
	g.PUT("/users/:id", a.Update)
	g.POST("/users/:id/toggle-active", a.ToggleActive)
	g.DELETE("/users/:id", a.Delete)

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	g.GET("/dashboard", d.Get, cache)
	g.GET("/reports/export", d.ExportCSV)
}
