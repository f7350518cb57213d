package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// Routes bundles the handlers and per-route middleware the API needs
type Routes struct {
	Health   *HealthHandler
	Tools    *ToolsHandler
	Sessions *SessionHandler
	Admin    *AdminHandler

	Auth        fiber.Handler
	AdminAuth   fiber.Handler
	ToolLimiter fiber.Handler
}

// Register mounts every route on app
func (r Routes) Register(app *fiber.App) {
	app.Get("/health", r.Health.Handle)

	api := app.Group("/api", r.Auth)

	api.Get("/tools", r.Tools.ListTools)
	if r.ToolLimiter != nil {
		api.Post("/tools/:name/execute", r.ToolLimiter, r.Tools.Execute)
	} else {
		api.Post("/tools/:name/execute", r.Tools.Execute)
	}

	api.Post("/sessions", r.Sessions.Create)
	api.Get("/sessions/:id", r.Sessions.Get)
	api.Delete("/sessions/:id", r.Sessions.Delete)
	api.Put("/sessions/:id/branch", r.Sessions.SwitchBranch)

	if r.Admin == nil || r.AdminAuth == nil {
		return
	}
	admin := api.Group("/admin", r.AdminAuth)
	admin.Get("/jobs", r.Admin.ListJobs)
	admin.Post("/jobs/:name/run", r.Admin.RunJob)
	admin.Get("/catalog-policy", r.Admin.GetCatalogPolicy)
	admin.Post("/catalog-policy/reload", r.Admin.ReloadCatalogPolicy)
}
