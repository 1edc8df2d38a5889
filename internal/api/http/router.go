package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/city-issue-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Issues      *handlers.IssuesHandler
	Locations   *handlers.LocationsHandler
	Departments *handlers.DepartmentsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	api.Post("/issues", cfg.Issues.CreateIssue)
	api.Get("/issues", cfg.Issues.ListIssues)
	api.Get("/issues/:id", cfg.Issues.GetIssue)
	api.Patch("/issues/:id/status", cfg.Issues.UpdateStatus)
	api.Get("/issues/:id/prediction", cfg.Issues.GetPrediction)

	api.Get("/locations/reverse", cfg.Locations.ReverseGeocode)
	api.Get("/departments", cfg.Departments.ListDepartments)
}
