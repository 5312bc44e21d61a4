package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/donor-service/internal/api/http/handlers"
	"github.com/spec-kit/donor-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Gate          auth.GateConfig
	Authenticator *auth.Authenticator
	Policy        auth.Authorizer
	Registry      *prometheus.Registry

	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Admin         *handlers.AdminHandler
	Donors        *handlers.DonorsHandler
	Organizations *handlers.OrganizationsHandler
	Transactions  *handlers.TransactionsHandler
	Webhooks      *handlers.WebhooksHandler
	Plaid         *handlers.PlaidHandler
}

// RegisterRoutes wires HTTP routes. The gate runs before routing; every
// protected route then verifies the credential and checks the policy.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(auth.Gate(cfg.Gate))

	protect := func(resource string, h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{cfg.Authenticator.Handle, auth.Authorize(cfg.Policy, resource), h}
	}

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", protect(auth.ResourceSelfRead, cfg.Auth.Me)...)
	authGroup.Post("/password/change", protect(auth.ResourceSelfWrite, cfg.Auth.ChangePassword)...)

	api.Get("/organizations", protect(auth.ResourceOrganizationsRead, cfg.Organizations.List)...)
	api.Get("/organizations/:id", protect(auth.ResourceOrganizationsRead, cfg.Organizations.Get)...)
	api.Get("/donors/me/transactions", protect(auth.ResourceSelfRead, cfg.Transactions.Mine)...)
	api.Post("/plaid/link-token", protect(auth.ResourcePaymentsLink, cfg.Plaid.LinkToken)...)
	api.Post("/webhooks/stripe", cfg.Webhooks.Stripe)

	admin := app.Group("/admin")
	admin.Get("/login", cfg.Admin.LoginForm)
	admin.Post("/login", cfg.Admin.Login)
	admin.Post("/logout", cfg.Admin.Logout)
	admin.Get("/", protect(auth.ResourceDashboardRead, cfg.Admin.Dashboard)...)

	adminAPI := admin.Group("/api")
	adminAPI.Get("/dashboard", protect(auth.ResourceDashboardRead, cfg.Admin.Dashboard)...)

	adminAPI.Get("/donors", protect(auth.ResourceDonorsRead, cfg.Donors.List)...)
	adminAPI.Get("/donors/:id", protect(auth.ResourceDonorsRead, cfg.Donors.Get)...)
	adminAPI.Patch("/donors/:id", protect(auth.ResourceDonorsWrite, cfg.Donors.Update)...)
	adminAPI.Delete("/donors/:id", protect(auth.ResourceDonorsWrite, cfg.Donors.Delete)...)

	adminAPI.Get("/organizations", protect(auth.ResourceOrganizationsRead, cfg.Organizations.List)...)
	adminAPI.Get("/organizations/:id", protect(auth.ResourceOrganizationsRead, cfg.Organizations.Get)...)
	adminAPI.Post("/organizations", protect(auth.ResourceOrganizationsWrite, cfg.Organizations.Create)...)
	adminAPI.Patch("/organizations/:id", protect(auth.ResourceOrganizationsWrite, cfg.Organizations.Update)...)
	adminAPI.Delete("/organizations/:id", protect(auth.ResourceOrganizationsWrite, cfg.Organizations.Delete)...)

	adminAPI.Get("/transactions", protect(auth.ResourceTransactionsRead, cfg.Transactions.List)...)
	adminAPI.Get("/transactions/:id", protect(auth.ResourceTransactionsRead, cfg.Transactions.Get)...)
	adminAPI.Post("/transactions", protect(auth.ResourceTransactionsWrite, cfg.Transactions.Create)...)

	adminAPI.Get("/admins", protect(auth.ResourceAdminsWrite, cfg.Admin.ListAdmins)...)
	adminAPI.Post("/admins", protect(auth.ResourceAdminsWrite, cfg.Admin.CreateAdmin)...)

	adminAPI.Get("/debug/config", protect(auth.ResourceDebugRead, cfg.Admin.DebugConfig)...)
}
