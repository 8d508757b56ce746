package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/handler"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Toilet *handler.ToiletHandler
	Vote   *handler.VoteHandler
	Review *handler.ReviewHandler
	User   *handler.UserHandler
	Health *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber
// app. The returned func stops the rate limiter janitors.
func Setup(app *fiber.App, h *Handlers, auth *middleware.Verifier, corsOrigins string) func() {
	// Middleware stack (order matters). Route middleware is listed before
	// the handler it guards.
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewCORS(corsOrigins))

	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	search := middleware.NewSearchRateLimiter()
	submit := middleware.NewSubmitRateLimiter()
	vote := middleware.NewVoteRateLimiter()
	review := middleware.NewReviewRateLimiter()

	requireAuth := middleware.RequireAuth(auth)
	optionalAuth := middleware.OptionalAuth(auth)

	api := app.Group("/api")

	// Toilet routes
	api.Get("/toilets", search.Handler(), h.Toilet.Search)
	api.Post("/toilets", requireAuth, submit.Handler(), h.Toilet.Submit)
	api.Post("/toilets/:id/report", requireAuth, vote.Handler(), h.Vote.Report)
	api.Post("/toilets/:id/verify", requireAuth, vote.Handler(), h.Vote.Verify)

	// Moderation routes; the role is checked against the user store
	api.Get("/toilets/hidden", requireAuth, h.Toilet.ListHidden)
	api.Post("/toilets/:id/restore", requireAuth, h.Toilet.Restore)
	api.Delete("/toilets/:id", requireAuth, h.Toilet.Delete)
	api.Get("/debug/cache", requireAuth, h.Toilet.CacheInfo)

	// Review routes
	api.Post("/reviews", optionalAuth, review.Handler(), h.Review.Create)
	api.Get("/reviews/toilet/*", search.Handler(), h.Review.ListByToilet)

	// User routes
	api.Get("/users/me", requireAuth, h.User.Me)
	api.Get("/users", requireAuth, h.User.List)
	api.Post("/users/:externalId/role", requireAuth, h.User.SetRole)

	return func() {
		search.Close()
		submit.Close()
		vote.Close()
		review.Close()
	}
}
