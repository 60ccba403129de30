package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shoplane/review-service/internal/service"
	"github.com/shoplane/review-service/pkg/health"
	"github.com/shoplane/review-service/pkg/middleware"
)

// NewRouter creates a chi router with all review service routes registered.
func NewRouter(
	submissions *service.SubmissionService,
	moderation *service.ModerationService,
	feed *service.FeedService,
	tokenValidator middleware.TokenValidator,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("review-service"))

	// Health and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	reviewHandler := NewReviewHandler(submissions, feed, logger)
	adminHandler := NewAdminHandler(moderation, feed, logger)

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Public endpoints
		r.Get("/", reviewHandler.ListReviews)
		r.Get("/stats", reviewHandler.GetStats)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Post("/", reviewHandler.SubmitReview)
			r.Get("/mine", reviewHandler.ListOwnReviews)
			r.Put("/{reviewID}", reviewHandler.AmendReview)
			r.Delete("/{reviewID}", reviewHandler.WithdrawReview)
		})
	})

	r.Route("/api/v1/admin/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))
		r.Use(middleware.RequireRole(adminRole))

		r.Get("/", adminHandler.ListReviews)
		r.Get("/stats", adminHandler.GetStats)
		r.Patch("/{reviewID}/approval", adminHandler.SetApproval)
		r.Patch("/{reviewID}/pin", adminHandler.SetPin)
		r.Put("/{reviewID}/reply", adminHandler.SetReply)
		r.Delete("/{reviewID}/reply", adminHandler.RemoveReply)
		r.Delete("/{reviewID}", adminHandler.RemoveReview)
	})

	return r
}
