package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AmadouLah/pneumback-sub001/api/controllers"
	webhookcontrollers "github.com/AmadouLah/pneumback-sub001/api/controllers/webhooks"
	"github.com/AmadouLah/pneumback-sub001/api/middleware"
	"github.com/AmadouLah/pneumback-sub001/internal/delivery"
	"github.com/AmadouLah/pneumback-sub001/internal/notifications"
	"github.com/AmadouLah/pneumback-sub001/internal/payments"
	"github.com/AmadouLah/pneumback-sub001/internal/pricing"
	"github.com/AmadouLah/pneumback-sub001/internal/quotes"
	"github.com/AmadouLah/pneumback-sub001/pkg/config"
	"github.com/AmadouLah/pneumback-sub001/pkg/db"
	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
	"github.com/AmadouLah/pneumback-sub001/pkg/logger"
	"github.com/AmadouLah/pneumback-sub001/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	quoteService quotes.Service,
	paymentService payments.Service,
	deliveryService delivery.Service,
	notificationService notifications.Service,
	promotionRepo pricing.PromotionRepository,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	submitPolicy := middleware.NewRateLimitPolicy(
		"quote-submit",
		cfg.RateLimit.SubmitWindow,
		cfg.RateLimit.SubmitIPLimit,
		cfg.RateLimit.SubmitUserLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	// Provider callbacks authenticate with their own HMAC, not a bearer token.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/paydunya", webhookcontrollers.PayDunyaWebhook(paymentService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/quotes", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleClient))
			r.With(middleware.RateLimit(submitPolicy, redisClient, logg)).Post("/", controllers.SubmitQuote(quoteService, logg))
			r.Get("/", controllers.ListClientQuotes(quoteService, logg))
			r.Get("/{quoteID}", controllers.GetClientQuote(quoteService, logg))
			r.Post("/{quoteID}/validate", controllers.ValidateQuote(quoteService, logg))
			r.Post("/{quoteID}/cancel", controllers.CancelClientQuote(quoteService, logg))
			r.Post("/{quoteID}/pay", controllers.PayQuote(paymentService, logg))
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationService, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(notificationService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationService, logg))
		})

		r.Route("/v1/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleAdmin))

			r.Route("/quotes", func(r chi.Router) {
				r.Get("/", controllers.AdminListQuotes(quoteService, logg))
				r.Get("/{quoteID}", controllers.AdminGetQuote(quoteService, logg))
				r.Post("/{quoteID}/pricing", controllers.AdminBeginPricing(quoteService, logg))
				r.Post("/{quoteID}/issue", controllers.AdminIssueQuote(quoteService, logg))
				r.Post("/{quoteID}/request-validation", controllers.AdminRequestValidation(quoteService, logg))
				r.Post("/{quoteID}/cancel", controllers.AdminCancelQuote(quoteService, logg))
				r.Post("/{quoteID}/assign", controllers.AdminAssignLivreur(deliveryService, logg))
			})

			r.Route("/promotions", func(r chi.Router) {
				r.Post("/", controllers.CreatePromotion(promotionRepo, logg))
				r.Get("/", controllers.ListPromotions(promotionRepo, logg))
			})
		})

		r.Route("/v1/livreur", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleLivreur))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.LivreurListOrders(quoteService, logg))
				r.Post("/{quoteID}/delivered", controllers.LivreurMarkDelivered(deliveryService, logg))
				r.Post("/{quoteID}/absent", controllers.LivreurMarkAbsent(deliveryService, logg))
			})
		})
	})

	return r
}
