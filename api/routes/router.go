package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mayaruiz/secondstory-backend/api/controllers"
	"github.com/mayaruiz/secondstory-backend/api/middleware"
	itemsvc "github.com/mayaruiz/secondstory-backend/internal/items"
	refundsvc "github.com/mayaruiz/secondstory-backend/internal/refunds"
	rewardsvc "github.com/mayaruiz/secondstory-backend/internal/rewards"
	settlementsvc "github.com/mayaruiz/secondstory-backend/internal/settlement"
	"github.com/mayaruiz/secondstory-backend/pkg/config"
	"github.com/mayaruiz/secondstory-backend/pkg/logger"
	"github.com/mayaruiz/secondstory-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	itemsService itemsvc.Service,
	settlementService settlementsvc.Service,
	rewardsService rewardsvc.Service,
	refundsService refundsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy("checkout", time.Minute, 30)
	redeemPolicy := middleware.NewRateLimitPolicy("redeem", time.Minute, 10)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/items", func(r chi.Router) {
			r.Post("/", controllers.SubmitItem(itemsService, logg))
			r.Get("/", controllers.ListMyItems(itemsService, logg))
			r.Get("/{itemID}", controllers.GetItem(itemsService, logg))
			r.Patch("/{itemID}", controllers.UpdateItem(itemsService, logg))
			r.Post("/{itemID}/resubmit", controllers.ResubmitItem(itemsService, logg))
		})

		r.With(middleware.RateLimit(checkoutPolicy, redisClient, logg)).
			Post("/checkout", controllers.Checkout(settlementService, logg))

		r.Route("/rewards", func(r chi.Router) {
			r.Get("/me", controllers.MyRewards(rewardsService, logg))
			r.With(middleware.RateLimit(redeemPolicy, redisClient, logg)).
				Post("/redeem", controllers.RedeemPoints(rewardsService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole("admin", logg))

			r.Route("/items", func(r chi.Router) {
				r.Get("/", controllers.AdminListItems(itemsService, logg))
				r.Post("/{itemID}/approve", controllers.ApproveItem(itemsService, logg))
				r.Post("/{itemID}/reject", controllers.RejectItem(itemsService, logg))
				r.Post("/{itemID}/live", controllers.MakeItemLive(itemsService, logg))
				r.Post("/{itemID}/send-back", controllers.SendItemBack(itemsService, logg))
				r.Post("/{itemID}/archive", controllers.ArchiveItem(itemsService, logg))
			})

			r.Post("/in-house-sales", controllers.InHouseSale(settlementService, logg))
			r.Post("/orders/{orderID}/refund", controllers.IssueRefund(refundsService, logg))

			r.Route("/rewards", func(r chi.Router) {
				r.Post("/adjust", controllers.AdjustPoints(rewardsService, logg))
				r.Get("/analytics", controllers.RewardsAnalytics(rewardsService, logg))
				r.Get("/config", controllers.GetRewardsConfig(rewardsService, logg))
				r.Put("/config", controllers.UpdateRewardsConfig(rewardsService, logg))
			})
		})
	})

	return r
}
