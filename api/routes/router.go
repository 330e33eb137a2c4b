package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pitwallhq/pitwall-gateway/api/controllers"
	"github.com/pitwallhq/pitwall-gateway/api/middleware"
	"github.com/pitwallhq/pitwall-gateway/pkg/config"
	"github.com/pitwallhq/pitwall-gateway/pkg/logger"
	"github.com/pitwallhq/pitwall-gateway/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	cachePinger redis.Pinger,
	checkoutService controllers.CheckoutService,
	views controllers.ViewReader,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, cachePinger, logg))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", controllers.CheckoutStart(checkoutService, logg))
			r.Get("/current", controllers.CheckoutCurrent(checkoutService, logg))
			r.Delete("/current", controllers.CheckoutCancel(checkoutService, logg))
			r.Post("/confirm-manual", controllers.CheckoutConfirmManual(checkoutService, logg))
		})

		r.Get("/garage", controllers.GarageView(views, logg))
		r.Get("/warehouse", controllers.WarehouseView(views, logg))
		r.Get("/team", controllers.TeamView(views, logg))
		r.Get("/history", controllers.HistoryView(views, logg))
	})

	return r
}
