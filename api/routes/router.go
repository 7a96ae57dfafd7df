package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/rocketcart/api/controllers"
	cartcontrollers "github.com/angelmondragon/rocketcart/api/controllers/cart"
	"github.com/angelmondragon/rocketcart/api/middleware"
	"github.com/angelmondragon/rocketcart/pkg/config"
	"github.com/angelmondragon/rocketcart/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	snapshotPinger controllers.Pinger,
	cartService cartcontrollers.Service,
	catalog cartcontrollers.Catalog,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Tracing(),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"snapshot": snapshotPinger,
		}))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(cartService, logg))
			r.Delete("/", cartcontrollers.CartClear(cartService, logg))
			r.Get("/events", cartcontrollers.CartEvents(cartService, cfg.HTTP.EventsHeartbeat, logg))
			r.Post("/items", cartcontrollers.CartAddItem(cartService, logg))
			r.Patch("/items/{productID}", cartcontrollers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{productID}", cartcontrollers.CartRemoveItem(cartService, logg))
		})
		r.Get("/products", cartcontrollers.ProductsList(catalog, cartService, logg))
	})

	return r
}
