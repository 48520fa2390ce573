package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kasirpos/kasir-terminal/api/controllers"
	cartcontrollers "github.com/kasirpos/kasir-terminal/api/controllers/cart"
	"github.com/kasirpos/kasir-terminal/api/middleware"
	"github.com/kasirpos/kasir-terminal/internal/cart"
	"github.com/kasirpos/kasir-terminal/internal/catalog"
	checkoutsvc "github.com/kasirpos/kasir-terminal/internal/checkout"
	"github.com/kasirpos/kasir-terminal/internal/receipt"
	"github.com/kasirpos/kasir-terminal/pkg/config"
	"github.com/kasirpos/kasir-terminal/pkg/logger"
)

// NewRouter mounts the cashier API. redisPinger may be nil when carts live in
// memory; metricsHandler may be nil to leave /metrics unmounted.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisPinger controllers.Pinger,
	metricsHandler http.Handler,
	catalogService catalog.Service,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	receiptService receipt.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, redisPinger, logg))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/products", controllers.CatalogProducts(catalogService, logg))
		r.Get("/products/{productID}", controllers.CatalogProduct(catalogService, logg))
		r.Get("/categories", controllers.CatalogCategories(catalogService, logg))
		r.Get("/payment-methods", controllers.CatalogPaymentMethods(catalogService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(cartService, logg))
			r.Delete("/", cartcontrollers.CartClear(cartService, logg))
			r.Post("/items", cartcontrollers.CartAddItem(cartService, logg))
			r.Post("/items/{productID}/decrement", cartcontrollers.CartDecrementItem(cartService, logg))
			r.Delete("/items/{productID}", cartcontrollers.CartRemoveItem(cartService, logg))
			r.Post("/refresh", cartcontrollers.CartRefresh(cartService, logg))
		})

		r.Post("/checkout", controllers.CheckoutSubmit(checkoutService, logg))

		r.Route("/receipts/{orderID}", func(r chi.Router) {
			r.Get("/", controllers.ReceiptFetch(receiptService, logg))
			r.Get("/text", controllers.ReceiptText(receiptService, logg))
			r.Post("/email", controllers.ReceiptEmail(receiptService, logg))
		})
	})

	return r
}
