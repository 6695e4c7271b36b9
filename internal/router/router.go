package router

import (
	"net/http"

	"bistro-checkout/internal/handler"
	"bistro-checkout/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Options configures the router.
type Options struct {
	APIKey         string
	AllowedOrigins []string
	// Gatherer serves /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// New creates a new HTTP router with all routes and middleware configured.
func New(
	checkoutHandler *handler.CheckoutHandler,
	submissionHandler *handler.SubmissionHandler,
	healthHandler *handler.HealthHandler,
	opts Options,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Recovery -> RequestID -> Logging -> CORS -> APIKeyAuth
	r.Use(
		middleware.Recovery(logger),
		middleware.RequestID(logger),
		middleware.Logging(logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.APIKeyAuth(opts.APIKey, logger),
	)

	r.Get("/health", healthHandler.Health)
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/checkout/sessions", func(r chi.Router) {
			r.Post("/", checkoutHandler.Open)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", checkoutHandler.Get)
				r.Delete("/", checkoutHandler.Close)
				r.Put("/fulfillment", checkoutHandler.SetFulfillment)
				r.Post("/addresses", checkoutHandler.AddAddress)
				r.Put("/addresses/{addressID}", checkoutHandler.EditAddress)
				r.Put("/addresses/{addressID}/default", checkoutHandler.SetDefaultAddress)
				r.Put("/payment", checkoutHandler.SetPaymentMethod)
				r.Put("/cash", checkoutHandler.SetCashTendered)
				r.Put("/redemption", checkoutHandler.SetRedemption)
				r.Get("/ingredients/{ingredientID}", checkoutHandler.LookupIngredient)
				r.Post("/submit", checkoutHandler.Submit)
			})
		})

		r.Get("/users/{userID}/submissions", submissionHandler.ListByUser)
	})

	return r
}
