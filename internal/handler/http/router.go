package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikkosUSN/levelup-merch/pkg/health"
	"github.com/MikkosUSN/levelup-merch/pkg/middleware"

	"github.com/MikkosUSN/levelup-merch/internal/auth"
	"github.com/MikkosUSN/levelup-merch/internal/service"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	CartService     *service.CartService
	CheckoutService *service.CheckoutService
	OrderService    *service.OrderService
	ProductService  *service.ProductService
	UserService     *service.UserService
	JWT             *auth.JWTManager
	Health          *health.Handler
	Logger          *slog.Logger
	PprofCIDRs      []string
}

// NewRouter creates a chi router with all routes registered.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.PrometheusMetrics("levelup-merch"))
	r.Use(middleware.Tracing("levelup-merch"))
	r.Use(middleware.RequestLogger(deps.Logger))

	// Health check endpoints
	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, deps.PprofCIDRs, deps.Logger)

	cartHandler := NewCartHandler(deps.CartService, deps.Logger)
	checkoutHandler := NewCheckoutHandler(deps.CheckoutService, deps.Logger)
	orderHandler := NewOrderHandler(deps.OrderService, deps.Logger)
	productHandler := NewProductHandler(deps.ProductService, deps.Logger)
	authHandler := NewAuthHandler(deps.UserService, deps.Logger)

	authenticate := Authenticate(deps.JWT)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Account and token endpoints.
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/forgot-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Get("/me", authHandler.Me)
			})
		})

		// Catalog endpoints. Reads are public, writes are admin-only.
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Get("/{productId}", productHandler.GetProduct)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, RequireAdmin)
				r.Post("/", productHandler.CreateProduct)
				r.Put("/{productId}", productHandler.UpdateProduct)
				r.Delete("/{productId}", productHandler.DeleteProduct)
			})
		})

		// Cart endpoints, keyed by the anonymous session.
		r.Route("/cart", func(r chi.Router) {
			r.Use(Session)

			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)

			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productId}", cartHandler.UpdateItemQuantity)
			r.Delete("/items/{productId}", cartHandler.RemoveItem)
		})

		// Checkout requires both a session and an authenticated user.
		r.Group(func(r chi.Router) {
			r.Use(Session, authenticate)
			r.Post("/checkout", checkoutHandler.Checkout)
		})

		// Order history for the authenticated user.
		r.Route("/orders", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/", orderHandler.ListOrders)
			r.Get("/{orderId}", orderHandler.GetOrder)
		})
	})

	return r
}
