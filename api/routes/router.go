package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/mercadito-backend/api/controllers"
	"github.com/angelmondragon/mercadito-backend/api/middleware"
	"github.com/angelmondragon/mercadito-backend/internal/auth"
	"github.com/angelmondragon/mercadito-backend/internal/cart"
	"github.com/angelmondragon/mercadito-backend/internal/orders"
	product "github.com/angelmondragon/mercadito-backend/internal/products"
	"github.com/angelmondragon/mercadito-backend/internal/stores"
	"github.com/angelmondragon/mercadito-backend/internal/users"
	"github.com/angelmondragon/mercadito-backend/pkg/config"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	"github.com/angelmondragon/mercadito-backend/pkg/logger"
	"github.com/angelmondragon/mercadito-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/mercadito-backend/pkg/redis"
)

// RedisStore is the slice of the Redis client the HTTP layer needs for rate
// limiting and idempotency.
type RedisStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// Deps is everything NewRouter wires into handlers.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	Redis         RedisStore
	Authenticator *middleware.Authenticator
	HTTPMetrics   *metrics.HTTPMetrics
	Gatherer      prometheus.Gatherer
	Ready         map[string]controllers.Pinger

	Auth     auth.Service
	Register auth.RegisterService
	Users    users.Service
	Stores   stores.Service
	Products product.Service
	Cart     cart.Service
	Sessions cart.SessionResolver
	Orders   orders.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	authn := d.Authenticator

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.RateLimit(middleware.NewRateLimitPolicy(
			"global",
			cfg.RateLimit.GlobalWindow,
			cfg.RateLimit.GlobalIPLimit,
			0,
		), d.Redis, logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, d.Ready, logg))
	})
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	loginPolicy := middleware.NewRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewRateLimitPolicy(
		"register",
		cfg.RateLimit.RegisterWindow,
		cfg.RateLimit.RegisterIPLimit,
		cfg.RateLimit.RegisterEmailLimit,
	)
	staff := middleware.RequireRole(logg, enums.RoleAdmin, enums.RoleSuperAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(
				middleware.RateLimit(registerPolicy, d.Redis, logg),
				middleware.Idempotency(d.Redis, middleware.RegisterIdempotencyTTL, logg),
			).Post("/register", controllers.AuthRegister(d.Register, logg))
			r.With(middleware.RateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))

			r.Group(func(r chi.Router) {
				r.Use(authn.Required)
				r.Post("/logout", controllers.AuthLogout(d.Auth, logg))
				r.Get("/me", controllers.AuthMe(d.Auth, logg))
				r.Put("/update-profile", controllers.AuthUpdateProfile(d.Users, logg))
				r.Put("/change-password", controllers.AuthChangePassword(d.Auth, logg))

				r.Route("/locations", func(r chi.Router) {
					r.Post("/", controllers.LocationAdd(d.Users, logg))
					r.Get("/current", controllers.LocationCurrent(d.Users, logg))
					r.Put("/{locationId}", controllers.LocationUpdate(d.Users, logg))
					r.Delete("/{locationId}", controllers.LocationDelete(d.Users, logg))
					r.Put("/{locationId}/set-current", controllers.LocationSetCurrent(d.Users, logg))
				})
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authn.Required)
			r.Use(middleware.RequireRole(logg, enums.RoleSuperAdmin))
			r.Get("/", controllers.UserList(d.Users, logg))
			r.Post("/", controllers.UserCreate(d.Users, logg))
			r.Get("/{id}", controllers.UserGet(d.Users, logg))
			r.Put("/{id}", controllers.UserUpdate(d.Users, logg))
			r.Delete("/{id}", controllers.UserDelete(d.Users, logg))
		})

		r.Route("/stores", func(r chi.Router) {
			r.With(authn.Optional).Get("/", controllers.StoreList(d.Stores, logg))
			r.With(authn.Required, staff).Post("/", controllers.StoreCreate(d.Stores, logg))

			r.Route("/{storeId}", func(r chi.Router) {
				r.With(authn.Optional).Get("/", controllers.StoreGet(d.Stores, logg))
				r.With(authn.Required, staff).Put("/", controllers.StoreUpdate(d.Stores, logg))
				r.With(authn.Required, staff).Delete("/", controllers.StoreDelete(d.Stores, logg))

				r.Route("/products", func(r chi.Router) {
					r.With(authn.Optional).Get("/", controllers.ProductList(d.Products, logg))
					r.With(authn.Optional).Get("/{productId}", controllers.ProductGet(d.Products, logg))

					r.Group(func(r chi.Router) {
						r.Use(authn.Required, staff)
						r.Post("/", controllers.ProductCreate(d.Products, logg))
						r.Put("/{productId}", controllers.ProductUpdate(d.Products, logg))
						r.Delete("/{productId}", controllers.ProductDelete(d.Products, logg))
						r.Put("/{productId}/toggle-status", controllers.ProductToggleStatus(d.Products, logg))
					})
				})
			})
		})

		cartHandlers := controllers.CartHandlers{Service: d.Cart, Sessions: d.Sessions, Logger: logg}
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandlers.Get())
			r.Post("/add", cartHandlers.Add())
			r.Put("/update", cartHandlers.Update())
			r.Delete("/remove", cartHandlers.Remove())
			r.Delete("/clear", cartHandlers.Clear())
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(
				authn.Optional,
				middleware.Idempotency(d.Redis, middleware.OrderIdempotencyTTL, logg),
			).Post("/create", controllers.OrderCreate(d.Orders, logg))

			r.Route("/admin", func(r chi.Router) {
				r.Use(authn.Required, staff)
				r.Get("/stats", controllers.OrderStats(d.Orders, logg))
				r.Get("/orders", controllers.OrderAdminList(d.Orders, logg))
				r.Get("/orders/{orderId}", controllers.OrderAdminGet(d.Orders, logg))
				r.Put("/orders/{orderId}/status", controllers.OrderUpdateStatus(d.Orders, logg))
				r.Put("/orders/{orderId}/payment", controllers.OrderUpdatePayment(d.Orders, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(authn.Required)
				r.Get("/my-orders", controllers.MyOrders(d.Orders, logg))
				r.Get("/my-orders/{orderId}", controllers.MyOrder(d.Orders, logg))
			})
		})
	})

	return r
}
