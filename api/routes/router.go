package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/campground-backend/api/controllers"
	"github.com/angelmondragon/campground-backend/api/middleware"
	"github.com/angelmondragon/campground-backend/internal/auth"
	"github.com/angelmondragon/campground-backend/internal/bookings"
	"github.com/angelmondragon/campground-backend/internal/campgrounds"
	"github.com/angelmondragon/campground-backend/internal/paymentmethods"
	"github.com/angelmondragon/campground-backend/internal/transactions"
	"github.com/angelmondragon/campground-backend/pkg/auth/session"
	"github.com/angelmondragon/campground-backend/pkg/config"
	"github.com/angelmondragon/campground-backend/pkg/enums"
	"github.com/angelmondragon/campground-backend/pkg/logger"
	"github.com/angelmondragon/campground-backend/pkg/metrics"
)

// redisStore is the slice of the redis client consumed by the rate limit
// and idempotency middleware.
type redisStore interface {
	middleware.IdempotencyStore
	Ping(ctx context.Context) error
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Services groups the domain services mounted by the router.
type Services struct {
	Auth           auth.Service
	Campgrounds    campgrounds.Service
	Bookings       bookings.Service
	PaymentMethods paymentmethods.Service
	Transactions   transactions.Service
}

// Infra groups the shared clients the router needs beyond the services.
type Infra struct {
	DB       controllers.Pinger
	Redis    redisStore
	Sessions session.AccessSessionChecker
	Registry *prometheus.Registry
}

type httpObserver interface {
	Observe(method, route string, status int, elapsed time.Duration)
}

// observerOrNil keeps a nil *HTTPMetrics from becoming a non-nil interface.
func observerOrNil(m *metrics.HTTPMetrics) httpObserver {
	if m == nil {
		return nil
	}
	return m
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()

	var httpMetrics *metrics.HTTPMetrics
	if infra.Registry != nil {
		httpMetrics = metrics.NewHTTPMetrics(infra.Registry, cfg.Service.Kind)
	}

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(observerOrNil(httpMetrics)),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.RateLimit(infra.Redis, cfg.RateLimit.Limit, cfg.RateLimit.Window, logg),
	)
	if cfg.App.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.App.RequestTimeout))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	requireAuth := middleware.Auth(cfg.JWT, infra.Sessions, logg)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, infra.Sessions, logg)
	idempotent := middleware.Idempotency(infra.Redis, logg)
	adminOnly := middleware.RequireRole(logg, enums.UserRoleAdmin)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    infra.DB,
			"redis": infra.Redis,
		}))
	})

	if infra.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(infra.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, infra.Redis, logg), idempotent).
			Post("/register", controllers.AuthRegister(svc.Auth, cfg, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, infra.Redis, logg)).
			Post("/login", controllers.AuthLogin(svc.Auth, cfg, logg))
		r.With(requireAuth).Get("/me", controllers.AuthMe(svc.Auth, logg))
		r.With(optionalAuth).Get("/logout", controllers.AuthLogout(svc.Auth, cfg, logg))
	})

	r.Route("/api/v1/campgrounds", func(r chi.Router) {
		r.Get("/", controllers.CampgroundList(svc.Campgrounds, logg))
		r.With(requireAuth, adminOnly).Post("/", controllers.CampgroundCreate(svc.Campgrounds, logg))

		r.Get("/{id}", controllers.CampgroundGet(svc.Campgrounds, logg))
		r.With(requireAuth, adminOnly).Put("/{id}", controllers.CampgroundUpdate(svc.Campgrounds, logg))
		r.With(requireAuth, adminOnly).Delete("/{id}", controllers.CampgroundDelete(svc.Campgrounds, logg))

		r.With(requireAuth).Get("/{campgroundId}/bookings", controllers.BookingList(svc.Bookings, logg))
		r.With(requireAuth, idempotent).Post("/{campgroundId}/bookings", controllers.BookingCreate(svc.Bookings, logg))
	})

	r.Route("/api/v1/bookings", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", controllers.BookingList(svc.Bookings, logg))
		r.Get("/{id}", controllers.BookingGet(svc.Bookings, logg))
		r.Put("/{id}", controllers.BookingUpdate(svc.Bookings, logg))
		r.Delete("/{id}", controllers.BookingDelete(svc.Bookings, logg))
	})

	r.Route("/api/v1/paymentmethod", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", controllers.PaymentMethodList(svc.PaymentMethods, logg))
		r.With(idempotent).Post("/", controllers.PaymentMethodAdd(svc.PaymentMethods, logg))
		r.Get("/{id}", controllers.PaymentMethodGet(svc.PaymentMethods, logg))
		r.Put("/{id}", controllers.PaymentMethodUpdate(svc.PaymentMethods, logg))
		r.Delete("/{id}", controllers.PaymentMethodDelete(svc.PaymentMethods, logg))
	})

	r.Route("/api/v1/transaction", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", controllers.TransactionList(svc.Transactions, logg))
		r.Get("/{id}", controllers.TransactionGet(svc.Transactions, logg))
	})

	return r
}
