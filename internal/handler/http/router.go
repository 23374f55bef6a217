package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/astrozeneka/review-dashboard-flex-living/pkg/health"
	"github.com/astrozeneka/review-dashboard-flex-living/pkg/middleware"
)

const maxBodyBytes = 1 << 20 // 1 MB

// RouterConfig bundles everything the router needs.
type RouterConfig struct {
	Logger         *slog.Logger
	ServiceName    string
	CORS           middleware.CORSConfig
	TokenValidator middleware.TokenValidator
	Reviews        *ReviewHandler
	Users          *UserHandler
	Listings       *ListingHandler
	Sync           *SyncHandler
	Health         *health.Handler
}

// NewRouter assembles the full middleware stack and route table.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(limitBody(maxBodyBytes))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", cfg.Users.Login)
		r.Post("/users", cfg.Users.Register)

		r.Get("/reviews/channels", cfg.Reviews.Channels)

		// The catalog only changes when properties are onboarded, so
		// browsers may cache it for a few minutes. The detail endpoint
		// carries live stats and stays uncached.
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(300))
			r.Get("/listings", cfg.Listings.List)
		})
		r.Get("/listings/{id}", cfg.Listings.Get)
		r.Get("/listings/{id}/reviews", cfg.Listings.Reviews)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.TokenValidator))
			r.Get("/reviews", cfg.Reviews.List)
			r.Post("/reviews/{id}/approve", cfg.Reviews.Approve)
			r.Post("/places/sync", cfg.Sync.Run)
		})
	})

	return r
}

func limitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
