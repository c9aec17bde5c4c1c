package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecomgo/reviews/pkg/health"
	"github.com/ecomgo/reviews/pkg/middleware"
)

// RouterConfig collects what the router mounts.
type RouterConfig struct {
	GraphQL     http.Handler
	Health      *health.Handler
	Validator   middleware.TokenValidator
	CORSOrigins []string
	PprofCIDRs  []string
	RateRPS     float64
	RateBurst   int

	// Media serves locally stored files under the path of MediaBaseURL.
	// Nil when files live elsewhere.
	Media        http.Handler
	MediaBaseURL string
}

// NewRouter creates a chi router with all review service routes registered.
func NewRouter(cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing())
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.CORSOrigins}))
	r.Use(middleware.PrometheusMetrics("review"))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	if cfg.Media != nil {
		prefix := mediaPath(cfg.MediaBaseURL)
		r.Handle(prefix+"/*", http.StripPrefix(prefix, cfg.Media))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateRPS, cfg.RateBurst, logger))
		r.Use(middleware.OptionalAuth(cfg.Validator))
		r.Use(middleware.RequestLogger(logger))
		r.Method(http.MethodPost, "/graphql", cfg.GraphQL)
	})

	return r
}

// mediaPath extracts the path component of baseURL, defaulting to /media.
func mediaPath(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || strings.Trim(u.Path, "/") == "" {
		return "/media"
	}
	return "/" + strings.Trim(u.Path, "/")
}
