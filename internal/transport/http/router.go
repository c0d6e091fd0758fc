package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"betahub/internal/handler"
	"betahub/internal/httputil"
	"betahub/internal/metrics"
	appmw "betahub/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	TesterRequestHandler *handler.TesterRequestHandler
	CheckInHandler       *handler.CheckInHandler
	LeaderboardHandler   *handler.LeaderboardHandler
	AdminHandler         *handler.AdminHandler
	CheckInLimiter       *appmw.RateLimiter // nil disables rate limiting
	JWTSecret            string
	Logger               logrus.FieldLogger // request log destination; chi's default logger when nil
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: cfg.Logger, NoColor: true}))
	} else {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFound(w, "Not found.")
	})
	r.MethodNotAllowed(methodNotAllowed())

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/check-in", func(r chi.Router) {
		if cfg.CheckInLimiter != nil {
			r.Use(cfg.CheckInLimiter.Handler)
		}
		r.MethodNotAllowed(methodNotAllowed(http.MethodPost))
		r.Post("/", cfg.CheckInHandler.CheckIn)
	})

	r.Route("/api/tester-requests", func(r chi.Router) {
		r.MethodNotAllowed(methodNotAllowed(http.MethodGet, http.MethodPost))
		r.Get("/", cfg.TesterRequestHandler.List)
		r.Post("/", cfg.TesterRequestHandler.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.MethodNotAllowed(methodNotAllowed(http.MethodPatch))
			r.With(appmw.AdminOnly(cfg.JWTSecret)).Patch("/", cfg.TesterRequestHandler.Review)
		})
	})

	r.Route("/api/apps/{appId}/leaderboard", func(r chi.Router) {
		r.MethodNotAllowed(methodNotAllowed(http.MethodGet))
		r.Get("/", cfg.LeaderboardHandler.Top)
	})

	r.Route("/api/admin/login", func(r chi.Router) {
		r.MethodNotAllowed(methodNotAllowed(http.MethodPost))
		r.Post("/", cfg.AdminHandler.Login)
	})

	return r
}

// methodNotAllowed answers 405 with a JSON body and the route's Allow header.
func methodNotAllowed(allowed ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteMethodNotAllowed(w, r.Method, allowed...)
	}
}
