package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hongminglow/finance-dashboard-be/internal/auth"
	"github.com/hongminglow/finance-dashboard-be/internal/config"
	"github.com/hongminglow/finance-dashboard-be/internal/http/handlers"
	"github.com/hongminglow/finance-dashboard-be/internal/http/respond"
	"github.com/hongminglow/finance-dashboard-be/internal/metrics"
	"github.com/hongminglow/finance-dashboard-be/internal/middleware"
	"github.com/hongminglow/finance-dashboard-be/internal/storage"
	"github.com/hongminglow/finance-dashboard-be/internal/transactions"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Auth         *auth.Service
	Users        storage.UserStore
	Transactions transactions.Repository
	Metrics      *metrics.Registry
	Log          *zap.Logger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewRouter(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          zap.NewStdLog(deps.Log),
	}
	return &Server{inner: httpServer}
}

// NewRouter builds the chi router. Auth routes live under /api/auth.
func NewRouter(cfg config.Config, deps Deps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	authz := middleware.NewAuthorizer(deps.Auth, deps.Log, deps.Metrics)
	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Log, deps.Metrics)
	txHandler := handlers.NewTransactionsHandler(deps.Transactions, deps.Log)
	health := handlers.NewHealthHandler(time.Now(), deps.Users)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RealIP(cfg.TrustedProxies))
	r.Use(middleware.Logging(deps.Log))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", health.Handle)
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.AuthRatePerMin > 0 {
					r.Use(middleware.NewRateLimiter(cfg.AuthRatePerMin, deps.Metrics).Middleware)
				}
				r.Post("/register", authHandler.HandleRegister)
				r.Post("/login", authHandler.HandleLogin)
			})
			r.Group(func(r chi.Router) {
				r.Use(authz.RequireAuth)
				r.Get("/protected", authHandler.HandleProtected)
				r.Get("/me", authHandler.HandleMe)
			})
		})

		r.With(authz.OptionalAuth).Get("/dashboard", handlers.HandleDashboard)

		r.Group(func(r chi.Router) {
			r.Use(authz.RequireAuth)
			r.Get("/transactions", txHandler.HandleList)
			r.Get("/transactions/export", txHandler.HandleExport)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
