// Package api assembles the HTTP router and server lifecycle.
package api

import (
	"context"
	"net"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/adminpanel/pkg/audit"
	"github.com/platinummonkey/adminpanel/pkg/config"
	"github.com/platinummonkey/adminpanel/pkg/httputil"
	"github.com/platinummonkey/adminpanel/pkg/middleware"
	"github.com/platinummonkey/adminpanel/pkg/observability"
	"github.com/platinummonkey/adminpanel/pkg/users"
)

// Deps are the wired components the server routes to
type Deps struct {
	Logger  *observability.Logger
	Metrics *observability.Metrics
	Health  *observability.HealthChecker

	Users    *users.Handler
	Audit    *audit.Handler
	Recorder *audit.Recorder
	Auth     *middleware.AuthMiddleware

	// RateLimiter is optional; nil disables rate limiting
	RateLimiter *middleware.DistributedRateLimiter
}

// Server is the admin panel HTTP server
type Server struct {
	cfg        config.ServerConfig
	logger     *observability.Logger
	httpServer *http.Server
	router     *mux.Router
}

// NewServer builds the router and server from the wired dependencies
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	router := mux.NewRouter()

	router.Use(httputil.RequestIDMiddleware)
	router.Use(httputil.RecoveryMiddleware(deps.Logger))
	router.Use(httputil.LoggingMiddleware(deps.Logger))
	if deps.Metrics != nil {
		router.Use(metricsMiddleware(deps.Metrics))
	}

	router.HandleFunc("/healthz", deps.Health.Liveness).Methods("GET")
	router.HandleFunc("/readyz", deps.Health.Readiness).Methods("GET")
	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")
	}

	apiRouter := router.PathPrefix("/api").Subrouter()
	if deps.RateLimiter != nil {
		apiRouter.Use(deps.RateLimiter.Handler(deps.Logger, deps.Metrics))
	}
	apiRouter.Use(deps.Auth.Handler)
	// The recorder sits inside auth so it can read the resolved claims
	apiRouter.Use(deps.Recorder.Handler)

	deps.Users.RegisterRoutes(apiRouter)
	deps.Audit.RegisterRoutes(apiRouter)

	return &Server{
		cfg:    cfg,
		logger: deps.Logger,
		router: router,
		httpServer: &http.Server{
			Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Router exposes the assembled router, mainly for tests
func (s *Server) Router() *mux.Router {
	return s.router
}

// Start begins serving requests, blocking until shutdown or failure
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// metricsMiddleware instruments requests using the route template as the
// path label to keep metric cardinality bounded
func metricsMiddleware(metrics *observability.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tmpl, err := route.GetPathTemplate(); err == nil {
					path = tmpl
				}
			}
			metrics.InstrumentHandler(path, next).ServeHTTP(w, r)
		})
	}
}
