// Package server exposes the recommendation engine over HTTP.
package server

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"peermatch/internal/config"
	"peermatch/internal/recommend"
)

// Server wires the orchestrator to the chi router.
type Server struct {
	svc     *recommend.Service
	cfg     config.ServerConfig
	auth    *authenticator
	limiter *clientLimiter
}

// New builds the server. The JWT signing secret is read from the environment
// variable named in the config; login is disabled (401 on every data route)
// when it is unset and accounts are configured.
func New(svc *recommend.Service, cfg config.ServerConfig) (*Server, error) {
	secret := os.Getenv(cfg.JWTSecretEnv)
	if len(cfg.Accounts) > 0 && secret == "" {
		return nil, fmt.Errorf("accounts configured but %s is unset", cfg.JWTSecretEnv)
	}
	auth := newAuthenticator([]byte(secret), time.Duration(cfg.TokenTTLMins)*time.Minute, cfg.Accounts)
	return &Server{
		svc:     svc,
		cfg:     cfg,
		auth:    auth,
		limiter: newClientLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}, nil
}

// Router assembles the route tree. Data routes sit behind request-ID,
// rate-limit and (when accounts are configured) JWT auth middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(s.limiter.middleware)
		r.Post("/login", s.handleLogin)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.middleware)
		r.Use(s.auth.middleware)

		r.Get("/students", s.handleSearch)
		r.Post("/students", s.handleAddStudent)
		r.Get("/students/{id}", s.handleGetStudent)
		r.Get("/students/{id}/recommendations", s.handleRecommendations)
		r.Get("/ranking", s.handleRanking)
		r.Get("/models/compare", s.handleCompareModels)
	})

	return r
}

// ListenAndServe runs the HTTP server until it fails.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
