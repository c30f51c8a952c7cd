// Package server wires the drinks API routes, their required permissions and
// the cross-cutting middleware into an http.Server.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/coffeeshop/coffeeshop-go/internal/config"
	"github.com/coffeeshop/coffeeshop-go/internal/handler"
	"github.com/coffeeshop/coffeeshop-go/internal/middleware"
)

// Permissions required by the protected drinks routes.
const (
	PermGetDrinksDetail = "get:drinks-detail"
	PermPostDrinks      = "post:drinks"
	PermPatchDrinks     = "patch:drinks"
	PermDeleteDrinks    = "delete:drinks"
)

// Server holds everything route registration needs.
type Server struct {
	cfg      config.Config
	drinks   *handler.DrinkHandler
	verifier middleware.Verifier
}

// New creates a Server.
func New(cfg config.Config, drinks *handler.DrinkHandler, verifier middleware.Verifier) *Server {
	return &Server{cfg: cfg, drinks: drinks, verifier: verifier}
}

// Routes returns the HTTP handler serving the API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, http.StatusNotFound, handler.StatusMessage(http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, http.StatusMethodNotAllowed, handler.StatusMessage(http.StatusMethodNotAllowed))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/drinks", handler.Handle(s.drinks.HandleListDrinks))
	r.With(s.require(PermGetDrinksDetail)).Get("/drinks-detail", handler.Handle(s.drinks.HandleListDrinks))
	r.With(s.require(PermPostDrinks)).Post("/drinks", handler.Handle(s.drinks.HandleCreateDrink))
	r.With(s.require(PermPatchDrinks)).Patch("/drinks/{id}", handler.Handle(s.drinks.HandleUpdateDrink))
	r.With(s.require(PermDeleteDrinks)).Delete("/drinks/{id}", handler.Handle(s.drinks.HandleDeleteDrink))

	return r
}

// HTTPServer returns an http.Server listening on the configured port.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (s *Server) require(permission string) func(http.Handler) http.Handler {
	return middleware.RequirePermission(s.verifier, permission)
}
