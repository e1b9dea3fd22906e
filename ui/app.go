// Package ui serves the threshold report over HTTP: an HTML summary page
// rendered from the markdown report, plus JSON endpoints for the raw result
// records.
package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"psychofit/internal"
	"psychofit/ports"
)

// App represents the report web application
type App struct {
	router  *chi.Mux
	results ports.ResultRepository
	logger  *internal.Logger
}

// Config holds UI application configuration
type Config struct {
	Port string
}

// NewApp creates the report application over a result repository
func NewApp(results ports.ResultRepository) *App {
	app := &App{
		router:  chi.NewRouter(),
		results: results,
		logger:  internal.DefaultLogger,
	}
	app.setupMiddleware()
	app.setupRoutes()
	return app
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
}

func (a *App) setupRoutes() {
	a.router.Get("/", a.handleReport)
	a.router.Route("/api", func(r chi.Router) {
		r.Get("/results", a.handleListResults)
		r.Get("/results/{runID}", a.handleGetResult)
		r.Get("/results/{runID}/curve", a.handleGetCurve)
	})
}

// Handler returns the HTTP handler for the app
func (a *App) Handler() http.Handler {
	return a.router
}

// Serve starts the HTTP server on the configured port
func (a *App) Serve(cfg Config) error {
	addr := ":" + cfg.Port
	a.logger.Info("report ui listening on %s", addr)
	return http.ListenAndServe(addr, a.router)
}
