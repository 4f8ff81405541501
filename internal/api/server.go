package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ryanbastic/go-contentstore/internal/content"
	"github.com/ryanbastic/go-contentstore/internal/element"
	"github.com/ryanbastic/go-contentstore/internal/metrics"
	"github.com/ryanbastic/go-contentstore/internal/search"
	"github.com/ryanbastic/go-contentstore/internal/trigger"
)

// Deps are the services the HTTP API is built on. Searcher and Backends are
// optional.
type Deps struct {
	Logger   *slog.Logger
	Content  *content.Service
	Types    *element.Registry
	Searcher search.Searcher
	Plugins  *trigger.PluginRegistry
	Backends map[string]Pinger
}

// NewServer creates an HTTP server with all routes configured.
func NewServer(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Plugins == nil {
		d.Plugins = trigger.NewPluginRegistry()
	}

	mux := chi.NewRouter()

	mux.Use(RequestID)
	mux.Use(Logging(d.Logger))
	mux.Use(Recovery(d.Logger))
	mux.Use(metrics.Metrics)

	api := humachi.New(mux, huma.DefaultConfig("Content Store API", "1.0.0"))

	events := NewEventHandler(d.Content.Events(), d.Types, d.Logger)
	registerContentRoutes(api, NewContentHandler(d.Content, d.Types, d.Logger))
	registerSearchRoutes(api, NewSearchHandler(d.Searcher, d.Logger))
	registerEventRoutes(api, events)
	registerPluginRoutes(api, NewPluginHandler(d.Plugins, d.Types, d.Logger))

	health := NewHealthHandler(d.Backends, d.Logger)
	mux.Get("/v1/resources/*", events.ServeResource)
	mux.Get("/v1/livez", health.Livez)
	mux.Get("/v1/readyz", health.Readyz)
	// Backward-compatible alias
	mux.Get("/v1/health", health.Readyz)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}
