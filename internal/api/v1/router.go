package v1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"learning-hub/internal/client/settings"
	"learning-hub/internal/hub/auth"
	"learning-hub/internal/hub/handlers"
	"learning-hub/internal/hub/store"
	"learning-hub/internal/logging"
)

// RuntimeInfo describes the pieces of server configuration that the UI exposes.
type RuntimeInfo struct {
	Name        string `json:"name"`
	Addr        string `json:"addr"`
	Port        string `json:"port"`
	ReadTimeout string `json:"readTimeout"`
	DataPath    string `json:"dataPath"`
}

// Options configures the HTTP router.
type Options struct {
	Logger      logging.Logger
	RuntimeInfo RuntimeInfo
	Store       *store.Store
	Sessions    *auth.Manager
	Client      settings.Settings
	// Static serves the browser client assets under /static/.
	Static           http.Handler
	SuggestionLimit  int
	SuggestionWindow time.Duration
}

// NewRouter constructs the HTTP router for the hub pages and API.
func NewRouter(opts Options) (http.Handler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.New()
	}
	st := opts.Store
	if st == nil {
		cat, err := store.DefaultCatalogue()
		if err != nil {
			return nil, err
		}
		st = store.New(cat)
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = auth.NewManager(auth.Config{})
	}
	client := opts.Client.Normalize()

	pages, err := handlers.NewPages(handlers.PageOptions{
		Store:    st,
		Sessions: sessions,
		Settings: client,
		Logger:   logging.WithPrefix(logger, "pages: "),
	})
	if err != nil {
		return nil, fmt.Errorf("build pages: %w", err)
	}
	api := handlers.NewAPI(handlers.Options{
		Store:            st,
		Settings:         client,
		Logger:           logging.WithPrefix(logger, "api: "),
		SuggestionLimit:  opts.SuggestionLimit,
		SuggestionWindow: opts.SuggestionWindow,
	})

	r := chi.NewRouter()
	r.Use(middleware.Recoverer, handlers.Metrics)

	r.Get("/api/server/config", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, opts.RuntimeInfo)
	})
	r.Handle("/metrics", promhttp.Handler())
	if opts.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static", opts.Static))
	}

	r.Group(func(r chi.Router) {
		r.Use(handlers.LimitBody(handlers.BodyLimit(client)), handlers.Identify(sessions), handlers.CSRF(client.CSRFCookie))
		api.Routes(r)
		pages.Routes(r)
	})

	return logging.WithHTTPLogging(r, logger, logging.HTTPLogOptions{
		SkipPrefixes: []string{"/static/", "/metrics"},
	}), nil
}

func respondJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
