package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"contentflow/internal/http/handlers"
	"contentflow/internal/infra"
	"contentflow/internal/middleware"
)

// NewRouter builds the API surface.
func NewRouter(app *handlers.App, cfg *infra.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(cfg.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
		r.Post("/v1/workitems/dispatch", app.DispatchWorkItem)
		r.Post("/v1/content/publish", app.PublishContent)
	})

	// Callbacks come from the automation engine, not browsers; no rate
	// limit so a burst of completions is never bounced.
	r.Post("/v1/callbacks/processing", app.ProcessingCallback)
	r.Post("/v1/reaper/sweep", app.SweepTimeouts)

	return r
}
