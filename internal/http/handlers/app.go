package handlers

import (
	"encoding/json"
	"net/http"

	"contentflow/internal/callback"
	"contentflow/internal/dispatch"
	"contentflow/internal/infra"
	"contentflow/internal/publish"
	"contentflow/internal/reaper"
)

// App bundles the orchestration services behind the HTTP surface.
type App struct {
	Trigger   *dispatch.Trigger
	Callbacks *callback.Router
	Publisher *publish.Publisher
	Reaper    *reaper.Reaper
	Logger    infra.Logger
}

// NewApp wires the handler container.
func NewApp(trigger *dispatch.Trigger, callbacks *callback.Router, publisher *publish.Publisher, rpr *reaper.Reaper, logger infra.Logger) *App {
	return &App{
		Trigger:   trigger,
		Callbacks: callbacks,
		Publisher: publisher,
		Reaper:    rpr,
		Logger:    logger,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]any{"error": kind, "message": message})
}
