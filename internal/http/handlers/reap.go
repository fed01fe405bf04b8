package handlers

import "net/http"

// SweepTimeouts force-fails work items stuck in processing past their
// deadline. Intended for cron-style invocation; the standalone reaper binary
// drives the same sweep on a ticker.
func (a *App) SweepTimeouts(w http.ResponseWriter, r *http.Request) {
	result, err := a.Reaper.Sweep(r.Context())
	if err != nil {
		a.error(w, http.StatusInternalServerError, "sweep_failed", err.Error())
		return
	}
	a.json(w, http.StatusOK, result)
}
