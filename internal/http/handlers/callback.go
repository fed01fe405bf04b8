package handlers

import (
	"context"
	"io"
	"net/http"

	"contentflow/internal/callback"
)

// ProcessingCallback receives completion reports from external workers.
//
// The worker enforces a response deadline, so a well-formed callback is
// acked with 202 before reconciliation touches the store; reconciliation
// runs detached and its failures feed logging only. A callback lost to a
// process exit mid-reconciliation is accepted at-most-once risk.
func (a *App) ProcessingCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable body")
		return
	}

	env, err := callback.ParseEnvelope(body)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "malformed callback payload")
		return
	}
	if env.Type == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "missing type discriminator")
		return
	}

	a.json(w, http.StatusAccepted, map[string]any{"accepted": true})

	ctx := context.WithoutCancel(r.Context())
	go a.Callbacks.Reconcile(ctx, env)
}
