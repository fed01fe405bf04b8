package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"contentflow/internal/callback"
)

func postCallback(t *testing.T, app *App, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/callbacks/processing", strings.NewReader(body))
	rec := httptest.NewRecorder()
	app.ProcessingCallback(rec, req)
	return rec
}

func TestProcessingCallbackRejectsMalformedBody(t *testing.T) {
	app := &App{Callbacks: callback.NewRouter(zerolog.Nop()), Logger: zerolog.Nop()}
	rec := postCallback(t, app, `{"type":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body)
	}
}

func TestProcessingCallbackRejectsMissingType(t *testing.T) {
	app := &App{Callbacks: callback.NewRouter(zerolog.Nop()), Logger: zerolog.Nop()}
	rec := postCallback(t, app, `{"work_item_id":"wi-1","status":"completed"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body)
	}
}

func TestProcessingCallbackAcksUnknownType(t *testing.T) {
	app := &App{Callbacks: callback.NewRouter(zerolog.Nop()), Logger: zerolog.Nop()}
	rec := postCallback(t, app, `{"type":"weather_report"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body)
	}
}

// The worker times out waiting for a response, so the ack must not wait for
// reconciliation. The reconciler here blocks until released; the handler has
// to return 202 while it is still blocked.
func TestProcessingCallbackAcksBeforeReconciliation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	router := callback.NewRouter(zerolog.Nop())
	router.Register("submission_processing_complete", callback.ReconcilerFunc(func(ctx context.Context, env *callback.Envelope) error {
		close(started)
		<-release
		close(done)
		return nil
	}))
	app := &App{Callbacks: router, Logger: zerolog.Nop()}

	rec := postCallback(t, app, `{"type":"submission_processing_complete","submission_id":"sub-1","status":"completed","content_item_id":"ci-1"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body)
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler never started")
	}
	select {
	case <-done:
		t.Fatal("reconciliation finished before the handler was allowed to ack")
	default:
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler never finished after release")
	}
}
