package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"contentflow/internal/domain"
	"contentflow/internal/publish"
)

type fakeDerivatives struct {
	byItem map[string][]domain.Derivative
}

func (f *fakeDerivatives) ListByContentItem(_ context.Context, id string) ([]domain.Derivative, error) {
	return f.byItem[id], nil
}

func postPublish(t *testing.T, app *App, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/content/publish", strings.NewReader(body))
	rec := httptest.NewRecorder()
	app.PublishContent(rec, req)
	return rec
}

func TestPublishContentWithoutPlatformConfigured(t *testing.T) {
	items := &fakeItems{items: map[string]*domain.WorkItem{
		"ci-1": {ID: "ci-1", Kind: domain.KindContentItem, Status: domain.StatusCompleted},
	}}
	publisher := publish.NewPublisher(items, &fakeDerivatives{}, nil, nil, "", "Blog", zerolog.Nop())
	app := &App{Publisher: publisher, Logger: zerolog.Nop()}

	rec := postPublish(t, app, `{"content_item_id":"ci-1"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503: %s", rec.Code, rec.Body)
	}

	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.Success || resp.Error == "" {
		t.Fatalf("want {success:false, error:...}, got %s", rec.Body)
	}
}

func TestPublishContentRequiresContentItemID(t *testing.T) {
	app := &App{Logger: zerolog.Nop()}
	rec := postPublish(t, app, `{"user_id":"user-1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body)
	}
}
