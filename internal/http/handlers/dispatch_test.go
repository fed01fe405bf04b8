package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"contentflow/internal/dispatch"
	"contentflow/internal/domain"
)

type fakeItems struct {
	items map[string]*domain.WorkItem
}

func (f *fakeItems) GetByID(_ context.Context, id string) (*domain.WorkItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeItems) MarkProcessing(_ context.Context, id string, startedAt, timeoutAt time.Time) error {
	item, ok := f.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	item.Status = domain.StatusProcessing
	item.ProcessingStartedAt = &startedAt
	item.ProcessingTimeoutAt = &timeoutAt
	return nil
}

func (f *fakeItems) MarkFailed(_ context.Context, id, msg string) error {
	item, ok := f.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	item.Status = domain.StatusFailed
	item.LastErrorMessage = msg
	item.ProcessingStartedAt = nil
	item.ProcessingTimeoutAt = nil
	return nil
}

func (f *fakeItems) MarkTerminal(context.Context, string, domain.Status, string, string) error {
	return nil
}
func (f *fakeItems) UpdateStatus(context.Context, string, domain.Status) error { return nil }
func (f *fakeItems) ListExpiredProcessing(context.Context, time.Time) ([]domain.WorkItem, error) {
	return nil, nil
}
func (f *fakeItems) FailExpired(context.Context, []string, string, time.Time) ([]string, error) {
	return nil, nil
}

type fakeChannels struct {
	byName map[string][]domain.WebhookChannel
}

func (f *fakeChannels) ListActiveByName(_ context.Context, name string) ([]domain.WebhookChannel, error) {
	return f.byName[name], nil
}

func newDispatchApp(items *fakeItems, endpointURL string) *App {
	logger := zerolog.Nop()
	channels := &fakeChannels{byName: map[string][]domain.WebhookChannel{
		"idea_processing": {{ID: "ch-1", ChannelName: "idea_processing", EndpointURL: endpointURL, IsActive: true}},
	}}
	dispatcher := dispatch.NewDispatcher(channels, nil, logger)
	trigger := dispatch.NewTrigger(items, dispatcher, "http://localhost/v1/callbacks/processing", 30*time.Minute, logger)
	return &App{Trigger: trigger, Logger: logger}
}

func postDispatch(t *testing.T, app *App, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/workitems/dispatch", strings.NewReader(body))
	rec := httptest.NewRecorder()
	app.DispatchWorkItem(rec, req)
	return rec
}

func TestDispatchWorkItemAccepted(t *testing.T) {
	worker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer worker.Close()

	items := &fakeItems{items: map[string]*domain.WorkItem{
		"wi-1": {ID: "wi-1", Kind: domain.KindIdea, Status: domain.StatusReady, OwnerID: "user-1"},
	}}
	rec := postDispatch(t, newDispatchApp(items, worker.URL), `{"work_item_id":"wi-1","kind":"idea","topic":"pricing"}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body)
	}
	if items.items["wi-1"].Status != domain.StatusProcessing {
		t.Fatalf("item status = %q, want processing", items.items["wi-1"].Status)
	}
}

func TestDispatchWorkItemRejectsMissingID(t *testing.T) {
	rec := postDispatch(t, newDispatchApp(&fakeItems{}, ""), `{"kind":"idea"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body)
	}
}

func TestDispatchWorkItemRejectsUnknownKind(t *testing.T) {
	rec := postDispatch(t, newDispatchApp(&fakeItems{}, ""), `{"work_item_id":"wi-1","kind":"poem"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body)
	}
}

func TestDispatchWorkItemRejectsInvalidJSON(t *testing.T) {
	rec := postDispatch(t, newDispatchApp(&fakeItems{}, ""), `{"work_item_id":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body)
	}
}

func TestDispatchWorkItemNotFound(t *testing.T) {
	items := &fakeItems{items: map[string]*domain.WorkItem{}}
	rec := postDispatch(t, newDispatchApp(items, ""), `{"work_item_id":"ghost","kind":"idea"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body)
	}
}

func TestDispatchWorkItemAlreadyProcessing(t *testing.T) {
	started := time.Now().UTC()
	deadline := started.Add(30 * time.Minute)
	items := &fakeItems{items: map[string]*domain.WorkItem{
		"wi-1": {
			ID: "wi-1", Kind: domain.KindIdea, Status: domain.StatusProcessing,
			ProcessingStartedAt: &started, ProcessingTimeoutAt: &deadline,
		},
	}}
	rec := postDispatch(t, newDispatchApp(items, ""), `{"work_item_id":"wi-1","kind":"idea"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body)
	}
}
