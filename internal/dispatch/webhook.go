package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"contentflow/internal/domain"
	"contentflow/internal/infra"
)

const maxErrorBodyBytes = 2048

// TransportError indicates the remote endpoint could not be reached at all
// (DNS, connect, timeout). Distinct from StatusError so callers can report
// the two differently.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("webhook transport failure for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError indicates the remote endpoint answered with a non-2xx status.
type StatusError struct {
	URL  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned %d for %s", e.Code, e.URL)
}

// Dispatcher resolves channels and performs outbound webhook calls.
type Dispatcher struct {
	channels   domain.ChannelRepository
	httpClient *http.Client
	logger     infra.Logger
}

// NewDispatcher constructs a Dispatcher. A nil httpClient gets a default with
// a 10 second timeout.
func NewDispatcher(channels domain.ChannelRepository, httpClient *http.Client, logger infra.Logger) *Dispatcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Dispatcher{channels: channels, httpClient: httpClient, logger: logger}
}

// ResolveChannel returns the active channel for a name. Multiple active rows
// for one name reflect a benign configuration race; the most recently
// updated row wins and the duplication is logged, not fatal.
func (d *Dispatcher) ResolveChannel(ctx context.Context, name string) (*domain.WebhookChannel, error) {
	channels, err := d.channels.ListActiveByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("list channels %q: %w", name, err)
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("channel %q: %w", name, domain.ErrNoActiveChannel)
	}
	if len(channels) > 1 {
		d.logger.Warn().
			Str("channel", name).
			Int("matches", len(channels)).
			Msg("dispatch: multiple active channels, using most recently updated")
	}
	return &channels[0], nil
}

// Send POSTs the payload as JSON to url. Transport failures and non-2xx
// responses surface as distinct error types.
func (d *Dispatcher) Send(ctx context.Context, url string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &StatusError{URL: url, Code: resp.StatusCode, Body: string(snippet)}
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
