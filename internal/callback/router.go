// Package callback reconciles out-of-band completion reports from external
// workers against the work item store.
//
// The HTTP layer acks a well-formed callback before reconciliation runs, so
// everything in this package operates past the point of no return: errors
// are logged, never surfaced over the wire.
package callback

import (
	"context"
	"encoding/json"
	"fmt"

	"contentflow/internal/domain"
	"contentflow/internal/infra"
)

// Envelope is the parsed inbound callback body. Type discriminates the
// reconciliation routine; the remaining fields are kind-specific.
type Envelope struct {
	Type   string
	Fields map[string]any
}

// ParseEnvelope decodes a raw callback body. A malformed body or a missing
// type discriminator is a client error the HTTP layer must reject before any
// ack; everything past this function is fire-and-forget.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("malformed callback body: %w", err)
	}
	typ, _ := fields["type"].(string)
	return &Envelope{Type: typ, Fields: fields}, nil
}

// String returns the named field as a string, "" when absent or not a string.
func (e *Envelope) String(key string) string {
	v, _ := e.Fields[key].(string)
	return v
}

// Int returns the named field as an int. JSON numbers decode as float64.
func (e *Envelope) Int(key string) int {
	if f, ok := e.Fields[key].(float64); ok {
		return int(f)
	}
	return 0
}

// Reconciler applies one kind of callback to the store.
type Reconciler interface {
	Reconcile(ctx context.Context, env *Envelope) error
}

// ReconcilerFunc adapts a function to the Reconciler interface.
type ReconcilerFunc func(ctx context.Context, env *Envelope) error

func (f ReconcilerFunc) Reconcile(ctx context.Context, env *Envelope) error {
	return f(ctx, env)
}

// Router maps type discriminators to reconcilers. Adding a callback kind is
// a pure registration, no conditional chain to grow.
type Router struct {
	reconcilers map[string]Reconciler
	fallback    Reconciler
	logger      infra.Logger
}

// NewRouter constructs an empty router.
func NewRouter(logger infra.Logger) *Router {
	return &Router{reconcilers: make(map[string]Reconciler), logger: logger}
}

// Register binds a type discriminator to a reconciler.
func (r *Router) Register(typ string, rec Reconciler) {
	r.reconcilers[typ] = rec
}

// RegisterFallback binds the reconciler used by the compatibility heuristic
// for callers that omit the discriminator (see Reconcile).
func (r *Router) RegisterFallback(rec Reconciler) {
	r.fallback = rec
}

// Reconcile routes an already-acked envelope to its reconciler. Unknown
// types are not errors to anyone: the caller got its ack, so the only thing
// left to do is log. Callers that omit a recognized type but carry both a
// submission and a content item reference are routed to the fallback
// (submission-based derivative generation) reconciler.
func (r *Router) Reconcile(ctx context.Context, env *Envelope) {
	rec, ok := r.reconcilers[env.Type]
	if !ok {
		if r.fallback != nil && env.String("submission_id") != "" && env.String("content_item_id") != "" {
			r.logger.Info().
				Str("type", env.Type).
				Msg("callback: unrecognized type with submission and content item refs, using fallback route")
			rec = r.fallback
		} else {
			r.logger.Warn().Str("type", env.Type).Msg("callback: no reconciler registered, ignoring")
			return
		}
	}

	if err := rec.Reconcile(ctx, env); err != nil {
		r.logger.Error().Err(err).
			Str("type", env.Type).
			Msg("callback: reconciliation failed")
	}
}

// requireFields returns ErrMissingField naming the first absent field.
func requireFields(env *Envelope, keys ...string) error {
	for _, key := range keys {
		if env.String(key) == "" {
			return fmt.Errorf("%w: %s", domain.ErrMissingField, key)
		}
	}
	return nil
}
