package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"contentflow/internal/domain"
	"contentflow/internal/publish"
)

type publishRequest struct {
	ContentItemID string `json:"content_item_id"`
	UserID        string `json:"user_id"`
}

// PublishContent runs the publish pipeline for a content item. Validation
// failures (missing derivative assets) come back as 400 with a remediation
// hint; platform failures as 500.
func (a *App) PublishContent(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.ContentItemID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "content_item_id required")
		return
	}

	result, err := a.Publisher.Publish(r.Context(), req.ContentItemID)
	if err == nil {
		a.json(w, http.StatusOK, map[string]any{
			"success":  true,
			"post_id":  result.PostID,
			"post_url": result.PostURL,
		})
		return
	}

	var missing *publish.MissingAssetError
	switch {
	case errors.Is(err, publish.ErrPlatformUnconfigured):
		a.json(w, http.StatusServiceUnavailable, map[string]any{"success": false, "error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		a.json(w, http.StatusNotFound, map[string]any{"success": false, "error": "content item not found"})
	case errors.As(err, &missing):
		a.json(w, http.StatusBadRequest, map[string]any{"success": false, "error": missing.Error()})
	case errors.Is(err, domain.ErrInvalidKind):
		a.json(w, http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
	default:
		a.Logger.Error().Err(err).Str("content_item_id", req.ContentItemID).Msg("publish failed")
		a.json(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
	}
}
