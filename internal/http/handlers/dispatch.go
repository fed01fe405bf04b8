package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"contentflow/internal/dispatch"
	"contentflow/internal/domain"
)

const dispatchSchemaJSON = `{
	"type": "object",
	"required": ["work_item_id", "kind"],
	"properties": {
		"work_item_id": {"type": "string", "minLength": 1},
		"kind": {
			"type": "string",
			"enum": ["submission", "idea", "brief", "content_item", "derivative"]
		}
	}
}`

var dispatchSchema = mustCompileSchema("dispatch.json", dispatchSchemaJSON)

func mustCompileSchema(name, source string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(source))
	if err != nil {
		panic(err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(err)
	}
	return compiler.MustCompile(name)
}

// DispatchWorkItem validates a dispatch request and hands the work item to
// its external worker. Kind-specific fields beyond the two required ones
// pass through into the outbound payload verbatim.
func (a *App) DispatchWorkItem(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable body")
		return
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid JSON")
		return
	}
	if err := dispatchSchema.Validate(inst); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	fields, _ := inst.(map[string]any)
	workItemID, _ := fields["work_item_id"].(string)
	kind, _ := fields["kind"].(string)

	extras := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "work_item_id" || k == "kind" {
			continue
		}
		extras[k] = v
	}

	err = a.Trigger.Dispatch(r.Context(), dispatch.Request{
		WorkItemID: workItemID,
		Kind:       domain.Kind(kind),
		Extras:     extras,
	})
	switch {
	case err == nil:
		a.json(w, http.StatusAccepted, map[string]any{"accepted": true, "work_item_id": workItemID})
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "work item not found")
	case errors.Is(err, domain.ErrAlreadyProcessing):
		a.error(w, http.StatusConflict, "already_processing", "work item is already processing")
	case errors.Is(err, domain.ErrInvalidKind):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		a.error(w, http.StatusInternalServerError, "dispatch_failed", err.Error())
	}
}
