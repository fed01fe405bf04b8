package domain

import (
	"encoding/json"
	"time"
)

// Kind enumerates the concrete work item variants tracked through the
// dispatch lifecycle.
type Kind string

const (
	KindSubmission  Kind = "submission"
	KindIdea        Kind = "idea"
	KindBrief       Kind = "brief"
	KindContentItem Kind = "content_item"
	KindDerivative  Kind = "derivative"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSubmission, KindIdea, KindBrief, KindContentItem, KindDerivative:
		return true
	}
	return false
}

// Status enumerates work item lifecycle states. The orchestration core only
// drives the ready → processing → {terminal} segment; draft and ready are
// set by the CRUD surface.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusReady      Status = "ready"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusPublished  Status = "published"
)

// TerminalSuccessStatus returns the status a work item of the given kind
// lands on when its external processing finishes successfully.
func TerminalSuccessStatus(k Kind) Status {
	switch k {
	case KindSubmission, KindIdea:
		return StatusProcessed
	default:
		return StatusCompleted
	}
}

// WorkItem is any entity tracked through the dispatch → processing →
// terminal lifecycle. Kind-specific payload fields beyond the typed columns
// ride along in Fields and are opaque to the core except when building
// outbound payloads.
//
// Invariant: ProcessingStartedAt and ProcessingTimeoutAt are either both nil
// or both set. Repository write methods maintain this pairing.
type WorkItem struct {
	ID                  string
	Kind                Kind
	Status              Status
	OwnerID             string
	Title               string
	Body                string
	Category            string
	ContentType         string
	SourceType          string
	SourceID            string
	TargetAudience      string
	Tags                []string
	DerivativeTypes     []string
	Fields              json.RawMessage
	ResultRef           string
	ExternalURL         string
	RetryCount          int
	LastErrorMessage    string
	ProcessingStartedAt *time.Time
	ProcessingTimeoutAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// InProcessing reports whether the item currently sits in the processing
// state.
func (w *WorkItem) InProcessing() bool {
	return w.Status == StatusProcessing
}
