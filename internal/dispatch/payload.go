package dispatch

import (
	"time"

	"contentflow/internal/domain"
)

// Channel names per work item kind. The submission pipeline predates the
// per-kind channels and keeps a fallback to the original knowledge-base
// channel; no other kind has one.
const (
	ChannelGeneralContent       = "general_content"
	ChannelKnowledgeBase        = "knowledge_base"
	ChannelIdeaProcessing       = "idea_processing"
	ChannelBriefCreation        = "brief_creation"
	ChannelDerivativeGeneration = "derivative_generation"
)

// channelFor returns the primary channel name for a kind and an optional
// fallback name ("" when none).
func channelFor(kind domain.Kind) (primary, fallback string) {
	switch kind {
	case domain.KindSubmission:
		return ChannelGeneralContent, ChannelKnowledgeBase
	case domain.KindIdea:
		return ChannelIdeaProcessing, ""
	case domain.KindBrief:
		return ChannelBriefCreation, ""
	case domain.KindDerivative:
		return ChannelDerivativeGeneration, ""
	default:
		return "", ""
	}
}

// Payload is the outbound webhook body. The contract with remote workers is
// additive-only: optional fields may be added, none are ever removed.
type Payload map[string]any

// BuildPayload assembles the outbound body from the work item's fields plus
// dispatch metadata. Kind-specific extras from the trigger request pass
// through verbatim; they never override the core fields.
func BuildPayload(item *domain.WorkItem, callbackURL string, extras map[string]any, now time.Time) Payload {
	p := Payload{}
	for k, v := range extras {
		p[k] = v
	}

	p["work_item_id"] = item.ID
	p["owner_id"] = item.OwnerID
	p["kind"] = string(item.Kind)
	p["content_type"] = item.ContentType
	p["timestamp"] = now.UTC().Format(time.RFC3339)
	p["callback_url"] = callbackURL

	if item.Title != "" {
		p["title"] = item.Title
	}
	if item.Category != "" {
		p["category"] = item.Category
	}
	if len(item.DerivativeTypes) > 0 {
		p["derivative_types"] = item.DerivativeTypes
	}
	if item.SourceType != "" {
		p["source_type"] = item.SourceType
	}
	if item.TargetAudience != "" {
		p["target_audience"] = item.TargetAudience
	}

	return p
}
