// Package runner implements the Session Runner (spec §4.8): the per-session
// turn that invokes the Agent Runtime Adapter and renders the final
// response. The package also provides event classification (Classify,
// Build) and malformed-output text recovery (ExtractFromMalformedResponse);
// Runner.ProcessMessage does not call them.
package runner

import (
	"strings"
	"time"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/domain"
)

// RawEvent is the adapter-agnostic shape the Agent Runtime Adapter (§4.6)
// hands to the Session Runner for one emitted event. Only the fields
// relevant to the event at hand are populated; classification and rendering
// never assume more than "is this field non-zero".
type RawEvent struct {
	Author    string
	ToAgent   string
	FromAgent string
	ToModel   string

	FunctionCallName       string
	FunctionCallArgs       map[string]any
	FunctionResponseName   string
	FunctionResponseOutput any

	Plan     any
	PlanStep any

	Text        string
	IsFinal     bool
	RawResponse any

	Timestamp time.Time
}

// Classify applies the priority order from spec §4.8.C: agent transfer,
// then tool call, then planner, then model response, else other.
func Classify(e RawEvent) domain.EventKind {
	switch {
	case e.ToAgent != "":
		return domain.EventAgentTransfer
	case e.FunctionCallName != "" || e.FunctionResponseName != "":
		return domain.EventToolCall
	case e.Plan != nil || e.PlanStep != nil:
		return domain.EventPlanner
	case e.IsFinal || e.Text != "" || e.RawResponse != nil:
		return domain.EventModelResponse
	default:
		return domain.EventOther
	}
}

// Build turns a classified RawEvent into the persisted domain.Event shape.
func Build(e RawEvent) domain.Event {
	kind := Classify(e)
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	ev := domain.Event{
		Kind:      kind,
		Timestamp: ts,
		Payload:   map[string]any{},
		Details:   map[string]any{},
	}

	switch kind {
	case domain.EventAgentTransfer:
		ev.Summary = "Transfer to: " + e.ToAgent
		ev.Payload["to_agent"] = e.ToAgent
		if e.FromAgent != "" {
			ev.Payload["from_agent"] = e.FromAgent
		}
		if e.ToModel != "" {
			ev.Details["model"] = e.ToModel
		}

	case domain.EventToolCall:
		if e.FunctionCallName != "" {
			ev.Summary = "Tool Call: " + e.FunctionCallName
			ev.Payload["tool_name"] = e.FunctionCallName
			ev.Payload["input"] = e.FunctionCallArgs
		} else {
			ev.Summary = "Tool Response: " + e.FunctionResponseName
			ev.Payload["tool_name"] = e.FunctionResponseName
			ev.Payload["output"] = e.FunctionResponseOutput
		}

	case domain.EventPlanner:
		ev.Summary = "Plan Created"
		if e.PlanStep != nil {
			ev.Summary = "Plan Step"
			ev.Payload["plan_step"] = e.PlanStep
		}
		if e.Plan != nil {
			ev.Payload["plan"] = e.Plan
		}

	case domain.EventModelResponse:
		ev.Summary = "Model Response"
		ev.Payload["text"] = e.Text
		ev.Payload["is_final"] = e.IsFinal

	default:
		ev.Summary = "Event"
		if e.Author != "" {
			ev.Details["author"] = e.Author
		}
	}

	return ev
}

// ExtractText returns a model-response-shaped RawEvent's Text with
// surrounding whitespace trimmed. RawEvent carries a single Text field, so
// there are no separate content parts or message fields to search.
func ExtractText(e RawEvent) string {
	return strings.TrimSpace(e.Text)
}
