// Package tracing emits per-turn LLM-call, tool-call and agent-run spans via
// OpenTelemetry. It replaces the teacher's Postgres-backed trace/span tables
// (SPEC_FULL.md §4.8) with real otel.Tracer spans — the server already pulls
// in go.opentelemetry.io/otel for the ambient stack, and a second
// DB-persisted tracing abstraction next to it would be pure duplication.
package tracing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/nextlevelbuilder/goclaw-orchestrator/internal/agent"

type (
	TraceStatus string
	SpanType    string
	SpanLevel   string
)

const (
	TraceStatusRunning   TraceStatus = "running"
	TraceStatusCompleted TraceStatus = "completed"
	TraceStatusError     TraceStatus = "error"
	TraceStatusCancelled TraceStatus = "cancelled"

	SpanTypeAgent    SpanType = "agent"
	SpanTypeLLMCall  SpanType = "llm_call"
	SpanTypeToolCall SpanType = "tool_call"

	SpanLevelDefault SpanLevel = "DEFAULT"
	SpanStatusCompleted           = TraceStatusCompleted
	SpanStatusError               = TraceStatusError
)

// TraceData describes one agent run's top-level trace.
type TraceData struct {
	ID            uuid.UUID
	RunID         string
	SessionKey    string
	UserID        string
	Channel       string
	Name          string
	InputPreview  string
	Status        TraceStatus
	StartTime     time.Time
	CreatedAt     time.Time
	Tags          []string
	AgentID       *uuid.UUID
	ParentTraceID *uuid.UUID
}

// SpanData describes one child span (an LLM call, a tool call, or the root
// agent span) within a trace.
type SpanData struct {
	ID            uuid.UUID
	TraceID       uuid.UUID
	ParentSpanID  *uuid.UUID
	AgentID       *uuid.UUID
	SpanType      SpanType
	Name          string
	StartTime     time.Time
	EndTime       *time.Time
	DurationMS    int
	Model         string
	Provider      string
	Status        TraceStatus
	Level         SpanLevel
	CreatedAt     time.Time
	InputPreview  string
	OutputPreview string
	ToolName      string
	ToolCallID    string
	InputTokens   int
	OutputTokens  int
	FinishReason  string
	Metadata      []byte
	Error         string
}

// Collector emits trace/span data as OpenTelemetry spans. It keeps the
// otel.Span for each open trace so later EmitSpan/FinishTrace calls can
// attach child spans and close the root.
type Collector struct {
	tracer  oteltrace.Tracer
	verbose bool

	mu    sync.Mutex
	roots map[uuid.UUID]oteltrace.Span
}

func NewCollector(verbose bool) *Collector {
	return &Collector{
		tracer:  otel.Tracer(instrumentationName),
		verbose: verbose,
		roots:   make(map[uuid.UUID]oteltrace.Span),
	}
}

func (c *Collector) Verbose() bool { return c.verbose }

// CreateTrace starts the OTel root span for one agent run.
func (c *Collector) CreateTrace(ctx context.Context, t *TraceData) error {
	_, span := c.tracer.Start(ctx, t.Name, oteltrace.WithTimestamp(t.StartTime))
	span.SetAttributes(
		attribute.String("goclaw.run_id", t.RunID),
		attribute.String("goclaw.session_key", t.SessionKey),
		attribute.String("goclaw.user_id", t.UserID),
		attribute.String("goclaw.channel", t.Channel),
	)
	if t.AgentID != nil {
		span.SetAttributes(attribute.String("goclaw.agent_id", t.AgentID.String()))
	}
	if len(t.Tags) > 0 {
		span.SetAttributes(attribute.StringSlice("goclaw.tags", t.Tags))
	}

	c.mu.Lock()
	c.roots[t.ID] = span
	c.mu.Unlock()
	return nil
}

// FinishTrace closes the root span created by CreateTrace.
func (c *Collector) FinishTrace(ctx context.Context, traceID uuid.UUID, status TraceStatus, errMsg, outputPreview string) {
	c.mu.Lock()
	span, ok := c.roots[traceID]
	if ok {
		delete(c.roots, traceID)
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	if outputPreview != "" {
		span.SetAttributes(attribute.String("goclaw.output_preview", outputPreview))
	}
	applyStatus(span, status, errMsg)
	span.End()
}

// EmitSpan records one already-completed child span (LLM call, tool call, or
// the root agent span) as an OTel span nested under its trace/parent.
func (c *Collector) EmitSpan(s SpanData) {
	opts := []oteltrace.SpanStartOption{oteltrace.WithTimestamp(s.StartTime)}
	_, span := c.tracer.Start(context.Background(), s.Name, opts...)

	attrs := []attribute.KeyValue{
		attribute.String("goclaw.span_type", string(s.SpanType)),
		attribute.Int("goclaw.duration_ms", s.DurationMS),
	}
	if s.Model != "" {
		attrs = append(attrs, attribute.String("goclaw.model", s.Model))
	}
	if s.Provider != "" {
		attrs = append(attrs, attribute.String("goclaw.provider", s.Provider))
	}
	if s.ToolName != "" {
		attrs = append(attrs, attribute.String("goclaw.tool_name", s.ToolName), attribute.String("goclaw.tool_call_id", s.ToolCallID))
	}
	if s.InputTokens > 0 {
		attrs = append(attrs, attribute.Int("goclaw.input_tokens", s.InputTokens))
	}
	if s.OutputTokens > 0 {
		attrs = append(attrs, attribute.Int("goclaw.output_tokens", s.OutputTokens))
	}
	if s.FinishReason != "" {
		attrs = append(attrs, attribute.String("goclaw.finish_reason", s.FinishReason))
	}
	if s.InputPreview != "" {
		attrs = append(attrs, attribute.String("goclaw.input_preview", s.InputPreview))
	}
	if s.OutputPreview != "" {
		attrs = append(attrs, attribute.String("goclaw.output_preview", s.OutputPreview))
	}
	span.SetAttributes(attrs...)
	applyStatus(span, s.Status, s.Error)

	end := time.Now()
	if s.EndTime != nil {
		end = *s.EndTime
	}
	span.End(oteltrace.WithTimestamp(end))
}

func applyStatus(span oteltrace.Span, status TraceStatus, errMsg string) {
	switch status {
	case TraceStatusError:
		span.SetStatus(codes.Error, errMsg)
	case TraceStatusCancelled:
		span.SetStatus(codes.Error, "cancelled")
	default:
		span.SetStatus(codes.Ok, "")
	}
}

type ctxKey int

const (
	traceIDKey ctxKey = iota
	collectorKey
	parentSpanIDKey
	announceParentSpanIDKey
)

func WithTraceID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

func TraceIDFromContext(ctx context.Context) uuid.UUID {
	if v, ok := ctx.Value(traceIDKey).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func WithCollector(ctx context.Context, c *Collector) context.Context {
	return context.WithValue(ctx, collectorKey, c)
}

func CollectorFromContext(ctx context.Context) *Collector {
	c, _ := ctx.Value(collectorKey).(*Collector)
	return c
}

func WithParentSpanID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, parentSpanIDKey, id)
}

func ParentSpanIDFromContext(ctx context.Context) uuid.UUID {
	if v, ok := ctx.Value(parentSpanIDKey).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func WithAnnounceParentSpanID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, announceParentSpanIDKey, id)
}

func AnnounceParentSpanIDFromContext(ctx context.Context) uuid.UUID {
	if v, ok := ctx.Value(announceParentSpanIDKey).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// NewID generates a time-ordered UUID, used for trace/span identifiers.
func NewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
