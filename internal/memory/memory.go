// Package memory implements the Memory Service (spec §4.5): a thin wrapper
// around an embedding step and a vector store, both external collaborators
// injected as interfaces so the service can be exercised with fakes.
package memory

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/sanitize"
)

// Embedder turns text into a fixed-size vector. The default dimensionality
// used by the rest of this package is 768, matching the original's
// sentence-transformer default, but any dimension the injected Embedder
// returns works end to end.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Point is one memory entry: a vector plus its payload.
type Point struct {
	ID      uuid.UUID
	Vector  []float32
	Payload map[string]any
}

// SearchFilter narrows a vector search beyond the mandatory user_id match.
type SearchFilter struct {
	MemoryType string
	SourceAgent string
	Since      time.Time
	Until      time.Time
}

// VectorStore is the minimal contract the Memory Service needs from a
// vector database: ensure a collection exists, upsert points, and run a
// filtered cosine-similarity search.
type VectorStore interface {
	EnsureCollection(ctx context.Context, name string, dim int) error
	Upsert(ctx context.Context, collection string, points []Point) error
	Search(ctx context.Context, collection string, vector []float32, userID string, filter SearchFilter, limit int) ([]Point, error)
}

// Service is the Memory Service facade: upsert(user_id, text, metadata) and
// search(app_name, user_id, query, limit, filters) per spec §4.5.
type Service struct {
	embedder   Embedder
	store      VectorStore
	collection string
	dim        int
}

func NewService(embedder Embedder, store VectorStore, collection string, dim int) *Service {
	if dim <= 0 {
		dim = 768
	}
	return &Service{embedder: embedder, store: store, collection: collection, dim: dim}
}

// Upsert embeds text and stores it with the user_id, an ISO timestamp,
// memory_type, source_agent and any extra fields in the payload. Best-effort:
// failures are logged, never returned to the caller as fatal (spec §4.5).
func (s *Service) Upsert(ctx context.Context, userID, text, memoryType, sourceAgent string, extra map[string]any) {
	if s == nil || s.embedder == nil || s.store == nil {
		return
	}
	text = sanitize.Text(text, sanitize.SourceMemory, 0)

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		slog.Warn("memory: embed failed", "error", err)
		return
	}

	if err := s.store.EnsureCollection(ctx, s.collection, s.dim); err != nil {
		slog.Warn("memory: ensure collection failed", "error", err)
		return
	}

	payload := map[string]any{
		"user_id":      userID,
		"text":         text,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"memory_type":  memoryType,
		"source_agent": sourceAgent,
	}
	for k, v := range extra {
		payload[k] = v
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	point := Point{ID: id, Vector: vec, Payload: payload}
	if err := s.store.Upsert(ctx, s.collection, []Point{point}); err != nil {
		slog.Warn("memory: upsert failed", "error", err)
	}
}

// Search returns the top-limit points matching the query's embedding and the
// given filters. Never returns an error: any failure is logged and nil (an
// empty result) is returned instead (spec §4.5, best-effort contract).
func (s *Service) Search(ctx context.Context, userID, query string, limit int, filter SearchFilter) []string {
	if s == nil || s.embedder == nil || s.store == nil {
		return nil
	}
	if limit <= 0 {
		limit = 5
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		slog.Warn("memory: embed query failed", "error", err)
		return nil
	}

	points, err := s.store.Search(ctx, s.collection, vec, userID, filter, limit)
	if err != nil {
		slog.Warn("memory: search failed", "error", err)
		return nil
	}

	out := make([]string, 0, len(points))
	for _, p := range points {
		if text, ok := p.Payload["text"].(string); ok {
			out = append(out, sanitize.Text(text, sanitize.SourceMemory, 0))
		}
	}
	return out
}
