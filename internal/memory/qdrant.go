package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// HTTPVectorStore talks to a Qdrant-compatible REST API over net/http,
// grounded on original_source/radbot/memory/qdrant_memory.py. No Qdrant Go
// SDK appears anywhere in the retrieval pack, so a thin REST client is the
// justified-stdlib choice documented in DESIGN.md.
type HTTPVectorStore struct {
	baseURL string
	apiKey  string
	client  *http.Client

	ensured map[string]bool
}

func NewHTTPVectorStore(baseURL, apiKey string) *HTTPVectorStore {
	return &HTTPVectorStore{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		ensured: make(map[string]bool),
	}
}

func (h *HTTPVectorStore) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("api-key", h.apiKey)
	}
	return h.client.Do(req)
}

// EnsureCollection creates the collection with cosine distance and keyword
// indexes on user_id/memory_type/source_agent plus a datetime index on
// timestamp, the first time it's asked for — idempotent after that (spec
// §4.5: "Collection auto-creates on first use").
func (h *HTTPVectorStore) EnsureCollection(ctx context.Context, name string, dim int) error {
	if h.ensured[name] {
		return nil
	}

	resp, err := h.do(ctx, http.MethodPut, "/collections/"+name, map[string]any{
		"vectors": map[string]any{"size": dim, "distance": "Cosine"},
	})
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("qdrant: create collection %q: status %d", name, resp.StatusCode)
	}

	for field, schema := range map[string]string{
		"user_id":      "keyword",
		"memory_type":  "keyword",
		"source_agent": "keyword",
		"timestamp":    "datetime",
	} {
		idxResp, err := h.do(ctx, http.MethodPut, "/collections/"+name+"/index", map[string]any{
			"field_name":   field,
			"field_schema": schema,
		})
		if err != nil {
			return err
		}
		idxResp.Body.Close()
	}

	h.ensured[name] = true
	return nil
}

type qdrantPoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

func (h *HTTPVectorStore) Upsert(ctx context.Context, collection string, points []Point) error {
	wire := make([]qdrantPoint, len(points))
	for i, p := range points {
		id := p.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		wire[i] = qdrantPoint{ID: id.String(), Vector: p.Vector, Payload: p.Payload}
	}

	resp, err := h.do(ctx, http.MethodPut, "/collections/"+collection+"/points", map[string]any{"points": wire})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant: upsert: status %d", resp.StatusCode)
	}
	return nil
}

type qdrantSearchResult struct {
	Result []struct {
		ID      string         `json:"id"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

func (h *HTTPVectorStore) Search(ctx context.Context, collection string, vector []float32, userID string, filter SearchFilter, limit int) ([]Point, error) {
	must := []map[string]any{
		{"key": "user_id", "match": map[string]any{"value": userID}},
	}
	if filter.MemoryType != "" {
		must = append(must, map[string]any{"key": "memory_type", "match": map[string]any{"value": filter.MemoryType}})
	}
	if filter.SourceAgent != "" {
		must = append(must, map[string]any{"key": "source_agent", "match": map[string]any{"value": filter.SourceAgent}})
	}
	if !filter.Since.IsZero() || !filter.Until.IsZero() {
		rng := map[string]any{}
		if !filter.Since.IsZero() {
			rng["gte"] = filter.Since.UTC().Format(time.RFC3339)
		}
		if !filter.Until.IsZero() {
			rng["lte"] = filter.Until.UTC().Format(time.RFC3339)
		}
		must = append(must, map[string]any{"key": "timestamp", "range": rng})
	}

	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
		"filter":       map[string]any{"must": must},
	}

	resp, err := h.do(ctx, http.MethodPost, "/collections/"+collection+"/points/search", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant: search: status %d", resp.StatusCode)
	}

	var decoded qdrantSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}

	out := make([]Point, 0, len(decoded.Result))
	for _, r := range decoded.Result {
		id, _ := uuid.Parse(r.ID)
		out = append(out, Point{ID: id, Payload: r.Payload})
	}
	return out, nil
}

var _ VectorStore = (*HTTPVectorStore)(nil)
