package tools

import (
	"context"
	"testing"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/memory"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeVectorStore struct {
	results []memory.Point
}

func (f *fakeVectorStore) EnsureCollection(ctx context.Context, name string, dim int) error {
	return nil
}
func (f *fakeVectorStore) Upsert(ctx context.Context, collection string, points []memory.Point) error {
	return nil
}
func (f *fakeVectorStore) Search(ctx context.Context, collection string, vector []float32, userID string, filter memory.SearchFilter, limit int) ([]memory.Point, error) {
	return f.results, nil
}

func TestMemorySearchTool_RequiresQuery(t *testing.T) {
	svc := memory.NewService(fakeEmbedder{}, &fakeVectorStore{}, "mem", 3)
	tool := NewMemorySearchTool(svc)

	res := tool.Execute(context.Background(), map[string]interface{}{})
	if !res.IsError {
		t.Fatalf("expected error when query missing, got %+v", res)
	}
}

func TestMemorySearchTool_NoMemoryConfigured(t *testing.T) {
	tool := NewMemorySearchTool(nil)
	res := tool.Execute(context.Background(), map[string]interface{}{"query": "hello"})
	if !res.IsError {
		t.Fatalf("expected error when memory is nil, got %+v", res)
	}
}

func TestMemorySearchTool_ReturnsJoinedResults(t *testing.T) {
	store := &fakeVectorStore{results: []memory.Point{
		{Payload: map[string]any{"text": "first memory"}},
		{Payload: map[string]any{"text": "second memory"}},
	}}
	svc := memory.NewService(fakeEmbedder{}, store, "mem", 3)
	tool := NewMemorySearchTool(svc)

	res := tool.Execute(context.Background(), map[string]interface{}{"query": "test", "limit": float64(2)})
	if res.IsError {
		t.Fatalf("unexpected error result: %+v", res)
	}
	want := "first memory\n---\nsecond memory"
	if res.ForLLM != want {
		t.Errorf("ForLLM = %q, want %q", res.ForLLM, want)
	}
}

func TestMemorySearchTool_NoResultsFound(t *testing.T) {
	svc := memory.NewService(fakeEmbedder{}, &fakeVectorStore{}, "mem", 3)
	tool := NewMemorySearchTool(svc)

	res := tool.Execute(context.Background(), map[string]interface{}{"query": "nothing here"})
	if res.IsError {
		t.Fatalf("unexpected error result: %+v", res)
	}
	if res.ForLLM != "no matching memories found" {
		t.Errorf("ForLLM = %q", res.ForLLM)
	}
}
