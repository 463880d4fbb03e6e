package memory

import (
	"context"
	"testing"
)

type recordingEmbedder struct {
	calls []string
	err   error
}

func (r *recordingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	r.calls = append(r.calls, text)
	if r.err != nil {
		return nil, r.err
	}
	return []float32{1, 2, 3}, nil
}

type recordingStore struct {
	upserted  []Point
	results   []Point
	searchErr error
	ensureErr error
	lastLimit int
}

func (s *recordingStore) EnsureCollection(ctx context.Context, name string, dim int) error {
	return s.ensureErr
}
func (s *recordingStore) Upsert(ctx context.Context, collection string, points []Point) error {
	s.upserted = append(s.upserted, points...)
	return nil
}
func (s *recordingStore) Search(ctx context.Context, collection string, vector []float32, userID string, filter SearchFilter, limit int) ([]Point, error) {
	s.lastLimit = limit
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.results, nil
}

func TestService_Upsert_StoresPayloadFields(t *testing.T) {
	emb := &recordingEmbedder{}
	store := &recordingStore{}
	svc := NewService(emb, store, "mem", 3)

	svc.Upsert(context.Background(), "user-1", "remember this", "fact", "main", map[string]any{"custom": "x"})

	if len(store.upserted) != 1 {
		t.Fatalf("len(upserted) = %d, want 1", len(store.upserted))
	}
	p := store.upserted[0]
	if p.Payload["user_id"] != "user-1" || p.Payload["memory_type"] != "fact" || p.Payload["custom"] != "x" {
		t.Errorf("payload = %+v", p.Payload)
	}
}

func TestService_Upsert_NilServiceIsNoop(t *testing.T) {
	var svc *Service
	svc.Upsert(context.Background(), "u", "t", "fact", "main", nil) // must not panic
}

func TestService_Search_ReturnsTextsInOrder(t *testing.T) {
	store := &recordingStore{results: []Point{
		{Payload: map[string]any{"text": "a"}},
		{Payload: map[string]any{"text": "b"}},
	}}
	svc := NewService(&recordingEmbedder{}, store, "mem", 3)

	got := svc.Search(context.Background(), "user-1", "query", 5, SearchFilter{})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Search() = %v", got)
	}
}

func TestService_Search_EmbedFailureReturnsEmptyNotError(t *testing.T) {
	emb := &recordingEmbedder{err: errBoom}
	svc := NewService(emb, &recordingStore{}, "mem", 3)

	got := svc.Search(context.Background(), "user-1", "query", 5, SearchFilter{})
	if got != nil {
		t.Errorf("Search() = %v, want nil on embed failure", got)
	}
}

func TestService_Search_DefaultsLimit(t *testing.T) {
	store := &recordingStore{}
	svc := NewService(&recordingEmbedder{}, store, "mem", 3)

	got := svc.Search(context.Background(), "user-1", "query", 0, SearchFilter{})
	if got == nil && store.searchErr != nil {
		t.Fatal("unexpected search error")
	}
	if store.lastLimit != 5 {
		t.Errorf("limit passed to store = %d, want default 5", store.lastLimit)
	}
}

var errBoom = &boomError{}

type boomError struct{}

func (*boomError) Error() string { return "boom" }
