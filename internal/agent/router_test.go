package agent

import (
	"context"
	"testing"
)

type fakeAgent struct {
	id      string
	model   string
	running bool
}

func (f *fakeAgent) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	return &RunResult{Content: "ok", RunID: req.RunID}, nil
}
func (f *fakeAgent) ID() string      { return f.id }
func (f *fakeAgent) Model() string   { return f.model }
func (f *fakeAgent) IsRunning() bool { return f.running }

func TestRouter_DefaultWithSingleAgent(t *testing.T) {
	r := NewRouter()
	r.Register("anything", &fakeAgent{id: "anything"})

	a, err := r.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if a.ID() != "anything" {
		t.Errorf("Default().ID() = %q", a.ID())
	}
}

func TestRouter_DefaultFallsBackToNamedDefault(t *testing.T) {
	r := NewRouter()
	r.Register("default", &fakeAgent{id: "default"})
	r.Register("other", &fakeAgent{id: "other"})

	a, err := r.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if a.ID() != "default" {
		t.Errorf("Default().ID() = %q, want default", a.ID())
	}
}

func TestRouter_DefaultErrorsWithNoUnambiguousChoice(t *testing.T) {
	r := NewRouter()
	r.Register("a", &fakeAgent{id: "a"})
	r.Register("b", &fakeAgent{id: "b"})

	if _, err := r.Default(); err == nil {
		t.Fatal("expected error choosing default among multiple unnamed agents")
	}
}

func TestRouter_GetUnknown(t *testing.T) {
	r := NewRouter()
	if _, err := r.Get("missing"); err == nil {
		t.Fatal("expected error for unknown agent key")
	}
}

func TestRouter_List(t *testing.T) {
	r := NewRouter()
	r.Register("b", &fakeAgent{id: "b"})
	r.Register("a", &fakeAgent{id: "a"})

	got := r.List()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("List() = %v, want sorted [a b]", got)
	}
}
