package scheduler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNtfyClient_Notify_PostsToTopicPath(t *testing.T) {
	var gotPath, gotTitle, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTitle = r.Header.Get("Title")
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	}))
	defer srv.Close()

	c := NewNtfyClient(srv.URL, "my-topic", "tok")
	if err := c.Notify(t.Context(), "Reminder", "it's time"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if gotPath != "/my-topic" {
		t.Errorf("path = %q, want /my-topic", gotPath)
	}
	if gotTitle != "Reminder" {
		t.Errorf("title = %q", gotTitle)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody != "it's time" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestNtfyClient_Notify_NoopWithoutTopic(t *testing.T) {
	c := NewNtfyClient("http://example.invalid", "", "")
	if err := c.Notify(t.Context(), "t", "b"); err != nil {
		t.Errorf("Notify() error = %v, want nil for disabled client", err)
	}
}

func TestNtfyClient_Notify_NilClientIsNoop(t *testing.T) {
	var c *NtfyClient
	if err := c.Notify(t.Context(), "t", "b"); err != nil {
		t.Errorf("Notify() error = %v, want nil for nil client", err)
	}
}
