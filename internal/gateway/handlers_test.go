package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyHMAC_ValidSignature(t *testing.T) {
	body := []byte(`{"event":"push"}`)
	sig := sign("shh", body)

	if !verifyHMAC("shh", body, sig) {
		t.Error("expected valid signature to verify")
	}
	if !verifyHMAC("shh", body, "sha256="+sig) {
		t.Error("expected sha256= prefixed signature to verify")
	}
}

func TestVerifyHMAC_WrongSecretOrBody(t *testing.T) {
	body := []byte(`{"event":"push"}`)
	sig := sign("shh", body)

	if verifyHMAC("wrong", body, sig) {
		t.Error("expected signature with wrong secret to fail")
	}
	if verifyHMAC("shh", []byte("tampered"), sig) {
		t.Error("expected signature with tampered body to fail")
	}
}

func TestVerifyHMAC_EmptySignatureRejected(t *testing.T) {
	if verifyHMAC("shh", []byte("x"), "") {
		t.Error("empty signature must never verify")
	}
}

func TestRenderWebhookTemplate_SubstitutesFields(t *testing.T) {
	got := renderWebhookTemplate("New issue: {{title}} by {{author}}", map[string]any{
		"title":  "bug found",
		"author": "alice",
	})
	want := "New issue: bug found by alice"
	if got != want {
		t.Errorf("renderWebhookTemplate() = %q, want %q", got, want)
	}
}

func TestRenderWebhookTemplate_NonStringMarshalsAsJSON(t *testing.T) {
	got := renderWebhookTemplate("count={{count}}", map[string]any{"count": 3})
	want := "count=3"
	if got != want {
		t.Errorf("renderWebhookTemplate() = %q, want %q", got, want)
	}
}

func TestRenderWebhookTemplate_MissingFieldLeftUnsubstituted(t *testing.T) {
	got := renderWebhookTemplate("hello {{missing}}", map[string]any{})
	want := "hello {{missing}}"
	if got != want {
		t.Errorf("renderWebhookTemplate() = %q, want %q", got, want)
	}
}
