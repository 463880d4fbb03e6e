package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/domain"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/sessions"
	"github.com/nextlevelbuilder/goclaw-orchestrator/pkg/protocol"
)

func decodeFrame(raw []byte, v interface{}) error {
	return json.Unmarshal(raw, v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- sessions: /api/sessions, /api/sessions/{id}/messages ---

func (s *Server) registerSessionRoutes(mux *http.ServeMux) {
	if s.sessions == nil {
		return
	}

	mux.HandleFunc("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			list, err := s.sessions.List(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, list)
		case http.MethodPost:
			var body struct {
				UserID      string `json:"user_id"`
				DisplayName string `json:"display_name"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid body")
				return
			}
			id := uuid.New()
			sess, err := s.sessions.GetOrCreate(r.Context(), id, body.UserID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusCreated, sess)
		default:
			writeError(w, http.StatusMethodNotAllowed, "unsupported method")
		}
	})

	mux.HandleFunc("/api/sessions/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
		parts := strings.SplitN(rest, "/", 2)
		id, err := uuid.Parse(parts[0])
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid session id")
			return
		}

		if len(parts) == 2 && parts[1] == "messages" {
			s.handleSessionMessages(w, r, id)
			return
		}
		if len(parts) == 2 && parts[1] == "events" {
			// Events are in-memory only (spec §3) and not persisted; this
			// deployment has no per-session event buffer wired yet, so the
			// endpoint reports an empty list rather than 404.
			writeJSON(w, http.StatusOK, []domain.Event{})
			return
		}

		switch r.Method {
		case http.MethodGet:
			sess, err := s.sessions.Get(r.Context(), id)
			if err != nil {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}
			writeJSON(w, http.StatusOK, sess)
		case http.MethodDelete:
			if err := s.sessions.Delete(r.Context(), id); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, http.StatusMethodNotAllowed, "unsupported method")
		}
	})
}

func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	switch r.Method {
	case http.MethodGet:
		limit, offset := 50, 0
		msgs, total, err := s.sessions.History(r.Context(), id, limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": msgs, "total": total})

	case http.MethodPost:
		var body struct {
			Content string `json:"content"`
			UserID  string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Content == "" {
			writeError(w, http.StatusBadRequest, "content required")
			return
		}
		res, err := s.runner.ProcessMessage(r.Context(), id.String(), body.UserID, body.Content)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "agent run failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"content": res.Response, "run_id": res.RunID})

	default:
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
	}
}

// --- scheduled tasks: /api/scheduled-tasks, /api/scheduled-tasks/{id}/trigger ---

func (s *Server) registerScheduledTaskRoutes(mux *http.ServeMux) {
	if s.tasks == nil {
		return
	}

	mux.HandleFunc("/api/scheduled-tasks", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			list, err := s.tasks.List(r.Context(), false)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, list)
		case http.MethodPost:
			var t domain.ScheduledTask
			if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
				writeError(w, http.StatusBadRequest, "invalid body")
				return
			}
			t.ID = uuid.New()
			t.CreatedAt = time.Now()
			t.UpdatedAt = t.CreatedAt
			if err := s.tasks.Create(r.Context(), &t); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusCreated, t)
		default:
			writeError(w, http.StatusMethodNotAllowed, "unsupported method")
		}
	})

	mux.HandleFunc("/api/scheduled-tasks/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/scheduled-tasks/")
		parts := strings.SplitN(rest, "/", 2)
		id, err := uuid.Parse(parts[0])
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid task id")
			return
		}

		if len(parts) == 2 && parts[1] == "trigger" && r.Method == http.MethodPost {
			if s.scheduler == nil {
				writeError(w, http.StatusServiceUnavailable, "scheduler not wired")
				return
			}
			if err := s.scheduler.TriggerNow(r.Context(), id.String()); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusAccepted, map[string]string{"task_id": id.String()})
			return
		}

		switch r.Method {
		case http.MethodGet:
			t, err := s.tasks.Get(r.Context(), id)
			if err != nil {
				writeError(w, http.StatusNotFound, "task not found")
				return
			}
			writeJSON(w, http.StatusOK, t)
		case http.MethodDelete:
			if err := s.tasks.Delete(r.Context(), id); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, http.StatusMethodNotAllowed, "unsupported method")
		}
	})
}

// --- reminders: /api/reminders ---

func (s *Server) registerReminderRoutes(mux *http.ServeMux) {
	if s.reminders == nil {
		return
	}

	mux.HandleFunc("/api/reminders", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			list, err := s.reminders.List(r.Context(), domain.ReminderPending)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, list)
		case http.MethodPost:
			var rem domain.Reminder
			if err := json.NewDecoder(r.Body).Decode(&rem); err != nil {
				writeError(w, http.StatusBadRequest, "invalid body")
				return
			}
			rem.ID = uuid.New()
			rem.Status = domain.ReminderPending
			rem.CreatedAt = time.Now()
			if rem.SessionID == "" {
				rem.SessionID = sessions.OfflineSessionID
			}
			if err := s.reminders.Create(r.Context(), &rem); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusCreated, rem)
		default:
			writeError(w, http.StatusMethodNotAllowed, "unsupported method")
		}
	})

	mux.HandleFunc("/api/reminders/", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/api/reminders/"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid reminder id")
			return
		}
		if r.Method != http.MethodDelete {
			writeError(w, http.StatusMethodNotAllowed, "unsupported method")
			return
		}
		if err := s.reminders.Delete(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// --- webhooks: /api/webhooks, /api/webhooks/trigger/{path} ---

func (s *Server) registerWebhookRoutes(mux *http.ServeMux) {
	if s.webhooks == nil {
		return
	}

	mux.HandleFunc("/api/webhooks", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			list, err := s.webhooks.List(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, list)
		case http.MethodPost:
			var wh domain.Webhook
			if err := json.NewDecoder(r.Body).Decode(&wh); err != nil {
				writeError(w, http.StatusBadRequest, "invalid body")
				return
			}
			wh.ID = uuid.New()
			wh.CreatedAt = time.Now()
			if err := s.webhooks.Create(r.Context(), &wh); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusCreated, wh)
		default:
			writeError(w, http.StatusMethodNotAllowed, "unsupported method")
		}
	})

	mux.HandleFunc("/api/webhooks/", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/api/webhooks/"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid webhook id")
			return
		}
		if r.Method != http.MethodDelete {
			writeError(w, http.StatusMethodNotAllowed, "unsupported method")
			return
		}
		if err := s.webhooks.Delete(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/api/webhooks/trigger/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "unsupported method")
			return
		}
		pathSuffix := strings.TrimPrefix(r.URL.Path, "/api/webhooks/trigger/")
		s.handleWebhookTrigger(w, r, pathSuffix)
	})
}

// handleWebhookTrigger implements spec §4.11's webhook trigger sequence:
// lookup -> HMAC verify -> parse -> render -> spawn background task ->
// 202 Accepted. HMAC verification is grounded on
// original_source/radbot/web/api/webhooks.py's _verify_hmac (constant-time
// compare, "sha256=" prefix stripped, X-Signature-256 / X-Hub-Signature-256
// both accepted), implemented with stdlib crypto/hmac + crypto/sha256.
func (s *Server) handleWebhookTrigger(w http.ResponseWriter, r *http.Request, pathSuffix string) {
	wh, err := s.webhooks.GetByPath(r.Context(), pathSuffix)
	if err != nil || wh == nil || !wh.Enabled {
		writeError(w, http.StatusNotFound, "webhook not found")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if wh.Secret != "" {
		sig := r.Header.Get("X-Signature-256")
		if sig == "" {
			sig = r.Header.Get("X-Hub-Signature-256")
		}
		if !verifyHMAC(wh.Secret, body, sig) {
			writeError(w, http.StatusUnauthorized, "invalid signature")
			return
		}
	}

	var payload map[string]any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	prompt := renderWebhookTemplate(wh.PromptTemplate, payload)
	sessionID := sessions.WebhookSessionID(wh.ID.String())

	go s.runWebhookJob(wh.ID.String(), sessionID, prompt)

	_ = s.webhooks.RecordTrigger(r.Context(), wh.ID, time.Now())
	writeJSON(w, http.StatusAccepted, map[string]string{"webhook_id": wh.ID.String()})
}

func (s *Server) runWebhookJob(webhookID, sessionID, prompt string) {
	ctx := context.Background()
	res, err := s.runner.ProcessMessage(ctx, sessionID, "", prompt)
	payload := map[string]any{"webhook_id": webhookID}
	if err != nil {
		payload["error"] = err.Error()
	} else {
		payload["content"] = res.Response
	}
	s.connMgr.BroadcastToSession(sessionID, protocol.EventFrame{Type: "webhook_result", Payload: payload})
}

func verifyHMAC(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	signature = strings.TrimPrefix(signature, "sha256=")
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// renderWebhookTemplate performs the minimal "{{field}}" substitution the
// original's webhook prompt templates rely on; anything fancier is out of
// scope (no templating engine is wired anywhere in the retrieval pack).
func renderWebhookTemplate(template string, payload map[string]any) string {
	out := template
	for k, v := range payload {
		out = strings.ReplaceAll(out, "{{"+k+"}}", toString(v))
	}
	return out
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}
