// Package gateway implements the Connection Manager (spec §4.9) and the
// HTTP/WebSocket Surface (spec §4.11): a single *http.ServeMux serving the
// WS endpoint, REST CRUD for sessions/scheduled-tasks/reminders/webhooks,
// and health probes, grounded on the teacher's internal/gateway/server.go
// BuildMux/Client/RateLimiter shape (generalised per SPEC_FULL §4.9/§4.11;
// none of the teacher's managed-mode, OpenAI-compat, or channel-pairing
// surface area applies here).
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/bus"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/config"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/runner"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/store"
	"github.com/nextlevelbuilder/goclaw-orchestrator/pkg/protocol"
)

// Scheduler is the slice of *scheduler.Scheduler the gateway needs: manual
// trigger for the scheduled-task REST endpoint. A narrow interface avoids
// an import cycle (scheduler depends on a ConnBroadcaster interface this
// package's *ConnectionManager satisfies, not on the gateway package
// itself).
type Scheduler interface {
	TriggerNow(ctx context.Context, taskID string) error
}

// Server wires the Connection Manager, Session Runner, and durable stores
// behind one HTTP mux.
type Server struct {
	cfg       *config.Config
	eventPub  bus.EventPublisher
	runner    *runner.Runner
	scheduler Scheduler

	sessions  store.SessionStore
	tasks     store.ScheduledTaskStore
	reminders store.ReminderStore
	webhooks  store.WebhookStore

	connMgr       *ConnectionManager
	upgrader      websocket.Upgrader
	rateLimiter   *RateLimiter
	metricsHandler http.Handler

	httpServer *http.Server
	mux        *http.ServeMux
}

// NewServer builds a gateway Server. Store dependencies are optional
// (nil disables the corresponding REST surface) so a minimal deployment
// with only a WS endpoint and the agent runner still wires cleanly.
func NewServer(cfg *config.Config, eventPub bus.EventPublisher, r *runner.Runner, sess store.SessionStore) *Server {
	s := &Server{
		cfg:      cfg,
		eventPub: eventPub,
		runner:   r,
		sessions: sess,
		connMgr:  NewConnectionManager(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
	s.rateLimiter = NewRateLimiter(cfg.Gateway.RateLimitRPM, 5)
	return s
}

// ConnectionManager exposes the registry so the Scheduler Engine can query
// HasConnections/GetAnySessionID and broadcast without this package
// depending on the scheduler package.
func (s *Server) ConnectionManager() *ConnectionManager { return s.connMgr }

func (s *Server) SetScheduler(sch Scheduler)                        { s.scheduler = sch }
func (s *Server) SetScheduledTaskStore(st store.ScheduledTaskStore) { s.tasks = st }
func (s *Server) SetReminderStore(rs store.ReminderStore)           { s.reminders = rs }
func (s *Server) SetWebhookStore(ws store.WebhookStore)             { s.webhooks = ws }

// SetMetricsHandler wires the Prometheus scrape endpoint (spec §4.2/§6).
// Accepting a plain http.Handler (promhttp.Handler()) rather than a
// *telemetry.PromExporter keeps this package from depending on
// prometheus/client_golang directly.
func (s *Server) SetMetricsHandler(h http.Handler) { s.metricsHandler = h }

// BuildMux creates and caches the HTTP mux with all routes registered.
func (s *Server) BuildMux() *http.ServeMux {
	if s.mux != nil {
		return s.mux
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health/live", s.handleHealthLive)
	mux.HandleFunc("/health/ready", s.handleHealthReady)
	mux.HandleFunc("/health/detailed", s.handleHealthDetailed)
	if s.metricsHandler != nil {
		mux.Handle("/metrics", s.metricsHandler)
	}

	s.registerSessionRoutes(mux)
	s.registerScheduledTaskRoutes(mux)
	s.registerReminderRoutes(mux)
	s.registerWebhookRoutes(mux)

	s.mux = mux
	return mux
}

// Start begins listening for WebSocket and HTTP connections. Blocks until
// ctx is cancelled or the listener errors.
func (s *Server) Start(ctx context.Context) error {
	mux := s.BuildMux()
	addr := fmt.Sprintf("%s:%d", s.cfg.Gateway.Host, s.cfg.Gateway.Port)
	s.httpServer = &http.Server{Addr: addr, Handler: mux}

	slog.Info("gateway.starting", "addr", addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("gateway server: %w", err)
	}
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("gateway.ws_upgrade_failed", "error", err)
		return
	}

	client := NewClient(conn, s)
	defer client.Close()

	client.Run(r.Context())

	if client.sessionID != "" {
		s.connMgr.Unregister(client.sessionID, client)
	}
	if s.eventPub != nil {
		s.eventPub.Unsubscribe(client.id)
	}
}

func (s *Server) handleHealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	status, code := s.componentHealth()
	writeJSON(w, code, status)
}

func (s *Server) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	status, code := s.componentHealth()
	status["protocol"] = protocol.ProtocolVersion
	writeJSON(w, code, status)
}

// componentHealth reports the critical components spec §4.11 names
// (database, agent init, memory service). This process has no separate
// "agent init" step to fail independently of store wiring, so readiness
// collapses to "do we have a session store and a configured agent".
func (s *Server) componentHealth() (map[string]any, int) {
	components := map[string]string{}
	healthy := true

	if s.sessions == nil {
		components["database"] = "unavailable"
		healthy = false
	} else {
		components["database"] = "ok"
	}
	if s.runner == nil {
		components["agent"] = "unavailable"
		healthy = false
	} else {
		components["agent"] = "ok"
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	return map[string]any{"status": boolStatus(healthy), "components": components}, code
}

func boolStatus(ok bool) string {
	if ok {
		return "ok"
	}
	return "unhealthy"
}

// dispatch routes one inbound WS text frame by its "type" field.
func (s *Server) dispatch(ctx context.Context, c *Client, frameType string, raw []byte) {
	if !s.rateLimiter.Allow(c.id) {
		c.SendEvent(protocol.EventFrame{Type: "error", Payload: "rate limit exceeded"})
		return
	}

	switch frameType {
	case "hello":
		s.handleHello(c, raw)
	case "message":
		s.handleMessage(ctx, c, raw)
	case "ping":
		c.SendEvent(protocol.EventFrame{Type: "pong"})
	default:
		c.SendEvent(protocol.EventFrame{Type: "error", Payload: "unknown frame type: " + frameType})
	}
}

type helloFrame struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleHello(c *Client, raw []byte) {
	var hf helloFrame
	if err := decodeFrame(raw, &hf); err != nil || hf.SessionID == "" {
		c.SendEvent(protocol.EventFrame{Type: "error", Payload: "hello requires session_id"})
		return
	}
	if c.sessionID != "" {
		s.connMgr.Unregister(c.sessionID, c)
	}
	c.sessionID = hf.SessionID
	s.connMgr.Register(hf.SessionID, c)
	if s.eventPub != nil {
		s.eventPub.Subscribe(c.id, func(ev bus.Event) {
			if strings.HasPrefix(ev.Name, "cache.") {
				return
			}
			c.SendEvent(*protocol.NewEvent(ev.Name, ev.Payload))
		})
	}
	c.SendEvent(protocol.EventFrame{Type: "hello.ack", Payload: map[string]string{"session_id": hf.SessionID}})
}

type messageFrame struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Content   string `json:"content"`
}

func (s *Server) handleMessage(ctx context.Context, c *Client, raw []byte) {
	var mf messageFrame
	if err := decodeFrame(raw, &mf); err != nil || mf.Content == "" {
		c.SendEvent(protocol.EventFrame{Type: "error", Payload: "message requires content"})
		return
	}
	sessionID := mf.SessionID
	if sessionID == "" {
		sessionID = c.sessionID
	}
	if sessionID == "" {
		c.SendEvent(protocol.EventFrame{Type: "error", Payload: "message requires session_id (send hello first)"})
		return
	}

	c.SendEvent(protocol.EventFrame{Type: protocol.EventChat, Payload: map[string]string{"type": "thinking"}})

	res, err := s.runner.ProcessMessage(ctx, sessionID, mf.UserID, mf.Content)
	if err != nil {
		slog.Error("gateway.process_message_failed", "session", sessionID, "error", err)
		c.SendEvent(protocol.EventFrame{Type: "error", Payload: "agent run failed"})
		return
	}

	c.SendEvent(protocol.EventFrame{
		Type: protocol.EventChat,
		Payload: map[string]any{
			"type":    protocol.ChatEventMessage,
			"content": res.Response,
			"run_id":  res.RunID,
		},
	})
	c.SendEvent(protocol.EventFrame{Type: protocol.EventChat, Payload: map[string]string{"type": "ready"}})
}
