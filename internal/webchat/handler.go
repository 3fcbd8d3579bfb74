package webchat

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/ngophungianghi/careai-server/internal/triage"
	"github.com/ngophungianghi/careai-server/pkg/logging"
)

// Handler bridges the browser chat widget to the triage service over a
// WebSocket. Each connection is bound to one triage session.
type Handler struct {
	triage *triage.Service
	logger *logging.Logger

	mu       sync.RWMutex
	sessions map[string]*wsConn // session ID -> active connection
}

type wsConn struct {
	conn *websocket.Conn
	done chan struct{}
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text,omitempty"`
}

// OutboundMessage is what the server pushes back.
type OutboundMessage struct {
	Type           string                 `json:"type"` // "session", "typing", "message", "history", "error", "pong"
	SessionID      string                 `json:"session_id,omitempty"`
	Role           string                 `json:"role,omitempty"`
	Text           string                 `json:"text,omitempty"`
	Recommendation *triage.Recommendation `json:"recommendation,omitempty"`
	Messages       []HistoryMessage       `json:"messages,omitempty"`
	Timestamp      string                 `json:"timestamp,omitempty"`
}

// HistoryMessage is one transcript entry replayed on reconnect.
type HistoryMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

func NewHandler(triageService *triage.Service, logger *logging.Logger) *Handler {
	if triageService == nil {
		panic("webchat: triage service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		triage:   triageService,
		logger:   logger,
		sessions: make(map[string]*wsConn),
	}
}

// WebSocketServer returns the websocket endpoint for GET /webchat/ws.
// An optional session query parameter resumes an existing triage session.
func (h *Handler) WebSocketServer() http.Handler {
	return websocket.Handler(h.serve)
}

func (h *Handler) serve(conn *websocket.Conn) {
	defer conn.Close()

	r := conn.Request()
	ctx := r.Context()

	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	phone := strings.TrimSpace(r.URL.Query().Get("phone"))

	session, err := h.resumeOrStart(ctx, sessionID, phone)
	if err != nil {
		h.logger.Error("webchat: session setup failed", "error", err)
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "Không thể mở phiên tư vấn. Vui lòng thử lại."})
		return
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: session.ID})
	if len(session.Messages) > 0 {
		history := make([]HistoryMessage, 0, len(session.Messages))
		for _, m := range session.Messages {
			history = append(history, HistoryMessage{Role: m.Role, Text: m.Content})
		}
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: history})
	}

	wsc := &wsConn{conn: conn, done: make(chan struct{})}
	h.mu.Lock()
	h.sessions[session.ID] = wsc
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.sessions[session.ID] == wsc {
			delete(h.sessions, session.ID)
		}
		h.mu.Unlock()
		close(wsc.done)
	}()

	h.logger.Info("webchat: connection opened", "session_id", session.ID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", session.ID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}
		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}

		h.processMessage(ctx, session.ID, msg.Text)
	}
}

func (h *Handler) resumeOrStart(ctx context.Context, sessionID, phone string) (*triage.Session, error) {
	if sessionID != "" {
		session, err := h.triage.GetSession(ctx, sessionID)
		if err == nil {
			return session, nil
		}
		// Expired sessions fall through to a fresh one.
	}
	return h.triage.StartSession(ctx, phone)
}

func (h *Handler) processMessage(ctx context.Context, sessionID, text string) {
	h.sendToSession(sessionID, OutboundMessage{Type: "typing"})

	turn, err := h.triage.ProcessMessage(ctx, sessionID, text)
	if err != nil {
		h.logger.Error("webchat: triage turn failed", "session_id", sessionID, "error", err)
		h.sendToSession(sessionID, OutboundMessage{
			Type: "error",
			Text: "Đã có lỗi xảy ra. Vui lòng thử lại.",
		})
		return
	}

	out := OutboundMessage{
		Type:      "message",
		Role:      triage.ChatRoleAssistant,
		Text:      turn.Reply,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if len(turn.Recommendation.DoctorIDs) > 0 || turn.Recommendation.Specialty != "" {
		rec := turn.Recommendation
		out.Recommendation = &rec
	}
	h.sendToSession(sessionID, out)
}

func (h *Handler) sendToSession(sessionID string, msg OutboundMessage) {
	h.mu.RLock()
	wsc, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	_ = websocket.JSON.Send(wsc.conn, msg)
}
