// Package webchat serves the website chat channel over WebSocket with an
// HTTP fallback. Replies are produced synchronously by the conversation
// service and pushed back on the same connection.
package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/iconicmx/chatbot-platform/internal/compose"
	"github.com/iconicmx/chatbot-platform/internal/conversation"
	"github.com/iconicmx/chatbot-platform/pkg/logging"
)

// Responder produces a reply for one inbound message.
type Responder interface {
	Respond(ctx context.Context, userID, text string) (compose.Reply, error)
}

// Handler manages web chat connections and messages.
type Handler struct {
	responder  Responder
	transcript *conversation.TranscriptStore
	logger     *logging.Logger
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string           `json:"type"` // "message", "session", "history", "pong", "error"
	Kind      string           `json:"kind,omitempty"`
	Text      string           `json:"text,omitempty"`
	Buttons   []compose.Button `json:"buttons,omitempty"`
	Step      int              `json:"step,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
	Messages  []HistoryMessage `json:"messages,omitempty"`
}

// HistoryMessage is a simplified message for history responses.
type HistoryMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// NewHandler creates a web chat handler. transcript may be nil.
func NewHandler(responder Responder, transcript *conversation.TranscriptStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{responder: responder, transcript: transcript, logger: logger}
}

// UserID builds the opaque identity for a webchat session.
func UserID(sessionID string) string {
	return "webchat:" + sessionID
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = generateSessionID()
	}
	userID := UserID(sessionID)

	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})

	// Replay history for returning visitors.
	if h.transcript != nil {
		if msgs, err := h.transcript.List(r.Context(), userID, 50); err == nil && len(msgs) > 0 {
			history := make([]HistoryMessage, 0, len(msgs))
			for _, m := range msgs {
				history = append(history, HistoryMessage{
					Role:      m.Role,
					Text:      m.Body,
					Timestamp: m.Timestamp.Format(time.RFC3339),
				})
			}
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: history})
		}
	}

	h.logger.Info("webchat: connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}
		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}

		reply, err := h.responder.Respond(r.Context(), userID, msg.Text)
		if err != nil {
			h.logger.Error("webchat: failed to process message", "error", err, "session_id", sessionID)
			_ = websocket.JSON.Send(conn, OutboundMessage{
				Type: "error",
				Text: "Lo siento, algo salió mal. Inténtalo de nuevo.",
			})
			continue
		}

		_ = websocket.JSON.Send(conn, OutboundMessage{
			Type:      "message",
			Kind:      string(reply.Kind),
			Text:      reply.Text,
			Buttons:   reply.Buttons,
			Step:      reply.Step,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// HandleMessage is the HTTP fallback for sending messages.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = generateSessionID()
	}

	reply, err := h.responder.Respond(r.Context(), UserID(req.SessionID), req.Text)
	if err != nil {
		h.logger.Error("webchat: failed to process message", "error", err, "session_id", req.SessionID)
		http.Error(w, "failed to process message", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"session_id": req.SessionID,
		"reply":      reply,
	})
}

// HandleHistory returns chat history for a session.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	history := []HistoryMessage{}
	if h.transcript != nil {
		msgs, err := h.transcript.List(r.Context(), UserID(sessionID), 100)
		if err != nil {
			h.logger.Error("webchat: failed to load history", "error", err)
			http.Error(w, "failed to load history", http.StatusInternalServerError)
			return
		}
		for _, m := range msgs {
			history = append(history, HistoryMessage{
				Role:      m.Role,
				Text:      m.Body,
				Timestamp: m.Timestamp.Format(time.RFC3339),
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"messages": history})
}
