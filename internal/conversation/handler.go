package conversation

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/iconicmx/chatbot-platform/internal/compose"
	"github.com/iconicmx/chatbot-platform/internal/observability/metrics"
	"github.com/iconicmx/chatbot-platform/pkg/logging"
)

// Handler wires HTTP requests to the conversation service.
type Handler struct {
	service *Service
	metrics *metrics.ConversationMetrics
	logger  *logging.Logger
	started time.Time
}

// NewHandler creates a conversation handler.
func NewHandler(service *Service, m *metrics.ConversationMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: service,
		metrics: m,
		logger:  logger,
		started: time.Now(),
	}
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type chatResponse struct {
	Success   bool          `json:"success"`
	Query     string        `json:"query"`
	Reply     compose.Reply `json:"reply"`
	Timestamp string        `json:"timestamp"`
}

// Chat handles POST /api/chat for direct API access and development.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode chat request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = "web:anonymous"
	}

	reply, err := h.service.Respond(r.Context(), userID, req.Message)
	if err != nil {
		h.metrics.ObserveInbound("api", "error")
		h.logger.Error("failed to process chat message", "error", err, "user_id", userID)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}
	h.metrics.ObserveInbound("api", "ok")

	h.writeJSON(w, http.StatusOK, chatResponse{
		Success:   true,
		Query:     req.Message,
		Reply:     reply,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"service":        "iconic-chatbot",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
