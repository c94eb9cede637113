package messaging

import (
	"context"
	"net/http"
	"strings"

	"github.com/iconicmx/chatbot-platform/internal/compose"
	"github.com/iconicmx/chatbot-platform/internal/observability/metrics"
	"github.com/iconicmx/chatbot-platform/pkg/logging"
)

// Responder produces a reply for one inbound message.
type Responder interface {
	Respond(ctx context.Context, userID, text string) (compose.Reply, error)
}

// WebhookConfig holds the inbound webhook settings.
type WebhookConfig struct {
	AuthToken string
	// WebhookURL is the public URL Twilio signs; required when
	// ValidateSignature is on.
	WebhookURL        string
	ValidateSignature bool
}

// Handler serves the Twilio WhatsApp webhook and answers synchronously with
// TwiML.
type Handler struct {
	responder Responder
	cfg       WebhookConfig
	metrics   *metrics.ConversationMetrics
	logger    *logging.Logger
}

// NewHandler creates the WhatsApp webhook handler.
func NewHandler(responder Responder, cfg WebhookConfig, m *metrics.ConversationMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{responder: responder, cfg: cfg, metrics: m, logger: logger}
}

const errorReplyText = "Lo siento, hubo un error procesando tu mensaje. Inténtalo de nuevo en un momento."

// HandleWhatsApp handles POST /webhooks/twilio/whatsapp.
func (h *Handler) HandleWhatsApp(w http.ResponseWriter, r *http.Request) {
	if h.cfg.ValidateSignature && !ValidateTwilioSignature(r, h.cfg.AuthToken, h.cfg.WebhookURL) {
		h.metrics.ObserveInbound("whatsapp", "rejected")
		h.logger.Warn("rejected webhook with invalid signature", "remote", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusForbidden)
		return
	}

	inbound, err := ParseInbound(r)
	if err != nil {
		h.metrics.ObserveInbound("whatsapp", "bad_request")
		http.Error(w, "invalid webhook payload", http.StatusBadRequest)
		return
	}
	if inbound.From == "" || strings.TrimSpace(inbound.Body) == "" {
		h.metrics.ObserveInbound("whatsapp", "bad_request")
		http.Error(w, "From and Body are required", http.StatusBadRequest)
		return
	}

	// The sender address is the opaque user identity, e.g.
	// "whatsapp:+5215512345678".
	reply, err := h.responder.Respond(r.Context(), inbound.From, inbound.Body)
	body := FlattenReply(reply)
	if err != nil {
		h.metrics.ObserveInbound("whatsapp", "error")
		h.logger.Error("failed to process whatsapp message",
			"error", err, "message_sid", inbound.MessageSid)
		body = errorReplyText
	} else {
		h.metrics.ObserveInbound("whatsapp", "ok")
	}

	twiml, err := RenderTwiML(body)
	if err != nil {
		h.logger.Error("failed to render twiml", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	if _, err := w.Write(twiml); err != nil {
		h.logger.Error("failed to write twiml response", "error", err)
	}
}
