package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconicmx/chatbot-platform/internal/conversation"
	httpmiddleware "github.com/iconicmx/chatbot-platform/internal/http/middleware"
	"github.com/iconicmx/chatbot-platform/internal/messaging"
	"github.com/iconicmx/chatbot-platform/internal/webchat"
	"github.com/iconicmx/chatbot-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	ConversationHandler *conversation.Handler
	MessagingHandler    *messaging.Handler
	WebchatHandler      *webchat.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.ConversationHandler.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Post("/chat", cfg.ConversationHandler.Chat)
	})

	if cfg.MessagingHandler != nil {
		r.Route("/webhooks/twilio", func(wh chi.Router) {
			wh.Post("/whatsapp", cfg.MessagingHandler.HandleWhatsApp)
		})
	}

	if cfg.WebchatHandler != nil {
		r.Route("/webchat", func(wc chi.Router) {
			wc.Get("/ws", cfg.WebchatHandler.HandleWebSocket)
			wc.Post("/message", cfg.WebchatHandler.HandleMessage)
			wc.Get("/history", cfg.WebchatHandler.HandleHistory)
		})
	}

	return r
}
