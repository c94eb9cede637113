package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iconicmx/chatbot-platform/internal/api/router"
	"github.com/iconicmx/chatbot-platform/internal/availability"
	"github.com/iconicmx/chatbot-platform/internal/booking"
	"github.com/iconicmx/chatbot-platform/internal/catalog"
	"github.com/iconicmx/chatbot-platform/internal/compose"
	appconfig "github.com/iconicmx/chatbot-platform/internal/config"
	"github.com/iconicmx/chatbot-platform/internal/conversation"
	"github.com/iconicmx/chatbot-platform/internal/intent"
	"github.com/iconicmx/chatbot-platform/internal/messaging"
	"github.com/iconicmx/chatbot-platform/internal/notify"
	"github.com/iconicmx/chatbot-platform/internal/observability/metrics"
	"github.com/iconicmx/chatbot-platform/internal/webchat"
	"github.com/iconicmx/chatbot-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting chatbot-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// Clinic content catalog.
	var cat *catalog.Catalog
	var err error
	if cfg.CatalogPath != "" {
		cat, err = catalog.LoadFile(cfg.CatalogPath)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		logger.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	convMetrics := metrics.NewConversationMetrics(registry)

	// Optional Redis backend for sessions and transcripts.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err, "addr", cfg.RedisAddr)
			os.Exit(1)
		}
		logger.Info("connected to redis", "addr", cfg.RedisAddr)
	}

	var sessions booking.SessionStore
	var transcript *conversation.TranscriptStore
	if cfg.SessionBackend == "redis" && redisClient != nil {
		sessions = booking.NewRedisStore(redisClient, cfg.SessionIdleTTL)
	} else {
		if cfg.SessionBackend == "redis" {
			logger.Warn("SESSION_BACKEND=redis but REDIS_ADDR is unset, using in-memory sessions")
		}
		sessions = booking.NewMemoryStore(cfg.SessionIdleTTL)
	}
	if redisClient != nil {
		transcript = conversation.NewTranscriptStore(redisClient, cfg.TranscriptTTL)
	}

	// Optional Postgres persistence for confirmed bookings.
	var recorder booking.Recorder
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(context.Background()); err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		logger.Info("connected to postgres")
		recorder = booking.NewRepository(pool, logger)
	} else {
		logger.Warn("DATABASE_URL is unset, confirmed bookings are kept in memory only")
		recorder = booking.NewMemoryRecorder()
	}

	// Staff notifications on confirmed bookings.
	var notifier conversation.Notifier
	var emailSender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	}
	var whatsappSender notify.MessageSender
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioWhatsAppNumber != "" {
		whatsappSender = messaging.NewWhatsAppSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber, logger)
	}
	if emailSender != nil || whatsappSender != nil {
		notifier = notify.NewService(emailSender, whatsappSender, cfg.NotifyEmails, cfg.NotifyWhatsApp, logger)
	}

	composer := compose.NewComposer(cat)
	slots := availability.NewCachedProvider(time.Now)
	machine := booking.NewMachine(cat, slots, composer)

	service := conversation.NewService(conversation.ServiceConfig{
		Classifier: intent.NewClassifier(),
		Machine:    machine,
		Sessions:   sessions,
		Recorder:   recorder,
		Composer:   composer,
		Notifier:   notifier,
		Transcript: transcript,
		Metrics:    convMetrics,
		Logger:     logger,
	})

	conversationHandler := conversation.NewHandler(service, convMetrics, logger)
	webhookURL := strings.TrimRight(cfg.PublicBaseURL, "/") + "/webhooks/twilio/whatsapp"
	messagingHandler := messaging.NewHandler(service, messaging.WebhookConfig{
		AuthToken:         cfg.TwilioAuthToken,
		WebhookURL:        webhookURL,
		ValidateSignature: cfg.TwilioValidateSig,
	}, convMetrics, logger)
	webchatHandler := webchat.NewHandler(service, transcript, logger)

	r := router.New(&router.Config{
		Logger:              logger,
		ConversationHandler: conversationHandler,
		MessagingHandler:    messagingHandler,
		WebchatHandler:      webchatHandler,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Info("server stopped")
}
