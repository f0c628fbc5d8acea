// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/justicehub/platform/internal/cache"
	"github.com/justicehub/platform/internal/config"
	"github.com/justicehub/platform/internal/handler"
	"github.com/justicehub/platform/internal/jobs"
	"github.com/justicehub/platform/internal/llm"
	"github.com/justicehub/platform/internal/middleware"
	"github.com/justicehub/platform/internal/model"
	natsclient "github.com/justicehub/platform/internal/nats"
	"github.com/justicehub/platform/internal/service"
	"github.com/justicehub/platform/internal/store"
	"github.com/justicehub/platform/pkg/logger"
	"github.com/justicehub/platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server", zap.String("env", cfg.Env))

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "justicehub-api", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to PostgreSQL
	st, err := store.Open(cfg.DatabaseURL, store.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	}, log)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer st.Close()

	if cfg.AutoMigrate {
		if err := st.Migrate(ctx); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	// Lawyer profile cache. Without Redis every read goes to the database.
	var lawyerCache cache.LawyerCache = cache.NopLawyerCache{}
	if cfg.RedisURL != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, lawyer cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			lawyerCache = cache.NewRedisLawyerCache(rdb, cfg.LawyerCacheTTL, log)
		}
	}

	// Connect to NATS
	natsClient, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to NATS", zap.Error(err))
	}
	defer natsClient.Close()

	// Ensure JetStream stream exists
	streamManager := natsclient.NewStreamManager(natsClient)
	if err := streamManager.EnsureStream(ctx); err != nil {
		log.Fatal("failed to ensure stream", zap.Error(err))
	}

	// Initialize LLM client
	llmClient, err := newLLMClient(cfg)
	if err != nil {
		log.Fatal("failed to create LLM client", zap.Error(err))
	}
	log.Info("LLM client ready", zap.String("provider", llmClient.Name()))

	// Token verification
	verifier := middleware.NewHMACVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	if cfg.JWKSURL != "" {
		verifier, err = middleware.NewJWKSVerifier(ctx, cfg.JWKSURL, cfg.JWTIssuer)
		if err != nil {
			log.Fatal("failed to load JWKS", zap.Error(err))
		}
	}

	// Initialize services
	policy := model.ParseTransitionPolicy(cfg.StatusTransitions)
	lawyerSvc := service.NewLawyerService(st, lawyerCache, log)
	appointmentSvc := service.NewAppointmentService(st, policy, log)
	consultationSvc := service.NewConsultationService(st, policy, log)
	conversationSvc := service.NewConversationService(st, streamManager, log)
	searchSvc := service.NewSearchService(st, llmClient, cfg.LLMModel, log)
	assistant := service.NewLawyerAssistant(lawyerSvc, llmClient, cfg.LLMModel, cfg.AssistantRPS, log)
	chatSvc := service.NewChatService(st, llmClient, cfg.LLMModel, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(map[string]handler.Pinger{
		"database": st,
		"nats":     natsClient,
	})
	lawyerHandler := handler.NewLawyerHandler(lawyerSvc, searchSvc, assistant, appointmentSvc, consultationSvc)
	bookingHandler := handler.NewBookingHandler(appointmentSvc, consultationSvc)
	messageHandler := handler.NewMessageHandler(conversationSvc)
	chatHandler := handler.NewChatHandler(chatSvc)
	streamHandler := handler.NewStreamHandler(chatSvc, streamManager)

	// Scheduled gauge refresh
	scheduler := jobs.NewScheduler(st, streamManager, log)
	if err := scheduler.Start(cfg.MetricsSchedule); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err))
	}

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(verifier))
		r.Use(middleware.UserRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Lawyer directory
		r.Route("/lawyers", func(r chi.Router) {
			r.Get("/", lawyerHandler.List)
			r.Post("/search", lawyerHandler.Search)
			r.Get("/{id}", lawyerHandler.Get)
			r.Get("/{id}/consultations", lawyerHandler.Consultations)
			r.Post("/{id}/assistant", lawyerHandler.Assistant)
		})

		// Caller's own lawyer profile
		r.Route("/lawyer", func(r chi.Router) {
			r.Get("/", lawyerHandler.Dashboard)
			r.Post("/", lawyerHandler.Upsert)
			r.Post("/register", lawyerHandler.Register)
			r.Get("/appointments", lawyerHandler.Appointments)
			r.Put("/appointments", lawyerHandler.UpdateAppointment)
			r.Put("/consultations", lawyerHandler.UpdateConsultation)
		})

		// Bookings
		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", bookingHandler.BookAppointment)
			r.Get("/", bookingHandler.ListAppointments)
		})
		r.Route("/consultations", func(r chi.Router) {
			r.Post("/", bookingHandler.BookConsultation)
			r.Get("/", bookingHandler.ListConsultations)
			r.Get("/{id}", bookingHandler.GetConsultation)
			r.Patch("/{id}", bookingHandler.PatchConsultation)
			r.Delete("/{id}", bookingHandler.CancelConsultation)
		})

		// Direct messages
		r.Route("/messages", func(r chi.Router) {
			r.Get("/", messageHandler.With)
			r.Post("/", messageHandler.Send)
			r.Put("/read", messageHandler.MarkRead)
			r.Get("/conversations", messageHandler.Conversations)
			r.Get("/conversations/{id}", messageHandler.Conversation)
			r.Get("/stream", streamHandler.Messages)
		})

		// AI assistant chats
		r.Route("/chats", func(r chi.Router) {
			r.Post("/", chatHandler.Create)
			r.Get("/", chatHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", chatHandler.Get)
				r.Patch("/", chatHandler.Rename)
				r.Delete("/", chatHandler.Delete)

				r.Get("/messages", chatHandler.Messages)
				r.Post("/messages", chatHandler.Append)

				// Streaming
				r.Post("/stream", streamHandler.Chat)
			})
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	scheduler.Stop(shutdownCtx)

	log.Info("server stopped")
}

// newLLMClient builds the client for the configured provider, falling back
// to whichever provider has a key.
func newLLMClient(cfg *config.Config) (llm.Client, error) {
	keys := map[llm.Provider]string{
		llm.ProviderAnthropic: cfg.AnthropicAPIKey,
		llm.ProviderOpenAI:    cfg.OpenAIAPIKey,
	}

	provider := llm.ParseProvider(cfg.DefaultLLM)
	if keys[provider] == "" {
		switch {
		case cfg.AnthropicAPIKey != "":
			provider = llm.ProviderAnthropic
		case cfg.OpenAIAPIKey != "":
			provider = llm.ProviderOpenAI
		default:
			return nil, errors.New("no LLM API key configured")
		}
	}

	client, err := llm.NewClient(provider, keys[provider])
	if err != nil {
		return nil, err
	}
	return llm.Instrument(client), nil
}
