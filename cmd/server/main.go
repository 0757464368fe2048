// Interview Labs - AI Mock Interview Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/ashureev/interview-labs/internal/api"
	"github.com/ashureev/interview-labs/internal/config"
	"github.com/ashureev/interview-labs/internal/health"
	"github.com/ashureev/interview-labs/internal/interview"
	"github.com/ashureev/interview-labs/internal/middleware"
	"github.com/ashureev/interview-labs/internal/reasoning"
	"github.com/ashureev/interview-labs/internal/speech"
	"github.com/ashureev/interview-labs/internal/store"
	"github.com/ashureev/interview-labs/internal/transcript"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "db_driver", cfg.DBDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	reports, err := store.Open(ctx, cfg.DBDriver, cfg.DBPath, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := reports.Close(); closeErr != nil {
			slog.Error("Failed to close report store", "error", closeErr)
		}
	}()

	if err := reports.Ping(ctx); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	transcripts, err := transcript.NewLogger(transcript.Config{
		Enabled:       cfg.TranscriptLog.Enabled,
		Dir:           cfg.TranscriptLog.Dir,
		GlobalEnabled: cfg.TranscriptLog.GlobalEnabled,
		GlobalPath:    cfg.TranscriptLog.GlobalPath,
		QueueSize:     cfg.TranscriptLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize transcript logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := transcripts.Close(); closeErr != nil {
			slog.Error("Failed to close transcript logger", "error", closeErr)
		}
	}()

	httpClient := &http.Client{Timeout: 2 * time.Minute}
	model := newModel(ctx, cfg, httpClient, logger)
	synthesizer := newSynthesizer(cfg, httpClient, logger)

	// Initialize services.
	sm := interview.NewSessionManager()
	orchestrator := interview.New(interview.Deps{
		Model:       model,
		Synthesizer: synthesizer,
		Store:       reports,
		Transcripts: transcripts,
		Manager:     sm,
		Logger:      logger,
		Timeouts: interview.Timeouts{
			Ask:       cfg.Timeout.Ask,
			Grade:     cfg.Timeout.Grade,
			Synthesis: cfg.Timeout.Synthesis,
			Store:     cfg.Timeout.Store,
		},
		ImageWindow: cfg.Reasoning.ImageWindow,
	})

	// Initialize handlers.
	baseHandler := api.NewHandler(reports, sm)
	healthHandler := api.NewHealthHandler(baseHandler, cfg.Timeout.HealthCheck)
	reportHandler := api.NewReportHandler(baseHandler)
	wsHandler := interview.NewWebSocketHandler(orchestrator, cfg.FrontendURL, cfg.IsDevelopment(), cfg.WSReadLimitBytes)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins()))

	healthHandler.RegisterHealth(r)
	reportHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/interview", wsHandler.ServeHTTP)

	// Interviews are long-lived WebSocket connections: no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	var healthSrv *health.Server
	if cfg.GRPCHealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
		if err != nil {
			slog.Error("Failed to listen for gRPC health", "addr", cfg.GRPCHealthAddr, "error", err)
			os.Exit(1)
		}
		healthSrv = health.NewServer(reports, health.Config{Timeout: cfg.Timeout.HealthCheck}, logger)
		go func() {
			if err := healthSrv.Serve(ctx, lis); err != nil {
				slog.Error("gRPC health server failed", "error", err)
			}
		}()
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...", "active_sessions", sm.Count())

	if healthSrv != nil {
		healthSrv.Stop()
	}
	sm.CloseAll("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

// newModel connects to Gemini and picks the model once for the process
// lifetime. Without an API key every turn falls back.
func newModel(ctx context.Context, cfg *config.Config, httpClient *http.Client, logger *slog.Logger) reasoning.Model {
	if cfg.Reasoning.APIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, interviewer will only send fallback replies")
		return reasoning.Unavailable{}
	}

	gemini, err := reasoning.NewGemini(ctx, cfg.Reasoning.APIKey, httpClient, logger)
	if err != nil {
		slog.Warn("Failed to initialize Gemini client, interviewer disabled", "error", err)
		return reasoning.Unavailable{}
	}

	modelName := cfg.Reasoning.Model
	if modelName == "" {
		probeCtx, cancel := context.WithTimeout(ctx, cfg.Timeout.ModelProbe)
		modelName = reasoning.SelectModel(probeCtx, gemini, reasoning.PreferredModels, reasoning.FallbackModel, logger)
		cancel()
	}
	bound := gemini.WithModel(modelName)
	slog.Info("Reasoning model ready", "model", bound.ModelName())
	return bound
}

func newSynthesizer(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) speech.Synthesizer {
	if cfg.Speech.APIKey == "" {
		slog.Info("ELEVENLABS_API_KEY not set, responses will be text-only")
		return speech.Disabled{}
	}
	slog.Info("Speech synthesis enabled", "voice_id", cfg.Speech.VoiceID, "model_id", cfg.Speech.ModelID)
	return speech.NewElevenLabs(speech.ElevenLabsConfig{
		APIKey:  cfg.Speech.APIKey,
		VoiceID: cfg.Speech.VoiceID,
		ModelID: cfg.Speech.ModelID,
	}, httpClient, logger)
}
