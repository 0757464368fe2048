// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port             string
	FrontendURL      string
	DBDriver         string // "sqlite" or "postgres"
	DBPath           string
	DatabaseURL      string
	GRPCHealthAddr   string // empty disables the gRPC health server
	WSReadLimitBytes int64
	Reasoning        ReasoningConfig
	Speech           SpeechConfig
	Timeout          TimeoutConfig
	TranscriptLog    TranscriptLogConfig
}

// ReasoningConfig configures the Gemini collaborator.
type ReasoningConfig struct {
	APIKey      string
	Model       string // overrides the startup probe when set
	ImageWindow int
}

// SpeechConfig configures ElevenLabs synthesis.
type SpeechConfig struct {
	APIKey  string
	VoiceID string
	ModelID string
}

// TimeoutConfig bounds every upstream call of a session.
type TimeoutConfig struct {
	Ask         time.Duration
	Grade       time.Duration
	Synthesis   time.Duration
	Store       time.Duration
	ModelProbe  time.Duration
	HealthCheck time.Duration
}

// TranscriptLogConfig controls NDJSON transcript logging.
type TranscriptLogConfig struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8000"),
		FrontendURL:      getEnv("FRONTEND_URL", ""),
		DBDriver:         strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBPath:           getEnv("DB_PATH", "./data/interview_data.db"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		GRPCHealthAddr:   getEnv("GRPC_HEALTH_ADDR", ""),
		WSReadLimitBytes: int64(getEnvInt("WS_READ_LIMIT_BYTES", 10<<20)),
		Reasoning: ReasoningConfig{
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			Model:       getEnv("GEMINI_MODEL", ""),
			ImageWindow: getEnvInt("REASONING_IMAGE_WINDOW", 3),
		},
		Speech: SpeechConfig{
			APIKey:  getEnv("ELEVENLABS_API_KEY", ""),
			VoiceID: getEnv("ELEVENLABS_VOICE_ID", "JBFqnCBv7vXPZ7WpL6th"),
			ModelID: getEnv("ELEVENLABS_MODEL_ID", "eleven_flash_v2_5"),
		},
		Timeout: TimeoutConfig{
			Ask:         getEnvDuration("ASK_TIMEOUT", 30*time.Second),
			Grade:       getEnvDuration("GRADE_TIMEOUT", 60*time.Second),
			Synthesis:   getEnvDuration("TTS_TIMEOUT", 15*time.Second),
			Store:       getEnvDuration("STORE_TIMEOUT", 5*time.Second),
			ModelProbe:  getEnvDuration("MODEL_PROBE_TIMEOUT", 10*time.Second),
			HealthCheck: getEnvDuration("HEALTH_CHECK_TIMEOUT", 5*time.Second),
		},
		TranscriptLog: TranscriptLogConfig{
			Enabled:       getEnvBool("TRANSCRIPT_LOG_ENABLED", true),
			Dir:           getEnv("TRANSCRIPT_LOG_DIR", "./data/logs/transcripts"),
			GlobalEnabled: getEnvBool("TRANSCRIPT_LOG_GLOBAL_ENABLED", false),
			GlobalPath:    getEnv("TRANSCRIPT_LOG_GLOBAL_PATH", "./data/logs/transcripts/all.ndjson"),
			QueueSize:     getEnvInt("TRANSCRIPT_LOG_QUEUE_SIZE", 1000),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}
	if c.WSReadLimitBytes <= 0 {
		return fmt.Errorf("WS_READ_LIMIT_BYTES must be > 0")
	}
	if c.Reasoning.ImageWindow <= 0 {
		return fmt.Errorf("REASONING_IMAGE_WINDOW must be > 0")
	}
	for name, d := range map[string]time.Duration{
		"ASK_TIMEOUT":   c.Timeout.Ask,
		"GRADE_TIMEOUT": c.Timeout.Grade,
		"TTS_TIMEOUT":   c.Timeout.Synthesis,
		"STORE_TIMEOUT": c.Timeout.Store,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be > 0", name)
		}
	}
	if c.TranscriptLog.Enabled && c.TranscriptLog.Dir == "" {
		return fmt.Errorf("TRANSCRIPT_LOG_DIR cannot be empty")
	}
	if c.TranscriptLog.QueueSize <= 0 {
		return fmt.Errorf("TRANSCRIPT_LOG_QUEUE_SIZE must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// AllowedOrigins returns the CORS origins for the HTTP API.
func (c *Config) AllowedOrigins() []string {
	if c.IsDevelopment() {
		return []string{"*"}
	}
	return []string{c.FrontendURL}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
