// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	Port                string
	FrontendURL         string
	StaticDir           string
	MaxRequestBodyBytes int64
	LogLevel            string
	CORSOrigins         []string

	LLM       LLMConfig
	Game      GameConfig
	Session   SessionConfig
	Enrich    EnrichConfig
	Learning  LearningConfig
	RateLimit RateLimitConfig
}

// LLMConfig selects and tunes the language model provider.
type LLMConfig struct {
	Provider         string
	APIKey           string
	BaseURL          string
	Model            string
	Timeout          time.Duration
	MaxTokens        int
	StartMaxTokens   int
	Temperature      float64
	RetryTemperature float64
}

// GameConfig tunes when the model is asked to guess.
type GameConfig struct {
	GuessMinQuestions int
	GuessMaxQuestions int
	GuessConfidence   float64
	HistoryWindow     int
	DuplicateRetries  int
}

// SessionConfig controls where game sessions live and how long.
type SessionConfig struct {
	Store         string
	RedisURL      string
	TTL           time.Duration
	SweepInterval time.Duration
	MaxSessions   int
}

// EnrichConfig controls guess image and description lookups.
type EnrichConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// LearningConfig controls the guess outcome log.
type LearningConfig struct {
	Enabled   bool
	DBPath    string
	LogPath   string
	QueueSize int
}

// RateLimitConfig bounds requests per client on the game API.
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "3000"),
		FrontendURL:         getEnv("FRONTEND_URL", ""),
		StaticDir:           getEnv("STATIC_DIR", "./public"),
		MaxRequestBodyBytes: int64(getEnvInt("MAX_REQUEST_BODY_BYTES", 1<<20)),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		CORSOrigins:         getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LLM: LLMConfig{
			Provider:         strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
			APIKey:           firstEnv("LLM_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY"),
			BaseURL:          getEnv("LLM_BASE_URL", ""),
			Model:            getEnv("LLM_MODEL", ""),
			Timeout:          getEnvDuration("LLM_TIMEOUT", 30*time.Second),
			MaxTokens:        getEnvInt("LLM_MAX_TOKENS", 40),
			StartMaxTokens:   getEnvInt("LLM_START_MAX_TOKENS", 50),
			Temperature:      getEnvFloat("LLM_TEMPERATURE", 0.7),
			RetryTemperature: getEnvFloat("LLM_RETRY_TEMPERATURE", 0.8),
		},
		Game: GameConfig{
			GuessMinQuestions: getEnvInt("GAME_GUESS_MIN_QUESTIONS", 15),
			GuessMaxQuestions: getEnvInt("GAME_GUESS_MAX_QUESTIONS", 20),
			GuessConfidence:   getEnvFloat("GAME_GUESS_CONFIDENCE", 0.5),
			HistoryWindow:     getEnvInt("GAME_HISTORY_WINDOW", 10),
			DuplicateRetries:  getEnvInt("GAME_DUPLICATE_RETRIES", 3),
		},
		Session: SessionConfig{
			Store:         strings.ToLower(getEnv("SESSION_STORE", SessionStoreMemory)),
			RedisURL:      getEnv("REDIS_URL", ""),
			TTL:           getEnvDuration("SESSION_TTL", 60*time.Minute),
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute),
			MaxSessions:   getEnvInt("SESSION_MAX", 10000),
		},
		Enrich: EnrichConfig{
			BaseURL:   getEnv("ENRICH_BASE_URL", "https://en.wikipedia.org/api/rest_v1"),
			Timeout:   getEnvDuration("ENRICH_TIMEOUT", 5*time.Second),
			UserAgent: getEnv("ENRICH_USER_AGENT", "twentyq/1.0 (+https://github.com/ashureev/twentyq)"),
		},
		Learning: LearningConfig{
			Enabled:   getEnvBool("LEARNING_LOG_ENABLED", true),
			DBPath:    getEnv("LEARNING_DB_PATH", "./data/learning.db"),
			LogPath:   getEnv("LEARNING_LOG_PATH", "./data/learning_data.ndjson"),
			QueueSize: getEnvInt("LEARNING_LOG_QUEUE_SIZE", 256),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: getEnvInt("RATE_LIMIT_REQUESTS", 60),
			WindowDuration:    getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
//
//nolint:gocyclo // Flat list of independent checks.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.MaxRequestBodyBytes <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_BYTES must be > 0")
	}
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("LLM_API_KEY (or ANTHROPIC_API_KEY / OPENAI_API_KEY) is required")
		}
	case "mock":
	default:
		return fmt.Errorf("LLM_PROVIDER must be openai or mock, got %q", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be > 0")
	}
	if c.LLM.MaxTokens <= 0 || c.LLM.StartMaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS and LLM_START_MAX_TOKENS must be > 0")
	}
	if c.Game.GuessMinQuestions <= 0 || c.Game.GuessMaxQuestions < c.Game.GuessMinQuestions {
		return fmt.Errorf("GAME_GUESS_MAX_QUESTIONS must be >= GAME_GUESS_MIN_QUESTIONS > 0")
	}
	if c.Game.GuessConfidence < 0 || c.Game.GuessConfidence > 1 {
		return fmt.Errorf("GAME_GUESS_CONFIDENCE must be within [0, 1]")
	}
	if c.Game.HistoryWindow <= 0 {
		return fmt.Errorf("GAME_HISTORY_WINDOW must be > 0")
	}
	if c.Game.DuplicateRetries < 0 {
		return fmt.Errorf("GAME_DUPLICATE_RETRIES cannot be negative")
	}
	switch c.Session.Store {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.Session.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be memory or redis, got %q", c.Session.Store)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.Learning.Enabled && c.Learning.DBPath == "" && c.Learning.LogPath == "" {
		return fmt.Errorf("LEARNING_DB_PATH or LEARNING_LOG_PATH is required when the learning log is enabled")
	}
	if c.Learning.QueueSize <= 0 {
		return fmt.Errorf("LEARNING_LOG_QUEUE_SIZE must be > 0")
	}
	if c.RateLimit.RequestsPerWindow <= 0 || c.RateLimit.WindowDuration <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env == "development"
	}
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
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

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
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
