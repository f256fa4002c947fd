package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	BackendGemini = "gemini"
	BackendVertex = "vertex"
)

type Config struct {
	Env      string
	LogLevel string
	Port     string

	Backend       string
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	ProjectID string
	Location  string
	VTOModel  string
	UseSDK    bool

	RequestTimeout     time.Duration
	MaxUploadBytes     int64
	SessionIdleTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisUseTLS   bool
	HistoryTTL    time.Duration
}

// Load reads .env files when present and then the process environment.
func Load() Config {
	// missing env files are fine
	_ = godotenv.Load(".env", ".env.local")
	return FromEnv()
}

func FromEnv() Config {
	c := Config{
		Env:      getenv("APP_ENV", "development"),
		LogLevel: getenv("LOG_LEVEL", ""),
		Port:     getenv("PORT", "8080"),

		Backend:       strings.ToLower(getenv("TRYON_BACKEND", BackendGemini)),
		GeminiAPIKey:  firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("API_KEY")),
		GeminiModel:   getenv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		GeminiBaseURL: getenv("GEMINI_BASE_URL", ""),

		ProjectID: firstNonEmpty(os.Getenv("PROJECT_ID"), os.Getenv("GOOGLE_CLOUD_PROJECT")),
		Location:  getenv("LOCATION", "us-central1"),
		VTOModel:  getenv("VTO_MODEL", "virtual-try-on-preview-08-04"),
		UseSDK:    getBool("USE_SDK", false),

		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 120*time.Second),
		MaxUploadBytes:     getInt64("MAX_UPLOAD_BYTES", 10*1024*1024),
		SessionIdleTimeout: getDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisUseTLS:   getBool("REDIS_USE_TLS", false),
		HistoryTTL:    getDuration("HISTORY_TTL", 24*time.Hour),
	}

	log.Debug().
		Str("env", c.Env).
		Str("port", c.Port).
		Str("backend", c.Backend).
		Msg("config loaded")
	return c
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error

	switch c.Backend {
	case BackendGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini backend"))
		}
	case BackendVertex:
		if c.ProjectID == "" {
			errs = append(errs, errors.New("PROJECT_ID is required for the vertex backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("TRYON_BACKEND must be %q or %q, got %q", BackendGemini, BackendVertex, c.Backend))
	}

	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}

	return errors.Join(errs...)
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid boolean, using default")
		return def
	}
	return b
}

func getInt64(k string, def int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid integer, using default")
		return def
	}
	return n
}

// getDuration accepts Go durations ("90s") or a bare number of seconds.
func getDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Warn().Str("key", k).Str("value", v).Msg("invalid duration, using default")
	return def
}
