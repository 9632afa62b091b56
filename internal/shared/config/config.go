package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	DatabaseURL  string
	RedisURL     string
	SessionStore string
	SessionTTL   time.Duration

	DecisionProvider    string
	DecisionServiceURL  string
	DecisionTimeout     time.Duration
	DecisionMaxAttempts int
	DecisionRetryDelay  time.Duration
	NoticeTTL           time.Duration

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioUseSSL     bool

	DecisionEventsQueueURL string
	KafkaBrokers           []string
	KafkaTopic             string

	SubmitRatePerSec float64
	SubmitRateBurst  int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	sessionStore := normalizeSessionStore(getEnv("SESSION_STORE", "memory"))

	if env == "production" && sessionStore == "memory" {
		log.Printf("SESSION_STORE=memory in production; sessions will not survive restarts")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),

		DatabaseURL:  dbURL,
		RedisURL:     getEnv("REDIS_URL", ""),
		SessionStore: sessionStore,
		SessionTTL:   getDuration("SESSION_TTL", 24*time.Hour),

		DecisionProvider:    normalizeProvider(getEnv("DECISION_PROVIDER", "local")),
		DecisionServiceURL:  getEnv("DECISION_SERVICE_URL", ""),
		DecisionTimeout:     time.Duration(getInt("DECISION_TIMEOUT_SECONDS", 30)) * time.Second,
		DecisionMaxAttempts: getInt("DECISION_MAX_ATTEMPTS", 3),
		DecisionRetryDelay:  getDuration("DECISION_RETRY_DELAY", 300*time.Millisecond),
		NoticeTTL:           getDuration("NOTICE_TTL", 3*time.Second),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		MinioEndpoint:   getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:  getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:  getEnv("MINIO_SECRET_KEY", ""),
		MinioUseSSL:     getBool("MINIO_USE_SSL", true),

		DecisionEventsQueueURL: getEnv("DECISION_EVENTS_QUEUE_URL", ""),
		KafkaBrokers:           splitAndTrim(getEnv("DECISION_EVENTS_KAFKA_BROKERS", "")),
		KafkaTopic:             getEnv("DECISION_EVENTS_KAFKA_TOPIC", "sourcing.decisions"),

		SubmitRatePerSec: getFloat("RATE_LIMIT_SUBMIT_PER_SEC", 2),
		SubmitRateBurst:  getInt("RATE_LIMIT_SUBMIT_BURST", 5),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using %t", key, raw, def)
		return def
	}
	return b
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using %v", key, raw, def)
		return def
	}
	return f
}

// getDuration accepts Go durations ("300ms") or bare milliseconds ("300").
func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Printf("invalid %s=%q, using %s", key, raw, def)
		return def
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	case "none", "off":
		return "none"
	default:
		return "local"
	}
}

func normalizeSessionStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "redis":
		return "redis"
	case "postgres", "pg":
		return "postgres"
	default:
		return "memory"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "remote", "http":
		return "remote"
	default:
		return "local"
	}
}
