package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"

	NotifyNone    = "none"
	NotifySlack   = "slack"
	NotifyWebhook = "webhook"

	AuditLog   = "log"
	AuditMongo = "mongo"
)

// Config is the service configuration, read from the environment
type Config struct {
	Port               string
	MongoURI           string
	MongoDatabase      string
	StoreDriver        string
	IntegrationsFile   string
	RedisURL           string
	HintTTL            time.Duration
	NotifyDriver       string
	NotifyDestination  string
	NotifyTimeout      time.Duration
	AuditDriver        string
	MaxBodyBytes       int64
	LogLevel           zerolog.Level
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

// Load reads an optional .env file and then the environment.
// A missing .env file is not an error; a malformed value is.
func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg(".env file not found, using process environment")
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		MongoURI:          getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:     getEnv("MONGODB_DATABASE", "order_ingest"),
		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		IntegrationsFile:  os.Getenv("INTEGRATIONS_FILE"),
		RedisURL:          os.Getenv("REDIS_URL"),
		NotifyDriver:      strings.ToLower(getEnv("NOTIFY_DRIVER", NotifyNone)),
		NotifyDestination: os.Getenv("NOTIFY_DESTINATION"),
		AuditDriver:       strings.ToLower(getEnv("AUDIT_DRIVER", AuditLog)),
	}

	var err error
	if cfg.HintTTL, err = getDuration("HINT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.NotifyTimeout, err = getDuration("NOTIFY_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}

	cfg.MaxBodyBytes = 1 << 20
	if v := os.Getenv("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MAX_BODY_BYTES %q: must be a positive integer", v)
		}
		cfg.MaxBodyBytes = n
	}

	cfg.LogLevel, err = zerolog.ParseLevel(strings.ToLower(getEnv("LOG_LEVEL", "info")))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	for _, origin := range strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: want %s or %s", c.StoreDriver, StoreMongo, StoreMemory)
	}

	switch c.NotifyDriver {
	case NotifyNone:
	case NotifySlack, NotifyWebhook:
		if c.NotifyDestination == "" {
			return fmt.Errorf("NOTIFY_DESTINATION is required when NOTIFY_DRIVER=%s", c.NotifyDriver)
		}
	default:
		return fmt.Errorf("invalid NOTIFY_DRIVER %q: want %s, %s or %s", c.NotifyDriver, NotifyNone, NotifySlack, NotifyWebhook)
	}

	switch c.AuditDriver {
	case AuditLog:
	case AuditMongo:
		if c.StoreDriver != StoreMongo {
			return fmt.Errorf("AUDIT_DRIVER=%s requires STORE_DRIVER=%s", AuditMongo, StoreMongo)
		}
	default:
		return fmt.Errorf("invalid AUDIT_DRIVER %q: want %s or %s", c.AuditDriver, AuditLog, AuditMongo)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, v)
	}
	return d, nil
}
