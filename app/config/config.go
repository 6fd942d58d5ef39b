package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every setting the server reads from the environment.
// Optional integrations (S3, Redis, moderation) stay disabled while their settings are empty.
type Config struct {
	Addr     string `validate:"required"`
	DBPath   string `validate:"required"`
	LogLevel string `validate:"omitempty,oneof=debug info warn warning error"`
	LogFile  string

	SessionSecret string
	SessionCookie string `validate:"required"`

	AWSRegion     string `validate:"required_with=AWSBucket"`
	AWSBucket     string
	CDNBaseURL    string `validate:"omitempty,url"`
	MaxImageBytes int64  `validate:"gt=0"`

	RedisHost     string
	RedisPort     string
	RedisPassword string
	VoteCacheTTL  time.Duration `validate:"gte=0"`

	ModerationAPIURL   string `validate:"omitempty,url"`
	ModerationAPIKey   string
	ModerationModel    string        `validate:"required_with=ModerationAPIURL"`
	ModerationTimeout  time.Duration `validate:"gt=0"`
	ModerationMaxSteps int           `validate:"gt=0,lte=20"`
}

var validate = validator.New()

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := &Config{
		Addr:     getEnv("REDDISH_ADDR", ":8080"),
		DBPath:   getEnv("DB_PATH", "data/badger"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionCookie: getEnv("SESSION_COOKIE", "__session"),

		AWSRegion:  os.Getenv("AWS_REGION"),
		AWSBucket:  os.Getenv("AWS_BUCKET"),
		CDNBaseURL: os.Getenv("CDN_BASE_URL"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ModerationAPIURL: os.Getenv("MODERATION_API_URL"),
		ModerationAPIKey: os.Getenv("MODERATION_API_KEY"),
		ModerationModel:  os.Getenv("MODERATION_MODEL"),
	}

	var err error
	if cfg.MaxImageBytes, err = getInt64("MAX_IMAGE_BYTES", 10<<20); err != nil {
		return nil, err
	}
	if cfg.VoteCacheTTL, err = getDuration("VOTE_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ModerationTimeout, err = getDuration("MODERATION_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}
	maxSteps, err := getInt64("MODERATION_MAX_STEPS", 5)
	if err != nil {
		return nil, err
	}
	cfg.ModerationMaxSteps = int(maxSteps)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct-level rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// RequireSessionSecret fails when sessions cannot be verified or signed.
func (c *Config) RequireSessionSecret() error {
	if len(c.SessionSecret) < 16 {
		return fmt.Errorf("SESSION_SECRET must be set to at least 16 characters")
	}
	return nil
}

func (c *Config) S3Enabled() bool         { return c.AWSBucket != "" }
func (c *Config) RedisEnabled() bool      { return c.RedisHost != "" }
func (c *Config) ModerationEnabled() bool { return c.ModerationAPIURL != "" }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
