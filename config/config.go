package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the restaurant service.
type Config struct {
	Env  string
	Port string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	RedisURL     string
	MenuCacheTTL time.Duration

	// none, sns or kafka
	EventsBackend     string
	OrderSNSTopicARN  string
	KafkaBrokers      string
	KafkaTopic        string
	AllowedOrigins    string
	RateLimitPerMin   int
	CloudWatchEnabled bool
	CloudWatchGroup   string
	UseAWSSecrets     bool
	DBSecretName      string
}

// SecretMapGetter reads a JSON secret as a flat string map.
type SecretMapGetter interface {
	GetSecretMap(ctx context.Context, name string) (map[string]string, error)
}

// Load reads configuration from the environment, after loading a .env file
// when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:               getEnv("ENV", "development"),
		Port:              getEnv("PORT", "8000"),
		PostgresUser:      os.Getenv("POSTGRES_USER"),
		PostgresPassword:  os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:        os.Getenv("POSTGRES_DB"),
		PostgresHost:      getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:      getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:   getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone:  getEnv("POSTGRES_TIMEZONE", "UTC"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		RedisURL:          os.Getenv("REDIS_URL"),
		EventsBackend:     getEnv("EVENTS_BACKEND", "none"),
		OrderSNSTopicARN:  os.Getenv("ORDER_SNS_TOPIC_ARN"),
		KafkaBrokers:      os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "restaurant.orders"),
		AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		CloudWatchEnabled: os.Getenv("CLOUDWATCH_ENABLED") == "true",
		CloudWatchGroup:   os.Getenv("CLOUDWATCH_LOG_GROUP"),
		UseAWSSecrets:     os.Getenv("AWS_USE_SECRETS") == "true",
		DBSecretName:      getEnv("DB_SECRET_NAME", "restaurant/DB_CREDENTIALS"),
	}

	var err error
	if cfg.AccessTokenTTL, err = getDuration("ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL, err = getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.MenuCacheTTL, err = getDuration("MENU_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMin, err = getInt("RATE_LIMIT_PER_MINUTE", 100); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplySecrets overrides database credentials with values from a JSON secret.
func (c *Config) ApplySecrets(ctx context.Context, sm SecretMapGetter) error {
	m, err := sm.GetSecretMap(ctx, c.DBSecretName)
	if err != nil {
		return err
	}
	override := func(key string, dst *string) {
		if v, ok := m[key]; ok && v != "" {
			*dst = v
		}
	}
	override("POSTGRES_USER", &c.PostgresUser)
	override("POSTGRES_PASSWORD", &c.PostgresPassword)
	override("POSTGRES_DB", &c.PostgresDB)
	override("POSTGRES_HOST", &c.PostgresHost)
	override("POSTGRES_PORT", &c.PostgresPort)
	return nil
}

// Validate reports missing settings required to serve traffic.
func (c *Config) Validate() error {
	if c.PostgresUser == "" || c.PostgresPassword == "" || c.PostgresDB == "" || c.PostgresHost == "" {
		return fmt.Errorf("database config incomplete")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.EventsBackend {
	case "none":
	case "sns":
		if c.OrderSNSTopicARN == "" {
			return fmt.Errorf("ORDER_SNS_TOPIC_ARN is required for the sns events backend")
		}
	case "kafka":
		if c.KafkaBrokers == "" {
			return fmt.Errorf("KAFKA_BROKERS is required for the kafka events backend")
		}
	default:
		return fmt.Errorf("unknown EVENTS_BACKEND %q", c.EventsBackend)
	}
	return nil
}

// DSN builds the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone,
	)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
