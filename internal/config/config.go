package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bridge process.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Gateway      GatewayConfig
	Assistant    AssistantConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines parameters for the internal API service tokens.
type AuthConfig struct {
	JWTSecret            string
	ServiceTokenTTLHours int
}

// GatewayConfig describes the chat-gateway connection. The bridge is disabled
// entirely when Enabled is false or Token/GuildID/ChannelID are unset; every
// public operation then short-circuits to failure without side effects.
type GatewayConfig struct {
	Enabled       bool
	Token         string
	APIRoot       string
	GuildID       string
	ChannelID     string
	SystemActorID string
	SegmentLimit  int
	SendDelayMs   int
	PollSeconds   int
}

// AssistantConfig tunes the assistant integration and its rate limiting.
type AssistantConfig struct {
	APIKey            string
	Model             string
	MaxRequests       int
	WindowSeconds     int
	MinSpacingSeconds int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-bridge"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:            getEnv("AUTH_JWT_SECRET", "dev-secret"),
			ServiceTokenTTLHours: getEnvAsInt("AUTH_SERVICE_TOKEN_TTL_HOURS", 24),
		},
		Gateway: GatewayConfig{
			Enabled:       getEnvAsBool("GATEWAY_ENABLED", false),
			Token:         os.Getenv("GATEWAY_TOKEN"),
			APIRoot:       getEnv("GATEWAY_API_ROOT", ""),
			GuildID:       os.Getenv("GATEWAY_GUILD_ID"),
			ChannelID:     os.Getenv("GATEWAY_CHANNEL_ID"),
			SystemActorID: os.Getenv("GATEWAY_SYSTEM_ACTOR_ID"),
			SegmentLimit:  getEnvAsInt("GATEWAY_SEGMENT_LIMIT", 1900),
			SendDelayMs:   getEnvAsInt("GATEWAY_SEND_DELAY_MS", 750),
			PollSeconds:   getEnvAsInt("GATEWAY_POLL_SECONDS", 20),
		},
		Assistant: AssistantConfig{
			APIKey:            os.Getenv("ASSISTANT_API_KEY"),
			Model:             getEnv("ASSISTANT_MODEL", "gpt-4o-mini"),
			MaxRequests:       getEnvAsInt("ASSISTANT_MAX_REQUESTS", 5),
			WindowSeconds:     getEnvAsInt("ASSISTANT_WINDOW_SECONDS", 60),
			MinSpacingSeconds: getEnvAsInt("ASSISTANT_MIN_SPACING_SECONDS", 2),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Configured reports whether the gateway side of the bridge is usable.
func (g GatewayConfig) Configured() bool {
	return g.Enabled && g.Token != "" && g.GuildID != "" && g.ChannelID != ""
}

// SendDelay returns the pacing delay between chunked segments.
func (g GatewayConfig) SendDelay() time.Duration {
	if g.SendDelayMs <= 0 {
		return 0
	}
	return time.Duration(g.SendDelayMs) * time.Millisecond
}

// Window returns the rate-limit window duration.
func (a AssistantConfig) Window() time.Duration {
	if a.WindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(a.WindowSeconds) * time.Second
}

// MinSpacing returns the minimum gap between consecutive assistant requests.
func (a AssistantConfig) MinSpacing() time.Duration {
	if a.MinSpacingSeconds <= 0 {
		return 0
	}
	return time.Duration(a.MinSpacingSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
