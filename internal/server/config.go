// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the relay.
package server

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// Config holds the relay configuration.
type Config struct {
	Port                    string        `envconfig:"SERVER_PORT" default:":8080"`
	AllowedOrigins          []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	MaxMessageSize          int64         `envconfig:"MAX_MESSAGE_SIZE" default:"65536"`
	SendBufferSize          int           `envconfig:"SEND_BUFFER_SIZE" default:"256"`
	RateLimitBurst          int           `envconfig:"RATE_LIMIT_BURST" default:"10"`
	RateLimitRefillInterval time.Duration `envconfig:"RATE_LIMIT_REFILL_INTERVAL" default:"1s"`
	StoreDriver             string        `envconfig:"STORE_DRIVER" default:"sqlite"`
	StoreDSN                string        `envconfig:"STORE_DSN" default:"file:chatrelay.db?_pragma=foreign_keys(1)"`
	StoreTimeout            time.Duration `envconfig:"STORE_TIMEOUT" default:"5s"`
	TokenSecret             string        `envconfig:"AUTH_TOKEN_SECRET"`
	NatsURL                 string        `envconfig:"NATS_URL"`
	NatsSubjectPrefix       string        `envconfig:"NATS_SUBJECT_PREFIX" default:"chat.notify"`
	LogLevel                string        `envconfig:"LOG_LEVEL" default:"info"`
	LogDevelopment          bool          `envconfig:"LOG_DEVELOPMENT" default:"false"`
	ShutdownTimeout         time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	ResetPresenceOnStart    bool          `envconfig:"RESET_PRESENCE_ON_START" default:"true"`
}

const (
	defaultPort            = ":8080"
	defaultMaxMessageSize  = 64 * 1024
	defaultSendBufferSize  = 256
	defaultRateLimitBurst  = 10
	defaultRefillInterval  = time.Second
	defaultStoreTimeout    = 5 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// DefaultConfig returns the configuration used when no environment is set.
func DefaultConfig() Config {
	return Config{
		Port:                    defaultPort,
		AllowedOrigins:          []string{"http://localhost:8080"},
		MaxMessageSize:          defaultMaxMessageSize,
		SendBufferSize:          defaultSendBufferSize,
		RateLimitBurst:          defaultRateLimitBurst,
		RateLimitRefillInterval: defaultRefillInterval,
		StoreDriver:             "sqlite",
		StoreDSN:                "file:chatrelay.db?_pragma=foreign_keys(1)",
		StoreTimeout:            defaultStoreTimeout,
		NatsSubjectPrefix:       "chat.notify",
		LogLevel:                "info",
		ShutdownTimeout:         defaultShutdownTimeout,
		ResetPresenceOnStart:    true,
	}
}

// LoadConfig reads an optional .env file and the process environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	return cfg.Sanitize(), nil
}

// Sanitize replaces unusable values with defaults.
func (c Config) Sanitize() Config {
	if c.Port == "" {
		c.Port = defaultPort
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = defaultMaxMessageSize
	}
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = defaultSendBufferSize
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = defaultRateLimitBurst
	}
	if c.RateLimitRefillInterval <= 0 {
		c.RateLimitRefillInterval = defaultRefillInterval
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = defaultStoreTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	c.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)
	return c
}

// RateLimit returns the per-connection rate limit settings.
func (c Config) RateLimit() RateLimitConfig {
	return RateLimitConfig{Burst: c.RateLimitBurst, RefillInterval: c.RateLimitRefillInterval}
}
