package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gookit/validate"

	libconfig "spinroute/backend/libs/config"
)

// HTTP holds the serve-mode listener settings.
type HTTP struct {
	Port string `yaml:"port" env:"REFRESH_HTTP_PORT"`
}

// Database holds the data-store endpoint.
type Database struct {
	DSN          string `yaml:"dsn" env:"REFRESH_POSTGRES_DSN"`
	MaxOpenConns int    `yaml:"maxOpenConns" env:"REFRESH_POSTGRES_MAX_OPEN_CONNS"`
}

// Redis is optional; an empty address disables the status store and shared limiter.
type Redis struct {
	Addr      string        `yaml:"addr" env:"REDIS_ADDR"`
	Password  string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB        int           `yaml:"db" env:"REDIS_DB"`
	StatusTTL time.Duration `yaml:"statusTtl" env:"REFRESH_STATUS_TTL"`
}

// Refresh tunes the batch pipeline.
type Refresh struct {
	StaleMinutes   int    `yaml:"staleMinutes" env:"STALE_MINUTES" validate:"required|min:1"`
	BatchSize      int    `yaml:"batchSize" env:"BATCH_SIZE" validate:"required|min:1"`
	DryRun         bool   `yaml:"dryRun" env:"DRY_RUN"`
	Concurrency    int    `yaml:"concurrency" env:"REFRESH_CONCURRENCY" validate:"required|min:1|max:32"`
	Pushdown       bool   `yaml:"pushdown" env:"STALENESS_PUSHDOWN"`
	UpstreamURL    string `yaml:"upstreamUrl" env:"UPSTREAM_BASE_URL" validate:"required|fullUrl"`
	TimeoutSeconds int    `yaml:"timeoutSeconds" env:"UPSTREAM_TIMEOUT_SECONDS" validate:"required|min:1"`
}

// Serve configures the scheduler and admin endpoints.
type Serve struct {
	Schedule           string `yaml:"schedule" env:"REFRESH_SCHEDULE"`
	JWTSecret          string `yaml:"jwtSecret" env:"REFRESH_JWT_SECRET"`
	RateLimitPerMinute int    `yaml:"rateLimitPerMinute" env:"REFRESH_RATE_LIMIT_PER_MINUTE"`
	MetricsEnabled     bool   `yaml:"metricsEnabled" env:"METRICS_ENABLED"`
}

// Config defines station-refresh configuration.
type Config struct {
	HTTP     HTTP     `yaml:"http"`
	Database Database `yaml:"database"`
	Redis    Redis    `yaml:"redis"`
	Refresh  Refresh  `yaml:"refresh"`
	Serve    Serve    `yaml:"serve"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		HTTP: HTTP{Port: "8090"},
		Redis: Redis{
			StatusTTL: 7 * 24 * time.Hour,
		},
		Refresh: Refresh{
			StaleMinutes:   30,
			BatchSize:      100,
			Concurrency:    1,
			Pushdown:       true,
			UpstreamURL:    "https://api.citybik.es",
			TimeoutSeconds: 8,
		},
		Serve: Serve{
			Schedule:           "@every 15m",
			RateLimitPerMinute: 6,
			MetricsEnabled:     true,
		},
	}
}

// LoadPartial reads configuration without checking the data-store settings.
func LoadPartial() (*Config, error) {
	cfg := Default()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg, err := LoadPartial()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		cfg.Database.DSN = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required (REFRESH_POSTGRES_DSN or DATABASE_URL)")
	}

	v := validate.Struct(&cfg.Refresh)
	if !v.Validate() {
		return nil, fmt.Errorf("config: %w", v.Errors)
	}
	return cfg, nil
}

// ValidateServe checks the settings only serve mode needs.
func (c *Config) ValidateServe() error {
	if strings.TrimSpace(c.Serve.JWTSecret) == "" {
		return errors.New("config: jwt secret required in serve mode")
	}
	if strings.TrimSpace(c.Serve.Schedule) == "" {
		return errors.New("config: refresh schedule required in serve mode")
	}
	if c.Serve.RateLimitPerMinute < 1 {
		return errors.New("config: rate limit must allow at least one request per minute")
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8090"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// Threshold returns the staleness window.
func (c *Config) Threshold() time.Duration {
	return time.Duration(c.Refresh.StaleMinutes) * time.Minute
}

// UpstreamTimeout returns the per-request upstream timeout.
func (c *Config) UpstreamTimeout() time.Duration {
	if c.Refresh.TimeoutSeconds <= 0 {
		return 8 * time.Second
	}
	return time.Duration(c.Refresh.TimeoutSeconds) * time.Second
}

// StatusTTL returns how long the last run summary is kept.
func (c *Config) StatusTTL() time.Duration {
	if c.Redis.StatusTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.Redis.StatusTTL
}
