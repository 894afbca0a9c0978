package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App AppConfig `mapstructure:"app"`

	// PostgreSQL
	Postgres PostgresConfig `mapstructure:"postgres"`

	// Redis
	Redis RedisConfig `mapstructure:"redis"`

	// NATS
	NATS NATSConfig `mapstructure:"nats"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`

	Fetch     FetchConfig     `mapstructure:"fetch"`
	Listing   ListingConfig   `mapstructure:"listing"`
	Sharing   SharingConfig   `mapstructure:"sharing"`
	Audit     AuditConfig     `mapstructure:"audit"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type AppConfig struct {
	Env         string   `mapstructure:"env"`
	LogLevel    string   `mapstructure:"log_level"`
	LogEncoding string   `mapstructure:"log_encoding"`
	ListenAddr  string   `mapstructure:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// IsDevelopment reports whether the app runs outside production.
func (c AppConfig) IsDevelopment() bool {
	return c.Env != "production"
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	Database          string `mapstructure:"database"`
	Port              int    `mapstructure:"port"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   string `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   string `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod string `mapstructure:"health_check_period"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type FetchConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
	FailureMarker string        `mapstructure:"failure_marker"`
	FallbackTitle string        `mapstructure:"fallback_title"`
	MaxBodyBytes  int           `mapstructure:"max_body_bytes"`
}

type ListingConfig struct {
	ItemsPerPage      int `mapstructure:"items_per_page"`
	GroupItemsPerPage int `mapstructure:"group_items_per_page"`
}

type SharingConfig struct {
	PublicEnabled bool `mapstructure:"public_enabled"`
}

type AuditConfig struct {
	Retention time.Duration `mapstructure:"retention"`
	Interval  time.Duration `mapstructure:"interval"`
}

type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// Search for config/config.yaml (plus root for overrides).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Allow environment variables to override YAML entries.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Preserve legacy env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.listen_addr", ":8080")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("nats.host", "localhost")
	v.SetDefault("nats.port", 4222)

	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.port", 9090)

	v.SetDefault("fetch.timeout", 15*time.Second)
	v.SetDefault("fetch.max_body_bytes", 10*1024*1024)

	v.SetDefault("listing.items_per_page", 12)
	v.SetDefault("listing.group_items_per_page", 9)

	v.SetDefault("sharing.public_enabled", true)

	v.SetDefault("audit.retention", 30*24*time.Hour)
	v.SetDefault("audit.interval", time.Hour)

	v.SetDefault("ratelimit.max_requests", 120)
	v.SetDefault("ratelimit.window", time.Minute)
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.log_level", "LOG_LEVEL")
	v.BindEnv("app.log_encoding", "LOG_ENCODING")
	v.BindEnv("app.listen_addr", "LISTEN_ADDR")

	// PostgreSQL
	v.BindEnv("postgres.host", "PG_HOST")
	v.BindEnv("postgres.user", "PG_USER")
	v.BindEnv("postgres.password", "PG_PASSWORD")
	v.BindEnv("postgres.database", "PG_DB")
	v.BindEnv("postgres.port", "PG_PORT")
	v.BindEnv("postgres.sslmode", "PG_SSLMODE")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// NATS
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")

	// Prometheus
	v.BindEnv("prometheus.enabled", "PROM_ENABLED")
	v.BindEnv("prometheus.port", "PROM_PORT")

	v.BindEnv("fetch.failure_marker", "FETCH_FAILURE_MARKER")
	v.BindEnv("fetch.timeout", "FETCH_TIMEOUT")
	v.BindEnv("sharing.public_enabled", "SHARE_PUBLIC")
}

func (c *Config) validate() error {
	if c.Listing.ItemsPerPage < 1 || c.Listing.GroupItemsPerPage < 1 {
		return fmt.Errorf("invalid config: listing page sizes must be positive")
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("invalid config: fetch.timeout must not be negative")
	}
	if c.RateLimit.MaxRequests < 0 {
		return fmt.Errorf("invalid config: ratelimit.max_requests must not be negative")
	}
	for key, raw := range map[string]string{
		"postgres.max_conn_lifetime":   c.Postgres.MaxConnLifetime,
		"postgres.max_conn_idle_time":  c.Postgres.MaxConnIdleTime,
		"postgres.health_check_period": c.Postgres.HealthCheckPeriod,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("invalid config: %s: %w", key, err)
		}
	}
	return nil
}
