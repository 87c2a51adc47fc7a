package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	Redis         RedisConfig         `yaml:"redis"`
	Clock         ClockConfig         `yaml:"clock"`
	Admin         AdminConfig         `yaml:"admin"`
	HTTP          HTTPConfig          `yaml:"http"`
	Queue         QueueConfig         `yaml:"queue"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds Redis configuration. Empty URL disables Redis.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// ClockConfig controls the simulated clock.
type ClockConfig struct {
	SimulationEnabled bool          `yaml:"simulation_enabled"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
	Store             string        `yaml:"store"` // postgres|redis
}

// AdminConfig holds settings for the admin HTTP surface.
type AdminConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second, per caller
	Burst     int           `yaml:"burst"`
	IdleAfter time.Duration `yaml:"idle_after"` // drop a caller's budget after this long unused
}

// HTTPConfig holds the HTTP listener settings.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// QueueConfig holds River worker settings.
type QueueConfig struct {
	MaxWorkers        int           `yaml:"max_workers"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	ServiceName    string `yaml:"service_name"`
	Environment    string `yaml:"environment"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"` // text|json
	MetricsAddress string `yaml:"metrics_address"`
}

const (
	ClockStorePostgres = "postgres"
	ClockStoreRedis    = "redis"
)

// LoadConfig loads the configuration from a YAML file. A .env file in the
// working directory is loaded first when present. Environment variables
// override file values; without a file, configuration comes from the
// environment alone.
func LoadConfig(filename string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(filename)
	if err != nil {
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config

	cfg.Postgres.DSN = os.Getenv("DATABASE_URL")
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	cfg.NATS.URL = os.Getenv("NATS_URL")
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS_URL environment variable not set")
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("CLOCK_SIMULATION_ENABLED"); v != "" {
		cfg.Clock.SimulationEnabled = v == "true"
	}
	if v := os.Getenv("CLOCK_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CLOCK_CACHE_TTL value: %w", err)
		}
		cfg.Clock.CacheTTL = d
	}
	if v := os.Getenv("CLOCK_STORE"); v != "" {
		cfg.Clock.Store = v
	}
	if v := os.Getenv("ADMIN_JWT_SECRET"); v != "" {
		cfg.Admin.JWTSecret = v
	}
	if v := os.Getenv("ADMIN_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid ADMIN_RATE_LIMIT value: %w", err)
		}
		cfg.Admin.RateLimit = f
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("QUEUE_MAX_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid QUEUE_MAX_WORKERS value: %w", err)
		}
		cfg.Queue.MaxWorkers = n
	}
	if v := os.Getenv("RECONCILE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RECONCILE_INTERVAL value: %w", err)
		}
		cfg.Queue.ReconcileInterval = d
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Clock.CacheTTL == 0 {
		cfg.Clock.CacheTTL = 2 * time.Second
	}
	if cfg.Clock.Store == "" {
		cfg.Clock.Store = ClockStorePostgres
	}
	if cfg.Admin.RateLimit == 0 {
		cfg.Admin.RateLimit = 5
	}
	if cfg.Admin.Burst == 0 {
		cfg.Admin.Burst = 10
	}
	if cfg.Admin.IdleAfter == 0 {
		cfg.Admin.IdleAfter = 10 * time.Minute
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Queue.MaxWorkers == 0 {
		cfg.Queue.MaxWorkers = 4
	}
	if cfg.Queue.ReconcileInterval == 0 {
		cfg.Queue.ReconcileInterval = 5 * time.Minute
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "mbb-survivor"
	}
	if cfg.Observability.Environment == "" {
		cfg.Observability.Environment = "development"
	}
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	if cfg.Observability.LogFormat == "" {
		cfg.Observability.LogFormat = "text"
	}
}

// Validate checks the fields the service cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Postgres.DSN == "" {
		errs = append(errs, errors.New("postgres.dsn is required"))
	}
	switch c.Clock.Store {
	case ClockStorePostgres:
	case ClockStoreRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis.url is required when clock.store is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown clock.store %q", c.Clock.Store))
	}
	if c.Admin.Burst < 1 {
		errs = append(errs, errors.New("admin.burst must be positive"))
	}
	return errors.Join(errs...)
}
