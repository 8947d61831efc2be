package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const envPrefix = "assembleia"

// Config is centralized process configuration.
// Values come from defaults, then an optional YAML file, then environment
// variables (ASSEMBLEIA_<NAME>, falling back to the bare name).
type Config struct {
	ServiceName string `yaml:"serviceName" envconfig:"SERVICE_NAME"`
	HTTPPort    string `yaml:"httpPort"    envconfig:"HTTP_PORT"`
	LogLevel    string `yaml:"logLevel"    envconfig:"LOG_LEVEL"`

	DatabaseDriver string `yaml:"databaseDriver" envconfig:"DATABASE_DRIVER"`
	PostgresDSN    string `yaml:"postgresDsn"    envconfig:"POSTGRES_DSN"`
	SQLiteDSN      string `yaml:"sqliteDsn"      envconfig:"SQLITE_DSN"`
	AutoMigrate    bool   `yaml:"autoMigrate"    envconfig:"AUTO_MIGRATE"`

	TracingExporter string `yaml:"tracingExporter" envconfig:"TRACING_EXPORTER"`
	EnableSwagger   bool   `yaml:"enableSwagger"   envconfig:"ENABLE_SWAGGER"`

	EnableRateLimit bool    `yaml:"enableRateLimit" envconfig:"ENABLE_RATE_LIMIT"`
	RateLimitRPS    float64 `yaml:"rateLimitRps"    envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst  int     `yaml:"rateLimitBurst"  envconfig:"RATE_LIMIT_BURST"`

	WorkerPollInterval time.Duration `yaml:"workerPollInterval" envconfig:"WORKER_POLL_INTERVAL"`
	CloserBatchSize    int           `yaml:"closerBatchSize"    envconfig:"CLOSER_BATCH_SIZE"`
	OutboxBatchSize    int           `yaml:"outboxBatchSize"    envconfig:"OUTBOX_BATCH_SIZE"`
	EventBufferSize    int           `yaml:"eventBufferSize"    envconfig:"EVENT_BUFFER_SIZE"`
	ShutdownTimeout    time.Duration `yaml:"shutdownTimeout"    envconfig:"SHUTDOWN_TIMEOUT"`
	WorkerMetricsPort  string        `yaml:"workerMetricsPort"  envconfig:"WORKER_METRICS_PORT"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	TracingNone   = "none"
	TracingStdout = "stdout"
	TracingOTLP   = "otlp"
)

func Defaults() Config {
	return Config{
		ServiceName:        "assembleia",
		HTTPPort:           "8080",
		LogLevel:           "info",
		DatabaseDriver:     DriverPostgres,
		SQLiteDSN:          "file:assembleia.db?_pragma=foreign_keys(1)",
		AutoMigrate:        true,
		TracingExporter:    TracingNone,
		EnableSwagger:      true,
		EnableRateLimit:    true,
		RateLimitRPS:       20,
		RateLimitBurst:     40,
		WorkerPollInterval: 5 * time.Second,
		CloserBatchSize:    100,
		OutboxBatchSize:    100,
		EventBufferSize:    128,
		ShutdownTimeout:    10 * time.Second,
		WorkerMetricsPort:  "9090",
	}
}

// Load builds the configuration. An empty path skips the YAML layer.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path = strings.TrimSpace(path); path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}

	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	cfg.TracingExporter = strings.ToLower(strings.TrimSpace(cfg.TracingExporter))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return errors.New("POSTGRES_DSN is required for the postgres driver")
		}
	case DriverSQLite:
		if strings.TrimSpace(c.SQLiteDSN) == "" {
			return errors.New("SQLITE_DSN is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}

	switch c.TracingExporter {
	case "", TracingNone, TracingStdout, TracingOTLP:
	default:
		return fmt.Errorf("unsupported tracing exporter %q", c.TracingExporter)
	}

	if c.EnableRateLimit && (c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0) {
		return errors.New("rate limit rps and burst must be positive")
	}
	if c.WorkerPollInterval <= 0 {
		return errors.New("worker poll interval must be positive")
	}
	return nil
}

// DSN returns the connection string of the selected driver.
func (c Config) DSN() string {
	if c.DatabaseDriver == DriverSQLite {
		return c.SQLiteDSN
	}
	return c.PostgresDSN
}
