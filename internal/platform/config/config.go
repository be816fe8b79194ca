package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// State backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

const devSigningKey = "dev-secret-key-change-in-production"

// Config is the full service configuration, read from the environment.
type Config struct {
	Server    Server
	Log       Log
	Auth      Auth
	State     State
	Redis     RedisConfig
	Postgres  PostgresConfig
	Remote    Remote
	Kafka     Kafka
	Progress  Progress
	CORS      CORS
	RateLimit RateLimit
	Tracing   Tracing
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"ONBOARDING_ADDR" envDefault:":8080"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Auth configures validation of the identity bearer token.
type Auth struct {
	JWTSigningKey string `env:"JWT_SIGNING_KEY"`
	JWTIssuer     string `env:"JWT_ISSUER"`
	JWTAudience   string `env:"JWT_AUDIENCE"`
}

type State struct {
	Backend string        `env:"STATE_BACKEND" envDefault:"memory"`
	TTL     time.Duration `env:"STATE_TTL" envDefault:"720h"`
}

type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

type PostgresConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// Remote points at the onboarding backend.
type Remote struct {
	URL     string        `env:"REMOTE_API_URL" envDefault:"http://localhost:9000/api"`
	Timeout time.Duration `env:"REMOTE_API_TIMEOUT" envDefault:"15s"`
}

// Kafka enables progress events when Brokers is non-empty.
type Kafka struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"onboarding.progress"`
}

func (k Kafka) Enabled() bool { return len(k.Brokers) > 0 }

// Progress selects how server step numbers map onto wizard positions.
type Progress struct {
	Mode             string `env:"PROGRESS_MODE" envDefault:"schema"`
	SectionsPerPhase int    `env:"SECTIONS_PER_PHASE" envDefault:"5"`
}

// CORS lists the browser origins allowed to call the API.
type CORS struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

// RateLimit bounds requests per caller. Requests <= 0 disables limiting.
type RateLimit struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"120"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

func (r RateLimit) Enabled() bool { return r.Requests > 0 && r.Window > 0 }

// Tracing configures span export. Spans are only exported when an OTLP
// endpoint is set.
type Tracing struct {
	OTLPEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	SampleRatio  float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`
}

func (c Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// FromEnv loads an optional .env file and parses the process environment.
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return parse(env.Options{})
}

// FromMap parses configuration from vars instead of the process environment.
func FromMap(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.State.Backend = strings.ToLower(c.State.Backend)
	switch c.State.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.URL == "" {
			return errors.New("REDIS_URL is required when STATE_BACKEND=redis")
		}
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return errors.New("DATABASE_URL is required when STATE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unsupported STATE_BACKEND %q", c.State.Backend)
	}
	if c.Auth.JWTSigningKey == "" {
		if c.IsProduction() {
			return errors.New("JWT_SIGNING_KEY is required in production")
		}
		c.Auth.JWTSigningKey = devSigningKey
	}
	if c.Progress.SectionsPerPhase <= 0 {
		return errors.New("SECTIONS_PER_PHASE must be positive")
	}
	return nil
}
