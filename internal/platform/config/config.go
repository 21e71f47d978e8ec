// Package config centralizes environment-driven configuration so main stays
// lean.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server captures the registry service configuration.
type Server struct {
	Addr string `env:"ATTESTRY_ADDR" envDefault:":8080"`

	// JWTSigningKey verifies the bearer tokens the dispatch layer accepts.
	// The default exists for development only.
	JWTSigningKey string `env:"ATTESTRY_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string `env:"ATTESTRY_JWT_ISSUER" envDefault:"attestry"`
	JWTAudience   string `env:"ATTESTRY_JWT_AUDIENCE" envDefault:"attestry"`

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
}

// PostgresConfig selects the PostgreSQL storage backend. An empty URL means
// Postgres is not configured.
type PostgresConfig struct {
	URL string `env:"ATTESTRY_POSTGRES_URL"`
}

// RedisConfig selects and tunes the Redis storage backend. An empty URL
// means Redis is not configured and the in-memory backend is used.
type RedisConfig struct {
	URL          string        `env:"ATTESTRY_REDIS_URL"`
	PoolSize     int           `env:"ATTESTRY_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"ATTESTRY_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"ATTESTRY_REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"ATTESTRY_REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"ATTESTRY_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig selects the event transport. Empty brokers mean events go to
// the structured log instead of a broker.
type KafkaConfig struct {
	Brokers []string `env:"ATTESTRY_KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"ATTESTRY_KAFKA_TOPIC" envDefault:"attestry.events"`
}

// Load builds a Server config from environment variables.
func Load() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
