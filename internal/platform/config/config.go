package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration. Values come from the
// environment so main stays lean.
type Server struct {
	Addr          string
	Environment   string
	JWTSigningKey string

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Network  TrustNetworkConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings. An empty URL disables Redis.
type RedisConfig struct {
	URL      string
	PoolSize int
}

// KafkaConfig holds Kafka producer settings. Empty brokers disable publishing.
type KafkaConfig struct {
	Brokers    string
	AuditTopic string
}

// TrustNetworkConfig holds settings for the external DID/VC issuance network.
type TrustNetworkConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := envOr("CREDTRUST_ADDR", ":8080")

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          addr,
		Environment:   envOr("CREDTRUST_ENV", "development"),
		JWTSigningKey: jwtSigningKey,
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			PoolSize: envInt("REDIS_POOL_SIZE", 10),
		},
		Kafka: KafkaConfig{
			Brokers:    os.Getenv("KAFKA_BROKERS"),
			AuditTopic: envOr("KAFKA_AUDIT_TOPIC", "credtrust.audit"),
		},
		Network: TrustNetworkConfig{
			BaseURL: os.Getenv("TRUST_NETWORK_URL"),
			APIKey:  os.Getenv("TRUST_NETWORK_API_KEY"),
			Timeout: envDuration("TRUST_NETWORK_TIMEOUT", 10*time.Second),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
