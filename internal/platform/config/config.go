package config

import (
	"os"
	"strconv"
	"strings"
)

// Backend selects which record store implementation the ledger opens.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
)

// Config captures ledger-level configuration. Transport, identity, and UI
// configuration belong to the host embedding the engine.
type Config struct {
	StoreBackend Backend
	PostgresURL  string
	RedisURL     string

	// KafkaBrokers enables the Kafka event listener when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// EventBuffer > 0 switches event delivery to an async buffer of that
	// size; 0 keeps delivery synchronous.
	EventBuffer int

	// MetricsAddr is where the ledgerd binary serves Prometheus metrics.
	MetricsAddr string
}

// FromEnv builds a Config from environment variables so hosts stay lean.
func FromEnv() Config {
	cfg := Config{
		StoreBackend: Backend(getenv("KYC_STORE_BACKEND", string(BackendMemory))),
		PostgresURL:  os.Getenv("KYC_POSTGRES_URL"),
		RedisURL:     os.Getenv("KYC_REDIS_URL"),
		KafkaTopic:   getenv("KYC_KAFKA_TOPIC", "kyc.ledger.events"),
		MetricsAddr:  getenv("KYC_METRICS_ADDR", ":9090"),
	}
	if brokers := os.Getenv("KYC_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if n, err := strconv.Atoi(os.Getenv("KYC_EVENT_BUFFER")); err == nil && n > 0 {
		cfg.EventBuffer = n
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
