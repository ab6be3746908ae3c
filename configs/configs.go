// Package configs loads application configuration from environment
// variables, with an optional .env file for local development.
package configs

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"

	"github.com/navid-fn/uniex/exchange"
)

// AppConfig holds all application configuration. Load it once at startup
// with AppLoad().
type AppConfig struct {
	// KafkaTrade contains Kafka connection settings for trade data.
	KafkaTrade KafkaConfig

	// Scraper contains polling settings shared by all workers.
	Scraper ScraperConfig

	// Credentials holds per-exchange API keys, keyed by exchange name.
	Credentials map[string]exchange.Credentials
}

// KafkaConfig holds Kafka connection settings.
type KafkaConfig struct {
	// Broker is the Kafka broker address (e.g., "localhost:9092").
	Broker string

	// Topic is the Kafka topic for trade data.
	Topic string

	// GroupID is the consumer group ID for downstream consumers.
	GroupID string
}

// ScraperConfig holds polling settings.
type ScraperConfig struct {
	// Symbols restricts polling to these unified symbols ("BTC/EUR"),
	// comma-separated in the environment. Empty means all active markets.
	Symbols []string

	// RequestsPerSec paces each worker's polling loop.
	RequestsPerSec float64

	// ChunkSize splits a configured symbol list across that many symbols
	// per worker. Zero keeps the whole list on one worker per exchange.
	ChunkSize int
}

// AppLoad loads all application configuration from environment variables.
// A .env file is honored when present.
func AppLoad() *AppConfig {
	_ = godotenv.Load() // .env is optional

	return &AppConfig{
		KafkaTrade: KafkaConfig{
			Broker:  getEnv("KAFKA_BROKER", "localhost:9092"),
			Topic:   getEnv("KAFKA_TRADE_TOPIC", "uniex_trades"),
			GroupID: getEnv("KAFKA_TRADE_GROUP_ID", "uniex-trade-consumer"),
		},
		Scraper: ScraperConfig{
			Symbols:        splitList(getEnv("SCRAPE_SYMBOLS", "")),
			RequestsPerSec: getEnvFloat("SCRAPE_RATE", 1.0),
			ChunkSize:      getEnvInt("SCRAPE_CHUNK_SIZE", 0),
		},
		Credentials: map[string]exchange.Credentials{
			"luno": {
				APIKey: getEnv("LUNO_API_KEY", ""),
				Secret: getEnv("LUNO_SECRET", ""),
			},
			"indodax": {
				APIKey: getEnv("INDODAX_API_KEY", ""),
				Secret: getEnv("INDODAX_SECRET", ""),
			},
			"aofex": {
				APIKey: getEnv("AOFEX_API_KEY", ""),
				Secret: getEnv("AOFEX_SECRET", ""),
			},
			"coinmate": {
				APIKey: getEnv("COINMATE_API_KEY", ""),
				Secret: getEnv("COINMATE_SECRET", ""),
				UID:    getEnv("COINMATE_UID", ""),
			},
		},
	}
}

// GetKafkaWriter builds the async batch writer the scrapers publish with.
func GetKafkaWriter(cfg *KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Broker),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Compression:  kafka.Zstd,
	}
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvFloat returns the environment variable as float64 or a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
