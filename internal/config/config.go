package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	Log      LogConfig
	Currency string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds the ledger storage location: a SQLite file path,
// ":memory:", or a postgres:// connection string
type DatabaseConfig struct {
	URL string
}

// KafkaConfig holds Kafka configuration. No brokers disables Kafka.
type KafkaConfig struct {
	Brokers       []string
	EventsTopic   string
	CommandsTopic string
	GroupID       string
}

// RedisConfig holds the command de-duplication store. An empty Addr
// disables de-duplication.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	DedupeTTL time.Duration
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads configuration from environment variables, after loading an
// optional .env file from the working directory
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "stocks.db"),
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvAsList("KAFKA_BROKERS"),
			EventsTopic:   getEnv("KAFKA_EVENTS_TOPIC", "ledger-events"),
			CommandsTopic: getEnv("KAFKA_COMMANDS_TOPIC", "ledger-commands"),
			GroupID:       getEnv("KAFKA_GROUP_ID", "stock-calculator"),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", ""),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			DedupeTTL: getEnvAsDuration("REDIS_DEDUPE_TTL", 24*time.Hour),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvAsBool("LOG_PRETTY", false),
		},
		Currency: strings.ToUpper(getEnv("CURRENCY", "EUR")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Kafka.Enabled() && (c.Kafka.EventsTopic == "" || c.Kafka.CommandsTopic == "") {
		return fmt.Errorf("KAFKA_EVENTS_TOPIC and KAFKA_COMMANDS_TOPIC are required when KAFKA_BROKERS is set")
	}
	if c.Redis.DedupeTTL <= 0 {
		return fmt.Errorf("REDIS_DEDUPE_TTL must be positive")
	}
	return nil
}

// Enabled reports whether any Kafka brokers are configured
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Enabled reports whether a Redis address is configured
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// Address returns the HTTP listen address
func (s ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping empty entries
func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
