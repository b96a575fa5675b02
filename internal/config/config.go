// Package config reads the service configuration from the environment,
// loading a .env file first when one is present.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	Odoo OdooConfig

	ProductLimit      int
	TransactionDays   int
	ImageStoragePath  string
	LowStockThreshold int

	Redis RedisConfig
	Kafka KafkaConfig

	// SyncRateLimit uses the ulule limiter format, e.g. "5-M".
	SyncRateLimit string
}

type OdooConfig struct {
	URL                string
	Database           string
	Username           string
	Password           string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// RedisConfig with an empty Addr disables the aggregate cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig with no brokers disables the event sink.
type KafkaConfig struct {
	Brokers        []string
	Topic          string
	PublishTimeout time.Duration
}

// Load reads .env (if any) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	return Config{
		Port:        getEnv("PORT", "3000"),
		DatabaseURL: databaseURL(),
		JWTSecret:   getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
		Odoo: OdooConfig{
			URL:                getEnv("ODOO_URL", ""),
			Database:           getEnv("ODOO_DB", ""),
			Username:           getEnv("ODOO_USERNAME", ""),
			Password:           getEnv("ODOO_PASSWORD", ""),
			InsecureSkipVerify: getBool("ODOO_INSECURE_SKIP_VERIFY", true),
			Timeout:            getDuration("ODOO_TIMEOUT", 30*time.Second),
		},
		ProductLimit:      getInt("ODOO_PRODUCT_LIMIT", 500),
		TransactionDays:   getInt("SYNC_TRANSACTION_DAYS", 30),
		ImageStoragePath:  getEnv("IMAGE_STORAGE_PATH", "storage/app/public"),
		LowStockThreshold: getInt("LOW_STOCK_THRESHOLD", 10),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:        splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:          getEnv("KAFKA_TOPIC", "inventory-events"),
			PublishTimeout: getDuration("KAFKA_PUBLISH_TIMEOUT", 3*time.Second),
		},
		SyncRateLimit: getEnv("SYNC_RATE_LIMIT", "5-M"),
	}
}

func databaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Asia/Jakarta",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

func getBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
