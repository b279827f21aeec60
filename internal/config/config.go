package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	DBDriver        string // "sqlite" o "postgres"
	SQLitePath      string
	PostgresDSN     string
	RedisAddr       string
	UseKafka        bool
	KafkaBrokers    []string
	CacheTTL        time.Duration
	OutboxPeriod    time.Duration
	OutboxLimit     int
	HTTPPort        string
	AllowedOrigins  []string
	LocalDeployment bool
}

func LoadConfig() *Config {
	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")

	origins := strings.Split(getEnv("CORS_ORIGINS",
		"http://localhost:3000,http://127.0.0.1:3000,https://mon-frontend.com"), ",")

	return &Config{
		DBDriver:        getEnv("DB_DRIVER", "sqlite"),
		SQLitePath:      getEnv("SQLITE_PATH", "./sociolab.db"),
		PostgresDSN:     getEnv("POSTGRES_DSN", ""),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		UseKafka:        getEnv("USE_KAFKA", "false") == "true",
		KafkaBrokers:    kafkaBrokers,
		CacheTTL:        5 * time.Minute,
		OutboxPeriod:    1 * time.Second,
		OutboxLimit:     10,
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		AllowedOrigins:  origins,
		LocalDeployment: getEnv("LOCAL_DEPLOYMENT", "true") == "true",
	}
}
