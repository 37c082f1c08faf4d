// Package config загружает конфигурацию сервиса из окружения и секретов.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"storymatrix/internal/database"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Backends хранилища состояния.
const (
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds the application configuration.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"5s"`

	// sqlite, redis или postgres
	StateBackend string `envconfig:"STATE_BACKEND" default:"sqlite"`
	SQLitePath   string `envconfig:"SQLITE_PATH" default:"data/storymatrix.db"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`
	// Секретное поле БЕЗ envconfig тега
	RedisPassword string

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBName     string `envconfig:"DB_NAME" default:"storymatrix"`
	DBSSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"5"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string

	// Пусто = события не публикуются
	RabbitMQURL string `envconfig:"RABBITMQ_URL"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	SeedSamples bool `envconfig:"SEED_SAMPLES" default:"true"`

	// Лимит на тяжелые эндпоинты (import, ingest)
	RateLimitPerSecond uint `envconfig:"RATE_LIMIT_PER_SECOND" default:"5"`

	// Максимальный размер тела запроса (импорт и base64 изображения)
	MaxBodyBytes int64 `envconfig:"MAX_BODY_BYTES" default:"52428800"`
}

// GetAllowedOrigins splits the CORSAllowedOrigins string into a slice.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",") {
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Postgres возвращает параметры подключения к PostgreSQL.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		DBName:   c.DBName,
		SSLMode:  c.DBSSLMode,
		MaxConns: c.DBMaxConns,
	}
}

// Validate проверяет значения, которые envconfig проверить не может.
func (c *Config) Validate() error {
	switch c.StateBackend {
	case BackendSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
	case BackendPostgres:
		if c.DBHost == "" || c.DBName == "" {
			return fmt.Errorf("DB_HOST and DB_NAME are required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STATE_BACKEND '%s' (expected sqlite, redis or postgres)", c.StateBackend)
	}
	if c.RateLimitPerSecond == 0 {
		return fmt.Errorf("RATE_LIMIT_PER_SECOND must be positive")
	}
	return nil
}

// LoadConfig loads configuration from environment variables and secrets.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err = godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
			} else {
				log.Printf("Loaded configuration from %s", envFilePath)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}
	cfg.StateBackend = strings.ToLower(strings.TrimSpace(cfg.StateBackend))

	// Секреты нужны только выбранному backend'у и оба необязательны
	switch cfg.StateBackend {
	case BackendRedis:
		if pass, err := ReadSecret("redis_password"); err == nil {
			cfg.RedisPassword = pass
			log.Println("Redis password loaded from secret.")
		} else {
			log.Printf("Optional secret 'redis_password' not found or failed to read: %v. Assuming no password.", err)
		}
	case BackendPostgres:
		if pass, err := ReadSecret("db_password"); err == nil {
			cfg.DBPassword = pass
		} else {
			log.Printf("Optional secret 'db_password' not found or failed to read: %v. Using empty password.", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
