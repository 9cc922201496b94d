package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Server        ServerConfig
	Mongo         MongoConfig
	Auth          AuthConfig
	Log           LogConfig
	Notifications NotificationsConfig
	RateLimit     RateLimitConfig
	Broker        BrokerConfig
	Media         MediaConfig
	FrontendURL   string
}

type ServerConfig struct {
	Port         string
	CORSOrigin   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoConfig struct {
	URI    string
	DBName string
}

type AuthConfig struct {
	JWTSecret                 string
	TokenExpiry               time.Duration
	ResetTokenExpiry          time.Duration
	EnforcePasswordComplexity bool
	PasswordBlacklistFile     string
}

type LogConfig struct {
	File  string
	Level string
}

// NotificationsConfig selects the notification store. Backend is "mongo" or "cassandra".
type NotificationsConfig struct {
	Backend     string
	CassandraDB string
}

type RateLimitConfig struct {
	AuthPerMinute  int
	RedisURL       string
	TrustedProxies []string
}

type BrokerConfig struct {
	RabbitMQURL string
	EmailQueue  string
	KafkaBroker string
	KafkaTopic  string
}

type MediaConfig struct {
	ServiceURL string
	APIKey     string
	MaxBytes   int64
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using process environment")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			CORSOrigin:   getEnv("CORS_ORIGIN", "http://localhost:5173"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		Mongo: MongoConfig{
			URI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
			DBName: getEnv("MONGO_DB_NAME", "worknest"),
		},
		Auth: AuthConfig{
			JWTSecret:                 os.Getenv("JWT_SECRET"),
			TokenExpiry:               getDuration("JWT_EXPIRY", 7*24*time.Hour),
			ResetTokenExpiry:          getDuration("RESET_TOKEN_EXPIRY", 30*time.Minute),
			EnforcePasswordComplexity: getBool("AUTH_ENFORCE_PASSWORD_COMPLEXITY", true),
			PasswordBlacklistFile:     os.Getenv("PASSWORD_BLACKLIST_FILE"),
		},
		Log: LogConfig{
			File:  getEnv("LOG_FILE", "logs/worknest.log"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Notifications: NotificationsConfig{
			Backend:     strings.ToLower(getEnv("NOTIFICATIONS_BACKEND", "mongo")),
			CassandraDB: getEnv("CASS_DB", "127.0.0.1"),
		},
		RateLimit: RateLimitConfig{
			AuthPerMinute:  getInt("RATE_LIMIT_AUTH_PER_MINUTE", 20),
			RedisURL:       os.Getenv("REDIS_URL"),
			TrustedProxies: getList("TRUSTED_PROXIES"),
		},
		Broker: BrokerConfig{
			RabbitMQURL: os.Getenv("RABBITMQ_URL"),
			EmailQueue:  getEnv("RABBITMQ_EMAIL_QUEUE", "email_jobs"),
			KafkaBroker: os.Getenv("KAFKA_BROKER"),
			KafkaTopic:  getEnv("KAFKA_TOPIC", "worknest.project-activity"),
		},
		Media: MediaConfig{
			ServiceURL: os.Getenv("MEDIA_SERVICE_URL"),
			APIKey:     os.Getenv("MEDIA_SERVICE_KEY"),
			MaxBytes:   int64(getInt("MEDIA_MAX_BYTES", 5<<20)),
		},
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	switch c.Notifications.Backend {
	case "mongo", "cassandra":
	default:
		return fmt.Errorf("unsupported NOTIFICATIONS_BACKEND %q", c.Notifications.Backend)
	}
	if c.RateLimit.AuthPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_AUTH_PER_MINUTE must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// getList splits a comma-separated variable, dropping empty entries.
func getList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		logrus.Warnf("Invalid integer for %s=%q, using %d", key, v, fallback)
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		logrus.Warnf("Invalid boolean for %s=%q, using %t", key, v, fallback)
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		logrus.Warnf("Invalid duration for %s=%q, using %s", key, v, fallback)
	}
	return fallback
}
