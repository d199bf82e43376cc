package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Check-In Scheduler Config
	CheckInPollInterval time.Duration `env:"CHECKIN_POLL_INTERVAL" envDefault:"5s"`

	// Escalation Config
	CaptureInterval  time.Duration `env:"CAPTURE_INTERVAL" envDefault:"1m"`
	MaxAlertDuration time.Duration `env:"MAX_ALERT_DURATION" envDefault:"2h"`
	PersistRetries   int           `env:"PERSIST_RETRIES" envDefault:"3"`

	// Threat Monitor Config
	ThreatThreshold   float64  `env:"THREAT_THRESHOLD" envDefault:"0.85"`
	ThreatTriggerType []string `env:"THREAT_TRIGGER_TYPES" envDefault:"fall,distress_audio"`

	// Notification Config
	NotifyTimeout    time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"5s"`
	NotifyMaxRetries int           `env:"NOTIFY_MAX_RETRIES" envDefault:"3"`
	NotifyBaseDelay  time.Duration `env:"NOTIFY_BASE_DELAY" envDefault:"500ms"`

	// Провайдеры каналов доставки
	EmailGatewayURL string `env:"EMAIL_GATEWAY_URL"`
	EmailGatewayKey string `env:"EMAIL_GATEWAY_KEY"`
	WhatsAppAPIURL  string `env:"WHATSAPP_API_URL"`
	WhatsAppToken   string `env:"WHATSAPP_TOKEN"`

	// Ops Webhook Config
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`

	// Stats Config
	StatsTimeWindowMinutes int `env:"STATS_TIME_WINDOW_MINUTES" envDefault:"60"`

	// API Keys for authentication
	APIKeys []string `env:"API_KEYS"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		HTTPPort:               getEnv("HTTP_PORT", "8080"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:              os.Getenv("REDIS_PASSWORD"),
		RedisDB:                getEnvAsInt("REDIS_DB", 0),
		CheckInPollInterval:    getEnvAsDuration("CHECKIN_POLL_INTERVAL", 5*time.Second),
		CaptureInterval:        getEnvAsDuration("CAPTURE_INTERVAL", time.Minute),
		MaxAlertDuration:       getEnvAsDuration("MAX_ALERT_DURATION", 2*time.Hour),
		PersistRetries:         getEnvAsInt("PERSIST_RETRIES", 3),
		ThreatThreshold:        getEnvAsFloat("THREAT_THRESHOLD", 0.85),
		NotifyTimeout:          getEnvAsDuration("NOTIFY_TIMEOUT", 5*time.Second),
		NotifyMaxRetries:       getEnvAsInt("NOTIFY_MAX_RETRIES", 3),
		NotifyBaseDelay:        getEnvAsDuration("NOTIFY_BASE_DELAY", 500*time.Millisecond),
		EmailGatewayURL:        os.Getenv("EMAIL_GATEWAY_URL"),
		EmailGatewayKey:        os.Getenv("EMAIL_GATEWAY_KEY"),
		WhatsAppAPIURL:         os.Getenv("WHATSAPP_API_URL"),
		WhatsAppToken:          os.Getenv("WHATSAPP_TOKEN"),
		WebhookURL:             os.Getenv("WEBHOOK_URL"),
		WebhookSecret:          os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:         getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries:      getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:       getEnvAsDuration("WEBHOOK_BASE_DELAY", time.Second),
		StatsTimeWindowMinutes: getEnvAsInt("STATS_TIME_WINDOW_MINUTES", 60),
	}

	// Типы угроз, по которым монитор инициирует эскалацию
	cfg.ThreatTriggerType = splitAndTrim(getEnv("THREAT_TRIGGER_TYPES", "fall,distress_audio"))

	// Загрузка API ключей
	if apiKeysStr := os.Getenv("API_KEYS"); apiKeysStr != "" {
		cfg.APIKeys = splitAndTrim(apiKeysStr)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	return cfg, nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat возвращает значение переменной окружения как float64 или значение по умолчанию
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
