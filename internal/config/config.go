package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// APIToken - статическая запись таблицы токенов: токен -> пользователь/роль
type APIToken struct {
	Token  string
	UserID string
	Role   string
}

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Webhook Config
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`

	// Verification Config
	VerificationQuorum int `env:"VERIFICATION_QUORUM" envDefault:"3"`

	// Realtime Config
	// Шаг грубой географической сетки каналов в градусах
	RegionGridDegrees float64 `env:"REGION_GRID_DEGREES" envDefault:"0.1"`

	// Analytics Config
	MaxSearchRadiusMeters float64       `env:"MAX_SEARCH_RADIUS_METERS" envDefault:"50000"`
	MaxGridCells          int           `env:"MAX_GRID_CELLS" envDefault:"250000"`
	AnalyticsMaxPoints    int           `env:"ANALYTICS_MAX_POINTS" envDefault:"2000"`
	PredictionMinSamples  int           `env:"PREDICTION_MIN_SAMPLES" envDefault:"50"`
	PredictionSampleDays  int           `env:"PREDICTION_SAMPLE_DAYS" envDefault:"30"`
	PredictionHistoryDays int           `env:"PREDICTION_HISTORY_DAYS" envDefault:"90"`
	ThrottleWindow        time.Duration `env:"THROTTLE_WINDOW" envDefault:"1m"`
	ThrottleLimit         int           `env:"THROTTLE_LIMIT" envDefault:"30"`

	// Expiry sweep (cron spec)
	ExpireSweepSpec string `env:"EXPIRE_SWEEP_SPEC" envDefault:"@every 1m"`

	// Stats Config
	StatsTimeWindowMinutes int `env:"STATS_TIME_WINDOW_MINUTES" envDefault:"60"`

	// API tokens for authentication: "token:userID:role" через запятую
	APITokens []APIToken `env:"API_TOKENS"`
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
		AppEnv:                 getEnv("APP_ENV", "production"),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:              os.Getenv("REDIS_PASSWORD"),
		RedisDB:                getEnvAsInt("REDIS_DB", 0),
		WebhookURL:             os.Getenv("WEBHOOK_URL"),
		WebhookSecret:          os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:         getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries:      getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:       getEnvAsDuration("WEBHOOK_BASE_DELAY", time.Second),
		VerificationQuorum:     getEnvAsInt("VERIFICATION_QUORUM", 3),
		RegionGridDegrees:      getEnvAsFloat("REGION_GRID_DEGREES", 0.1),
		MaxSearchRadiusMeters:  getEnvAsFloat("MAX_SEARCH_RADIUS_METERS", 50000),
		MaxGridCells:           getEnvAsInt("MAX_GRID_CELLS", 250000),
		AnalyticsMaxPoints:     getEnvAsInt("ANALYTICS_MAX_POINTS", 2000),
		PredictionMinSamples:   getEnvAsInt("PREDICTION_MIN_SAMPLES", 50),
		PredictionSampleDays:   getEnvAsInt("PREDICTION_SAMPLE_DAYS", 30),
		PredictionHistoryDays:  getEnvAsInt("PREDICTION_HISTORY_DAYS", 90),
		ThrottleWindow:         getEnvAsDuration("THROTTLE_WINDOW", time.Minute),
		ThrottleLimit:          getEnvAsInt("THROTTLE_LIMIT", 30),
		ExpireSweepSpec:        getEnv("EXPIRE_SWEEP_SPEC", "@every 1m"),
		StatsTimeWindowMinutes: getEnvAsInt("STATS_TIME_WINDOW_MINUTES", 60),
	}

	// Загрузка таблицы API токенов
	tokensStr := os.Getenv("API_TOKENS")
	if tokensStr != "" {
		for _, entry := range strings.Split(tokensStr, ",") {
			parts := strings.Split(strings.TrimSpace(entry), ":")
			if len(parts) != 3 {
				return nil, fmt.Errorf("некорректная запись API_TOKENS: %q", entry)
			}
			cfg.APITokens = append(cfg.APITokens, APIToken{
				Token:  parts[0],
				UserID: parts[1],
				Role:   parts[2],
			})
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if cfg.VerificationQuorum < 1 {
		return nil, fmt.Errorf("VERIFICATION_QUORUM must be positive")
	}

	return cfg, nil
}

// IsDevelopment сообщает, включен ли режим разработки с подробными ошибками
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
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
