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
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Email        EmailConfig
	Telegram     TelegramConfig
	Notifier     NotifierConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
	App          AppConfig
	Log          LogConfig
	Scheduler    SchedulerConfig
	Points       PointsConfig
	Registration RegistrationConfig
	Metrics      MetricsConfig
	Admin        AdminConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host            string
	Port            string
	TimeoutRead     time.Duration
	TimeoutWrite    time.Duration
	TimeoutIdle     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver          string // "postgres" or "memory"
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsPath  string // empty uses the migrations embedded in the binary
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// EmailConfig holds SMTP configuration for the email notification channel
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	Recipients   []string
}

// TelegramConfig holds configuration for the Telegram notification channel
type TelegramConfig struct {
	BotToken string
	ChatID   int64
}

// NotifierConfig controls the asynchronous notification dispatcher
type NotifierConfig struct {
	Channels    []string // any of "log", "email", "telegram"
	QueueSize   int
	Workers     int
	MaxAttempts uint
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Duration time.Duration
}

type AppConfig struct {
	Env     string
	Name    string
	Version string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	EnableReminders bool
	ReminderCron    string
	ReminderLead    time.Duration
}

// PointsConfig holds the top-3 point tables used by the leaderboards
type PointsConfig struct {
	Group   []float64
	Single  []float64
	Student []float64
}

// RegistrationConfig holds registration policy settings
type RegistrationConfig struct {
	ChestNumberStrategy string // "eager" or "report"
	ChestNumberPrefix   string
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

// AdminConfig holds the bootstrap account created by seed-admin
type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// godotenv doesn't override already-set variables, so order matters
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "localhost"),
			Port:            getEnv("SERVER_PORT", "8080"),
			TimeoutRead:     getDurationEnv("SERVER_TIMEOUT_READ", 15*time.Second),
			TimeoutWrite:    getDurationEnv("SERVER_TIMEOUT_WRITE", 15*time.Second),
			TimeoutIdle:     getDurationEnv("SERVER_TIMEOUT_IDLE", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "campusfest"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "campusfest"),
			SSLMode:         getEnv("DB_SSLMODE", "prefer"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath:  getEnv("DB_MIGRATIONS_PATH", ""),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: getDurationEnv("JWT_EXPIRATION", 12*time.Hour),
			Issuer:     getEnv("JWT_ISSUER", "campusfest"),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
			Recipients:   getSliceEnv("NOTIFY_EMAIL_RECIPIENTS", nil),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getInt64Env("TELEGRAM_CHAT_ID", 0),
		},
		Notifier: NotifierConfig{
			Channels:    getSliceEnv("NOTIFY_CHANNELS", []string{"log"}),
			QueueSize:   getIntEnv("NOTIFY_QUEUE_SIZE", 256),
			Workers:     getIntEnv("NOTIFY_WORKERS", 2),
			MaxAttempts: uint(getIntEnv("NOTIFY_MAX_ATTEMPTS", 5)),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   getSliceEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getSliceEnv("CORS_ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type"}),
			AllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           getIntEnv("CORS_MAX_AGE", 300),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getBoolEnv("RATE_LIMIT_ENABLED", true),
			Requests: getIntEnv("RATE_LIMIT_REQUESTS", 300),
			Duration: getDurationEnv("RATE_LIMIT_DURATION", 1*time.Minute),
		},
		App: AppConfig{
			Env:     getEnv("APP_ENV", "development"),
			Name:    getEnv("APP_NAME", "CampusFest"),
			Version: getEnv("APP_VERSION", "1.0.0"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Scheduler: SchedulerConfig{
			EnableReminders: getBoolEnv("SCHEDULER_ENABLE_REMINDERS", true),
			ReminderCron:    getEnv("SCHEDULER_REMINDER_CRON", "*/15 * * * *"),
			ReminderLead:    getDurationEnv("SCHEDULER_REMINDER_LEAD", 1*time.Hour),
		},
		Points: PointsConfig{
			Group:   getFloatSliceEnv("POINTS_GROUP", []float64{30, 20, 10}),
			Single:  getFloatSliceEnv("POINTS_SINGLE", []float64{15, 10, 5}),
			Student: getFloatSliceEnv("POINTS_STUDENT", []float64{5, 3, 1}),
		},
		Registration: RegistrationConfig{
			ChestNumberStrategy: getEnv("CHEST_NUMBER_STRATEGY", "eager"),
			ChestNumberPrefix:   getEnv("CHEST_NUMBER_PREFIX", "C"),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
			Name:     getEnv("ADMIN_NAME", "Administrator"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Database.Password == "" && c.Database.Driver == "postgres" && c.App.Env == "production" {
		return fmt.Errorf("DB_PASSWORD is required in production")
	}
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Registration.ChestNumberStrategy {
	case "eager", "report":
	default:
		return fmt.Errorf("unsupported CHEST_NUMBER_STRATEGY %q", c.Registration.ChestNumberStrategy)
	}
	for name, table := range map[string][]float64{
		"POINTS_GROUP":   c.Points.Group,
		"POINTS_SINGLE":  c.Points.Single,
		"POINTS_STUDENT": c.Points.Student,
	} {
		if len(table) != 3 {
			return fmt.Errorf("%s must list exactly three values", name)
		}
	}
	for _, ch := range c.Notifier.Channels {
		switch ch {
		case "log", "email", "telegram":
		default:
			return fmt.Errorf("unsupported notification channel %q", ch)
		}
		if ch == "telegram" && c.Telegram.BotToken == "" {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN is required for the telegram channel")
		}
		if ch == "email" && c.Email.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required for the email channel")
		}
	}
	return nil
}

// Addr returns the listen address for the HTTP server
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, v := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// getFloatSliceEnv parses a comma separated list of numbers; any malformed entry
// falls back to the default for the whole list
func getFloatSliceEnv(key string, defaultValue []float64) []float64 {
	parts := getSliceEnv(key, nil)
	if len(parts) == 0 {
		return defaultValue
	}
	result := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return defaultValue
		}
		result = append(result, f)
	}
	return result
}
