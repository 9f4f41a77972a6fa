package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// SessionTTL is how long an issued session token stays valid. It is not configurable.
const SessionTTL = 24 * time.Hour

// DefaultJWTSecret is only used when JWT_SECRET is unset. Never rely on it outside local development.
const DefaultJWTSecret = "audit-portal-dev-secret"

type AuditServiceConfig struct {
	Port        string
	Environment string
	LogLevel    string
	PostgresCfg PostgresConfig
	MongoCfg    MongoConfig
	RedisCfg    RedisConfig
	RabbitMQCfg RabbitMQConfig
	AuthCfg     AuthConfig
	HTTPCfg     HTTPConfig
	ClientCfg   ClientConfig
}

type PostgresConfig struct {
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
}

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	Enabled  bool
	Username string
	Password string
	Host     string
	Port     string
}

type AuthConfig struct {
	JWTSecret          string
	TokenTTL           time.Duration
	UsingDefaultSecret bool
	LoginRatePerSec    float64
	LoginRateBurst     int
}

type HTTPConfig struct {
	AllowedOrigins []string
	// TrustedProxies lists the reverse proxies whose X-Forwarded-For is believed. Empty means none.
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// ClientConfig drives the terminal client commands.
type ClientConfig struct {
	APIURL      string
	SessionFile string
	Timeout     time.Duration
}

// New loads .env (if present) and reads the service configuration from the environment.
func New() *AuditServiceConfig {
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	usingDefault := secret == ""
	if usingDefault {
		secret = DefaultJWTSecret
	}

	return &AuditServiceConfig{
		Port:        getEnvOrDefault("PORT", "5000"),
		Environment: getEnvOrDefault("APP_ENV", "development"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		PostgresCfg: PostgresConfig{
			DBname:   getEnvOrDefault("DB_NAME", "audit_service"),
			Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PWD", "postgres"),
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		},
		MongoCfg: MongoConfig{
			URI:        getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
			Database:   getEnvOrDefault("MONGO_DB", "audit_portal"),
			Collection: getEnvOrDefault("MONGO_COLLECTION", "utilities"),
		},
		RedisCfg: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", true),
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		RabbitMQCfg: RabbitMQConfig{
			Enabled:  getBoolEnv("RABBITMQ_ENABLED", false),
			Username: getEnvOrDefault("RABBITMQ_USER", "guest"),
			Password: getEnvOrDefault("RABBITMQ_PWD", "guest"),
			Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
		},
		AuthCfg: AuthConfig{
			JWTSecret:          secret,
			TokenTTL:           SessionTTL,
			UsingDefaultSecret: usingDefault,
			LoginRatePerSec:    getFloatEnv("LOGIN_RATE_PER_SEC", 1),
			LoginRateBurst:     getIntEnv("LOGIN_RATE_BURST", 5),
		},
		HTTPCfg: HTTPConfig{
			AllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
			TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),
			ReadTimeout:    getDurationEnv("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("HTTP_WRITE_TIMEOUT", 30*time.Second),
		},
		ClientCfg: ClientConfig{
			APIURL:      getEnvOrDefault("AUDIT_API_URL", "http://localhost:5000"),
			SessionFile: getEnvOrDefault("AUDIT_SESSION_FILE", defaultSessionFile()),
			Timeout:     getDurationEnv("AUDIT_CLIENT_TIMEOUT", 15*time.Second),
		},
	}
}

// IsProduction reports whether internal error details must be hidden from API responses.
func (c *AuditServiceConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getFloatEnv(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getBoolEnv(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".audit-session.json"
	}
	return dir + string(os.PathSeparator) + "audit-service" + string(os.PathSeparator) + "session.json"
}
