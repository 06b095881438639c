package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Outpass  OutpassConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// OutpassConfig tunes the outpass approval workflow and its side channels.
type OutpassConfig struct {
	Enabled             bool
	AttendanceThreshold float64
	ShortfallCacheTTL   time.Duration
	IdempotencyTTL      time.Duration
	NotificationWorkers int
	NotificationRetries int
	GatePassDir         string
	GatePassURLSecret   string
	GatePassURLTTL      time.Duration
	GatePassRetention   time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	threshold := v.GetFloat64("OUTPASS_ATTENDANCE_THRESHOLD")
	if threshold <= 0 || threshold > 100 {
		threshold = 75
	}
	workers := v.GetInt("OUTPASS_NOTIFICATION_WORKERS")
	if workers <= 0 {
		workers = 1
	}
	cfg.Outpass = OutpassConfig{
		Enabled:             v.GetBool("ENABLE_OUTPASS"),
		AttendanceThreshold: threshold,
		ShortfallCacheTTL:   parseDuration(v.GetString("OUTPASS_SHORTFALL_CACHE_TTL"), 10*time.Minute),
		IdempotencyTTL:      parseDuration(v.GetString("OUTPASS_IDEMPOTENCY_TTL"), 24*time.Hour),
		NotificationWorkers: workers,
		NotificationRetries: v.GetInt("OUTPASS_NOTIFICATION_RETRIES"),
		GatePassDir:         v.GetString("OUTPASS_GATE_PASS_DIR"),
		GatePassURLSecret:   v.GetString("OUTPASS_GATE_PASS_URL_SECRET"),
		GatePassURLTTL:      parseDuration(v.GetString("OUTPASS_GATE_PASS_URL_TTL"), 30*time.Minute),
		GatePassRetention:   parseDuration(v.GetString("OUTPASS_GATE_PASS_RETENTION"), 7*24*time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "smartcampus")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_OUTPASS", true)
	v.SetDefault("OUTPASS_ATTENDANCE_THRESHOLD", 75)
	v.SetDefault("OUTPASS_SHORTFALL_CACHE_TTL", "10m")
	v.SetDefault("OUTPASS_IDEMPOTENCY_TTL", "24h")
	v.SetDefault("OUTPASS_NOTIFICATION_WORKERS", 2)
	v.SetDefault("OUTPASS_NOTIFICATION_RETRIES", 3)
	v.SetDefault("OUTPASS_GATE_PASS_DIR", "./gate-passes")
	v.SetDefault("OUTPASS_GATE_PASS_URL_SECRET", "dev_gate_pass_secret")
	v.SetDefault("OUTPASS_GATE_PASS_URL_TTL", "30m")
	v.SetDefault("OUTPASS_GATE_PASS_RETENTION", "168h")
}

// viper reports a missing explicit config file as a plain fs error.
func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
