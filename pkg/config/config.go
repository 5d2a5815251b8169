package config

import (
	"errors"
	"fmt"
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

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	SuperAdmin SuperAdminConfig
	RateLimit  RateLimitConfig
	Audit      AuditConfig
	CORS       CORSConfig
	Log        LogConfig
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
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig carries the session signing secret. The token lifetime is fixed
// by design (one hour) and is not configurable.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience []string
}

// SuperAdminConfig injects the fixed out-of-band identity at startup. The
// password is stored as an argon2id hash, never plaintext.
type SuperAdminConfig struct {
	Email        string
	PasswordHash string
}

// RateLimitConfig throttles password login endpoints per client IP.
type RateLimitConfig struct {
	Enabled     bool
	MaxAttempts int
	Window      time.Duration
}

// AuditConfig tunes the background audit writer.
type AuditConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
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
		if !errors.As(err, &notFound) {
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
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: splitAndTrim(v.GetString("JWT_AUDIENCE")),
	}

	cfg.SuperAdmin = SuperAdminConfig{
		Email:        v.GetString("SUPERADMIN_EMAIL"),
		PasswordHash: v.GetString("SUPERADMIN_PASSWORD_HASH"),
	}

	cfg.RateLimit = RateLimitConfig{
		Enabled:     v.GetBool("LOGIN_RATE_LIMIT_ENABLED"),
		MaxAttempts: v.GetInt("LOGIN_RATE_LIMIT_MAX_ATTEMPTS"),
		Window:      parseDuration(v.GetString("LOGIN_RATE_LIMIT_WINDOW"), 15*time.Minute),
	}

	cfg.Audit = AuditConfig{
		Workers:    v.GetInt("AUDIT_WORKERS"),
		BufferSize: v.GetInt("AUDIT_BUFFER_SIZE"),
		MaxRetries: v.GetInt("AUDIT_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("AUDIT_RETRY_DELAY"), time.Second),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

// Validate checks the configuration the process cannot run without. A failure
// here is fatal: main must refuse to serve traffic.
func (c *Config) Validate() error {
	var missing []string
	if c.JWT.Secret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.SuperAdmin.Email == "" {
		missing = append(missing, "SUPERADMIN_EMAIL")
	}
	if c.SuperAdmin.PasswordHash == "" {
		missing = append(missing, "SUPERADMIN_PASSWORD_HASH")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "zyntra_exam")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	// No default for JWT_SECRET or the superadmin identity: Validate treats
	// their absence as fatal.
	v.SetDefault("JWT_ISSUER", "zyntra-exam-api")
	v.SetDefault("JWT_AUDIENCE", "")

	v.SetDefault("LOGIN_RATE_LIMIT_ENABLED", true)
	v.SetDefault("LOGIN_RATE_LIMIT_MAX_ATTEMPTS", 10)
	v.SetDefault("LOGIN_RATE_LIMIT_WINDOW", "15m")

	v.SetDefault("AUDIT_WORKERS", 1)
	v.SetDefault("AUDIT_BUFFER_SIZE", 256)
	v.SetDefault("AUDIT_MAX_RETRIES", 3)
	v.SetDefault("AUDIT_RETRY_DELAY", "1s")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
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
