package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string

	// ReauthWindow is how recently a session token must have been issued
	// for password-confirmed operations (account deletion) to proceed
	// without a fresh login.
	ReauthWindow time.Duration

	// Image hosting (Cloudinary) configuration
	CloudinaryCloudName    string
	CloudinaryUploadPreset string
}

const defaultReauthWindow = 15 * time.Minute

// LoadConfig creates a new Config instance with values from environment
// variables or Docker secrets, depending on the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerPort:             getEnv("SERVER_PORT", "8080"),
		ServerHost:             getEnv("SERVER_HOST", "0.0.0.0"),
		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBPort:                 getEnv("DB_PORT", "5432"),
		DBName:                 getEnv("DB_NAME", "userhub"),
		DBSSLMode:              getEnv("DB_SSL_MODE", "disable"),
		RedisHost:              getEnv("REDIS_HOST", "localhost"),
		RedisPort:              getEnv("REDIS_PORT", "6379"),
		RedisURL:               os.Getenv("REDIS_URL"),
		RedisDB:                0,
		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryUploadPreset: os.Getenv("CLOUDINARY_UPLOAD_PRESET"),
		ReauthWindow:           defaultReauthWindow,
	}

	if window := os.Getenv("REAUTH_WINDOW"); window != "" {
		d, err := time.ParseDuration(window)
		if err != nil {
			return nil, fmt.Errorf("invalid REAUTH_WINDOW: %w", err)
		}
		cfg.ReauthWindow = d
	}

	// Sensitive values come from environment variables in CI and from
	// Docker secrets everywhere else.
	if GetEnvironment() == CI {
		cfg.DBUser = os.Getenv("DB_USER")
		cfg.DBPassword = os.Getenv("DB_PASSWORD")
		cfg.JWTSecret = os.Getenv("JWT_SECRET")
		cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	} else {
		cfg.DBUser = firstNonEmpty(readSecret("db_user"), os.Getenv("DB_USER"))
		cfg.DBPassword = firstNonEmpty(readSecret("db_password"), os.Getenv("DB_PASSWORD"))
		cfg.JWTSecret = firstNonEmpty(readSecret("jwt_secret"), os.Getenv("JWT_SECRET"))
		cfg.RedisPassword = firstNonEmpty(readSecret("redis_password"), os.Getenv("REDIS_PASSWORD"))
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	var missing []string
	if cfg.DBUser == "" {
		missing = append(missing, "db_user")
	}
	if cfg.DBPassword == "" {
		missing = append(missing, "db_password")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "jwt_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
