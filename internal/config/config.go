package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application. It is loaded once at
// startup and handed to constructors; nothing in the core reads the
// environment directly.
type Config struct {
	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	Server struct {
		Port    string
		GinMode string
	}

	CORS struct {
		AllowOrigins string
		AllowMethods string
		AllowHeaders string
	}

	Email struct {
		Mode   string // "mock" or "ses"
		Sender string
		Region string
	}

	Registration struct {
		ApprovedGuestDomains []string
		MaxGuests            int
	}

	Upload struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		Bucket    string
		UseSSL    bool
	}

	JWT struct {
		Secret string
	}
}

// Load loads configuration from environment variables
func Load() *Config {
	_ = godotenv.Load()

	config := &Config{}

	config.DB.Host = getEnv("DB_HOST", "localhost")
	config.DB.Port = getEnv("DB_PORT", "5432")
	config.DB.User = getEnv("DB_USER", "terpspark")
	config.DB.Password = getEnv("DB_PASSWORD", "terpspark_password")
	config.DB.Name = getEnv("DB_NAME", "terpspark_db")
	config.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	config.Server.Port = getEnv("PORT", "8080")
	config.Server.GinMode = getEnv("GIN_MODE", "debug")

	config.CORS.AllowOrigins = getEnv("CORS_ALLOW_ORIGINS", "*")
	config.CORS.AllowMethods = getEnv("CORS_ALLOW_METHODS", "GET,POST,PUT,PATCH,DELETE,HEAD,OPTIONS")
	config.CORS.AllowHeaders = getEnv("CORS_ALLOW_HEADERS", "Origin,Content-Length,Content-Type,Authorization")

	config.Email.Mode = getEnv("EMAIL_MODE", "mock")
	config.Email.Sender = getEnv("EMAIL_SENDER", "events@terpspark.umd.edu")
	config.Email.Region = getEnv("AWS_REGION", "us-east-1")

	config.Registration.ApprovedGuestDomains = getEnvAsList("APPROVED_GUEST_DOMAINS", "umd.edu")
	config.Registration.MaxGuests = int(getEnvAsInt64("MAX_GUESTS", 2))

	config.Upload.Endpoint = getEnv("MINIO_ENDPOINT", "localhost:9000")
	config.Upload.AccessKey = getEnv("MINIO_ACCESS_KEY", "minioadmin")
	config.Upload.SecretKey = getEnv("MINIO_SECRET_KEY", "minioadmin")
	config.Upload.Bucket = getEnv("MINIO_BUCKET", "event-images")
	config.Upload.UseSSL = getEnv("MINIO_USE_SSL", "false") == "true"

	config.JWT.Secret = getEnv("JWT_SECRET", "dev-secret-change-me")

	return config
}

// GetDatabaseURL returns the database connection URL
func (c *Config) GetDatabaseURL() string {
	return "postgres://" + c.DB.User + ":" + c.DB.Password + "@" + c.DB.Host + ":" + c.DB.Port + "/" + c.DB.Name + "?sslmode=" + c.DB.SSLMode
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 gets an environment variable as int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsList gets a comma-separated environment variable as a slice
func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
