package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration. Secret fields carry no envconfig
// tag: they are loaded from Docker-secret files (env var fallback) so that the
// signing keys and passwords never appear in the process environment dump.
type Config struct {
	Env        string `envconfig:"ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"debug"`
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`

	// Database (PostgreSQL, account documents)
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     string `envconfig:"DB_PORT" required:"true"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`
	DBSSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	DBPassword string

	// Redis (channel-stats cache)
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPassword string

	// Channel aggregate cache TTL
	ChannelStatsTTL time.Duration `envconfig:"CHANNEL_STATS_TTL" default:"30s"`

	// Token settings. Two distinct secrets: an access-token leak must not be
	// able to mint new sessions.
	AccessTokenSecret  string
	RefreshTokenSecret string
	PasswordPepper     string
	AccessTokenTTL     time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTokenTTL    time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"240h"` // 10 days

	// Media storage (S3-compatible host)
	S3Region        string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Bucket        string `envconfig:"S3_BUCKET" required:"true"`
	S3BaseEndpoint  string `envconfig:"S3_BASE_ENDPOINT"`
	S3PublicBaseURL string `envconfig:"S3_PUBLIC_BASE_URL" required:"true"`
	S3AccessKey     string
	S3SecretKey     string

	// Directory for multipart upload staging; files here are always temporary.
	UploadTempDir string `envconfig:"UPLOAD_TEMP_DIR" default:"/tmp/vidstream-uploads"`

	// CORS settings
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// Cookie settings; SecureCookies should only be disabled in development.
	CookieDomain  string `envconfig:"COOKIE_DOMAIN" default:""`
	SecureCookies bool   `envconfig:"SECURE_COOKIES" default:"true"`
}

// GetAllowedOrigins splits the CORSAllowedOrigins string into a slice.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// LoadConfig loads configuration from environment variables and secrets.
func LoadConfig(envFilePath string) (*Config, error) {
	if _, err := os.Stat(envFilePath); err == nil {
		if err := godotenv.Load(envFilePath); err != nil {
			log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
		} else {
			log.Printf("Loaded configuration from %s", envFilePath)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}

	// Required secrets
	var loadErr error
	cfg.DBPassword, loadErr = ReadSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.AccessTokenSecret, loadErr = ReadSecret("access_token_secret")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.RefreshTokenSecret, loadErr = ReadSecret("refresh_token_secret")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.PasswordPepper, loadErr = ReadSecret("password_pepper")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.S3AccessKey, loadErr = ReadSecret("s3_access_key")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.S3SecretKey, loadErr = ReadSecret("s3_secret_key")
	if loadErr != nil {
		return nil, loadErr
	}

	// Optional secrets
	if redisPass, err := ReadSecret("redis_password"); err == nil {
		cfg.RedisPassword = redisPass
		log.Println("Redis password loaded from secret.")
	} else {
		log.Printf("Optional secret 'redis_password' not found: %v. Assuming no password.", err)
	}

	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, fmt.Errorf("access_token_secret and refresh_token_secret must differ")
	}

	log.Println("Configuration loaded successfully (secrets read from files).")
	return &cfg, nil
}

// ReadSecret reads a secret from the standard Docker Secrets path, falling
// back to the upper-cased environment variable for local development.
func ReadSecret(secretName string) (string, error) {
	filePath := fmt.Sprintf("/run/secrets/%s", secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err == nil {
		secret := strings.TrimSpace(string(secretBytes))
		if secret == "" {
			return "", fmt.Errorf("secret file %s is empty", filePath)
		}
		return secret, nil
	}

	envName := strings.ToUpper(secretName)
	if v := strings.TrimSpace(os.Getenv(envName)); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("failed to read secret %s (file %s, env %s): %w", secretName, filePath, envName, err)
}
