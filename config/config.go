// Package config loads server settings from the environment and an optional
// .env file, applies defaults and validates the result.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	DefaultPort               = "8080"
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
	DefaultUploadTempDir      = "./public/temp"
	DefaultUploadMaxBytes     = 25 << 20
	DefaultUploadSweep        = 10 * time.Minute
	DefaultUploadMaxAge       = time.Hour
	DefaultBlobDriver         = "cloudinary"
	DefaultRedisChannelPrefix = "tasksphere:room:"
)

// Config holds all runtime settings.
type Config struct {
	Port      string `validate:"required,numeric"`
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`

	Database Database

	UploadTempDir       string        `validate:"required"`
	UploadMaxBytes      int64         `validate:"gt=0"`
	UploadSweepInterval time.Duration `validate:"min=1s"`
	UploadMaxAge        time.Duration `validate:"min=1s"`

	BlobDriver string `validate:"oneof=cloudinary minio"`
	Cloudinary Cloudinary
	Minio      Minio

	RedisAddr          string
	RedisPassword      string
	RedisChannelPrefix string `validate:"required"`

	// AuthJWTSecret enables bearer token verification when set.
	AuthJWTSecret string
}

// Database is the postgres connection configuration.
type Database struct {
	Host     string `validate:"required"`
	User     string `validate:"required"`
	Password string
	Name     string `validate:"required"`
	Port     string `validate:"required,numeric"`
	SSLMode  string `validate:"oneof=disable require verify-ca verify-full"`
}

// DSN returns the postgres connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

type Cloudinary struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type Minio struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnv("PORT", DefaultPort),
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", DefaultLogLevel)),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", DefaultLogFormat)),
		Database: Database{
			Host:     getEnv("DB_HOST", "localhost"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASS", "postgres"),
			Name:     getEnv("DB_NAME", "tasksphere"),
			Port:     getEnv("DB_PORT", "5432"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		UploadTempDir:      getEnv("UPLOAD_TEMP_DIR", DefaultUploadTempDir),
		BlobDriver:         strings.ToLower(getEnv("BLOB_DRIVER", DefaultBlobDriver)),
		RedisAddr:          strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisChannelPrefix: getEnv("REDIS_CHANNEL_PREFIX", DefaultRedisChannelPrefix),
		AuthJWTSecret:      os.Getenv("AUTH_JWT_SECRET"),
		Cloudinary: Cloudinary{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			Folder:    os.Getenv("CLOUDINARY_FOLDER"),
		},
		Minio: Minio{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", "tasksphere"),
			PublicURL: os.Getenv("MINIO_PUBLIC_URL"),
		},
	}

	var err error
	if cfg.UploadMaxBytes, err = getInt64("UPLOAD_MAX_BYTES", DefaultUploadMaxBytes); err != nil {
		return nil, err
	}
	if cfg.UploadSweepInterval, err = getDuration("UPLOAD_SWEEP_INTERVAL", DefaultUploadSweep); err != nil {
		return nil, err
	}
	if cfg.UploadMaxAge, err = getDuration("UPLOAD_MAX_AGE", DefaultUploadMaxAge); err != nil {
		return nil, err
	}
	if cfg.Minio.UseSSL, err = getBool("MINIO_USE_SSL", false); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the settings required by the
// selected blob driver.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	switch c.BlobDriver {
	case "cloudinary":
		if c.Cloudinary.CloudName == "" || c.Cloudinary.APIKey == "" || c.Cloudinary.APISecret == "" {
			return fmt.Errorf("invalid config: cloudinary driver requires CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
		}
	case "minio":
		if c.Minio.Endpoint == "" || c.Minio.AccessKey == "" || c.Minio.SecretKey == "" || c.Minio.Bucket == "" {
			return fmt.Errorf("invalid config: minio driver requires MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET")
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt64(key string, fallback int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}
