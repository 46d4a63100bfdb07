package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DriverLocal = "local"
	DriverS3    = "s3"
)

type Config struct {
	Port      string
	DBURL     string
	JWTSecret string

	StorageDriver    string
	AWSRegion        string
	AWSBucket        string
	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string
	LocalStoragePath string

	TrashTTLDays      int
	DefaultQuotaBytes int64
}

// Load reads the environment (plus .env when present) into a Config.
// Missing required values are fatal: the process cannot do anything useful
// without a database or a storage driver.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	cfg := &Config{
		Port:              envOr("PORT", "8080"),
		DBURL:             os.Getenv("DB_URL"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		StorageDriver:     envOr("STORAGE_DRIVER", DriverLocal),
		AWSRegion:         os.Getenv("AWS_REGION"),
		AWSBucket:         os.Getenv("AWS_BUCKET_NAME"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3AccessKey:       os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:       os.Getenv("S3_SECRET_KEY"),
		LocalStoragePath:  envOr("LOCAL_STORAGE_PATH", "uploads"),
		TrashTTLDays:      envInt("TRASH_TTL_DAYS", 30),
		DefaultQuotaBytes: envInt64("DEFAULT_QUOTA_BYTES", 10<<30),
	}

	if cfg.DBURL == "" {
		log.Fatal("DB_URL is not set in environment variables")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set in environment variables")
	}
	if cfg.StorageDriver == DriverS3 && cfg.AWSBucket == "" {
		log.Fatal("AWS_BUCKET_NAME is required when STORAGE_DRIVER=s3")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("%s must be an integer, got %q", key, v)
	}
	return n
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Fatalf("%s must be an integer, got %q", key, v)
	}
	return n
}
