package utils

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is built once in main from the environment and handed to the
// components that need it. No package keeps config state of its own.
type Config struct {
	DatabaseURL    string
	ListenAddr     string
	AllowedOrigins []string

	UploadsRoot    string
	StorageBackend string // "local" or "s3"

	// S3/R2 credentials, used only when StorageBackend == "s3".
	S3AccountID    string
	S3AccessKeyID  string
	S3AccessSecret string
	S3Bucket       string
	CDNBaseURL     string

	PythonBin      string
	SandboxTimeout time.Duration
}

// LoadConfig reads the environment. Only DATABASE_URL is mandatory;
// everything else has a workable default.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ListenAddr:     envOr("LISTEN_ADDR", ":5300"),
		UploadsRoot:    envOr("UPLOADS_ROOT", "uploads"),
		StorageBackend: envOr("STORAGE_BACKEND", "local"),
		S3AccountID:    os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		S3AccessKeyID:  os.Getenv("R2_ACCESS_KEY_ID"),
		S3AccessSecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
		S3Bucket:       os.Getenv("R2_BUCKET_NAME"),
		CDNBaseURL:     os.Getenv("CDN_BASE_URL"),
		PythonBin:      envOr("PYTHON_BIN", "python3"),
		SandboxTimeout: 5 * time.Second,
	}

	originsEnv := os.Getenv("ALLOWED_ORIGINS")
	if originsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		originsEnv = "http://localhost:3000"
	}
	for _, origin := range strings.Split(originsEnv, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	if raw := os.Getenv("SANDBOX_TIMEOUT_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			log.Printf("⚠️  Invalid SANDBOX_TIMEOUT_SECONDS %q, keeping %s", raw, cfg.SandboxTimeout)
		} else {
			cfg.SandboxTimeout = time.Duration(seconds) * time.Second
		}
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
