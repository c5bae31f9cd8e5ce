// Package config reads runtime configuration from environment variables.
package config

import (
	"os"
	"strconv"

	"github.com/workshoplabs/inspekt/internal/storage"
)

// Config holds everything the server and CLI commands need at startup.
type Config struct {
	Address string

	GeminiAPIKey string
	GeminiModel  string

	// CORS relay prefixes for the inline image fetch chain. Empty values
	// fall back to the package defaults.
	ProxyA string
	ProxyB string

	// Scan output tuning.
	OutputWidth int
	JPEGQuality int

	Storage storage.Config
}

const (
	defaultAddress     = ":8080"
	defaultGeminiModel = "gemini-2.0-flash"
	defaultOutputWidth = 1200
	defaultQuality     = 85
)

// Load reads configuration from the environment, falling back to defaults.
// The Gemini key is intentionally allowed to be empty: recognition commands
// check for it themselves so scan-only deployments need no key.
func Load() (*Config, error) {
	cfg := &Config{
		Address:      readEnv("INSPEKT_ADDRESS", defaultAddress),
		GeminiAPIKey: readEnv("GEMINI_API_KEY", ""),
		GeminiModel:  readEnv("INSPEKT_GEMINI_MODEL", defaultGeminiModel),
		ProxyA:       readEnv("INSPEKT_PROXY_A", ""),
		ProxyB:       readEnv("INSPEKT_PROXY_B", ""),
		OutputWidth:  parseInt("INSPEKT_OUTPUT_WIDTH", defaultOutputWidth),
		JPEGQuality:  parseInt("INSPEKT_JPEG_QUALITY", defaultQuality),
		Storage: storage.Config{
			Endpoint:      readEnv("INSPEKT_S3_ENDPOINT", ""),
			AccessKey:     readEnv("INSPEKT_S3_ACCESS_KEY", ""),
			SecretKey:     readEnv("INSPEKT_S3_SECRET_KEY", ""),
			Bucket:        readEnv("INSPEKT_S3_BUCKET", "inspekt-attachments"),
			Region:        readEnv("INSPEKT_S3_REGION", "us-east-1"),
			UseSSL:        parseBool("INSPEKT_S3_USE_SSL", true),
			PublicBaseURL: readEnv("INSPEKT_S3_PUBLIC_URL", ""),
		},
	}
	if cfg.OutputWidth <= 0 {
		cfg.OutputWidth = defaultOutputWidth
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = defaultQuality
	}
	return cfg, nil
}

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func parseInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}
