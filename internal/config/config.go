// Package config loads the gateway settings once at startup from the
// environment and an optional .env file.
package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Lllllllleong/docsocr/internal/gcp"
	"github.com/Lllllllleong/docsocr/internal/ocr"
	"github.com/joho/godotenv"
)

// Supported OCR providers.
const (
	ProviderTyphoon = "typhoon"
	ProviderVertex  = "vertex"
)

const (
	defaultMaxUploadBytes = 100 << 20
	maxPageConcurrency    = 32
	defaultVertexOCRModel = "gemini-1.5-pro"
	defaultVertexAIRegion = "us-central1"
	defaultPort           = "8080"
)

// Config holds the gateway configuration.
type Config struct {
	Port string
	// Mode is the gin mode. Anything but "debug" runs in release mode.
	Mode string

	Provider string
	// APIKey is the server side Typhoon credential.
	APIKey string
	// BaseURL is the default OCR endpoint when a request names none.
	BaseURL     string
	CORSOrigins []string

	RequestTimeout  time.Duration
	PageConcurrency int
	MaxUploadBytes  int64
	UploadDir       string

	GCSSourceEnabled bool
	ProjectID        string
	VertexAIRegion   string
	VertexOCRModel   string
}

// envFiles are read in order. Variables already set, by the process or an
// earlier file, are never overridden.
var envFiles = []string{".env", filepath.Join("..", ".env")}

// Load reads the optional .env files, then the process environment, and
// validates the result.
func Load() (*Config, error) {
	loadEnvFiles(envFiles...)
	return FromEnv()
}

// loadEnvFiles loads each file on its own; godotenv.Load stops at the
// first missing file. A missing .env is normal in deployed environments.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		_ = godotenv.Load(path)
	}
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	timeout, err := parseTimeout(gcp.GetEnv("OCR_REQUEST_TIMEOUT", "0"))
	if err != nil {
		return nil, err
	}
	concurrency, err := strconv.Atoi(strings.TrimSpace(gcp.GetEnv("PAGE_CONCURRENCY", "1")))
	if err != nil {
		return nil, fmt.Errorf("PAGE_CONCURRENCY must be an integer: %w", err)
	}
	maxUpload, err := strconv.ParseInt(strings.TrimSpace(gcp.GetEnv("MAX_UPLOAD_BYTES", strconv.Itoa(defaultMaxUploadBytes))), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be an integer: %w", err)
	}
	gcsEnabled, err := strconv.ParseBool(gcp.GetEnv("GCS_SOURCE_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("GCS_SOURCE_ENABLED must be a boolean: %w", err)
	}

	cfg := &Config{
		Port:             gcp.GetEnv("PORT", defaultPort),
		Mode:             gcp.GetEnv("MODE", ""),
		Provider:         strings.ToLower(gcp.GetEnv("OCR_PROVIDER", ProviderTyphoon)),
		APIKey:           gcp.GetEnv("OPENTYPHOON_API_KEY", ""),
		BaseURL:          gcp.GetEnv("OCR_BASE_URL", ocr.DefaultBaseURL),
		CORSOrigins:      splitOrigins(gcp.GetEnv("CORS_ORIGINS", "")),
		RequestTimeout:   timeout,
		PageConcurrency:  concurrency,
		MaxUploadBytes:   maxUpload,
		UploadDir:        gcp.GetEnv("UPLOAD_TEMP_DIR", ""),
		GCSSourceEnabled: gcsEnabled,
		ProjectID:        gcp.GetEnv("PROJECT_ID", ""),
		VertexAIRegion:   gcp.GetEnv("VERTEX_AI_REGION", defaultVertexAIRegion),
		VertexOCRModel:   gcp.GetEnv("VERTEX_OCR_MODEL", defaultVertexOCRModel),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = ocr.DefaultBaseURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks if configuration is valid.
func (c *Config) Validate() error {
	if c.Provider != ProviderTyphoon && c.Provider != ProviderVertex {
		return fmt.Errorf("OCR_PROVIDER must be %q or %q, got %q", ProviderTyphoon, ProviderVertex, c.Provider)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("OCR_REQUEST_TIMEOUT must not be negative, got %s", c.RequestTimeout)
	}
	if c.PageConcurrency < 1 || c.PageConcurrency > maxPageConcurrency {
		return fmt.Errorf("PAGE_CONCURRENCY must be between 1 and %d, got %d", maxPageConcurrency, c.PageConcurrency)
	}
	for _, origin := range c.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("CORS_ORIGINS entries must be \"*\" or start with http:// or https://, got %q", origin)
		}
	}
	if c.MaxUploadBytes < 1 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}

// parseTimeout accepts a Go duration ("90s") or a bare number of seconds.
func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("OCR_REQUEST_TIMEOUT must be a duration or a number of seconds, got %q", raw)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
