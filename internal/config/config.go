package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port string

	// Auth
	FormfillAPIKey string

	// Upload limits
	MaxUploadBytes int64

	// Batch limits
	MaxAnswers    int
	MaxLocations  int
	MaxSnippetLen int

	// File access root for file_path inputs. Empty allows any path.
	WorkDir string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		FormfillAPIKey: os.Getenv("FORMFILL_API_KEY"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		MaxAnswers:    envInt("MAX_ANSWERS", 200),
		MaxLocations:  envInt("MAX_LOCATIONS", 200),
		MaxSnippetLen: envInt("MAX_SNIPPET_BYTES", 65536),

		WorkDir: os.Getenv("FORMFILL_WORK_DIR"),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MaxAnswers <= 0 {
		cfg.MaxAnswers = 200
	}
	if cfg.MaxLocations <= 0 {
		cfg.MaxLocations = 200
	}
	if cfg.MaxSnippetLen <= 0 {
		cfg.MaxSnippetLen = 65536
	}

	return cfg
}

func (c Config) Validate() error {
	if c.FormfillAPIKey == "" {
		return fmt.Errorf("FORMFILL_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
