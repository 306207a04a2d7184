// Package config loads runtime configuration from environment variables,
// with defaults that make a local no-credentials run work out of the box.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ruwya/daily-digest/internal/digest"
)

type Config struct {
	// Ingestion
	SourcesPath      string
	FetchConcurrency int
	ExcerptMaxChars  int
	RequestTimeout   time.Duration

	// Selection
	DigestTotal  int
	BucketRatios map[string]float64

	// Enrichment
	GeminiAPIKey      string
	GeminiModel       string
	MaxGeminiRequests int
	ScrapeMaxArticles int

	// Publication
	OutDir         string
	DatasetRepoID  string
	DatasetBaseURL string
	DatasetToken   string
	RetryAttempts  int
	RetryDelay     time.Duration

	// Archive
	ArchiveDatabaseURL string

	Debug    bool
	Timezone string
}

func Load() *Config {
	return &Config{
		SourcesPath:      getEnvOrDefault("SOURCES_PATH", "configs/sources.yaml"),
		FetchConcurrency: getEnvIntOrDefault("FETCH_CONCURRENCY", 4),
		ExcerptMaxChars:  getEnvIntOrDefault("EXCERPT_MAX_CHARS", 320),
		RequestTimeout:   time.Duration(getEnvIntOrDefault("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,

		DigestTotal:  getEnvIntOrDefault("DIGEST_TOTAL", digest.DefaultTotal),
		BucketRatios: digest.DefaultRatios(),

		GeminiAPIKey:      os.Getenv("GOOGLE_API_KEY"),
		GeminiModel:       getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		MaxGeminiRequests: getEnvIntOrDefault("MAX_GEMINI_REQUESTS", 0),
		ScrapeMaxArticles: getEnvIntOrDefault("SCRAPE_MAX_ARTICLES", 0),

		OutDir:         getEnvOrDefault("OUT_DIR", "out"),
		DatasetRepoID:  os.Getenv("DATASET_REPO_ID"),
		DatasetBaseURL: getEnvOrDefault("DATASET_BASE_URL", "https://huggingface.co"),
		DatasetToken:   os.Getenv("DATASET_TOKEN"),
		RetryAttempts:  getEnvIntOrDefault("RETRY_ATTEMPTS", 3),
		RetryDelay:     time.Duration(getEnvIntOrDefault("RETRY_DELAY_SECONDS", 5)) * time.Second,

		ArchiveDatabaseURL: os.Getenv("ARCHIVE_DATABASE_URL"),

		Debug:    os.Getenv("DEBUG") == "true",
		Timezone: getEnvOrDefault("TIMEZONE", "UTC"),
	}
}

func (c *Config) Validate() error {
	if c.SourcesPath == "" {
		return fmt.Errorf("SOURCES_PATH is required")
	}
	if c.DigestTotal < 1 {
		return fmt.Errorf("DIGEST_TOTAL must be at least 1")
	}
	if c.DatasetRepoID != "" && c.DatasetToken == "" {
		return fmt.Errorf("DATASET_TOKEN is required when DATASET_REPO_ID is set")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
