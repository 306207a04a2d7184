package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "configs/sources.yaml", cfg.SourcesPath)
	assert.Equal(t, 4, cfg.FetchConcurrency)
	assert.Equal(t, 320, cfg.ExcerptMaxChars)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 12, cfg.DigestTotal)
	assert.InDelta(t, 0.35, cfg.BucketRatios["research"], 1e-9)
	assert.InDelta(t, 0.40, cfg.BucketRatios["industry"], 1e-9)
	assert.InDelta(t, 0.25, cfg.BucketRatios["fun"], 1e-9)
	assert.Equal(t, "gemini-1.5-flash", cfg.GeminiModel)
	assert.Equal(t, "out", cfg.OutDir)
	assert.Equal(t, "https://huggingface.co", cfg.DatasetBaseURL)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, "UTC", cfg.Timezone)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SOURCES_PATH", "/etc/digest/sources.yaml")
	t.Setenv("DIGEST_TOTAL", "20")
	t.Setenv("FETCH_CONCURRENCY", "8")
	t.Setenv("GOOGLE_API_KEY", "test-key")
	t.Setenv("MAX_GEMINI_REQUESTS", "25")
	t.Setenv("DEBUG", "true")

	cfg := Load()
	assert.Equal(t, "/etc/digest/sources.yaml", cfg.SourcesPath)
	assert.Equal(t, 20, cfg.DigestTotal)
	assert.Equal(t, 8, cfg.FetchConcurrency)
	assert.Equal(t, "test-key", cfg.GeminiAPIKey)
	assert.Equal(t, 25, cfg.MaxGeminiRequests)
	assert.True(t, cfg.Debug)
}

func TestLoadIgnoresUnparsableInt(t *testing.T) {
	t.Setenv("DIGEST_TOTAL", "a dozen")
	assert.Equal(t, 12, Load().DigestTotal)
}

func TestValidate(t *testing.T) {
	cfg := Load()
	require.NoError(t, cfg.Validate())

	cfg.DigestTotal = 0
	assert.ErrorContains(t, cfg.Validate(), "DIGEST_TOTAL")

	cfg = Load()
	cfg.SourcesPath = ""
	assert.ErrorContains(t, cfg.Validate(), "SOURCES_PATH")

	cfg = Load()
	cfg.DatasetRepoID = "me/digest"
	cfg.DatasetToken = ""
	assert.ErrorContains(t, cfg.Validate(), "DATASET_TOKEN")
}
