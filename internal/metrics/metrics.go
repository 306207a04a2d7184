package metrics

import (
	"sync"
	"time"
)

// Metrics tracks per-process pipeline counters, exposed over the optional
// monitoring endpoints.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	SourcesFetched       int64
	SourcesFailed        int64
	ItemsCollected       int64
	ItemsSelected        int64
	EnrichmentFallbacks  int64
	ArtifactsPublished   int64

	// Timings
	LastRunDuration time.Duration

	// Status
	LastRunTime time.Time
	LastError   string
	IsHealthy   bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) IncrementSourcesFetched() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourcesFetched++
}

func (m *Metrics) IncrementSourcesFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourcesFailed++
}

func (m *Metrics) AddItemsCollected(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsCollected += int64(n)
}

func (m *Metrics) SetItemsSelected(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsSelected = int64(n)
}

func (m *Metrics) IncrementEnrichmentFallbacks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EnrichmentFallbacks++
}

func (m *Metrics) AddArtifactsPublished(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArtifactsPublished += int64(n)
}

func (m *Metrics) RecordRunDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunDuration = d
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"sources_fetched":      m.SourcesFetched,
		"sources_failed":       m.SourcesFailed,
		"items_collected":      m.ItemsCollected,
		"items_selected":       m.ItemsSelected,
		"enrichment_fallbacks": m.EnrichmentFallbacks,
		"artifacts_published":  m.ArtifactsPublished,
		"last_run_duration_ms": m.LastRunDuration.Milliseconds(),
		"last_run_time":        m.LastRunTime.Format(time.RFC3339),
		"last_error":           m.LastError,
		"is_healthy":           m.IsHealthy,
	}
}
