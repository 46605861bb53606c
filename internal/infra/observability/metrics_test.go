package observability_test

import (
	"testing"

	"github.com/boddenberg/ledger-client-go/internal/infra/observability"
)

func TestSnapshot(t *testing.T) {
	m := observability.NewMetrics()

	m.IncrAPIError("network")
	m.IncrAPIError("network")
	m.IncrAPIError("http")
	m.IncrStaleLoad()
	m.IncrCacheHit("board")
	m.IncrCacheMiss("board")
	m.IncrCacheHit("board")

	s := m.Snapshot()
	if s.NetworkErrors != 2 {
		t.Errorf("expected 2 network errors, got %v", s.NetworkErrors)
	}
	if s.HTTPErrors != 1 {
		t.Errorf("expected 1 http error, got %v", s.HTTPErrors)
	}
	if s.StaleLoads != 1 {
		t.Errorf("expected 1 stale load, got %v", s.StaleLoads)
	}
	if s.CacheHitRate < 0.66 || s.CacheHitRate > 0.67 {
		t.Errorf("expected hit rate 2/3, got %v", s.CacheHitRate)
	}
}

func TestNewMetrics_Independent(t *testing.T) {
	// separate registries must not panic on duplicate registration
	a := observability.NewMetrics()
	b := observability.NewMetrics()
	a.IncrAPIError("http")

	if b.Snapshot().HTTPErrors != 0 {
		t.Error("expected metrics instances to be independent")
	}
}

func TestNewLogger_Levels(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error", "bogus"} {
		if observability.NewLogger(lvl) == nil {
			t.Errorf("expected logger for level %q", lvl)
		}
	}
}
