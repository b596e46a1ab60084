package census

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"census/cache"
)

func gatherFamily(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	var total float64
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestClientMetrics(t *testing.T) {
	srv, _ := newCatalogServer(t)
	reg := prometheus.NewRegistry()
	c := New(
		WithKey("test"),
		WithBaseURL(srv.URL),
		WithCatalogCache(cache.NewMemory()),
		WithMetrics(reg),
	)

	for range 2 {
		if _, err := c.Variables(context.Background(), 2017, ACS5, CatalogConfig{UseCache: true}); err != nil {
			t.Fatalf("Variables() error = %v", err)
		}
	}

	if got := gatherFamily(t, reg, "census_requests_total"); got != 1 {
		t.Errorf("census_requests_total = %v, want 1 (second call served from cache)", got)
	}
	// One miss on the first call, one hit on the second.
	if got := gatherFamily(t, reg, "census_catalog_cache_total"); got != 2 {
		t.Errorf("census_catalog_cache_total = %v, want 2", got)
	}
}

func TestNilMetricsRecorderIsSafe(t *testing.T) {
	srv, _ := newCatalogServer(t)
	c := New(WithKey("test"), WithBaseURL(srv.URL))

	// No WithMetrics option: the nil recorder must be a no-op, not a panic.
	if _, err := c.Variables(context.Background(), 2017, ACS5); err != nil {
		t.Fatalf("Variables() error = %v", err)
	}
}
