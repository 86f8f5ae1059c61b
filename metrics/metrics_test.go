package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordRequest(t *testing.T) {
	tests := []struct {
		name       string
		tool       string
		duration   float64
		success    bool
		wantStatus string
	}{
		{
			name:       "successful request",
			tool:       "test_tool",
			duration:   0.5,
			success:    true,
			wantStatus: "success",
		},
		{
			name:       "failed request",
			tool:       "test_tool",
			duration:   1.0,
			success:    false,
			wantStatus: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordRequest(tt.tool, tt.duration, tt.success)

			counter, err := RequestsTotal.GetMetricWithLabelValues(tt.tool, tt.wantStatus)
			if err != nil {
				t.Fatalf("failed to get metric: %v", err)
			}
			if getCounterValue(t, counter) < 1 {
				t.Error("expected counter to be incremented")
			}
		})
	}
}

func TestRecordEditionLoad(t *testing.T) {
	tests := []struct {
		name       string
		edition    string
		success    bool
		wantStatus string
	}{
		{"successful load", "edition-1", true, "success"},
		{"failed load", "programmers", false, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter, err := EditionLoads.GetMetricWithLabelValues(tt.edition, tt.wantStatus)
			if err != nil {
				t.Fatalf("failed to get metric: %v", err)
			}
			before := getCounterValue(t, counter)

			RecordEditionLoad(tt.edition, tt.success)

			if got := getCounterValue(t, counter); got != before+1 {
				t.Errorf("expected counter %v, got %v", before+1, got)
			}
		})
	}
}

func TestRecordCacheAccess(t *testing.T) {
	initialHits := getCounterValue(t, CacheHits)
	initialMisses := getCounterValue(t, CacheMisses)

	RecordCacheAccess(true)
	if getCounterValue(t, CacheHits) != initialHits+1 {
		t.Error("expected cache hits to increment")
	}

	RecordCacheAccess(false)
	if getCounterValue(t, CacheMisses) != initialMisses+1 {
		t.Error("expected cache misses to increment")
	}
}

func TestRecordSkippedEdition(t *testing.T) {
	counter, err := EditionsSkipped.GetMetricWithLabelValues("search", "do-it")
	if err != nil {
		t.Fatalf("failed to get metric: %v", err)
	}
	before := getCounterValue(t, counter)

	RecordSkippedEdition("search", "do-it")
	RecordSkippedEdition("search", "do-it")

	if got := getCounterValue(t, counter); got != before+2 {
		t.Errorf("expected %v skips, got %v", before+2, got)
	}
}

func TestMetricsRegistered(t *testing.T) {
	metrics := []prometheus.Collector{
		RequestsTotal,
		RequestDuration,
		RequestInFlight,
		CacheHits,
		CacheMisses,
		CacheEntries,
		EditionLoads,
		EditionsSkipped,
		SearchMatches,
		RateLimitRejections,
		PanicsRecovered,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	}

	for i, m := range metrics {
		if m == nil {
			t.Errorf("metric at index %d is nil", i)
		}
	}
}

func TestNamespace(t *testing.T) {
	if Namespace != "oblique_strategies_mcp" {
		t.Errorf("expected namespace 'oblique_strategies_mcp', got '%s'", Namespace)
	}
}

// Helper to get counter value
func getCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return m.Counter.GetValue()
}
