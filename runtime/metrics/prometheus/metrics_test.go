package prometheus

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewStoreMetrics(reg)
	if err != nil {
		t.Fatalf("NewStoreMetrics() failed: %v", err)
	}

	m.RecordOperation("load", "prompt", StatusOK, 0.01)
	m.RecordOperation("load", "prompt", StatusOK, 0.02)
	m.RecordOperation("load", "prompt", "not_found", 0.001)

	total, duration, _ := m.Collectors()
	if got := testutil.ToFloat64(total.WithLabelValues("load", "prompt", StatusOK)); got != 2 {
		t.Errorf("Expected 2 ok loads, got %f", got)
	}
	if got := testutil.ToFloat64(total.WithLabelValues("load", "prompt", "not_found")); got != 1 {
		t.Errorf("Expected 1 not_found load, got %f", got)
	}
	if count := testutil.CollectAndCount(duration); count != 1 {
		t.Errorf("Expected 1 histogram series, got %d", count)
	}
}

func TestStart_TracksInFlight(t *testing.T) {
	m, err := NewStoreMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewStoreMetrics() failed: %v", err)
	}
	_, _, inFlight := m.Collectors()

	done := m.Start("save")
	if got := testutil.ToFloat64(inFlight.WithLabelValues("save")); got != 1 {
		t.Errorf("Expected 1 in-flight save, got %f", got)
	}
	done("prompt", StatusOK, 0.005)
	if got := testutil.ToFloat64(inFlight.WithLabelValues("save")); got != 0 {
		t.Errorf("Expected 0 in-flight saves, got %f", got)
	}
}

func TestNewStoreMetrics_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewStoreMetrics(reg)
	if err != nil {
		t.Fatalf("first NewStoreMetrics() failed: %v", err)
	}
	b, err := NewStoreMetrics(reg)
	if err != nil {
		t.Fatalf("second NewStoreMetrics() failed: %v", err)
	}

	a.RecordOperation("list", "partial", StatusOK, 0.001)
	b.RecordOperation("list", "partial", StatusOK, 0.001)

	expected := `
# HELP dotprompt_store_operations_total Total number of prompt store operations
# TYPE dotprompt_store_operations_total counter
dotprompt_store_operations_total{operation="list",resource="partial",status="ok"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "dotprompt_store_operations_total"); err != nil {
		t.Error(err)
	}
}
