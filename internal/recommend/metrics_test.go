package recommend

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// gatherMetric collects the named metric family from the registry, or nil if
// it has no samples yet.
func gatherMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestMetrics_Register(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()

	if err := m.Register(reg); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}

	// Registering the same collectors twice must fail
	if err := m.Register(reg); err == nil {
		t.Error("expected error on duplicate registration")
	}
}

func TestMetrics_ScorerCounters(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}

	m.AddScorerCandidates("collaborative", 5)
	m.AddScorerCandidates("collaborative", 3)
	m.IncScorerFailures("popularity")
	m.IncScorerColdStarts("content_based")

	mf := gatherMetric(t, reg, MetricScorerCandidates)
	if mf == nil {
		t.Fatal("expected scorer candidates metric family")
	}
	if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 8 {
		t.Errorf("expected 8 candidates recorded, got %g", got)
	}

	mf = gatherMetric(t, reg, MetricScorerFailures)
	if mf == nil {
		t.Fatal("expected scorer failures metric family")
	}
	if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Errorf("expected 1 failure recorded, got %g", got)
	}

	mf = gatherMetric(t, reg, MetricScorerColdStarts)
	if mf == nil {
		t.Fatal("expected cold start metric family")
	}
	labels := mf.GetMetric()[0].GetLabel()
	if len(labels) != 1 || labels[0].GetValue() != "content_based" {
		t.Errorf("expected content_based strategy label, got %v", labels)
	}
}

func TestMetrics_ObserveRanking(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}

	m.ObserveRanking("posts", 0.05, 20)
	m.ObserveRanking("posts", 0.02, 0)

	mf := gatherMetric(t, reg, MetricRankingDuration)
	if mf == nil {
		t.Fatal("expected ranking duration metric family")
	}
	if got := mf.GetMetric()[0].GetHistogram().GetSampleCount(); got != 2 {
		t.Errorf("expected 2 duration samples, got %d", got)
	}

	// Only the zero-result call increments the empty counter
	mf = gatherMetric(t, reg, MetricRankingEmptyTotal)
	if mf == nil {
		t.Fatal("expected ranking empty metric family")
	}
	if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Errorf("expected 1 empty ranking recorded, got %g", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	// Nil metrics are a no-op so scorers can run without a registry
	m.AddScorerCandidates("collaborative", 3)
	m.IncScorerFailures("graph")
	m.IncScorerColdStarts("collaborative")
	m.ObserveRanking("posts", 0.01, 5)
}
