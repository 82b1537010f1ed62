package recommend

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricScorerCandidates   = "recommend_scorer_candidates_total"
	MetricScorerFailures     = "recommend_scorer_failures_total"
	MetricScorerColdStarts   = "recommend_scorer_cold_starts_total"
	MetricRankingDuration    = "recommend_ranking_duration_seconds"
	MetricRankingEmptyTotal  = "recommend_ranking_empty_total"
	MetricRankingResultCount = "recommend_ranking_result_count"
)

// Metrics contains Prometheus metrics for the recommendation engine.
// All operations are thread-safe and nil-safe: a nil *Metrics is a no-op,
// so scorers can run without a registry in tests.
type Metrics struct {
	scorerCandidates *prometheus.CounterVec
	scorerFailures   *prometheus.CounterVec
	scorerColdStarts *prometheus.CounterVec
	rankingDuration  *prometheus.HistogramVec
	rankingEmpty     *prometheus.CounterVec
	rankingResults   *prometheus.HistogramVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		scorerCandidates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricScorerCandidates,
				Help: "Total number of candidates produced, by scoring strategy",
			},
			[]string{"strategy"},
		),
		scorerFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricScorerFailures,
				Help: "Total number of store errors swallowed at the scorer boundary, by strategy",
			},
			[]string{"strategy"},
		),
		scorerColdStarts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricScorerColdStarts,
				Help: "Total number of empty results due to missing viewer history, by strategy",
			},
			[]string{"strategy"},
		),
		rankingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricRankingDuration,
				Help:    "Ranking call duration in seconds, by surface",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
			},
			[]string{"surface"},
		),
		rankingEmpty: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRankingEmptyTotal,
				Help: "Total number of ranking calls that returned no recommendations, by surface",
			},
			[]string{"surface"},
		),
		rankingResults: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricRankingResultCount,
				Help:    "Number of recommendations returned per call, by surface",
				Buckets: []float64{0, 1, 5, 10, 20, 50},
			},
			[]string{"surface"},
		),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.scorerCandidates,
		m.scorerFailures,
		m.scorerColdStarts,
		m.rankingDuration,
		m.rankingEmpty,
		m.rankingResults,
	}
}

// AddScorerCandidates records the number of candidates a strategy produced.
func (m *Metrics) AddScorerCandidates(strategy string, n int) {
	if m == nil {
		return
	}
	m.scorerCandidates.WithLabelValues(strategy).Add(float64(n))
}

// IncScorerFailures records a store error swallowed at the scorer boundary.
func (m *Metrics) IncScorerFailures(strategy string) {
	if m == nil {
		return
	}
	m.scorerFailures.WithLabelValues(strategy).Inc()
}

// IncScorerColdStarts records an empty scorer result caused by missing
// viewer history rather than an error.
func (m *Metrics) IncScorerColdStarts(strategy string) {
	if m == nil {
		return
	}
	m.scorerColdStarts.WithLabelValues(strategy).Inc()
}

// ObserveRanking records the duration and result size of one ranking call.
func (m *Metrics) ObserveRanking(surface string, seconds float64, results int) {
	if m == nil {
		return
	}
	m.rankingDuration.WithLabelValues(surface).Observe(seconds)
	m.rankingResults.WithLabelValues(surface).Observe(float64(results))
	if results == 0 {
		m.rankingEmpty.WithLabelValues(surface).Inc()
	}
}
