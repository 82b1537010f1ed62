package recommend

import (
	"context"
	"log/slog"
	"time"

	"github.com/loopcrew/loopfeed/internal/store"
)

// PopularityScorer scores content by global engagement volume blended with a
// freshness decay curve. It takes no viewer input; it is the always-available
// fallback signal for cold-start viewers and anonymous callers.
type PopularityScorer struct {
	catalog store.ContentCatalog
	weights *Weights
	limits  Limits
	logger  *slog.Logger
	metrics *Metrics
}

// NewPopularityScorer creates a new popularity scorer.
func NewPopularityScorer(catalog store.ContentCatalog, weights *Weights, limits Limits, logger *slog.Logger, metrics *Metrics) *PopularityScorer {
	if weights == nil {
		weights = DefaultWeights()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PopularityScorer{
		catalog: catalog,
		weights: weights,
		limits:  limits,
		logger:  logger,
		metrics: metrics,
	}
}

// Score produces popularity candidates of the given kind. A store error
// yields an empty result; it is logged with the strategy name and never
// propagated. Since this scorer has no viewer, already-seen exclusion is
// applied centrally by the combiner.
func (s *PopularityScorer) Score(ctx context.Context, kind store.ContentKind) []ScoredCandidate {
	recent, err := s.catalog.GetRecent(ctx, kind, s.limits.PopularityWindow)
	if err != nil {
		s.logger.Warn("scorer degraded to empty result",
			"strategy", ReasonPopularity,
			"error", err)
		s.metrics.IncScorerFailures(string(ReasonPopularity))
		return nil
	}

	now := time.Now()
	candidates := make([]ScoredCandidate, 0, len(recent))
	for _, item := range recent {
		engagement := EngagementScore(item, s.weights.Popularity)
		freshness := FreshnessWeight(now.Sub(item.CreatedAt), s.weights.FreshnessBuckets, s.weights.FreshnessFloor)

		candidates = append(candidates, ScoredCandidate{
			ContentID: item.ID,
			Score:     PopularityScore(engagement, freshness, s.weights.Popularity),
			Reason:    ReasonPopularity,
		})
	}
	sortCandidates(candidates)

	s.metrics.AddScorerCandidates(string(ReasonPopularity), len(candidates))
	return candidates
}
