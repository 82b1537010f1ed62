package recommend

import (
	"context"
	"log/slog"
	"sort"

	"github.com/loopcrew/loopfeed/internal/store"
)

// CollaborativeScorer scores content by behavioral similarity: items engaged
// with by users who engaged with the same items as the viewer. The catalog is
// only consulted to keep candidates on the requested surface, since the
// interaction stream does not carry content kinds.
type CollaborativeScorer struct {
	interactions store.InteractionStore
	catalog      store.ContentCatalog
	limits       Limits
	logger       *slog.Logger
	metrics      *Metrics
}

// NewCollaborativeScorer creates a new collaborative filtering scorer.
func NewCollaborativeScorer(interactions store.InteractionStore, catalog store.ContentCatalog, limits Limits, logger *slog.Logger, metrics *Metrics) *CollaborativeScorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &CollaborativeScorer{
		interactions: interactions,
		catalog:      catalog,
		limits:       limits,
		logger:       logger,
		metrics:      metrics,
	}
}

// Score produces collaborative candidates of the given kind for the viewer.
// A store error or missing viewer history yields an empty result; errors are
// logged with the strategy name and never propagated.
//
// Each qualifying interaction counts as one occurrence regardless of type;
// the per-type weight table is deliberately not applied here (see
// Weights.InteractionTypeWeights).
func (s *CollaborativeScorer) Score(ctx context.Context, viewerID string, kind store.ContentKind) []ScoredCandidate {
	liked, err := s.interactions.GetInteractions(ctx, viewerID, store.InteractionLike, s.limits.RecentLikes)
	if err != nil {
		s.logger.Warn("scorer degraded to empty result",
			"strategy", ReasonCollaborative,
			"error", err)
		s.metrics.IncScorerFailures(string(ReasonCollaborative))
		return nil
	}
	if len(liked) == 0 {
		// Cold start: caller falls back to popularity
		s.metrics.IncScorerColdStarts(string(ReasonCollaborative))
		return nil
	}

	similar, err := s.interactions.GetInteractorsOf(ctx, liked, viewerID, s.limits.SimilarUsers)
	if err != nil {
		s.logger.Warn("scorer degraded to empty result",
			"strategy", ReasonCollaborative,
			"error", err)
		s.metrics.IncScorerFailures(string(ReasonCollaborative))
		return nil
	}
	if len(similar) == 0 {
		return nil
	}

	candidateIDs, err := s.interactions.GetInteractionsByUsers(ctx, similar, liked, s.limits.CandidateWindow)
	if err != nil {
		s.logger.Warn("scorer degraded to empty result",
			"strategy", ReasonCollaborative,
			"error", err)
		s.metrics.IncScorerFailures(string(ReasonCollaborative))
		return nil
	}

	// Tally occurrence counts per candidate, normalized by the number of
	// similar users, giving scores in roughly [0, 1].
	tally := make(map[string]int)
	for _, id := range candidateIDs {
		tally[id]++
	}
	if len(tally) == 0 {
		return nil
	}

	// Keep only candidates on the requested surface.
	tallied := make([]string, 0, len(tally))
	for id := range tally {
		tallied = append(tallied, id)
	}
	items, err := s.catalog.GetByIDs(ctx, tallied)
	if err != nil {
		s.logger.Warn("scorer degraded to empty result",
			"strategy", ReasonCollaborative,
			"error", err)
		s.metrics.IncScorerFailures(string(ReasonCollaborative))
		return nil
	}

	candidates := make([]ScoredCandidate, 0, len(items))
	for _, item := range items {
		if item.Kind != kind {
			continue
		}
		candidates = append(candidates, ScoredCandidate{
			ContentID: item.ID,
			Score:     float64(tally[item.ID]) / float64(len(similar)),
			Reason:    ReasonCollaborative,
		})
	}
	sortCandidates(candidates)

	s.metrics.AddScorerCandidates(string(ReasonCollaborative), len(candidates))
	return candidates
}

// sortCandidates orders candidates by score descending, content ID ascending
// as tie-breaker. Scorers return deterministic order so that, with the
// exploration bias pinned, identical inputs produce identical rankings.
func sortCandidates(candidates []ScoredCandidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score > candidates[j].Score {
			return true
		}
		if candidates[i].Score < candidates[j].Score {
			return false
		}
		return candidates[i].ContentID < candidates[j].ContentID
	})
}
