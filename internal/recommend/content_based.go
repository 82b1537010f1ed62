package recommend

import (
	"context"
	"log/slog"
	"strings"

	"github.com/loopcrew/loopfeed/internal/store"
)

// minProfileWordLength filters out short stop-word-like tokens when building
// the viewer profile.
const minProfileWordLength = 4

// ContentBasedScorer scores content by textual affinity: bag-of-words
// overlap between a candidate's text and the words of the viewer's
// recently-liked content. Intentionally simple (no TF-IDF, no embeddings)
// for cheapness and explainability.
type ContentBasedScorer struct {
	interactions store.InteractionStore
	catalog      store.ContentCatalog
	limits       Limits
	logger       *slog.Logger
	metrics      *Metrics
}

// NewContentBasedScorer creates a new content-based scorer.
func NewContentBasedScorer(interactions store.InteractionStore, catalog store.ContentCatalog, limits Limits, logger *slog.Logger, metrics *Metrics) *ContentBasedScorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentBasedScorer{
		interactions: interactions,
		catalog:      catalog,
		limits:       limits,
		logger:       logger,
		metrics:      metrics,
	}
}

// Score produces content-based candidates of the given kind for the viewer.
// A store error or an empty viewer profile yields an empty result; errors
// are logged with the strategy name and never propagated.
func (s *ContentBasedScorer) Score(ctx context.Context, viewerID string, kind store.ContentKind) []ScoredCandidate {
	liked, err := s.interactions.GetInteractions(ctx, viewerID, store.InteractionLike, s.limits.RecentLikes)
	if err != nil {
		s.logger.Warn("scorer degraded to empty result",
			"strategy", ReasonContentBased,
			"error", err)
		s.metrics.IncScorerFailures(string(ReasonContentBased))
		return nil
	}
	if len(liked) == 0 {
		s.metrics.IncScorerColdStarts(string(ReasonContentBased))
		return nil
	}

	likedItems, err := s.catalog.GetByIDs(ctx, liked)
	if err != nil {
		s.logger.Warn("scorer degraded to empty result",
			"strategy", ReasonContentBased,
			"error", err)
		s.metrics.IncScorerFailures(string(ReasonContentBased))
		return nil
	}

	profile := buildProfile(likedItems)
	if len(profile) == 0 {
		s.metrics.IncScorerColdStarts(string(ReasonContentBased))
		return nil
	}

	recent, err := s.catalog.GetRecent(ctx, kind, s.limits.CandidateWindow)
	if err != nil {
		s.logger.Warn("scorer degraded to empty result",
			"strategy", ReasonContentBased,
			"error", err)
		s.metrics.IncScorerFailures(string(ReasonContentBased))
		return nil
	}

	likedSet := make(map[string]bool, len(liked))
	for _, id := range liked {
		likedSet[id] = true
	}

	var candidates []ScoredCandidate
	for _, item := range recent {
		if likedSet[item.ID] {
			continue
		}

		overlap := countOverlap(item, profile)
		if overlap == 0 {
			// Only strictly positive matches are kept
			continue
		}

		candidates = append(candidates, ScoredCandidate{
			ContentID: item.ID,
			Score:     float64(overlap) / float64(len(profile)),
			Reason:    ReasonContentBased,
		})
	}
	sortCandidates(candidates)

	s.metrics.AddScorerCandidates(string(ReasonContentBased), len(candidates))
	return candidates
}

// buildProfile extracts the deduplicated set of qualifying lowercase words
// from the text and tags of the given items.
func buildProfile(items []store.ContentItem) map[string]bool {
	profile := make(map[string]bool)
	for _, item := range items {
		for _, word := range profileWords(item) {
			profile[word] = true
		}
	}
	return profile
}

// profileWords tokenizes one item into qualifying lowercase words.
func profileWords(item store.ContentItem) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(item.Text)) {
		if len(w) >= minProfileWordLength {
			words = append(words, w)
		}
	}
	for _, tag := range item.Tags {
		tag = strings.ToLower(tag)
		if len(tag) >= minProfileWordLength {
			words = append(words, tag)
		}
	}
	return words
}

// countOverlap counts distinct profile words that appear among the item's words.
func countOverlap(item store.ContentItem, profile map[string]bool) int {
	seen := make(map[string]bool)
	for _, w := range profileWords(item) {
		if profile[w] && !seen[w] {
			seen[w] = true
		}
	}
	return len(seen)
}
