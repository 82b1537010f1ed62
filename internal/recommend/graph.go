package recommend

import (
	"context"
	"log/slog"

	"github.com/loopcrew/loopfeed/internal/store"
)

// likedAuthorBonus is the flat tally bonus for authors of content the viewer
// has liked, treated as a stronger signal than a single second-degree path.
const likedAuthorBonus = 2

// GraphScorer scores candidate users (not content) via second-degree follow
// connections and authors of liked content.
type GraphScorer struct {
	graph   store.SocialGraph
	catalog store.ContentCatalog
	limits  Limits
	logger  *slog.Logger
	metrics *Metrics
}

// NewGraphScorer creates a new follow-graph scorer.
func NewGraphScorer(graph store.SocialGraph, catalog store.ContentCatalog, limits Limits, logger *slog.Logger, metrics *Metrics) *GraphScorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &GraphScorer{
		graph:   graph,
		catalog: catalog,
		limits:  limits,
		logger:  logger,
		metrics: metrics,
	}
}

// Score produces user candidates for the viewer, scored by second-degree
// path count plus a flat bonus for authors the viewer has liked. The limit
// parameter is the requested result size; the second-degree fetch is capped
// at SecondDegreeFactor times it. Store errors on the second-degree path
// degrade to an empty result; a failure on the liked-authors read only drops
// the bonus signal.
func (s *GraphScorer) Score(ctx context.Context, viewerID string, limit int) []ScoredCandidate {
	following, err := s.graph.GetFollowing(ctx, viewerID)
	if err != nil {
		s.logger.Warn("scorer degraded to empty result",
			"strategy", ReasonGraph,
			"error", err)
		s.metrics.IncScorerFailures(string(ReasonGraph))
		return nil
	}

	followedSet := make(map[string]bool, len(following))
	for _, id := range following {
		followedSet[id] = true
	}

	tally := make(map[string]int)

	if len(following) > 0 {
		exclude := append(append([]string{}, following...), viewerID)
		secondDegree, err := s.graph.GetFollowersOfFollowing(ctx, following, exclude, s.limits.SecondDegreeFactor*limit)
		if err != nil {
			s.logger.Warn("scorer degraded to empty result",
				"strategy", ReasonGraph,
				"error", err)
			s.metrics.IncScorerFailures(string(ReasonGraph))
			return nil
		}
		for _, id := range secondDegree {
			tally[id]++
		}
	}

	authors, err := s.catalog.GetAuthorsOfLiked(ctx, viewerID, s.limits.LikedAuthors)
	if err != nil {
		// Bonus signal only; the second-degree tally still stands
		s.logger.Warn("liked-author bonus unavailable",
			"strategy", ReasonGraph,
			"error", err)
		s.metrics.IncScorerFailures(string(ReasonGraph))
	} else {
		seen := make(map[string]bool, len(authors))
		for _, author := range authors {
			if author == viewerID || followedSet[author] || seen[author] {
				continue
			}
			seen[author] = true
			tally[author] += likedAuthorBonus
		}
	}

	candidates := make([]ScoredCandidate, 0, len(tally))
	for id, count := range tally {
		candidates = append(candidates, ScoredCandidate{
			ContentID: id,
			Score:     float64(count),
			Reason:    ReasonGraph,
		})
	}
	sortCandidates(candidates)

	s.metrics.AddScorerCandidates(string(ReasonGraph), len(candidates))
	return candidates
}
