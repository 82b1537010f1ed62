package recommend

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/loopcrew/loopfeed/internal/store"
)

// Limits bounds the store reads each strategy performs, capping the cost of
// a single ranking call.
type Limits struct {
	// RecentLikes caps the viewer's own like history used for similarity
	// and profile building.
	RecentLikes int
	// SimilarUsers caps the number of behaviorally similar users fetched.
	SimilarUsers int
	// CandidateWindow caps the candidate items considered per strategy.
	CandidateWindow int
	// PopularityWindow caps the recent-catalog window for popularity.
	PopularityWindow int
	// LikedAuthors caps the liked items resolved to authors for the graph
	// bonus signal.
	LikedAuthors int
	// SecondDegreeFactor multiplies the requested limit to cap the
	// second-degree follow fetch.
	SecondDegreeFactor int
	// ExclusionWindow caps the viewer's like history fetched for the
	// combiner's central already-seen filter.
	ExclusionWindow int
}

// DefaultLimits returns the default read bounds.
func DefaultLimits() Limits {
	return Limits{
		RecentLikes:        20,
		SimilarUsers:       50,
		CandidateWindow:    100,
		PopularityWindow:   50,
		LikedAuthors:       50,
		SecondDegreeFactor: 3,
		ExclusionWindow:    100,
	}
}

// Default result sizes applied by callers that do not specify a limit.
const (
	DefaultContentLimit = 20
	DefaultUserLimit    = 10
)

// DefaultQueryTimeout bounds each fan-out store query so one slow store
// cannot block the whole ranking call.
const DefaultQueryTimeout = 2 * time.Second

// ServiceConfig configures the ranking service. Zero values fall back to
// defaults.
type ServiceConfig struct {
	// Weights holds every tunable scoring constant.
	Weights *Weights
	// Limits bounds per-strategy store reads.
	Limits Limits
	// Rand supplies the exploration bias; tests pin it for determinism.
	Rand RandFunc
	// Logger for degradation events.
	Logger *slog.Logger
	// Metrics for engine observability; nil disables recording.
	Metrics *Metrics
	// QueryTimeout bounds each concurrent store query.
	QueryTimeout time.Duration
}

// Service is the public entry point of the recommendation engine. It
// orchestrates the per-strategy scorers per content surface and returns
// truncated, ordered identifier lists.
//
// The service is stateless and safe for concurrent use: every intermediate
// map and candidate list is local to one call.
type Service struct {
	interactions store.InteractionStore

	collaborative *CollaborativeScorer
	contentBased  *ContentBasedScorer
	popularity    *PopularityScorer
	graph         *GraphScorer
	combiner      *Combiner

	limits       Limits
	logger       *slog.Logger
	metrics      *Metrics
	queryTimeout time.Duration
}

// NewService creates a ranking service over the given read-only stores.
func NewService(interactions store.InteractionStore, catalog store.ContentCatalog, graph store.SocialGraph, cfg ServiceConfig) *Service {
	if cfg.Weights == nil {
		cfg.Weights = DefaultWeights()
	}
	if cfg.Limits == (Limits{}) {
		cfg.Limits = DefaultLimits()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.QueryTimeout == 0 {
		cfg.QueryTimeout = DefaultQueryTimeout
	}

	return &Service{
		interactions:  interactions,
		collaborative: NewCollaborativeScorer(interactions, catalog, cfg.Limits, cfg.Logger, cfg.Metrics),
		contentBased:  NewContentBasedScorer(interactions, catalog, cfg.Limits, cfg.Logger, cfg.Metrics),
		popularity:    NewPopularityScorer(catalog, cfg.Weights, cfg.Limits, cfg.Logger, cfg.Metrics),
		graph:         NewGraphScorer(graph, catalog, cfg.Limits, cfg.Logger, cfg.Metrics),
		combiner:      NewCombiner(cfg.Weights, cfg.Rand),
		limits:        cfg.Limits,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		queryTimeout:  cfg.QueryTimeout,
	}
}

// RecommendPosts returns up to limit post IDs for the viewer, best first.
// An empty viewer ID or non-positive limit yields an empty list. Individual
// scorer failures degrade silently; if every signal is empty the result is
// an empty list, which callers treat as a normal state.
func (s *Service) RecommendPosts(ctx context.Context, viewerID string, limit int) []string {
	return s.recommendContent(ctx, viewerID, store.KindPost, "posts", limit)
}

// RecommendVideos returns up to limit video IDs for the viewer, best first.
// Identical shape to RecommendPosts; the popularity term weighs view counts
// instead of comment counts.
func (s *Service) RecommendVideos(ctx context.Context, viewerID string, limit int) []string {
	return s.recommendContent(ctx, viewerID, store.KindVideo, "videos", limit)
}

// recommendContent fans out the three content strategies concurrently, plus
// the exclusion read for the combiner's central already-seen filter, waits
// for all of them, then combines and truncates.
func (s *Service) recommendContent(ctx context.Context, viewerID string, kind store.ContentKind, surface string, limit int) []string {
	start := time.Now()

	if viewerID == "" || limit <= 0 {
		s.metrics.ObserveRanking(surface, time.Since(start).Seconds(), 0)
		return []string{}
	}

	var (
		collab   []ScoredCandidate
		content  []ScoredCandidate
		popular  []ScoredCandidate
		likedIDs []string
	)

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		qctx, cancel := s.queryContext(ctx)
		defer cancel()
		collab = s.collaborative.Score(qctx, viewerID, kind)
	}()
	go func() {
		defer wg.Done()
		qctx, cancel := s.queryContext(ctx)
		defer cancel()
		content = s.contentBased.Score(qctx, viewerID, kind)
	}()
	go func() {
		defer wg.Done()
		qctx, cancel := s.queryContext(ctx)
		defer cancel()
		popular = s.popularity.Score(qctx, kind)
	}()
	go func() {
		defer wg.Done()
		qctx, cancel := s.queryContext(ctx)
		defer cancel()
		var err error
		likedIDs, err = s.interactions.GetInteractions(qctx, viewerID, store.InteractionLike, s.limits.ExclusionWindow)
		if err != nil {
			// Per-scorer exclusion rules still apply; only the central
			// safety net is degraded.
			s.logger.Warn("central exclusion read failed",
				"surface", surface,
				"error", err)
		}
	}()
	wg.Wait()

	exclude := make(map[string]bool, len(likedIDs)+1)
	for _, id := range likedIDs {
		exclude[id] = true
	}
	exclude[viewerID] = true

	merged := s.combiner.Combine(exclude, collab, content, popular)
	ids := truncateIDs(merged, limit)

	s.metrics.ObserveRanking(surface, time.Since(start).Seconds(), len(ids))
	return ids
}

// RecommendUsers returns up to limit user IDs the viewer might want to
// follow, best first. Only the follow-graph signal contributes; the combiner
// still applies normalization, exploration bias, and the central viewer
// self-exclusion.
func (s *Service) RecommendUsers(ctx context.Context, viewerID string, limit int) []string {
	start := time.Now()

	if viewerID == "" || limit <= 0 {
		s.metrics.ObserveRanking("users", time.Since(start).Seconds(), 0)
		return []string{}
	}

	qctx, cancel := s.queryContext(ctx)
	defer cancel()
	candidates := s.graph.Score(qctx, viewerID, limit)

	exclude := map[string]bool{viewerID: true}
	merged := s.combiner.Combine(exclude, candidates)
	ids := truncateIDs(merged, limit)

	s.metrics.ObserveRanking("users", time.Since(start).Seconds(), len(ids))
	return ids
}

// TrendingContent returns up to limit IDs of the given kind ranked by the
// popularity signal alone. This is the anonymous/public variant: callers
// without a viewer route here instead of failing.
func (s *Service) TrendingContent(ctx context.Context, kind store.ContentKind, limit int) []string {
	surface := "trending_" + string(kind)
	start := time.Now()

	if limit <= 0 {
		s.metrics.ObserveRanking(surface, time.Since(start).Seconds(), 0)
		return []string{}
	}

	qctx, cancel := s.queryContext(ctx)
	defer cancel()
	popular := s.popularity.Score(qctx, kind)

	merged := s.combiner.Combine(nil, popular)
	ids := truncateIDs(merged, limit)

	s.metrics.ObserveRanking(surface, time.Since(start).Seconds(), len(ids))
	return ids
}

// queryContext derives a per-query context so a slow store cannot block the
// whole ranking call.
func (s *Service) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// truncateIDs extracts at most limit content IDs from a ranked candidate list.
func truncateIDs(candidates []ScoredCandidate, limit int) []string {
	ids := make([]string, 0, limit)
	for _, c := range candidates {
		if len(ids) >= limit {
			break
		}
		ids = append(ids, c.ContentID)
	}
	return ids
}
