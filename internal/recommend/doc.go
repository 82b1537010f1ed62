// Package recommend implements the recommendation engine for the feed:
// per-strategy candidate scoring, weighted score combination with a bounded
// exploration bias, and the ranking service that orchestrates it all.
//
// Basic Usage:
//
//	// Load calibration (typically at startup)
//	weights, err := recommend.LoadCalibration("configs/recommend.calibration.json")
//	if err != nil {
//		slog.Warn("using default weights", "error", err)
//	}
//
//	svc := recommend.NewService(interactions, catalog, graph, recommend.ServiceConfig{
//		Weights: weights,
//	})
//
//	ids := svc.RecommendPosts(ctx, viewerID, 20)
//
// The engine is stateless: every call recomputes candidates from the
// configured stores and holds no cross-call memory. Each scorer degrades to
// an empty candidate set when its store is unavailable or the viewer has no
// qualifying history; no error ever escapes the ranking service.
//
// Calibration:
//
// Strategy weights, the popularity formula constants, the freshness decay
// buckets, and the exploration bias bound are all tunable via a JSON
// calibration file loaded at startup. Partial files merge over defaults.
package recommend
