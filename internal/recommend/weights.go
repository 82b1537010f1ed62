package recommend

import (
	"time"

	"github.com/loopcrew/loopfeed/internal/store"
)

// FreshnessWeight computes the piecewise-constant freshness decay score for
// content of the given age. The bucket table must be ordered by ascending
// MaxAgeHours; ages past the last bucket score floor.
//
// With the default table the curve is monotonically non-increasing:
// <1h -> 1.0, <6h -> 0.9, <24h -> 0.7, <72h -> 0.5, <168h -> 0.3, else 0.1.
func FreshnessWeight(age time.Duration, buckets []FreshnessBucket, floor float64) float64 {
	hours := age.Hours()
	if hours < 0 {
		hours = 0 // Clamp future timestamps
	}

	for _, b := range buckets {
		if hours < b.MaxAgeHours {
			return b.Weight
		}
	}
	return floor
}

// EngagementScore computes the raw engagement volume of a content item.
// Posts weigh comments; videos weigh views instead. The result is
// non-negative for non-negative counts.
func EngagementScore(item store.ContentItem, w PopularityWeights) float64 {
	score := float64(item.LikesCount) * w.LikeFactor
	if item.Kind == store.KindVideo {
		score += float64(item.ViewsCount) * w.ViewFactor
	} else {
		score += float64(item.CommentsCount) * w.CommentFactor
	}
	return score
}

// PopularityScore blends engagement volume with freshness decay:
//
//	combined = engagement*w.Engagement + freshness*w.FreshnessScale*w.Freshness
//
// The FreshnessScale factor means freshness dominates when engagement counts
// are small and engagement dominates once counts grow large.
func PopularityScore(engagement, freshness float64, w PopularityWeights) float64 {
	return engagement*w.Engagement + freshness*w.FreshnessScale*w.Freshness
}
