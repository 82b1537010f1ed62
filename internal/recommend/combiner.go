package recommend

import (
	"math/rand"
	"sort"
)

// RandFunc supplies uniform random values in [0, 1) for the exploration
// bias. Production uses math/rand; tests pin it to a constant (zero) to make
// rankings deterministic. This is the only place randomness enters the
// engine.
type RandFunc func() float64

// Combiner merges per-strategy candidate lists into a single ranking:
// weighted accumulation, central exclusion filtering, normalization,
// exploration bias, and a stable descending sort.
type Combiner struct {
	weights *Weights
	rand    RandFunc
}

// NewCombiner creates a combiner with the given weights and random source.
// A nil weights falls back to defaults; a nil random source falls back to
// math/rand.
func NewCombiner(weights *Weights, randFn RandFunc) *Combiner {
	if weights == nil {
		weights = DefaultWeights()
	}
	if randFn == nil {
		randFn = rand.Float64
	}
	return &Combiner{
		weights: weights,
		rand:    randFn,
	}
}

// strategyWeight maps a candidate's reason to its blend weight.
func (c *Combiner) strategyWeight(reason Reason) float64 {
	switch reason {
	case ReasonCollaborative:
		return c.weights.Strategy.Collaborative
	case ReasonContentBased:
		return c.weights.Strategy.ContentBased
	case ReasonPopularity:
		return c.weights.Strategy.Popularity
	case ReasonGraph:
		return c.weights.Strategy.Graph
	default:
		return 0
	}
}

// Combine merges the given candidate lists into one ranking, sorted by
// biased score descending. Candidates whose ID is in exclude are dropped
// after merging; this central post-filter is the safety net for the
// per-scorer exclusion rules. Ties keep the relative order in which
// candidates first appeared across the input lists (stable sort).
//
// The biased score is accumulated/max(accumulated scores, 1) plus a uniform
// draw in [0, ExplorationMax). With the random source pinned to zero the
// output is fully determined by the inputs.
func (c *Combiner) Combine(exclude map[string]bool, lists ...[]ScoredCandidate) []ScoredCandidate {
	accumulated := make(map[string]float64)
	reasons := make(map[string]Reason)
	var order []string // first-appearance order for stable tie-breaking

	for _, list := range lists {
		for _, cand := range list {
			if exclude[cand.ContentID] {
				continue
			}
			if _, seen := accumulated[cand.ContentID]; !seen {
				order = append(order, cand.ContentID)
				reasons[cand.ContentID] = cand.Reason
			} else if reasons[cand.ContentID] != cand.Reason {
				reasons[cand.ContentID] = ReasonHybrid
			}
			accumulated[cand.ContentID] += cand.Score * c.strategyWeight(cand.Reason)
		}
	}

	if len(order) == 0 {
		return nil
	}

	// Normalize against the best accumulated score, floored at 1 so sparse
	// signals are not inflated.
	maxScore := 1.0
	for _, score := range accumulated {
		if score > maxScore {
			maxScore = score
		}
	}

	merged := make([]ScoredCandidate, 0, len(order))
	for _, id := range order {
		merged = append(merged, ScoredCandidate{
			ContentID: id,
			Score:     accumulated[id]/maxScore + c.rand()*c.weights.ExplorationMax,
			Reason:    reasons[id],
		})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	return merged
}
