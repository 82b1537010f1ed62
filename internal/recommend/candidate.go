package recommend

// Reason identifies the strategy that produced a candidate's score.
type Reason string

// Candidate provenance values.
const (
	ReasonCollaborative Reason = "collaborative"
	ReasonContentBased  Reason = "content_based"
	ReasonPopularity    Reason = "popularity"
	ReasonGraph         Reason = "graph"
	ReasonHybrid        Reason = "hybrid"
)

// ScoredCandidate is an ephemeral (content ID, score, reason) triple. It
// exists only for the duration of one ranking call and is never persisted.
// Scores from any single scorer are non-negative; the combined score after
// exploration bias is not bounded above.
type ScoredCandidate struct {
	ContentID string
	Score     float64
	Reason    Reason
}
