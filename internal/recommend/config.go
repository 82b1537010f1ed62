package recommend

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// StrategyWeights defines the fixed blend weights applied to each scoring
// strategy when the combiner merges candidate lists.
type StrategyWeights struct {
	Collaborative float64 `json:"collaborative"` // Weight for behavioral similarity (default: 0.4)
	ContentBased  float64 `json:"content_based"` // Weight for textual affinity (default: 0.4)
	Popularity    float64 `json:"popularity"`    // Weight for global popularity (default: 0.2)
	Graph         float64 `json:"graph"`         // Weight for follow-graph proximity, users only (default: 1.0)
}

// PopularityWeights defines the constants of the popularity formula:
//
//	engagement = likes*LikeFactor + comments*CommentFactor   (posts)
//	engagement = likes*LikeFactor + views*ViewFactor         (videos)
//	combined   = engagement*Engagement + freshness*FreshnessScale*Freshness
//
// FreshnessScale (default 100) lets freshness dominate while engagement
// counts are small, which is typical for new content. The balance is an open
// tuning parameter, deliberately exposed here rather than re-derived.
type PopularityWeights struct {
	Engagement     float64 `json:"engagement"`      // Share of engagement in the blend (default: 0.7)
	Freshness      float64 `json:"freshness"`       // Share of freshness in the blend (default: 0.3)
	FreshnessScale float64 `json:"freshness_scale"` // Scale factor applied to freshness (default: 100)
	LikeFactor     float64 `json:"like_factor"`     // Multiplier for likes (default: 1)
	CommentFactor  float64 `json:"comment_factor"`  // Multiplier for comments, posts only (default: 2)
	ViewFactor     float64 `json:"view_factor"`     // Multiplier for views, videos only (default: 2)
}

// FreshnessBucket is one step of the piecewise-constant freshness decay
// curve: content younger than MaxAgeHours scores Weight.
type FreshnessBucket struct {
	MaxAgeHours float64 `json:"max_age_hours"`
	Weight      float64 `json:"weight"`
}

// Weights holds every tunable constant of the engine. Pass an instance at
// construction time; never read these from module-level globals.
type Weights struct {
	Strategy   StrategyWeights   `json:"strategy"`
	Popularity PopularityWeights `json:"popularity"`

	// FreshnessBuckets must be ordered by ascending MaxAgeHours. Content
	// older than the last bucket scores FreshnessFloor.
	FreshnessBuckets []FreshnessBucket `json:"freshness_buckets"`
	FreshnessFloor   float64           `json:"freshness_floor"`

	// InteractionTypeWeights is the named per-type weight table
	// (like=3, comment=4, share=5, save=4, view=1). It is carried as a
	// tunable but is NOT uniformly applied: the collaborative scorer tallies
	// equal-weight occurrences, matching the historical behavior. Do not
	// silently apply it there without a calibration decision.
	InteractionTypeWeights map[string]float64 `json:"interaction_type_weights"`

	// ExplorationMax bounds the uniform random bias added to each
	// normalized score before the final sort (default: 0.3).
	ExplorationMax float64 `json:"exploration_max"`
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight configurations
}

// DefaultWeights returns the default engine weight configuration.
//
// Blend formula: combined = (collaborative * 0.4) + (content_based * 0.4) + (popularity * 0.2)
// - Behavioral and textual affinity carry equal weight for personalization
// - Popularity is the smaller, always-available fallback signal
// - Graph weight (users surface) is 1.0 since it is the only signal there
//
// Freshness decay: 1.0 under 1h, 0.9 under 6h, 0.7 under 24h, 0.5 under 72h,
// 0.3 under 168h, floor 0.1 beyond. Monotonically non-increasing.
func DefaultWeights() *Weights {
	return &Weights{
		Strategy: StrategyWeights{
			Collaborative: 0.4,
			ContentBased:  0.4,
			Popularity:    0.2,
			Graph:         1.0,
		},
		Popularity: PopularityWeights{
			Engagement:     0.7,
			Freshness:      0.3,
			FreshnessScale: 100,
			LikeFactor:     1,
			CommentFactor:  2,
			ViewFactor:     2,
		},
		FreshnessBuckets: []FreshnessBucket{
			{MaxAgeHours: 1, Weight: 1.0},
			{MaxAgeHours: 6, Weight: 0.9},
			{MaxAgeHours: 24, Weight: 0.7},
			{MaxAgeHours: 72, Weight: 0.5},
			{MaxAgeHours: 168, Weight: 0.3},
		},
		FreshnessFloor: 0.1,
		InteractionTypeWeights: map[string]float64{
			"like":    3,
			"comment": 4,
			"share":   5,
			"save":    4,
			"view":    1,
		},
		ExplorationMax: 0.3,
	}
}

// LoadCalibration loads engine weights from a JSON calibration file.
// If the file doesn't exist or can't be read, returns default weights with an
// error. Partial configurations are merged with defaults for graceful
// degradation.
func LoadCalibration(filePath string) (*Weights, error) {
	// Return defaults if no file path provided
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	// Merge loaded weights with defaults to handle partial configurations
	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override weights with base weights. Only non-zero
// scalar values from the override are applied; slices and maps replace the
// base wholesale when non-empty. This allows partial overrides in the
// calibration file.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	// Guard against nil base to avoid panics; fall back to defaults.
	if base == nil {
		return DefaultWeights()
	}

	// If there is no override provided, return a copy of the base.
	if override == nil {
		result := *base
		return &result
	}

	result := *base // Copy base

	// Merge strategy weights
	if override.Strategy.Collaborative != 0 {
		result.Strategy.Collaborative = override.Strategy.Collaborative
	}
	if override.Strategy.ContentBased != 0 {
		result.Strategy.ContentBased = override.Strategy.ContentBased
	}
	if override.Strategy.Popularity != 0 {
		result.Strategy.Popularity = override.Strategy.Popularity
	}
	if override.Strategy.Graph != 0 {
		result.Strategy.Graph = override.Strategy.Graph
	}

	// Merge popularity formula constants
	if override.Popularity.Engagement != 0 {
		result.Popularity.Engagement = override.Popularity.Engagement
	}
	if override.Popularity.Freshness != 0 {
		result.Popularity.Freshness = override.Popularity.Freshness
	}
	if override.Popularity.FreshnessScale != 0 {
		result.Popularity.FreshnessScale = override.Popularity.FreshnessScale
	}
	if override.Popularity.LikeFactor != 0 {
		result.Popularity.LikeFactor = override.Popularity.LikeFactor
	}
	if override.Popularity.CommentFactor != 0 {
		result.Popularity.CommentFactor = override.Popularity.CommentFactor
	}
	if override.Popularity.ViewFactor != 0 {
		result.Popularity.ViewFactor = override.Popularity.ViewFactor
	}

	// Decay table and interaction weight table replace wholesale
	if len(override.FreshnessBuckets) > 0 {
		result.FreshnessBuckets = override.FreshnessBuckets
	}
	if override.FreshnessFloor != 0 {
		result.FreshnessFloor = override.FreshnessFloor
	}
	if len(override.InteractionTypeWeights) > 0 {
		result.InteractionTypeWeights = override.InteractionTypeWeights
	}

	if override.ExplorationMax != 0 {
		result.ExplorationMax = override.ExplorationMax
	}

	return &result
}

// logCalibrationOverrides logs which weights were overridden from defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	if loaded.Strategy.Collaborative != defaults.Strategy.Collaborative {
		overrides = append(overrides, fmt.Sprintf("strategy.collaborative: %.2f -> %.2f",
			defaults.Strategy.Collaborative, loaded.Strategy.Collaborative))
	}
	if loaded.Strategy.ContentBased != defaults.Strategy.ContentBased {
		overrides = append(overrides, fmt.Sprintf("strategy.content_based: %.2f -> %.2f",
			defaults.Strategy.ContentBased, loaded.Strategy.ContentBased))
	}
	if loaded.Strategy.Popularity != defaults.Strategy.Popularity {
		overrides = append(overrides, fmt.Sprintf("strategy.popularity: %.2f -> %.2f",
			defaults.Strategy.Popularity, loaded.Strategy.Popularity))
	}
	if loaded.Strategy.Graph != defaults.Strategy.Graph {
		overrides = append(overrides, fmt.Sprintf("strategy.graph: %.2f -> %.2f",
			defaults.Strategy.Graph, loaded.Strategy.Graph))
	}
	if loaded.Popularity.FreshnessScale != defaults.Popularity.FreshnessScale {
		overrides = append(overrides, fmt.Sprintf("popularity.freshness_scale: %.0f -> %.0f",
			defaults.Popularity.FreshnessScale, loaded.Popularity.FreshnessScale))
	}
	if loaded.ExplorationMax != defaults.ExplorationMax {
		overrides = append(overrides, fmt.Sprintf("exploration_max: %.2f -> %.2f",
			defaults.ExplorationMax, loaded.ExplorationMax))
	}
	if len(loaded.FreshnessBuckets) != len(defaults.FreshnessBuckets) {
		overrides = append(overrides, fmt.Sprintf("freshness_buckets: %d -> %d entries",
			len(defaults.FreshnessBuckets), len(loaded.FreshnessBuckets)))
	}

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}
