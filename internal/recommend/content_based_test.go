package recommend

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/loopcrew/loopfeed/internal/store"
)

// TestContentBasedScorer_Score builds the viewer profile from liked items A
// and B and checks the word-overlap fraction against candidate C.
func TestContentBasedScorer_Score(t *testing.T) {
	interactions, catalog := seedScenario()
	scorer := NewContentBasedScorer(interactions, catalog, DefaultLimits(), testLogger(), nil)

	got := scorer.Score(context.Background(), "V", store.KindPost)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %v", len(got), got)
	}
	if got[0].ContentID != "C" {
		t.Errorf("expected candidate C, got %s", got[0].ContentID)
	}
	// Profile from A+B: synthwave, mixtape, late, drives, night, radio, show.
	// C matches only "synthwave" -> 1/7.
	if math.Abs(got[0].Score-1.0/7.0) > 0.001 {
		t.Errorf("expected score 1/7, got %f", got[0].Score)
	}
	if got[0].Reason != ReasonContentBased {
		t.Errorf("expected reason %s, got %s", ReasonContentBased, got[0].Reason)
	}
}

// TestContentBasedScorer_ZeroOverlapDropped verifies that candidates sharing
// no profile words are omitted entirely rather than scored zero.
func TestContentBasedScorer_ZeroOverlapDropped(t *testing.T) {
	interactions, catalog := seedScenario()
	scorer := NewContentBasedScorer(interactions, catalog, DefaultLimits(), testLogger(), nil)

	for _, c := range scorer.Score(context.Background(), "V", store.KindPost) {
		if c.ContentID == "D" {
			t.Error("item D shares no profile words and must not appear")
		}
	}
}

// TestContentBasedScorer_ShortWordsIgnored verifies the minimum word length:
// tokens shorter than four characters never enter the profile.
func TestContentBasedScorer_ShortWordsIgnored(t *testing.T) {
	interactions := store.NewInMemoryInteractionStore()
	catalog := store.NewInMemoryCatalog()

	catalog.AddItem(store.ContentItem{ID: "liked", Kind: store.KindPost, Text: "a an the of to it is"})
	catalog.AddItem(store.ContentItem{ID: "cand", Kind: store.KindPost, Text: "a an the of to it is"})
	interactions.AddInteraction(store.Interaction{UserID: "V", ContentID: "liked", Type: store.InteractionLike})

	scorer := NewContentBasedScorer(interactions, catalog, DefaultLimits(), testLogger(), nil)
	if got := scorer.Score(context.Background(), "V", store.KindPost); len(got) != 0 {
		t.Errorf("expected empty result with short-word-only profile, got %v", got)
	}
}

// TestContentBasedScorer_TagsContribute verifies tags join the profile
// alongside body text.
func TestContentBasedScorer_TagsContribute(t *testing.T) {
	interactions := store.NewInMemoryInteractionStore()
	catalog := store.NewInMemoryCatalog()

	now := time.Now()
	catalog.AddItem(store.ContentItem{ID: "liked", Kind: store.KindPost, Text: "ok", Tags: []string{"Gardening"}, CreatedAt: now.Add(-time.Hour)})
	catalog.AddItem(store.ContentItem{ID: "cand", Kind: store.KindPost, Text: "gardening tips", CreatedAt: now})
	interactions.AddInteraction(store.Interaction{UserID: "V", ContentID: "liked", Type: store.InteractionLike})

	scorer := NewContentBasedScorer(interactions, catalog, DefaultLimits(), testLogger(), nil)
	got := scorer.Score(context.Background(), "V", store.KindPost)
	if len(got) != 1 || got[0].ContentID != "cand" {
		t.Fatalf("expected tag-matched candidate, got %v", got)
	}
	// Profile is just {gardening}, candidate matches it -> 1/1
	if math.Abs(got[0].Score-1.0) > 0.001 {
		t.Errorf("expected score 1.0, got %f", got[0].Score)
	}
}

// TestContentBasedScorer_ColdStart verifies a viewer with no likes yields an
// empty result.
func TestContentBasedScorer_ColdStart(t *testing.T) {
	interactions, catalog := seedScenario()
	scorer := NewContentBasedScorer(interactions, catalog, DefaultLimits(), testLogger(), nil)

	if got := scorer.Score(context.Background(), "newcomer", store.KindPost); len(got) != 0 {
		t.Errorf("expected empty result for cold-start viewer, got %v", got)
	}
}

// TestContentBasedScorer_CatalogFailure verifies degradation to empty when the
// catalog read fails after the like history succeeded.
func TestContentBasedScorer_CatalogFailure(t *testing.T) {
	interactions, _ := seedScenario()
	scorer := NewContentBasedScorer(interactions, failingCatalog{}, DefaultLimits(), testLogger(), nil)

	if got := scorer.Score(context.Background(), "V", store.KindPost); got != nil {
		t.Errorf("expected nil result on catalog failure, got %v", got)
	}
}
