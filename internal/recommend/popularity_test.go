package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/loopcrew/loopfeed/internal/store"
)

// TestPopularityScorer_Score verifies engagement and freshness combine into
// the expected ordering across recent items.
func TestPopularityScorer_Score(t *testing.T) {
	catalog := store.NewInMemoryCatalog()
	now := time.Now()

	// viral: huge engagement, a few days old
	catalog.AddItem(store.ContentItem{ID: "viral", Kind: store.KindPost, LikesCount: 400, CommentsCount: 100, CreatedAt: now.Add(-80 * time.Hour)})
	// fresh: brand new, modest engagement
	catalog.AddItem(store.ContentItem{ID: "fresh", Kind: store.KindPost, LikesCount: 5, CommentsCount: 1, CreatedAt: now.Add(-10 * time.Minute)})
	// stale: old and quiet
	catalog.AddItem(store.ContentItem{ID: "stale", Kind: store.KindPost, LikesCount: 2, CreatedAt: now.Add(-400 * time.Hour)})

	scorer := NewPopularityScorer(catalog, DefaultWeights(), DefaultLimits(), testLogger(), nil)
	got := scorer.Score(context.Background(), store.KindPost)

	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	// viral: 600*0.7 + 0.3*100*0.3 = 429; fresh: 7*0.7 + 1.0*100*0.3 = 34.9;
	// stale: 2*0.7 + 0.1*100*0.3 = 4.4
	want := []string{"viral", "fresh", "stale"}
	for i, id := range want {
		if got[i].ContentID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got[i].ContentID)
		}
	}
	for _, c := range got {
		if c.Reason != ReasonPopularity {
			t.Errorf("expected reason %s, got %s", ReasonPopularity, c.Reason)
		}
	}
}

// TestPopularityScorer_VideoUsesViews verifies the video surface weighs view
// counts where posts weigh comment counts.
func TestPopularityScorer_VideoUsesViews(t *testing.T) {
	catalog := store.NewInMemoryCatalog()
	now := time.Now()

	// Same likes; "watched" wins on views, "discussed" would win on comments
	catalog.AddItem(store.ContentItem{ID: "watched", Kind: store.KindVideo, LikesCount: 10, ViewsCount: 100, CreatedAt: now})
	catalog.AddItem(store.ContentItem{ID: "discussed", Kind: store.KindVideo, LikesCount: 10, CommentsCount: 100, ViewsCount: 1, CreatedAt: now})

	scorer := NewPopularityScorer(catalog, DefaultWeights(), DefaultLimits(), testLogger(), nil)
	got := scorer.Score(context.Background(), store.KindVideo)

	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].ContentID != "watched" {
		t.Errorf("expected views to drive video ranking, got %s first", got[0].ContentID)
	}
}

// TestPopularityScorer_KindFilter verifies posts never leak into the video
// surface and vice versa.
func TestPopularityScorer_KindFilter(t *testing.T) {
	catalog := store.NewInMemoryCatalog()
	catalog.AddItem(store.ContentItem{ID: "p", Kind: store.KindPost, LikesCount: 1})
	catalog.AddItem(store.ContentItem{ID: "v", Kind: store.KindVideo, LikesCount: 1})

	scorer := NewPopularityScorer(catalog, DefaultWeights(), DefaultLimits(), testLogger(), nil)

	posts := scorer.Score(context.Background(), store.KindPost)
	if len(posts) != 1 || posts[0].ContentID != "p" {
		t.Errorf("expected only post p, got %v", posts)
	}
	videos := scorer.Score(context.Background(), store.KindVideo)
	if len(videos) != 1 || videos[0].ContentID != "v" {
		t.Errorf("expected only video v, got %v", videos)
	}
}

// TestPopularityScorer_CatalogFailure verifies degradation to empty on a
// catalog error.
func TestPopularityScorer_CatalogFailure(t *testing.T) {
	scorer := NewPopularityScorer(failingCatalog{}, DefaultWeights(), DefaultLimits(), testLogger(), nil)

	if got := scorer.Score(context.Background(), store.KindPost); got != nil {
		t.Errorf("expected nil result on catalog failure, got %v", got)
	}
}
