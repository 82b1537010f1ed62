package recommend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/loopcrew/loopfeed/internal/store"
)

// errStoreDown simulates an unavailable backing store.
var errStoreDown = errors.New("store unavailable")

// testLogger returns a logger that discards output to keep test runs quiet.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// zeroRand pins the exploration bias to zero for deterministic rankings.
func zeroRand() float64 { return 0 }

// failingInteractionStore returns errStoreDown from every read.
type failingInteractionStore struct{}

func (failingInteractionStore) GetInteractions(context.Context, string, store.InteractionType, int) ([]string, error) {
	return nil, errStoreDown
}

func (failingInteractionStore) GetInteractorsOf(context.Context, []string, string, int) ([]string, error) {
	return nil, errStoreDown
}

func (failingInteractionStore) GetInteractionsByUsers(context.Context, []string, []string, int) ([]string, error) {
	return nil, errStoreDown
}

// failingCatalog returns errStoreDown from every read.
type failingCatalog struct{}

func (failingCatalog) GetRecent(context.Context, store.ContentKind, int) ([]store.ContentItem, error) {
	return nil, errStoreDown
}

func (failingCatalog) GetByIDs(context.Context, []string) ([]store.ContentItem, error) {
	return nil, errStoreDown
}

func (failingCatalog) GetAuthorsOfLiked(context.Context, string, int) ([]string, error) {
	return nil, errStoreDown
}

// failingGraph returns errStoreDown from every read.
type failingGraph struct{}

func (failingGraph) GetFollowing(context.Context, string) ([]string, error) {
	return nil, errStoreDown
}

func (failingGraph) GetFollowersOfFollowing(context.Context, []string, []string, int) ([]string, error) {
	return nil, errStoreDown
}

// seedScenario builds the reference fixture used across scorer tests:
// viewer V liked posts A and B; users X and Y each liked A and also liked C
// (not liked by V); item D was created 30 minutes ago with a high like count.
func seedScenario() (*store.InMemoryInteractionStore, *store.InMemoryCatalog) {
	interactions := store.NewInMemoryInteractionStore()
	catalog := store.NewInMemoryCatalog()

	now := time.Now()

	catalog.AddItem(store.ContentItem{ID: "A", AuthorID: "author-a", Kind: store.KindPost, Text: "synthwave mixtape for late drives", CreatedAt: now.Add(-48 * time.Hour)})
	catalog.AddItem(store.ContentItem{ID: "B", AuthorID: "author-b", Kind: store.KindPost, Text: "late night synthwave radio show", CreatedAt: now.Add(-36 * time.Hour)})
	catalog.AddItem(store.ContentItem{ID: "C", AuthorID: "author-c", Kind: store.KindPost, Text: "another synthwave gem worth hearing", CreatedAt: now.Add(-12 * time.Hour)})
	catalog.AddItem(store.ContentItem{ID: "D", AuthorID: "author-d", Kind: store.KindPost, Text: "breaking: something else entirely", CreatedAt: now.Add(-30 * time.Minute), LikesCount: 500})

	for i, id := range []string{"A", "B"} {
		at := now.Add(-time.Duration(i+1) * time.Hour)
		interactions.AddInteraction(store.Interaction{UserID: "V", ContentID: id, Type: store.InteractionLike, CreatedAt: at})
		catalog.AddLike("V", id, at)
	}
	for _, user := range []string{"X", "Y"} {
		interactions.AddInteraction(store.Interaction{UserID: user, ContentID: "A", Type: store.InteractionLike, CreatedAt: now.Add(-2 * time.Hour)})
		interactions.AddInteraction(store.Interaction{UserID: user, ContentID: "C", Type: store.InteractionLike, CreatedAt: now.Add(-time.Hour)})
	}

	return interactions, catalog
}
