package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryInteractionStore is an in-memory implementation of InteractionStore.
// Thread-safe via RWMutex. Used for development and as a test fixture.
type InMemoryInteractionStore struct {
	mu     sync.RWMutex
	events []Interaction // append order preserved; newest last
}

// NewInMemoryInteractionStore creates a new in-memory interaction store.
func NewInMemoryInteractionStore() *InMemoryInteractionStore {
	return &InMemoryInteractionStore{}
}

// AddInteraction records a behavioral event. If the event has a zero
// timestamp, the current time is used.
func (s *InMemoryInteractionStore) AddInteraction(i Interaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now()
	}
	s.events = append(s.events, i)
}

// GetInteractions returns the content IDs the user interacted with via the
// given type, most recent first, bounded by limit.
func (s *InMemoryInteractionStore) GetInteractions(ctx context.Context, userID string, itype InteractionType, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Interaction
	for _, e := range s.events {
		if e.UserID == userID && e.Type == itype {
			matched = append(matched, e)
		}
	}

	// Newest first, stable within equal timestamps
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	ids := make([]string, 0, len(matched))
	for _, e := range matched {
		if limit > 0 && len(ids) >= limit {
			break
		}
		ids = append(ids, e.ContentID)
	}
	return ids, nil
}

// GetInteractorsOf returns distinct users who interacted with any of the
// given content IDs, excluding excludeUserID, bounded by limit.
func (s *InMemoryInteractionStore) GetInteractorsOf(ctx context.Context, contentIDs []string, excludeUserID string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(contentIDs))
	for _, id := range contentIDs {
		wanted[id] = true
	}

	seen := make(map[string]bool)
	var users []string
	for _, e := range s.events {
		if !wanted[e.ContentID] || e.UserID == excludeUserID || seen[e.UserID] {
			continue
		}
		seen[e.UserID] = true
		users = append(users, e.UserID)
		if limit > 0 && len(users) >= limit {
			break
		}
	}
	return users, nil
}

// GetInteractionsByUsers returns one content ID per interaction made by any
// of the given users, excluding excludeContentIDs, bounded by limit.
func (s *InMemoryInteractionStore) GetInteractionsByUsers(ctx context.Context, userIDs []string, excludeContentIDs []string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	excluded := make(map[string]bool, len(excludeContentIDs))
	for _, id := range excludeContentIDs {
		excluded[id] = true
	}

	var ids []string
	for _, e := range s.events {
		if !wanted[e.UserID] || excluded[e.ContentID] {
			continue
		}
		ids = append(ids, e.ContentID)
		if limit > 0 && len(ids) >= limit {
			break
		}
	}
	return ids, nil
}

// InMemoryCatalog is an in-memory implementation of ContentCatalog.
// Thread-safe via RWMutex.
type InMemoryCatalog struct {
	mu    sync.RWMutex
	items map[string]*ContentItem
	likes []Interaction // like events, append order preserved
}

// NewInMemoryCatalog creates a new in-memory content catalog.
func NewInMemoryCatalog() *InMemoryCatalog {
	return &InMemoryCatalog{
		items: make(map[string]*ContentItem),
	}
}

// AddItem inserts or replaces a content item snapshot.
func (c *InMemoryCatalog) AddItem(item ContentItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	itemCopy := item
	c.items[item.ID] = &itemCopy
}

// AddLike records a like event so GetAuthorsOfLiked can resolve authors.
// Ingestion normally mirrors these from the interaction stream.
func (c *InMemoryCatalog) AddLike(userID, contentID string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if at.IsZero() {
		at = time.Now()
	}
	c.likes = append(c.likes, Interaction{
		UserID:    userID,
		ContentID: contentID,
		Type:      InteractionLike,
		CreatedAt: at,
	})
}

// GetRecent returns the newest items of the given kind, ordered by creation
// time descending, bounded by limit.
func (c *InMemoryCatalog) GetRecent(ctx context.Context, kind ContentKind, limit int) ([]ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var matched []ContentItem
	for _, item := range c.items {
		if item.Kind != kind {
			continue
		}
		matched = append(matched, *item)
	}

	// Newest first, ID ascending as tie-breaker for stable ordering
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.After(matched[j].CreatedAt) {
			return true
		}
		if matched[i].CreatedAt.Before(matched[j].CreatedAt) {
			return false
		}
		return matched[i].ID < matched[j].ID
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// GetByIDs returns snapshots for the given content IDs, skipping unknown IDs.
func (c *InMemoryCatalog) GetByIDs(ctx context.Context, ids []string) ([]ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	items := make([]ContentItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := c.items[id]; ok {
			items = append(items, *item)
		}
	}
	return items, nil
}

// GetAuthorsOfLiked returns the author IDs of content the user has liked,
// most recent like first, bounded by limit liked items.
func (c *InMemoryCatalog) GetAuthorsOfLiked(ctx context.Context, userID string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var liked []Interaction
	for _, e := range c.likes {
		if e.UserID == userID {
			liked = append(liked, e)
		}
	}
	sort.SliceStable(liked, func(i, j int) bool {
		return liked[i].CreatedAt.After(liked[j].CreatedAt)
	})

	var authors []string
	for _, e := range liked {
		if limit > 0 && len(authors) >= limit {
			break
		}
		item, ok := c.items[e.ContentID]
		if !ok {
			continue
		}
		authors = append(authors, item.AuthorID)
	}
	return authors, nil
}

// InMemoryGraph is an in-memory implementation of SocialGraph.
// Thread-safe via RWMutex.
type InMemoryGraph struct {
	mu        sync.RWMutex
	following map[string][]string // followerID -> followeeIDs, insertion order
}

// NewInMemoryGraph creates a new in-memory social graph.
func NewInMemoryGraph() *InMemoryGraph {
	return &InMemoryGraph{
		following: make(map[string][]string),
	}
}

// AddFollow records a directed follow edge. Duplicate edges are ignored.
func (g *InMemoryGraph) AddFollow(followerID, followeeID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, id := range g.following[followerID] {
		if id == followeeID {
			return
		}
	}
	g.following[followerID] = append(g.following[followerID], followeeID)
}

// GetFollowing returns the IDs of every account the user follows.
func (g *InMemoryGraph) GetFollowing(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	followees := g.following[userID]
	// Return a copy to avoid external modification
	result := make([]string, len(followees))
	copy(result, followees)
	return result, nil
}

// GetFollowersOfFollowing returns one entry per second-degree path from the
// given followees, excluding any ID in excludeIDs, bounded by limit.
func (g *InMemoryGraph) GetFollowersOfFollowing(ctx context.Context, followeeIDs []string, excludeIDs []string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	var candidates []string
	for _, followee := range followeeIDs {
		for _, second := range g.following[followee] {
			if excluded[second] {
				continue
			}
			candidates = append(candidates, second)
			if limit > 0 && len(candidates) >= limit {
				return candidates, nil
			}
		}
	}
	return candidates, nil
}
