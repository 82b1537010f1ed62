// Package store defines the read-only data contracts the recommendation
// engine consumes: behavioral interactions, content metadata, and follow
// edges. The engine never writes through these interfaces; ingestion and
// persistence belong to other subsystems.
package store

import (
	"context"
	"time"
)

// InteractionType identifies the kind of behavioral event a user performed
// on a piece of content.
type InteractionType string

// Supported interaction types.
const (
	InteractionLike    InteractionType = "like"
	InteractionComment InteractionType = "comment"
	InteractionShare   InteractionType = "share"
	InteractionSave    InteractionType = "save"
	InteractionView    InteractionType = "view"
)

// ContentKind distinguishes the two ranked content surfaces.
type ContentKind string

// Supported content kinds.
const (
	KindPost  ContentKind = "post"
	KindVideo ContentKind = "video"
)

// Interaction is a single behavioral event, read-only to the engine.
type Interaction struct {
	UserID    string          `json:"user_id"`
	ContentID string          `json:"content_id"`
	Type      InteractionType `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
}

// ContentItem is a read-only snapshot of content metadata at query time.
// Aggregate counts are maintained by the ingestion subsystem; the engine
// never mutates them.
type ContentItem struct {
	ID            string      `json:"id"`
	AuthorID      string      `json:"author_id"`
	Kind          ContentKind `json:"kind"`
	Text          string      `json:"text"`
	Tags          []string    `json:"tags,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	LikesCount    int         `json:"likes_count"`
	CommentsCount int         `json:"comments_count"`
	ViewsCount    int         `json:"views_count"`
}

// InteractionStore provides read access to behavioral events.
type InteractionStore interface {
	// GetInteractions returns the content IDs the user interacted with via
	// the given type, most recent first, bounded by limit.
	GetInteractions(ctx context.Context, userID string, itype InteractionType, limit int) ([]string, error)

	// GetInteractorsOf returns distinct users who interacted with any of the
	// given content IDs, excluding excludeUserID, bounded by limit.
	GetInteractorsOf(ctx context.Context, contentIDs []string, excludeUserID string, limit int) ([]string, error)

	// GetInteractionsByUsers returns the content IDs interacted with by any
	// of the given users, excluding excludeContentIDs, bounded by limit.
	// IDs are NOT deduplicated: one entry per interaction, so callers can
	// tally occurrence counts.
	GetInteractionsByUsers(ctx context.Context, userIDs []string, excludeContentIDs []string, limit int) ([]string, error)
}

// ContentCatalog provides read access to content metadata.
type ContentCatalog interface {
	// GetRecent returns the newest content items of the given kind,
	// ordered by creation time descending, bounded by limit.
	GetRecent(ctx context.Context, kind ContentKind, limit int) ([]ContentItem, error)

	// GetByIDs returns snapshots for the given content IDs. Unknown IDs are
	// silently skipped; ordering follows the input where possible.
	GetByIDs(ctx context.Context, ids []string) ([]ContentItem, error)

	// GetAuthorsOfLiked returns the author IDs of content the user has
	// liked, most recent like first, bounded by limit liked items. Authors
	// may repeat when the user liked several of their items; callers that
	// need distinct authors deduplicate.
	GetAuthorsOfLiked(ctx context.Context, userID string, limit int) ([]string, error)
}

// SocialGraph provides read access to directed follow edges.
type SocialGraph interface {
	// GetFollowing returns the IDs of every account the user follows.
	GetFollowing(ctx context.Context, userID string) ([]string, error)

	// GetFollowersOfFollowing returns the accounts followed by the given
	// followees (second-degree candidates), excluding any ID in excludeIDs,
	// bounded by limit. The name is kept from the consumed contract even
	// though the edges traversed are followee -> followee-of-followee.
	// Results are NOT deduplicated: one entry per second-degree path, so
	// callers can tally path counts.
	GetFollowersOfFollowing(ctx context.Context, followeeIDs []string, excludeIDs []string, limit int) ([]string, error)
}
