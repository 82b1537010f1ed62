package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// PostgresInteractionStore implements InteractionStore over the interactions
// table maintained by the ingestion subsystem.
type PostgresInteractionStore struct {
	db *sql.DB
}

// NewPostgresInteractionStore creates a new PostgresInteractionStore.
func NewPostgresInteractionStore(db *sql.DB) *PostgresInteractionStore {
	return &PostgresInteractionStore{db: db}
}

// GetInteractions returns the content IDs the user interacted with via the
// given type, most recent first, bounded by limit.
func (s *PostgresInteractionStore) GetInteractions(ctx context.Context, userID string, itype InteractionType, limit int) ([]string, error) {
	query := `SELECT content_id FROM interactions
	          WHERE user_id = $1 AND type = $2
	          ORDER BY created_at DESC
	          LIMIT $3`
	rows, err := s.db.QueryContext(ctx, query, userID, string(itype), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// GetInteractorsOf returns distinct users who interacted with any of the
// given content IDs, excluding excludeUserID, bounded by limit.
func (s *PostgresInteractionStore) GetInteractorsOf(ctx context.Context, contentIDs []string, excludeUserID string, limit int) ([]string, error) {
	if len(contentIDs) == 0 {
		return nil, nil
	}

	query := `SELECT DISTINCT user_id FROM interactions
	          WHERE content_id = ANY($1) AND user_id <> $2
	          LIMIT $3`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(contentIDs), excludeUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactors: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// GetInteractionsByUsers returns one content ID per interaction made by any
// of the given users, excluding excludeContentIDs, bounded by limit.
func (s *PostgresInteractionStore) GetInteractionsByUsers(ctx context.Context, userIDs []string, excludeContentIDs []string, limit int) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query := `SELECT content_id FROM interactions
	          WHERE user_id = ANY($1) AND NOT (content_id = ANY($2))
	          ORDER BY created_at DESC
	          LIMIT $3`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(userIDs), pq.Array(excludeContentIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions by users: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// PostgresCatalog implements ContentCatalog over the content table.
type PostgresCatalog struct {
	db *sql.DB
}

// NewPostgresCatalog creates a new PostgresCatalog.
func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

// GetRecent returns the newest content items of the given kind, ordered by
// creation time descending, bounded by limit.
func (c *PostgresCatalog) GetRecent(ctx context.Context, kind ContentKind, limit int) ([]ContentItem, error) {
	query := `SELECT id, author_id, kind, text, tags, created_at, likes_count, comments_count, views_count
	          FROM content
	          WHERE kind = $1
	          ORDER BY created_at DESC, id ASC
	          LIMIT $2`
	rows, err := c.db.QueryContext(ctx, query, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent content: %w", err)
	}
	defer rows.Close()

	return scanContentItems(rows)
}

// GetByIDs returns snapshots for the given content IDs, skipping unknown IDs.
func (c *PostgresCatalog) GetByIDs(ctx context.Context, ids []string) ([]ContentItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id, author_id, kind, text, tags, created_at, likes_count, comments_count, views_count
	          FROM content
	          WHERE id = ANY($1)`
	rows, err := c.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query content by ids: %w", err)
	}
	defer rows.Close()

	return scanContentItems(rows)
}

// GetAuthorsOfLiked returns the author IDs of content the user has liked,
// most recent like first, bounded by limit liked items.
func (c *PostgresCatalog) GetAuthorsOfLiked(ctx context.Context, userID string, limit int) ([]string, error) {
	query := `SELECT co.author_id
	          FROM interactions i
	          JOIN content co ON co.id = i.content_id
	          WHERE i.user_id = $1 AND i.type = 'like'
	          ORDER BY i.created_at DESC
	          LIMIT $2`
	rows, err := c.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query authors of liked content: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// PostgresGraph implements SocialGraph over the follows table.
type PostgresGraph struct {
	db *sql.DB
}

// NewPostgresGraph creates a new PostgresGraph.
func NewPostgresGraph(db *sql.DB) *PostgresGraph {
	return &PostgresGraph{db: db}
}

// GetFollowing returns the IDs of every account the user follows.
func (g *PostgresGraph) GetFollowing(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT followee_id FROM follows WHERE follower_id = $1`
	rows, err := g.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query following: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// GetFollowersOfFollowing returns one entry per second-degree path from the
// given followees, excluding any ID in excludeIDs, bounded by limit.
func (g *PostgresGraph) GetFollowersOfFollowing(ctx context.Context, followeeIDs []string, excludeIDs []string, limit int) ([]string, error) {
	if len(followeeIDs) == 0 {
		return nil, nil
	}

	query := `SELECT followee_id FROM follows
	          WHERE follower_id = ANY($1) AND NOT (followee_id = ANY($2))
	          LIMIT $3`
	rows, err := g.db.QueryContext(ctx, query, pq.Array(followeeIDs), pq.Array(excludeIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query second-degree follows: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// scanContentItems collects full content rows from the result set.
func scanContentItems(rows *sql.Rows) ([]ContentItem, error) {
	var items []ContentItem
	for rows.Next() {
		var item ContentItem
		var itemKind string
		if err := rows.Scan(&item.ID, &item.AuthorID, &itemKind, &item.Text, pq.Array(&item.Tags),
			&item.CreatedAt, &item.LikesCount, &item.CommentsCount, &item.ViewsCount); err != nil {
			return nil, fmt.Errorf("failed to scan content item: %w", err)
		}
		item.Kind = ContentKind(itemKind)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate content items: %w", err)
	}
	return items, nil
}

// scanIDs collects a single string column from the result set.
func scanIDs(rows *sql.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return ids, nil
}
