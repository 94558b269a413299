package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"brandpulse/internal/domain/post"
	"brandpulse/internal/service/detect"
)

// PostStore implements post storage on PostgreSQL. It backs both the
// detector's and the trend services' post queries.
type PostStore struct {
	db *pgxpool.Pool
}

// NewPostStore creates a new post store.
func NewPostStore(db *pgxpool.Pool) *PostStore {
	return &PostStore{db: db}
}

const postColumns = `
	id, account_set_id, platform, account_handle, is_own, caption, media_type,
	likes, comments, saves, shares, views, follower_count, collected_at,
	hook_type, content_pattern, emotional_trigger, hashtags, audio_id,
	is_outlier, outlier_score, content_tags, archived
`

// SavePost inserts or updates a post by id. Detection-derived fields
// (outlier flag, score, tags) are owned by the detector and left untouched
// on conflict.
func (s *PostStore) SavePost(ctx context.Context, p post.Post) error {
	query := `
		INSERT INTO posts (
			id, account_set_id, platform, account_handle, is_own, caption, media_type,
			likes, comments, saves, shares, views, follower_count, collected_at,
			hook_type, content_pattern, emotional_trigger, hashtags, audio_id,
			is_outlier, outlier_score, content_tags, archived
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19,
			false, 0, '{}', $20
		)
		ON CONFLICT (id) DO UPDATE
		SET
			platform = $3,
			account_handle = $4,
			is_own = $5,
			caption = $6,
			media_type = $7,
			likes = $8,
			comments = $9,
			saves = $10,
			shares = $11,
			views = $12,
			follower_count = $13,
			collected_at = $14,
			hook_type = $15,
			content_pattern = $16,
			emotional_trigger = $17,
			hashtags = $18,
			audio_id = $19,
			archived = $20
	`

	if p.CollectedAt.IsZero() {
		p.CollectedAt = time.Now()
	}
	if p.Hashtags == nil {
		p.Hashtags = []string{}
	}

	_, err := s.db.Exec(
		ctx,
		query,
		p.ID,
		p.AccountSetID,
		p.Platform,
		p.AccountHandle,
		p.IsOwn,
		p.Caption,
		p.MediaType,
		p.Likes,
		p.Comments,
		p.Saves,
		p.Shares,
		p.Views,
		p.FollowerCount,
		p.CollectedAt,
		p.Annotations.HookType,
		p.Annotations.ContentPattern,
		p.Annotations.EmotionalTrigger,
		p.Hashtags,
		p.AudioID,
		p.Archived,
	)
	if err != nil {
		return fmt.Errorf("error saving post: %w", err)
	}
	return nil
}

// CompetitorPosts returns non-own, non-archived posts collected at or after
// since.
func (s *PostStore) CompetitorPosts(ctx context.Context, accountSetID string, since time.Time) ([]post.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE account_set_id = $1
		AND is_own = false
		AND archived = false
		AND collected_at >= $2
		ORDER BY collected_at
	`
	return s.queryPosts(ctx, query, accountSetID, since)
}

// OwnPosts returns the account set's non-archived own-channel posts.
func (s *PostStore) OwnPosts(ctx context.Context, accountSetID string) ([]post.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE account_set_id = $1
		AND is_own = true
		AND archived = false
		ORDER BY collected_at
	`
	return s.queryPosts(ctx, query, accountSetID)
}

// ActivePosts returns every non-archived post of the account set.
func (s *PostStore) ActivePosts(ctx context.Context, accountSetID string) ([]post.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE account_set_id = $1
		AND archived = false
		ORDER BY collected_at
	`
	return s.queryPosts(ctx, query, accountSetID)
}

// FlaggedOutliers returns the currently flagged posts sorted by outlier
// score descending.
func (s *PostStore) FlaggedOutliers(ctx context.Context, accountSetID string) ([]post.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE account_set_id = $1
		AND is_outlier = true
		AND archived = false
		ORDER BY outlier_score DESC
	`
	return s.queryPosts(ctx, query, accountSetID)
}

// ResetOutlierFlags clears every outlier flag, score and tag set for the
// account set. Combined with ApplyOutlierFlags this makes each detection run
// a full idempotent recompute.
func (s *PostStore) ResetOutlierFlags(ctx context.Context, accountSetID string) error {
	_, err := s.db.Exec(
		ctx,
		`UPDATE posts SET is_outlier = false, outlier_score = 0, content_tags = '{}' WHERE account_set_id = $1`,
		accountSetID,
	)
	if err != nil {
		return fmt.Errorf("error resetting outlier flags: %w", err)
	}
	return nil
}

// ApplyOutlierFlags marks the given posts as outliers.
func (s *PostStore) ApplyOutlierFlags(ctx context.Context, flags []detect.OutlierFlag) error {
	if len(flags) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, f := range flags {
		tags := f.Tags
		if tags == nil {
			tags = []string{}
		}
		batch.Queue(
			`UPDATE posts SET is_outlier = true, outlier_score = $2, content_tags = $3 WHERE id = $1`,
			f.PostID, f.Score, tags,
		)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for range flags {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("error applying outlier flag: %w", err)
		}
	}
	return nil
}

// ArchiveAccount soft-deletes every post of the account so it can be
// restored instantly. Returns the number of posts archived.
func (s *PostStore) ArchiveAccount(ctx context.Context, accountSetID, accountHandle string) (int64, error) {
	tag, err := s.db.Exec(
		ctx,
		`UPDATE posts SET archived = true WHERE account_set_id = $1 AND account_handle = $2`,
		accountSetID, accountHandle,
	)
	if err != nil {
		return 0, fmt.Errorf("error archiving account posts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RestoreAccount reverses ArchiveAccount.
func (s *PostStore) RestoreAccount(ctx context.Context, accountSetID, accountHandle string) (int64, error) {
	tag, err := s.db.Exec(
		ctx,
		`UPDATE posts SET archived = false WHERE account_set_id = $1 AND account_handle = $2`,
		accountSetID, accountHandle,
	)
	if err != nil {
		return 0, fmt.Errorf("error restoring account posts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// queryPosts runs a post query and maps the rows.
func (s *PostStore) queryPosts(ctx context.Context, query string, args ...interface{}) ([]post.Post, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var posts []post.Post
	for rows.Next() {
		var p post.Post
		err := rows.Scan(
			&p.ID,
			&p.AccountSetID,
			&p.Platform,
			&p.AccountHandle,
			&p.IsOwn,
			&p.Caption,
			&p.MediaType,
			&p.Likes,
			&p.Comments,
			&p.Saves,
			&p.Shares,
			&p.Views,
			&p.FollowerCount,
			&p.CollectedAt,
			&p.Annotations.HookType,
			&p.Annotations.ContentPattern,
			&p.Annotations.EmotionalTrigger,
			&p.Hashtags,
			&p.AudioID,
			&p.IsOutlier,
			&p.OutlierScore,
			&p.ContentTags,
			&p.Archived,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning post: %w", err)
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return posts, nil
}
